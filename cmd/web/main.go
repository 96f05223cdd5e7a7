// @title           sosmed API
// @version         1.0
// @description     REST API социальной сети: посты с изображениями, комментарии, лайки, профили.
// @contact.name    sosmed backend
// @license.name    MIT
// @license.url     https://opensource.org/licenses/MIT
// @host            localhost:8000
// @BasePath        /v1
// @securityDefinitions.apikey BearerAuth
// @in              header
// @name            Authorization

package main

import (
	_ "sosmed_backend/docs"
	"sosmed_backend/internal/app"
)

func main() {
	app.Run()
}

package models

type UserRole string
type MediaType string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"

	MediaTypeImage MediaType = "image"
)

func (r UserRole) IsValid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

package app_test

import (
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"sosmed_backend/internal/events"
	"sosmed_backend/internal/testutil"
	"sosmed_backend/ws"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userJSON struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	Bio       *string `json:"bio"`
	AvatarURL *string `json:"avatar_url"`
	Role      string  `json:"role"`

	PostsCount    int64 `json:"posts_count"`
	LikesCount    int64 `json:"likes_count"`
	CommentsCount int64 `json:"comments_count"`
}

type mediaJSON struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	MimeType     string `json:"mime_type"`
	OrderIndex   int    `json:"order_index"`
}

type commentJSON struct {
	ID       string        `json:"id"`
	ParentID *string       `json:"parent_id"`
	Body     string        `json:"body"`
	Replies  []commentJSON `json:"replies"`
}

type postJSON struct {
	ID            string        `json:"id"`
	Caption       *string       `json:"caption"`
	User          userJSON      `json:"user"`
	Media         []mediaJSON   `json:"media"`
	LikesCount    int64         `json:"likes_count"`
	CommentsCount int64         `json:"comments_count"`
	IsLiked       bool          `json:"is_liked"`
	Comments      []commentJSON `json:"comments"`
}

type pageJSON[T any] struct {
	CurrentPage int   `json:"current_page"`
	Data        []T   `json:"data"`
	PerPage     int   `json:"per_page"`
	Total       int64 `json:"total"`
	LastPage    int   `json:"last_page"`
}

func TestAPI_RegisterLoginMe(t *testing.T) {
	ts := NewTestServer(t)

	res := ts.SendRequest(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"name":                  "Jane Doe",
		"email":                 "Jane@Example.com",
		"username":              "jane_doe",
		"password":              "secret123",
		"password_confirmation": "secret123",
	})
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))

	var registered struct {
		User      userJSON `json:"user"`
		Token     string   `json:"token"`
		TokenType string   `json:"token_type"`
	}
	env := res.Decode(t, &registered)
	assert.Equal(t, "Registration successful", env.Message)
	assert.Equal(t, "jane@example.com", registered.User.Email)
	assert.Equal(t, "user", registered.User.Role)
	assert.Equal(t, "bearer", registered.TokenType)

	res = ts.SendRequest(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Login successful", res.Envelope(t).Message)

	res = ts.SendRequest(t, http.MethodGet, "/v1/auth/me", registered.Token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var me struct {
		User userJSON `json:"user"`
	}
	res.Decode(t, &me)
	assert.Equal(t, "jane_doe", me.User.Username)
	assert.Equal(t, registered.User.ID, me.User.ID)

	res = ts.SendRequest(t, http.MethodGet, "/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	env = res.Envelope(t)
	assert.False(t, env.Success)
	assert.Equal(t, "Unauthenticated. Please login again!", env.Message)

	res = ts.SendRequest(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"email":    "jane@example.com",
		"password": "wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, res.Status)
	assert.Equal(t, "Invalid credentials", res.Envelope(t).Message)
}

func TestAPI_RequestErrors(t *testing.T) {
	ts := NewTestServer(t)

	res := ts.SendRequest(t, http.MethodPost, "/v1/auth/register", "", map[string]string{
		"email":                 "not-an-email",
		"password":              "secret123",
		"password_confirmation": "other",
	})
	require.Equal(t, http.StatusUnprocessableEntity, res.Status)
	env := res.Envelope(t)
	assert.False(t, env.Success)
	assert.Equal(t, "Validation failed", env.Message)
	for _, field := range []string{"name", "email", "username", "password_confirmation"} {
		assert.Contains(t, env.Errors, field)
	}
	assert.NotContains(t, env.Errors, "password")

	res = ts.SendRequest(t, http.MethodPost, "/v1/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, res.Status)
	assert.Equal(t, "Invalid request body", res.Envelope(t).Message)

	res = ts.SendRequest(t, http.MethodGet, "/v1/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.False(t, res.Envelope(t).Success)
}

func TestAPI_PostLifecycle(t *testing.T) {
	ts := NewTestServer(t)
	author, token := ts.Login(t)

	res := ts.SendMultipart(t, http.MethodPost, "/v1/posts", token,
		map[string]string{"caption": "  sunset  "},
		photo(t, "first.png"), photo(t, "second.png"),
	)
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))

	var created postJSON
	env := res.Decode(t, &created)
	assert.Equal(t, "Post created successfully", env.Message)
	require.NotNil(t, created.Caption)
	assert.Equal(t, "sunset", *created.Caption)
	assert.Equal(t, author.Username, created.User.Username)
	require.Len(t, created.Media, 2)
	assert.Equal(t, 0, created.Media[0].OrderIndex)
	assert.Equal(t, 1, created.Media[1].OrderIndex)
	assert.True(t, strings.HasPrefix(created.Media[0].URL, "/files/posts/"+author.UniqueID+"/"))

	// файл отдается локальным хранилищем
	res = ts.SendRequest(t, http.MethodGet, created.Media[0].URL, "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "image/png", res.Header.Get("Content-Type"))
	assert.Equal(t, testutil.PNG(t, 40, 30), res.Body)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var page pageJSON[postJSON]
	res.Decode(t, &page)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 10, page.PerPage)
	require.Len(t, page.Data, 1)
	assert.Empty(t, page.Data[0].User.Email)

	res = ts.SendRequest(t, http.MethodPut, "/v1/posts/"+created.ID, token, map[string]string{"caption": "dusk"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	var updated postJSON
	res.Decode(t, &updated)
	require.NotNil(t, updated.Caption)
	assert.Equal(t, "dusk", *updated.Caption)

	res = ts.SendRequest(t, http.MethodDelete, "/v1/posts/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	env = res.Envelope(t)
	assert.Equal(t, "Post deleted successfully", env.Message)
	assert.Equal(t, "null", string(env.Data))

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+created.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)

	res = ts.SendRequest(t, http.MethodGet, created.Media[0].URL, "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status, "файлы удалены вместе с постом")
}

func TestAPI_PostValidation(t *testing.T) {
	ts := NewTestServer(t)
	_, token := ts.Login(t)

	res := ts.SendMultipart(t, http.MethodPost, "/v1/posts", token, map[string]string{"caption": "no files"})
	require.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Envelope(t).Errors, "files")

	res = ts.SendMultipart(t, http.MethodPost, "/v1/posts", token, nil,
		photo(t, "ok.png"),
		testutil.File{Field: "files[]", Filename: "notes.txt", Content: []byte("plain text")},
	)
	require.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "The file must be an image", res.Envelope(t).Errors["files.1"])

	res = ts.SendMultipart(t, http.MethodPost, "/v1/posts", "", nil, photo(t, "anon.png"))
	assert.Equal(t, http.StatusUnauthorized, res.Status)
}

func TestAPI_ForeignPostIsForbidden(t *testing.T) {
	ts := NewTestServer(t)
	_, ownerToken := ts.Login(t)
	_, otherToken := ts.Login(t)
	_, adminToken := ts.Login(t, testutil.WithRole("admin"))

	postID := ts.CreatePost(t, ownerToken, "mine")

	res := ts.SendRequest(t, http.MethodPut, "/v1/posts/"+postID, otherToken, map[string]string{"caption": "hijack"})
	assert.Equal(t, http.StatusForbidden, res.Status)
	assert.Equal(t, "You are not allowed to update this post", res.Envelope(t).Message)

	res = ts.SendRequest(t, http.MethodPut, "/v1/posts/"+postID, adminToken, map[string]string{"caption": "moderated"})
	assert.Equal(t, http.StatusForbidden, res.Status, "правка только у автора")

	res = ts.SendRequest(t, http.MethodDelete, "/v1/posts/"+postID, otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = ts.SendRequest(t, http.MethodDelete, "/v1/posts/"+postID, adminToken, nil)
	assert.Equal(t, http.StatusOK, res.Status)
}

func TestAPI_LikeToggleAndCounts(t *testing.T) {
	ts := NewTestServer(t)
	_, authorToken := ts.Login(t)
	fan, fanToken := ts.Login(t)
	postID := ts.CreatePost(t, authorToken, "like me")

	toggle := func() (bool, int64) {
		res := ts.SendRequest(t, http.MethodPost, "/v1/posts/"+postID+"/like", fanToken, nil)
		require.Equal(t, http.StatusOK, res.Status, string(res.Body))
		var out struct {
			Liked      bool  `json:"liked"`
			LikesCount int64 `json:"likes_count"`
		}
		res.Decode(t, &out)
		return out.Liked, out.LikesCount
	}

	liked, count := toggle()
	assert.True(t, liked)
	assert.EqualValues(t, 1, count)

	res := ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID, fanToken, nil)
	var post postJSON
	res.Decode(t, &post)
	assert.True(t, post.IsLiked)
	assert.EqualValues(t, 1, post.LikesCount)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID, "", nil)
	res.Decode(t, &post)
	assert.False(t, post.IsLiked, "аноним")

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID+"/likes", authorToken, nil)
	require.Equal(t, http.StatusOK, res.Status)
	var likes struct {
		Total int64 `json:"total"`
		Likes []struct {
			User userJSON `json:"user"`
		} `json:"likes"`
	}
	res.Decode(t, &likes)
	assert.EqualValues(t, 1, likes.Total)
	require.Len(t, likes.Likes, 1)
	assert.Equal(t, fan.Username, likes.Likes[0].User.Username)

	liked, count = toggle()
	assert.False(t, liked)
	assert.Zero(t, count)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID+"/likes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, res.Status)

	res = ts.SendRequest(t, http.MethodPost, "/v1/posts/missing/like", fanToken, nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestAPI_CommentTree(t *testing.T) {
	ts := NewTestServer(t)
	_, token := ts.Login(t)
	postID := ts.CreatePost(t, token, "discuss")

	addComment := func(body string, parentID string) *response {
		payload := map[string]interface{}{"body": body}
		if parentID != "" {
			payload["parent_id"] = parentID
		}
		return ts.SendRequest(t, http.MethodPost, "/v1/posts/"+postID+"/comments", token, payload)
	}

	res := addComment("top", "")
	require.Equal(t, http.StatusCreated, res.Status, string(res.Body))
	var top commentJSON
	env := res.Decode(t, &top)
	assert.Equal(t, "Comment added successfully", env.Message)

	res = addComment("reply", top.ID)
	require.Equal(t, http.StatusCreated, res.Status)
	var reply commentJSON
	res.Decode(t, &reply)

	res = addComment("too deep", reply.ID)
	require.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Equal(t, "Replies can only be added to top-level comments", res.Envelope(t).Errors["parent_id"])

	res = addComment("   ", "")
	require.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Envelope(t).Errors, "body")

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var page pageJSON[commentJSON]
	res.Decode(t, &page)
	assert.EqualValues(t, 1, page.Total)
	require.Len(t, page.Data, 1)
	require.Len(t, page.Data[0].Replies, 1)
	assert.Equal(t, reply.ID, page.Data[0].Replies[0].ID)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID, "", nil)
	var post postJSON
	res.Decode(t, &post)
	assert.EqualValues(t, 2, post.CommentsCount)

	res = ts.SendRequest(t, http.MethodDelete, "/v1/comments/"+top.ID, token, nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Equal(t, "Comment deleted successfully", res.Envelope(t).Message)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts/"+postID+"/comments", "", nil)
	res.Decode(t, &page)
	assert.Zero(t, page.Total)
	assert.Empty(t, page.Data)
}

func TestAPI_Profiles(t *testing.T) {
	ts := NewTestServer(t)
	user, token := ts.Login(t, testutil.WithUsername("profile_owner"))
	_, otherToken := ts.Login(t)
	_, adminToken := ts.Login(t, testutil.WithRole("admin"), testutil.WithUsername("the_admin"))
	ts.CreatePost(t, token, "one")

	res := ts.SendRequest(t, http.MethodPut, "/v1/me", token, map[string]string{"bio": "hello"})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	var me userJSON
	env := res.Decode(t, &me)
	assert.Equal(t, "Profile updated successfully", env.Message)
	require.NotNil(t, me.Bio)
	assert.Equal(t, "hello", *me.Bio)
	assert.Equal(t, user.Email, me.Email)

	res = ts.SendMultipart(t, http.MethodPost, "/v1/me/avatar", token, nil,
		testutil.File{Field: "avatar", Filename: "me.png", Content: testutil.PNG(t, 20, 20)})
	require.Equal(t, http.StatusOK, res.Status, string(res.Body))
	res.Decode(t, &me)
	require.NotNil(t, me.AvatarURL)
	assert.True(t, strings.HasPrefix(*me.AvatarURL, "/files/avatars/"))

	res = ts.SendMultipart(t, http.MethodPost, "/v1/me/avatar", token, map[string]string{"x": "y"})
	assert.Equal(t, http.StatusUnprocessableEntity, res.Status)
	assert.Contains(t, res.Envelope(t).Errors, "avatar")

	res = ts.SendRequest(t, http.MethodGet, "/v1/users/profile_owner", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var profile userJSON
	res.Decode(t, &profile)
	assert.EqualValues(t, 1, profile.PostsCount)
	assert.Empty(t, profile.Email)

	res = ts.SendRequest(t, http.MethodGet, "/v1/users/the_admin", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = ts.SendRequest(t, http.MethodGet, "/v1/users/the_admin", "", nil)
	assert.Equal(t, http.StatusForbidden, res.Status)

	res = ts.SendRequest(t, http.MethodGet, "/v1/users/the_admin", adminToken, nil)
	assert.Equal(t, http.StatusOK, res.Status)

	res = ts.SendRequest(t, http.MethodGet, "/v1/users/nobody_here", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
}

func TestAPI_ListPaginationAndSearch(t *testing.T) {
	ts := NewTestServer(t)
	_, token := ts.Login(t)
	for i := 0; i < 3; i++ {
		ts.CreatePost(t, token, fmt.Sprintf("Holiday %d", i))
	}
	ts.CreatePost(t, token, "work")

	res := ts.SendRequest(t, http.MethodGet, "/v1/posts?limit=2&page=2", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var page pageJSON[postJSON]
	res.Decode(t, &page)
	assert.EqualValues(t, 4, page.Total)
	assert.Equal(t, 2, page.LastPage)
	require.Len(t, page.Data, 2)
	require.NotNil(t, page.Data[1].Caption)
	assert.Equal(t, "Holiday 0", *page.Data[1].Caption, "старые в конце")

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts?search=holiday", "", nil)
	res.Decode(t, &page)
	assert.EqualValues(t, 3, page.Total)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts?page=abc", "", nil)
	assert.Equal(t, http.StatusBadRequest, res.Status)
}

func TestAPI_FeedCacheInvalidation(t *testing.T) {
	ts := NewTestServer(t, withRedisFeed(t))
	_, token := ts.Login(t)

	total := func() int64 {
		res := ts.SendRequest(t, http.MethodGet, "/v1/posts", "", nil)
		require.Equal(t, http.StatusOK, res.Status)
		var page pageJSON[postJSON]
		res.Decode(t, &page)
		return page.Total
	}

	assert.Zero(t, total())
	postID := ts.CreatePost(t, token, "fresh")
	assert.EqualValues(t, 1, total(), "создание поста сбрасывает кэш")

	res := ts.SendRequest(t, http.MethodPost, "/v1/posts/"+postID+"/like", token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	res = ts.SendRequest(t, http.MethodGet, "/v1/posts", "", nil)
	var page pageJSON[postJSON]
	res.Decode(t, &page)
	require.Len(t, page.Data, 1)
	assert.EqualValues(t, 1, page.Data[0].LikesCount, "лайк сбрасывает кэш")
}

func TestAPI_OpsEndpoints(t *testing.T) {
	ts := NewTestServer(t)

	res := ts.SendRequest(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	var health map[string]string
	res.Decode(t, &health)
	assert.Equal(t, "up", health["database"])

	ts.SendRequest(t, http.MethodGet, "/v1/posts", "", nil)

	res = ts.SendRequest(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, res.Status)
	assert.Contains(t, string(res.Body), `sosmed_http_requests_total{method="GET",route="/v1/posts",status="200"}`)

	res = ts.SendRequest(t, http.MethodGet, "/files/missing.png", "", nil)
	assert.Equal(t, http.StatusNotFound, res.Status)
	assert.Equal(t, "File not found", res.Envelope(t).Message)

	req, err := http.NewRequest(http.MethodOptions, ts.Server.URL+"/v1/posts", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://client.example")
	res = ts.do(t, req, "")
	assert.Equal(t, http.StatusNoContent, res.Status)
	assert.Equal(t, "*", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestAPI_RealtimeFeed(t *testing.T) {
	ts := NewTestServer(t, withRealtime(t))
	_, token := ts.Login(t)
	postID := ts.CreatePost(t, token, "live")

	wsURL := "ws" + strings.TrimPrefix(ts.Server.URL, "http") + "/v1/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL+"?access_token="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	readFrame := func() (string, map[string]interface{}) {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var frame struct {
			Type string                 `json:"type"`
			Data map[string]interface{} `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&frame))
		return frame.Type, frame.Data
	}

	kind, _ := readFrame()
	require.Equal(t, ws.TypeConnected, kind)

	res := ts.SendRequest(t, http.MethodPost, "/v1/posts/"+postID+"/like", token, nil)
	require.Equal(t, http.StatusOK, res.Status)

	kind, data := readFrame()
	assert.Equal(t, events.SubjectPostLiked, kind)
	assert.Equal(t, postID, data["post_id"])
	assert.EqualValues(t, 1, data["likes_count"])

	res = ts.SendRequest(t, http.MethodGet, "/v1/ws", token, nil)
	assert.Equal(t, http.StatusBadRequest, res.Status, "обычный GET без upgrade")
}

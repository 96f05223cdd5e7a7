package services

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"sosmed_backend/internal/models"
	"sosmed_backend/internal/services/dto"
	"sosmed_backend/internal/testutil"
	"sosmed_backend/pkg/apperrors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeProfileUpdate(t *testing.T, body string) *dto.UpdateProfileRequest {
	t.Helper()
	var req dto.UpdateProfileRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func reloadUser(t *testing.T, env *testEnv, id uint) *models.User {
	t.Helper()
	var user models.User
	require.NoError(t, env.db.First(&user, id).Error)
	return &user
}

func TestUserService_UpdateSelfPartial(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db)

	resp, err := env.users.UpdateSelf(env.ctx, env.db, user, decodeProfileUpdate(t, `{"bio":"  hello there  "}`))
	require.NoError(t, err)
	require.NotNil(t, resp.Bio)
	assert.Equal(t, "hello there", *resp.Bio)
	assert.Equal(t, user.Name, resp.Name)
	assert.Equal(t, user.Email, resp.Email, "свой профиль показывает email")

	// name меняется, bio не трогается
	resp, err = env.users.UpdateSelf(env.ctx, env.db, user, decodeProfileUpdate(t, `{"name":"New Name"}`))
	require.NoError(t, err)
	assert.Equal(t, "New Name", resp.Name)
	require.NotNil(t, resp.Bio)

	stored := reloadUser(t, env, user.ID)
	assert.Equal(t, "New Name", stored.Name)
	require.NotNil(t, stored.Bio)
	assert.Equal(t, "hello there", *stored.Bio)
}

func TestUserService_UpdateSelfClearsBio(t *testing.T) {
	for _, body := range []string{`{"bio":null}`, `{"bio":""}`} {
		t.Run(body, func(t *testing.T) {
			env := newTestEnv(t)
			user := testutil.CreateUser(t, env.db)

			_, err := env.users.UpdateSelf(env.ctx, env.db, user, decodeProfileUpdate(t, `{"bio":"something"}`))
			require.NoError(t, err)

			resp, err := env.users.UpdateSelf(env.ctx, env.db, user, decodeProfileUpdate(t, body))
			require.NoError(t, err)
			assert.Nil(t, resp.Bio)
			assert.Nil(t, reloadUser(t, env, user.ID).Bio)
		})
	}
}

func TestUserService_UploadAvatarReplacesOldFile(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db)

	avatar := func() *dto.UserResponse {
		files := testutil.FileHeaders(t, testutil.File{Field: "avatar", Filename: "me.png", Content: testutil.PNG(t, 16, 16)})
		resp, err := env.users.UploadAvatar(env.ctx, env.db, user, files[0])
		require.NoError(t, err)
		return resp
	}

	first := avatar()
	require.NotNil(t, first.AvatarURL)
	assert.True(t, strings.HasPrefix(*first.AvatarURL, "/files/avatars/"+user.UniqueID+"/"), *first.AvatarURL)
	require.Len(t, env.storedFiles(t), 1)

	second := avatar()
	require.NotNil(t, second.AvatarURL)
	assert.NotEqual(t, *first.AvatarURL, *second.AvatarURL)

	files := env.storedFiles(t)
	require.Len(t, files, 1, "старый аватар удален")
	assert.Equal(t, "/files/"+files[0], *second.AvatarURL)

	stored := reloadUser(t, env, user.ID)
	require.NotNil(t, stored.AvatarURL)
	assert.Equal(t, *second.AvatarURL, *stored.AvatarURL)
}

func TestUserService_UploadAvatarKeepsOnlyLatestFile(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db)

	var responses []*dto.UserResponse
	var urls []string
	for i := 0; i < 3; i++ {
		files := testutil.FileHeaders(t, testutil.File{Field: "avatar", Filename: "me.png", Content: testutil.PNG(t, 16, 16)})
		resp, err := env.users.UploadAvatar(env.ctx, env.db, user, files[0])
		require.NoError(t, err)
		require.NotNil(t, resp.AvatarURL)
		responses = append(responses, resp)
		urls = append(urls, *resp.AvatarURL)
	}

	files := env.storedFiles(t)
	require.Len(t, files, 1)
	assert.Equal(t, "/files/"+files[0], urls[2])

	// ранее выданные ответы не меняются задним числом
	for i, resp := range responses {
		assert.Equal(t, urls[i], *resp.AvatarURL)
	}
}

func TestUserService_UploadAvatarValidation(t *testing.T) {
	env := newTestEnv(t)
	user := testutil.CreateUser(t, env.db)

	files := testutil.FileHeaders(t, testutil.File{Field: "avatar", Filename: "me.png", Content: []byte("text")})
	_, err := env.users.UploadAvatar(env.ctx, env.db, user, files[0])
	details := fieldErrors(t, err)
	assert.Equal(t, "The file must be an image", details["avatar"])

	big := make([]byte, 2*1024*1024+10)
	copy(big, testutil.PNG(t, 4, 4))
	files = testutil.FileHeaders(t, testutil.File{Field: "avatar", Filename: "big.png", Content: big})
	_, err = env.users.UploadAvatar(env.ctx, env.db, user, files[0])
	details = fieldErrors(t, err)
	assert.Equal(t, "The file may not be greater than 2048 kilobytes", details["avatar"])

	assert.Empty(t, env.storedFiles(t))
	assert.Nil(t, reloadUser(t, env, user.ID).AvatarURL)
}

func TestUserService_GetByUsernameWithCounts(t *testing.T) {
	env := newTestEnv(t)
	target := testutil.CreateUser(t, env.db, testutil.WithUsername("target_user"))
	other := testutil.CreateUser(t, env.db)

	own := env.createPost(t, target, "mine")
	foreign := env.createPost(t, other, "theirs")
	_, err := env.likes.Toggle(env.ctx, env.db, target, foreign.ID)
	require.NoError(t, err)
	_, err = env.likes.Toggle(env.ctx, env.db, other, own.ID)
	require.NoError(t, err)
	env.createComment(t, target, foreign.ID, "one", nil)
	env.createComment(t, target, own.ID, "two", nil)

	profile, err := env.users.GetByUsername(env.ctx, env.db, "target_user", nil)
	require.NoError(t, err)
	assert.Equal(t, target.UniqueID, profile.ID)
	assert.EqualValues(t, 1, profile.PostsCount)
	assert.EqualValues(t, 1, profile.LikesCount, "лайки, поставленные пользователем")
	assert.EqualValues(t, 2, profile.CommentsCount)
	assert.Empty(t, profile.Email, "аноним не видит email")

	profile, err = env.users.GetByUsername(env.ctx, env.db, "target_user", other)
	require.NoError(t, err)
	assert.Empty(t, profile.Email)

	profile, err = env.users.GetByUsername(env.ctx, env.db, "target_user", target)
	require.NoError(t, err)
	assert.Equal(t, target.Email, profile.Email)
}

func TestUserService_AdminProfileVisibility(t *testing.T) {
	env := newTestEnv(t)
	testutil.CreateAdmin(t, env.db, testutil.WithUsername("root_admin"))
	user := testutil.CreateUser(t, env.db)
	otherAdmin := testutil.CreateAdmin(t, env.db)

	_, err := env.users.GetByUsername(env.ctx, env.db, "root_admin", nil)
	requireAppError(t, err, http.StatusForbidden)
	assert.True(t, apperrors.Is(err, apperrors.ErrAdminProfileHidden))

	_, err = env.users.GetByUsername(env.ctx, env.db, "root_admin", user)
	requireAppError(t, err, http.StatusForbidden)

	profile, err := env.users.GetByUsername(env.ctx, env.db, "root_admin", otherAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, profile.Role)
	assert.NotEmpty(t, profile.Email, "администратор видит email")
}

func TestUserService_GetByUsernameNotFound(t *testing.T) {
	env := newTestEnv(t)
	deleted := testutil.CreateUser(t, env.db, testutil.WithUsername("gone"))
	require.NoError(t, env.db.Delete(deleted).Error)

	_, err := env.users.GetByUsername(env.ctx, env.db, "nobody", nil)
	requireAppError(t, err, http.StatusNotFound)

	_, err = env.users.GetByUsername(env.ctx, env.db, "gone", nil)
	requireAppError(t, err, http.StatusNotFound)
}

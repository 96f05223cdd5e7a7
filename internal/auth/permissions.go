package auth

import "sosmed_backend/internal/models"

// RBAC роли и разрешения
const (
	RoleAdmin = string(models.UserRoleAdmin)
	RoleUser  = string(models.UserRoleUser)
)

const (
	PermPostsWriteOwn     = "posts:write:self"
	PermPostsDeleteOwn    = "posts:delete:self"
	PermPostsDeleteAny    = "posts:delete:any"
	PermCommentsDeleteOwn = "comments:delete:self"
	PermCommentsDeleteAny = "comments:delete:any"
	PermUsersReadAdmin    = "users:read:admin"
	PermUsersReadEmail    = "users:read:email"
)

// Permissions список разрешений
var Permissions = map[string][]string{
	RoleAdmin: {
		PermPostsWriteOwn,
		PermPostsDeleteOwn,
		PermPostsDeleteAny,
		PermCommentsDeleteOwn,
		PermCommentsDeleteAny,
		PermUsersReadAdmin,
		PermUsersReadEmail,
	},
	RoleUser: {
		PermPostsWriteOwn,
		PermPostsDeleteOwn,
		PermCommentsDeleteOwn,
	},
}

// HasPermission проверяет есть ли у роли указанное разрешение
func HasPermission(role, permission string) bool {
	permissions, exists := Permissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

func can(u *models.User, permission string) bool {
	return u != nil && HasPermission(string(u.Role), permission)
}

// CanUpdatePost - редактировать подпись может только автор (админ тоже нет)
func CanUpdatePost(u *models.User, post *models.Post) bool {
	return u != nil && post != nil && post.UserID == u.ID && can(u, PermPostsWriteOwn)
}

// CanDeletePost - автор или администратор
func CanDeletePost(u *models.User, post *models.Post) bool {
	if u == nil || post == nil {
		return false
	}
	if can(u, PermPostsDeleteAny) {
		return true
	}
	return post.UserID == u.ID && can(u, PermPostsDeleteOwn)
}

// CanDeleteComment - автор комментария или администратор
func CanDeleteComment(u *models.User, comment *models.Comment) bool {
	if u == nil || comment == nil {
		return false
	}
	if can(u, PermCommentsDeleteAny) {
		return true
	}
	return comment.UserID == u.ID && can(u, PermCommentsDeleteOwn)
}

// CanViewProfile - профиль администратора виден только администраторам.
// viewer может быть nil (аноним).
func CanViewProfile(viewer, target *models.User) bool {
	if target == nil {
		return false
	}
	if !target.IsAdmin() {
		return true
	}
	return can(viewer, PermUsersReadAdmin)
}

// CanSeeEmail - email видит сам пользователь или администратор
func CanSeeEmail(viewer, target *models.User) bool {
	if viewer == nil || target == nil {
		return false
	}
	return viewer.ID == target.ID || can(viewer, PermUsersReadEmail)
}

package domain

// Role - роль зрителя. Других ролей нет.
type Role string

const (
	RoleUser      Role = "user"
	RoleModerator Role = "moderator"
)

// ParseRole приводит произвольное значение к роли. Всё, кроме moderator, - user.
func ParseRole(s string) Role {
	if Role(s) == RoleModerator {
		return RoleModerator
	}
	return RoleUser
}

// Viewer - контекст текущего зрителя. UserID пуст для анонима.
type Viewer struct {
	UserID string
	Role   Role
}

// Anonymous - зритель без учётной записи.
var Anonymous = Viewer{Role: RoleUser}

func (v Viewer) Authenticated() bool { return v.UserID != "" }

func (v Viewer) IsModerator() bool { return v.Role == RoleModerator }

// Owns сообщает, является ли зритель владельцем записи. Аноним не владеет ничем.
func (v Viewer) Owns(authorID string) bool {
	return v.UserID != "" && v.UserID == authorID
}

// Viewable - может ли зритель видеть пост.
func Viewable(p *Post, v Viewer) bool {
	return v.IsModerator() || v.Owns(p.AuthorID) || p.Status == StatusApproved
}

// PassesModerationView применяет переключатель режима модерации. Он влияет
// только на модераторов: включён - только pending, выключен - всё, кроме rejected.
func PassesModerationView(p *Post, v Viewer, active bool) bool {
	if !v.IsModerator() {
		return true
	}
	if active {
		return p.Status == StatusPending
	}
	return p.Status != StatusRejected
}

// CanEditPost - редактировать пост может только автор.
func CanEditPost(p *Post, v Viewer) bool { return v.Owns(p.AuthorID) }

// CanDeletePost - удалить пост может автор или модератор.
func CanDeletePost(p *Post, v Viewer) bool {
	return v.Owns(p.AuthorID) || (v.Authenticated() && v.IsModerator())
}

// CanEditComment - редактировать комментарий может только автор.
func CanEditComment(c *Comment, v Viewer) bool { return v.Owns(c.AuthorID) }

// CanDeleteComment - удалить комментарий может автор или модератор.
func CanDeleteComment(c *Comment, v Viewer) bool {
	return v.Owns(c.AuthorID) || (v.Authenticated() && v.IsModerator())
}

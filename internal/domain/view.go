package domain

import "time"

// Author - автор в том виде, в каком его показывают рядом с записью.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}

// AuthorFrom строит Author из профиля. nil-профиль даёт Anonymous с заглушкой.
func AuthorFrom(authorID string, p *Profile) Author {
	if p == nil || p.DisplayName == "" {
		return Author{ID: authorID, DisplayName: AnonymousName, AvatarURL: PlaceholderAvatar(AnonymousName)}
	}
	avatar := p.AvatarURL
	if avatar == "" {
		avatar = PlaceholderAvatar(p.DisplayName)
	}
	return Author{ID: authorID, DisplayName: p.DisplayName, AvatarURL: avatar}
}

// PostView - пост, обогащённый вычисляемыми полями.
type PostView struct {
	Post
	Author           Author `json:"author"`
	LikeCount        int    `json:"likeCount"`
	CommentCount     int    `json:"commentCount"`
	ViewerHasReacted bool   `json:"viewerHasReacted"`
}

// CommentView - комментарий с автором и правами текущего зрителя.
type CommentView struct {
	Comment
	Author    Author `json:"author"`
	Edited    bool   `json:"edited"`
	CanEdit   bool   `json:"canEdit"`
	CanDelete bool   `json:"canDelete"`
}

// NewCommentView собирает CommentView для зрителя.
func NewCommentView(c *Comment, author Author, v Viewer) CommentView {
	return CommentView{
		Comment:   *c,
		Author:    author,
		Edited:    c.Edited(),
		CanEdit:   CanEditComment(c, v),
		CanDelete: CanDeleteComment(c, v),
	}
}

// ReactionState - результат переключения лайка.
type ReactionState struct {
	PostID    string `json:"postId"`
	Reacted   bool   `json:"reacted"`
	LikeCount int    `json:"likeCount"`
}

// PostInput - поля, которые автор задаёт при создании и редактировании.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Excerpt  string   `json:"excerpt,omitempty"`
	Tags     []string `json:"tags"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// PostPatch - изменения поста для хранилища. nil-поля не трогаются.
type PostPatch struct {
	Title     *string
	Content   *string
	Excerpt   *string
	Tags      []string
	ImageURL  *string
	Status    *Status
	UpdatedAt time.Time
}

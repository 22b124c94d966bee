package domain

import "time"

// Post представляет запись в блоге сообщества.
type Post struct {
	ID        string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	Title     string    `json:"title" gorm:"type:varchar(255);not null"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	Excerpt   string    `json:"excerpt" gorm:"type:text;not null"`
	Tags      []string  `json:"tags" gorm:"type:text;serializer:json"`
	ImageURL  string    `json:"imageUrl,omitempty" gorm:"type:text"`
	AuthorID  string    `json:"authorId" gorm:"type:varchar(255);not null;index"`
	Status    Status    `json:"status" gorm:"type:varchar(16);not null;index"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null;index"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"not null;autoUpdateTime:false"`
}

// Comment представляет комментарий к посту.
type Comment struct {
	ID        string     `json:"id" gorm:"type:varchar(36);primaryKey"`
	PostID    string     `json:"postId" gorm:"type:varchar(36);not null;index"`
	AuthorID  string     `json:"authorId" gorm:"type:varchar(255);not null"`
	Content   string     `json:"content" gorm:"type:varchar(2000);not null"`
	CreatedAt time.Time  `json:"createdAt" gorm:"not null"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty" gorm:"autoUpdateTime:false"`
}

// ReactionLike - единственный используемый тип реакции.
const ReactionLike = "like"

// Reaction - лайк пользователя. Не больше одного на пару (PostID, UserID).
type Reaction struct {
	PostID    string    `json:"postId" gorm:"type:varchar(36);primaryKey"`
	UserID    string    `json:"userId" gorm:"type:varchar(255);primaryKey;index"`
	Type      string    `json:"type" gorm:"type:varchar(16);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"not null"`
}

// Profile - публичные данные автора.
type Profile struct {
	ID          string `json:"id" gorm:"type:varchar(255);primaryKey"`
	DisplayName string `json:"displayName" gorm:"type:varchar(255);not null"`
	AvatarURL   string `json:"avatarUrl" gorm:"type:text"`
}

// Edited сообщает, редактировался ли комментарий.
func (c *Comment) Edited() bool {
	return c.UpdatedAt != nil && c.UpdatedAt.After(c.CreatedAt)
}

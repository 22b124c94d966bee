package storage

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
)

var (
	// ErrNotFound - запись отсутствует (в том числе удалена конкурентно).
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate - нарушение уникальности, например повторный лайк.
	ErrDuplicate = errors.New("duplicate record")
)

// Storage определяет контракт для хранилищ.
type Storage interface {
	// Посты. ListPosts возвращает все посты, новые первыми.
	ListPosts(ctx context.Context) ([]*domain.Post, error)
	GetPostByID(ctx context.Context, id string) (*domain.Post, error)
	CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error)
	UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error)
	DeletePost(ctx context.Context, id string) error

	// Счётчики
	CountReactions(ctx context.Context, postID string) (int, error)
	CountComments(ctx context.Context, postID string) (int, error)

	// Методы для Dataloader'ов
	CountReactionsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error)
	CountCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error)
	GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)

	// Реакции
	ListViewerReactions(ctx context.Context, userID string) (map[string]struct{}, error)
	AddReaction(ctx context.Context, postID, userID string) error
	RemoveReaction(ctx context.Context, postID, userID string) error

	// Комментарии. ListComments возвращает старые первыми.
	ListComments(ctx context.Context, postID string) ([]*domain.Comment, error)
	GetCommentByID(ctx context.Context, id string) (*domain.Comment, error)
	CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error)
	UpdateComment(ctx context.Context, id, content string, at time.Time) (*domain.Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// Профили. GetProfile возвращает ErrNotFound, если профиля нет.
	GetProfile(ctx context.Context, id string) (*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Store реализует интерфейс Storage поверх GORM (PostgreSQL или SQLite).
type Store struct {
	db *gorm.DB
}

var _ storage.Storage = (*Store)(nil)

// NewPostgres подключается к PostgreSQL и мигрирует схему.
func NewPostgres(dsn string, log zerolog.Logger) (*Store, error) {
	return open(postgres.Open(dsn), log)
}

// NewSQLite открывает файл SQLite (или ":memory:") и мигрирует схему.
func NewSQLite(path string, log zerolog.Logger) (*Store, error) {
	return open(sqlite.Open(path), log)
}

func open(dialector gorm.Dialector, log zerolog.Logger) (*Store, error) {
	gormLog := log.With().Str("component", "gorm").Logger()
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.New(&gormLog, logger.Config{
			SlowThreshold:             200 * time.Millisecond,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
		}),
		// ErrDuplicatedKey вместо ошибок конкретного драйвера
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Выполняем миграцию схемы
	if err := db.AutoMigrate(&domain.Post{}, &domain.Comment{}, &domain.Reaction{}, &domain.Profile{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close закрывает пул соединений.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping проверяет соединение, используется в /healthz.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// translate приводит ошибки GORM к ошибкам пакета storage.
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", what, storage.ErrDuplicate)
	}
	return err
}

// === Post Methods ===

func (s *Store) ListPosts(ctx context.Context) ([]*domain.Post, error) {
	var posts []*domain.Post
	err := s.db.WithContext(ctx).Order("created_at DESC").Find(&posts).Error
	return posts, err
}

func (s *Store) GetPostByID(ctx context.Context, id string) (*domain.Post, error) {
	var post domain.Post
	if err := s.db.WithContext(ctx).First(&post, "id = ?", id).Error; err != nil {
		return nil, translate(err, "post "+id)
	}
	return &post, nil
}

func (s *Store) CreatePost(ctx context.Context, post *domain.Post) (*domain.Post, error) {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	if post.CreatedAt.IsZero() {
		post.CreatedAt = time.Now().UTC()
	}
	if post.UpdatedAt.IsZero() {
		post.UpdatedAt = post.CreatedAt
	}
	if err := s.db.WithContext(ctx).Create(post).Error; err != nil {
		return nil, translate(err, "post "+post.ID)
	}
	return post, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch domain.PostPatch) (*domain.Post, error) {
	var post domain.Post
	// Используем транзакцию для атомарности операции чтения-записи
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&post, "id = ?", id).Error; err != nil {
			return err
		}
		applyPatch(&post, patch)
		return tx.Save(&post).Error
	})
	if err != nil {
		return nil, translate(err, "post "+id)
	}
	return &post, nil
}

func applyPatch(post *domain.Post, patch domain.PostPatch) {
	if patch.Title != nil {
		post.Title = *patch.Title
	}
	if patch.Content != nil {
		post.Content = *patch.Content
	}
	if patch.Excerpt != nil {
		post.Excerpt = *patch.Excerpt
	}
	if patch.Tags != nil {
		post.Tags = patch.Tags
	}
	if patch.ImageURL != nil {
		post.ImageURL = *patch.ImageURL
	}
	if patch.Status != nil {
		post.Status = *patch.Status
	}
	if !patch.UpdatedAt.IsZero() {
		post.UpdatedAt = patch.UpdatedAt
	}
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&domain.Post{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		// Каскадно удаляем комментарии и реакции
		if err := tx.Delete(&domain.Comment{}, "post_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&domain.Reaction{}, "post_id = ?", id).Error
	})
	return translate(err, "post "+id)
}

// === Counters ===

func (s *Store) CountReactions(ctx context.Context, postID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Reaction{}).Where("post_id = ?", postID).Count(&n).Error
	return int(n), err
}

func (s *Store) CountComments(ctx context.Context, postID string) (int, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&domain.Comment{}).Where("post_id = ?", postID).Count(&n).Error
	return int(n), err
}

// === Dataloader Methods ===

type postCount struct {
	PostID string
	N      int
}

// countByPost считает строки модели, сгруппированные по post_id, одним запросом.
func (s *Store) countByPost(ctx context.Context, model any, postIDs []string) (map[string]int, error) {
	result := make(map[string]int, len(postIDs))
	if len(postIDs) == 0 {
		return result, nil
	}
	var rows []postCount
	err := s.db.WithContext(ctx).
		Model(model).
		Select("post_id, COUNT(*) AS n").
		Where("post_id IN ?", postIDs).
		Group("post_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, id := range postIDs {
		result[id] = 0
	}
	for _, r := range rows {
		result[r.PostID] = r.N
	}
	return result, nil
}

func (s *Store) CountReactionsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error) {
	return s.countByPost(ctx, &domain.Reaction{}, postIDs)
}

func (s *Store) CountCommentsByPostIDs(ctx context.Context, postIDs []string) (map[string]int, error) {
	return s.countByPost(ctx, &domain.Comment{}, postIDs)
}

func (s *Store) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	result := make(map[string]*domain.Profile, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	var profiles []*domain.Profile
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&profiles).Error; err != nil {
		return nil, err
	}
	for _, p := range profiles {
		result[p.ID] = p
	}
	return result, nil
}

// === Reaction Methods ===

func (s *Store) ListViewerReactions(ctx context.Context, userID string) (map[string]struct{}, error) {
	var postIDs []string
	err := s.db.WithContext(ctx).Model(&domain.Reaction{}).Where("user_id = ?", userID).Pluck("post_id", &postIDs).Error
	if err != nil {
		return nil, err
	}
	result := make(map[string]struct{}, len(postIDs))
	for _, id := range postIDs {
		result[id] = struct{}{}
	}
	return result, nil
}

func (s *Store) AddReaction(ctx context.Context, postID, userID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", postID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(&domain.Reaction{
			PostID:    postID,
			UserID:    userID,
			Type:      domain.ReactionLike,
			CreatedAt: time.Now().UTC(),
		}).Error
	})
	return translate(err, "reaction "+postID+"/"+userID)
}

func (s *Store) RemoveReaction(ctx context.Context, postID, userID string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Reaction{}, "post_id = ? AND user_id = ?", postID, userID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reaction %s/%s: %w", postID, userID, storage.ErrNotFound)
	}
	return nil
}

// === Comment Methods ===

func (s *Store) ListComments(ctx context.Context, postID string) ([]*domain.Comment, error) {
	var comments []*domain.Comment
	err := s.db.WithContext(ctx).Where("post_id = ?", postID).Order("created_at ASC").Find(&comments).Error
	return comments, err
}

func (s *Store) GetCommentByID(ctx context.Context, id string) (*domain.Comment, error) {
	var comment domain.Comment
	if err := s.db.WithContext(ctx).First(&comment, "id = ?", id).Error; err != nil {
		return nil, translate(err, "comment "+id)
	}
	return &comment, nil
}

func (s *Store) CreateComment(ctx context.Context, comment *domain.Comment) (*domain.Comment, error) {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	if comment.CreatedAt.IsZero() {
		comment.CreatedAt = time.Now().UTC()
	}
	// Проверяем существование поста и создаём комментарий в одной транзакции
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Post{}).Where("id = ?", comment.PostID).Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return gorm.ErrRecordNotFound
		}
		return tx.Create(comment).Error
	})
	if err != nil {
		return nil, translate(err, "comment on post "+comment.PostID)
	}
	return comment, nil
}

func (s *Store) UpdateComment(ctx context.Context, id, content string, at time.Time) (*domain.Comment, error) {
	res := s.db.WithContext(ctx).
		Model(&domain.Comment{}).
		Where("id = ?", id).
		Updates(map[string]any{"content": content, "updated_at": at})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return s.GetCommentByID(ctx, id)
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Delete(&domain.Comment{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

// === Profile Methods ===

func (s *Store) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	var p domain.Profile
	if err := s.db.WithContext(ctx).First(&p, "id = ?", id).Error; err != nil {
		return nil, translate(err, "profile "+id)
	}
	return &p, nil
}

func (s *Store) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(profile).Error
}

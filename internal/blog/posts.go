package blog

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/feed"
)

const maxTitleLength = 255

var _ feed.Backend = (*Service)(nil)

// ListPosts возвращает обогащённые посты, видимые зрителю, от новых к старым.
// Фильтры ленты сюда не применяются.
func (s *Service) ListPosts(ctx context.Context, v domain.Viewer) ([]domain.PostView, error) {
	posts, err := s.VisiblePosts(ctx, v)
	if err != nil {
		return nil, err
	}
	return s.enrich(ctx, v, posts), nil
}

// VisiblePosts - посты, видимые зрителю, без обогащения. Вычисляемые поля
// берутся потом по одному через LikeCount, Author и т.д.
func (s *Service) VisiblePosts(ctx context.Context, v domain.Viewer) ([]*domain.Post, error) {
	posts, err := s.store.ListPosts(ctx)
	if err != nil {
		return nil, s.storeErr("list posts", "posts", err)
	}
	visible := posts[:0]
	for _, p := range posts {
		if domain.Viewable(p, v) {
			visible = append(visible, p)
		}
	}
	return visible, nil
}

// ListFeed - лента с фильтрами и тегами для чипов. Теги собираются по всем
// видимым постам, чтобы выбранный фильтр не прятал остальные чипы.
func (s *Service) ListFeed(ctx context.Context, v domain.Viewer, c feed.Criteria) (*feed.Feed, error) {
	posts, err := s.ListPosts(ctx, v)
	if err != nil {
		return nil, err
	}
	return &feed.Feed{
		Posts: feed.Apply(posts, v, c),
		Tags:  feed.AggregateTags(posts),
	}, nil
}

// FeedPosts - ListFeed без обогащения.
func (s *Service) FeedPosts(ctx context.Context, v domain.Viewer, c feed.Criteria) ([]*domain.Post, []string, error) {
	posts, err := s.VisiblePosts(ctx, v)
	if err != nil {
		return nil, nil, err
	}
	return feed.Filter(posts, v, c), feed.TagsOf(posts), nil
}

// GetPost возвращает один пост. Невидимый зрителю пост - NotFound.
func (s *Service) GetPost(ctx context.Context, v domain.Viewer, id string) (*domain.PostView, error) {
	post, err := s.viewablePost(ctx, v, id)
	if err != nil {
		return nil, err
	}
	return s.enrichOne(ctx, v, post), nil
}

// CreatePost создаёт пост. Статус зависит от роли автора.
func (s *Service) CreatePost(ctx context.Context, v domain.Viewer, in domain.PostInput) (*domain.PostView, error) {
	if !v.Authenticated() {
		return nil, apperr.PermissionDenied("sign in to create posts")
	}
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	now := s.now()
	post, err := s.store.CreatePost(ctx, &domain.Post{
		Title:     in.Title,
		Content:   in.Content,
		Excerpt:   in.Excerpt,
		Tags:      in.Tags,
		ImageURL:  in.ImageURL,
		AuthorID:  v.UserID,
		Status:    domain.InitialStatus(v.Role),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, s.storeErr("create post", "post", err)
	}
	s.log.Info().Str("post_id", post.ID).Str("author_id", post.AuthorID).Str("status", string(post.Status)).Msg("post created")
	return s.enrichOne(ctx, v, post), nil
}

// UpdatePost меняет содержимое поста. Только автор; статус не меняется.
func (s *Service) UpdatePost(ctx context.Context, v domain.Viewer, id string, in domain.PostInput) (*domain.PostView, error) {
	if !v.Authenticated() {
		return nil, apperr.PermissionDenied("sign in to edit posts")
	}
	in, err := normalizeInput(in)
	if err != nil {
		return nil, err
	}

	post, err := s.viewablePost(ctx, v, id)
	if err != nil {
		return nil, err
	}
	if !domain.CanEditPost(post, v) {
		return nil, apperr.PermissionDenied("only the author can edit this post")
	}

	updated, err := s.store.UpdatePost(ctx, id, domain.PostPatch{
		Title:     &in.Title,
		Content:   &in.Content,
		Excerpt:   &in.Excerpt,
		Tags:      in.Tags,
		ImageURL:  &in.ImageURL,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, s.storeErr("update post", "post", err)
	}
	return s.enrichOne(ctx, v, updated), nil
}

// DeletePost удаляет пост вместе с реакциями и комментариями.
func (s *Service) DeletePost(ctx context.Context, v domain.Viewer, id string) error {
	if !v.Authenticated() {
		return apperr.PermissionDenied("sign in to delete posts")
	}
	post, err := s.viewablePost(ctx, v, id)
	if err != nil {
		return err
	}
	if !domain.CanDeletePost(post, v) {
		return apperr.PermissionDenied("only the author or a moderator can delete this post")
	}
	if err := s.store.DeletePost(ctx, id); err != nil {
		return s.storeErr("delete post", "post", err)
	}
	s.log.Info().Str("post_id", id).Str("deleted_by", v.UserID).Msg("post deleted")
	return nil
}

// FindPost - пост без обогащения. Невидимый зрителю пост - NotFound.
func (s *Service) FindPost(ctx context.Context, v domain.Viewer, id string) (*domain.Post, error) {
	return s.viewablePost(ctx, v, id)
}

// viewablePost загружает пост и прячет его от тех, кому он не виден.
func (s *Service) viewablePost(ctx context.Context, v domain.Viewer, id string) (*domain.Post, error) {
	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get post", "post", err)
	}
	if !domain.Viewable(post, v) {
		return nil, apperr.NotFound("post")
	}
	return post, nil
}

func normalizeInput(in domain.PostInput) (domain.PostInput, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	in.Excerpt = strings.TrimSpace(in.Excerpt)
	in.ImageURL = strings.TrimSpace(in.ImageURL)

	if in.Title == "" {
		return in, apperr.Validation("title", "title is required")
	}
	if utf8.RuneCountInString(in.Title) > maxTitleLength {
		return in, apperr.Validation("title", "title is too long")
	}
	if in.Content == "" {
		return in, apperr.Validation("content", "content is required")
	}
	if in.Excerpt == "" {
		in.Excerpt = domain.DeriveExcerpt(in.Content)
	}
	in.Tags = domain.NormalizeTags(in.Tags)
	return in, nil
}

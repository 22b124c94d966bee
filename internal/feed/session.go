package feed

import (
	"context"
	"sync"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/rs/zerolog"
)

// Backend - операции, которые сессия вызывает на сервере. *blog.Service
// удовлетворяет этому интерфейсу.
type Backend interface {
	ListPosts(ctx context.Context, v domain.Viewer) ([]domain.PostView, error)
	Moderate(ctx context.Context, v domain.Viewer, postID string, action domain.Action) (*domain.Post, error)
	React(ctx context.Context, v domain.Viewer, postID string, want bool) (*domain.ReactionState, error)
	ListComments(ctx context.Context, v domain.Viewer, postID string) ([]domain.CommentView, error)
	AddComment(ctx context.Context, v domain.Viewer, postID, content string) (*domain.CommentView, error)
	EditComment(ctx context.Context, v domain.Viewer, commentID, content string) (*domain.CommentView, error)
	DeleteComment(ctx context.Context, v domain.Viewer, commentID string) error
}

// Session - состояние ленты одного зрителя: загруженные посты, фильтры и
// раскрытая ветка комментариев. Мьютекс не держится во время вызовов
// backend, так что медленный запрос не блокирует остальные операции.
type Session struct {
	backend Backend
	viewer  domain.Viewer
	log     zerolog.Logger

	mu       sync.Mutex
	posts    []domain.PostView
	tags     []string
	criteria Criteria
	expanded string
	comments []domain.CommentView
}

func NewSession(backend Backend, viewer domain.Viewer, log zerolog.Logger) *Session {
	return &Session{
		backend: backend,
		viewer:  viewer,
		log:     log.With().Str("component", "feed_session").Str("user_id", viewer.UserID).Logger(),
	}
}

func (s *Session) Viewer() domain.Viewer { return s.viewer }

// Refresh перечитывает ленту. При ошибке прежнее состояние сохраняется.
func (s *Session) Refresh(ctx context.Context) error {
	posts, err := s.backend.ListPosts(ctx, s.viewer)
	if err != nil {
		s.log.Warn().Err(err).Msg("feed refresh failed")
		return err
	}
	posts = Visible(posts, s.viewer)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.posts = posts
	s.tags = AggregateTags(posts)
	if s.expanded != "" && s.indexLocked(s.expanded) < 0 {
		s.expanded = ""
		s.comments = nil
	}
	return nil
}

// Visible - лента после всех фильтров, в порядке загрузки.
func (s *Session) Visible() []domain.PostView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Apply(s.posts, s.viewer, s.criteria)
}

// Tags - теги всех загруженных постов для чипов фильтра.
func (s *Session) Tags() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.tags...)
}

// Criteria возвращает копию текущих фильтров.
func (s *Session) Criteria() Criteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.criteria
	c.SelectedTags = append([]string(nil), s.criteria.SelectedTags...)
	return c
}

func (s *Session) SetSearchTerm(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.SearchTerm = term
}

func (s *Session) ToggleTag(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.ToggleTag(tag)
}

// ClearFilters сбрасывает поиск и теги одним действием.
func (s *Session) ClearFilters() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.Clear()
}

// SetModerationView переключает режим модерации. Доступно только модератору.
func (s *Session) SetModerationView(active bool) error {
	if !s.viewer.IsModerator() {
		return apperr.PermissionDenied("only moderators can use the moderation view")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.criteria.ModerationView = active
	return nil
}

// Moderate одобряет или отклоняет пост и сразу отражает новый статус в ленте.
func (s *Session) Moderate(ctx context.Context, postID string, action domain.Action) error {
	post, err := s.backend.Moderate(ctx, s.viewer, postID, action)
	if err != nil {
		s.afterFailure(ctx, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(postID); i >= 0 {
		s.posts[i].Status = post.Status
		s.posts[i].UpdatedAt = post.UpdatedAt
	}
	return nil
}

// Outcome - итог двухфазного обновления лайка: сначала локально применяется
// Optimistic, затем он либо подтверждается сервером (Final), либо
// откатывается к Before.
type Outcome struct {
	PostID     string
	Before     domain.ReactionState
	Optimistic domain.ReactionState
	Final      domain.ReactionState
	Err        error
}

// RolledBack - локальное изменение было отменено.
func (o Outcome) RolledBack() bool { return o.Err != nil }

// React переключает лайк: фаза 1 - локальное применение, фаза 2 -
// подтверждение сервером или откат при ошибке.
func (s *Session) React(ctx context.Context, postID string, want bool) (Outcome, error) {
	if !s.viewer.Authenticated() {
		err := apperr.PermissionDenied("sign in to react to posts")
		return Outcome{PostID: postID, Err: err}, err
	}

	out := s.applyOptimistic(postID, want)

	state, err := s.backend.React(ctx, s.viewer, postID, want)
	if err != nil {
		out.Err = err
		out.Final = out.Before
		s.rollback(out)
		s.afterFailure(ctx, err)
		return out, err
	}

	out.Final = *state
	s.confirm(out)
	return out, nil
}

func (s *Session) applyOptimistic(postID string, want bool) Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Outcome{PostID: postID}
	i := s.indexLocked(postID)
	if i < 0 {
		out.Before = domain.ReactionState{PostID: postID}
		out.Optimistic = domain.ReactionState{PostID: postID, Reacted: want}
		return out
	}

	p := &s.posts[i]
	out.Before = domain.ReactionState{PostID: postID, Reacted: p.ViewerHasReacted, LikeCount: p.LikeCount}
	out.Optimistic = out.Before
	if want != p.ViewerHasReacted {
		out.Optimistic.Reacted = want
		if want {
			out.Optimistic.LikeCount++
		} else if out.Optimistic.LikeCount > 0 {
			out.Optimistic.LikeCount--
		}
	}
	p.ViewerHasReacted = out.Optimistic.Reacted
	p.LikeCount = out.Optimistic.LikeCount
	return out
}

func (s *Session) confirm(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexLocked(out.PostID); i >= 0 {
		s.posts[i].ViewerHasReacted = out.Final.Reacted
		s.posts[i].LikeCount = out.Final.LikeCount
	}
}

// rollback возвращает прежние значения, только если их никто не поменял
// после оптимистичного применения.
func (s *Session) rollback(out Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexLocked(out.PostID)
	if i < 0 {
		return
	}
	p := &s.posts[i]
	if p.ViewerHasReacted == out.Optimistic.Reacted && p.LikeCount == out.Optimistic.LikeCount {
		p.ViewerHasReacted = out.Before.Reacted
		p.LikeCount = out.Before.LikeCount
	}
}

// ToggleThread раскрывает ветку поста, сворачивая предыдущую. Повторный
// вызов для раскрытой ветки её сворачивает. Комментарии грузятся только
// при раскрытии.
func (s *Session) ToggleThread(ctx context.Context, postID string) ([]domain.CommentView, error) {
	s.mu.Lock()
	if s.expanded == postID {
		s.expanded = ""
		s.comments = nil
		s.mu.Unlock()
		return nil, nil
	}
	s.mu.Unlock()

	comments, err := s.backend.ListComments(ctx, s.viewer, postID)
	if err != nil {
		s.afterFailure(ctx, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.expanded = postID
	s.comments = comments
	if i := s.indexLocked(postID); i >= 0 {
		s.posts[i].CommentCount = len(comments)
	}
	return append([]domain.CommentView(nil), comments...), nil
}

// Expanded - ID раскрытого поста или пустая строка.
func (s *Session) Expanded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.expanded
}

func (s *Session) Comments() []domain.CommentView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.CommentView(nil), s.comments...)
}

// AddComment пишет комментарий в раскрытую ветку.
func (s *Session) AddComment(ctx context.Context, content string) (*domain.CommentView, error) {
	postID := s.Expanded()
	if postID == "" {
		return nil, apperr.Validation("thread", "no thread is expanded")
	}
	c, err := s.backend.AddComment(ctx, s.viewer, postID, content)
	if err != nil {
		s.afterFailure(ctx, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.expanded == postID {
		s.comments = append(s.comments, *c)
	}
	if i := s.indexLocked(postID); i >= 0 {
		s.posts[i].CommentCount++
	}
	return c, nil
}

func (s *Session) EditComment(ctx context.Context, commentID, content string) (*domain.CommentView, error) {
	c, err := s.backend.EditComment(ctx, s.viewer, commentID, content)
	if err != nil {
		s.afterFailure(ctx, err)
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID == commentID {
			s.comments[i] = *c
			break
		}
	}
	return c, nil
}

func (s *Session) DeleteComment(ctx context.Context, commentID string) error {
	if err := s.backend.DeleteComment(ctx, s.viewer, commentID); err != nil {
		s.afterFailure(ctx, err)
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.comments {
		if s.comments[i].ID != commentID {
			continue
		}
		postID := s.comments[i].PostID
		s.comments = append(s.comments[:i:i], s.comments[i+1:]...)
		if j := s.indexLocked(postID); j >= 0 && s.posts[j].CommentCount > 0 {
			s.posts[j].CommentCount--
		}
		break
	}
	return nil
}

// afterFailure логирует ошибку; NotFound означает, что лента устарела.
func (s *Session) afterFailure(ctx context.Context, err error) {
	s.log.Warn().Err(err).Str("code", string(apperr.CodeOf(err))).Msg("feed operation failed")
	if apperr.CodeOf(err) != apperr.CodeNotFound {
		return
	}
	if rerr := s.Refresh(ctx); rerr != nil {
		s.log.Warn().Err(rerr).Msg("refresh after not found failed")
	}
}

func (s *Session) indexLocked(postID string) int {
	for i := range s.posts {
		if s.posts[i].ID == postID {
			return i
		}
	}
	return -1
}

package blog

import (
	"context"

	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/metrics"
)

// Виды подзапросов обогащения, для логов и метрик.
const (
	kindLikes     = "like_count"
	kindComments  = "comment_count"
	kindAuthors   = "author"
	kindReactions = "viewer_reactions"
)

// enrich строит PostView для каждого поста. Счётчики и авторы грузятся
// батчами; сбой подзапроса даёт значения по умолчанию и не прерывает выдачу.
func (s *Service) enrich(ctx context.Context, v domain.Viewer, posts []*domain.Post) []domain.PostView {
	views := make([]domain.PostView, len(posts))
	if len(posts) == 0 {
		return views
	}

	postIDs := make([]string, len(posts))
	authorIDs := make([]string, 0, len(posts))
	seenAuthor := make(map[string]struct{}, len(posts))
	for i, p := range posts {
		postIDs[i] = p.ID
		if _, ok := seenAuthor[p.AuthorID]; !ok {
			seenAuthor[p.AuthorID] = struct{}{}
			authorIDs = append(authorIDs, p.AuthorID)
		}
	}

	loaders := s.loaders(ctx)
	likes, likeErrs := dataloader.LoadCounts(ctx, loaders.LikeCounts, postIDs)
	s.degraded(kindLikes, likeErrs)
	comments, commentErrs := dataloader.LoadCounts(ctx, loaders.CommentCounts, postIDs)
	s.degraded(kindComments, commentErrs)
	profiles := s.loadProfiles(ctx, loaders, authorIDs)
	reacted := s.viewerReactions(ctx, v)

	for i, p := range posts {
		_, mine := reacted[p.ID]
		views[i] = domain.PostView{
			Post:             *p,
			Author:           domain.AuthorFrom(p.AuthorID, profiles[p.AuthorID]),
			LikeCount:        likes[p.ID],
			CommentCount:     comments[p.ID],
			ViewerHasReacted: mine,
		}
	}
	return views
}

func (s *Service) enrichOne(ctx context.Context, v domain.Viewer, p *domain.Post) *domain.PostView {
	views := s.enrich(ctx, v, []*domain.Post{p})
	return &views[0]
}

// loadProfiles никогда не возвращает ошибку: при сбое все авторы станут Anonymous.
func (s *Service) loadProfiles(ctx context.Context, loaders *dataloader.Loaders, ids []string) map[string]*domain.Profile {
	if len(ids) == 0 {
		return nil
	}
	profiles, err := dataloader.LoadProfiles(ctx, loaders.Profiles, ids)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues(kindAuthors).Inc()
		s.log.Warn().Err(err).Int("authors", len(ids)).Msg("author lookup failed, falling back to anonymous")
	}
	return profiles
}

// viewerReactions - один запрос на клиентский запрос, а не по запросу на пост.
func (s *Service) viewerReactions(ctx context.Context, v domain.Viewer) map[string]struct{} {
	if !v.Authenticated() {
		return nil
	}
	reacted, err := dataloader.LoadReactions(ctx, s.loaders(ctx).Reactions, v.UserID)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues(kindReactions).Inc()
		s.log.Warn().Err(err).Str("user_id", v.UserID).Msg("viewer reactions lookup failed")
		return nil
	}
	return reacted
}

func (s *Service) degraded(kind string, errs map[string]error) {
	if len(errs) == 0 {
		return
	}
	metrics.EnrichmentFailuresTotal.WithLabelValues(kind).Inc()
	for postID, err := range errs {
		s.log.Warn().Err(err).Str("kind", kind).Str("post_id", postID).Int("failed", len(errs)).
			Msg("enrichment failed, using zero")
		break
	}
}

// commentViews собирает представления комментариев с авторами.
func (s *Service) commentViews(ctx context.Context, v domain.Viewer, comments []*domain.Comment) []domain.CommentView {
	ids := make([]string, 0, len(comments))
	seen := make(map[string]struct{}, len(comments))
	for _, c := range comments {
		if _, ok := seen[c.AuthorID]; !ok {
			seen[c.AuthorID] = struct{}{}
			ids = append(ids, c.AuthorID)
		}
	}
	profiles := s.loadProfiles(ctx, s.loaders(ctx), ids)

	views := make([]domain.CommentView, len(comments))
	for i, c := range comments {
		views[i] = domain.NewCommentView(c, domain.AuthorFrom(c.AuthorID, profiles[c.AuthorID]), v)
	}
	return views
}

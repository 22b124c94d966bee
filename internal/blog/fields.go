package blog

import (
	"context"

	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/domain"
)

// Поля поста и комментария по одному. Вызовы из параллельных резолверов
// одного запроса собираются лоадерами в батчи; при сбое - значения по умолчанию.

// LikeCount - число лайков поста.
func (s *Service) LikeCount(ctx context.Context, postID string) int {
	counts, errs := dataloader.LoadCounts(ctx, s.loaders(ctx).LikeCounts, []string{postID})
	s.degraded(kindLikes, errs)
	return counts[postID]
}

// CommentCount - число комментариев поста.
func (s *Service) CommentCount(ctx context.Context, postID string) int {
	counts, errs := dataloader.LoadCounts(ctx, s.loaders(ctx).CommentCounts, []string{postID})
	s.degraded(kindComments, errs)
	return counts[postID]
}

// Author - автор записи, Anonymous если профиля нет или он не загрузился.
func (s *Service) Author(ctx context.Context, authorID string) domain.Author {
	profiles := s.loadProfiles(ctx, s.loaders(ctx), []string{authorID})
	return domain.AuthorFrom(authorID, profiles[authorID])
}

// ViewerHasReacted - лайкнул ли зритель пост.
func (s *Service) ViewerHasReacted(ctx context.Context, v domain.Viewer, postID string) bool {
	_, ok := s.viewerReactions(ctx, v)[postID]
	return ok
}

package blog

import (
	"context"
	"errors"
	"strconv"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/metrics"
	"github.com/UkralStul/peacesync-blog/internal/storage"
)

// React ставит (want=true) или снимает лайк. Операция идемпотентна:
// повторная вставка и удаление отсутствующей строки - не ошибки.
func (s *Service) React(ctx context.Context, v domain.Viewer, postID string, want bool) (*domain.ReactionState, error) {
	if !v.Authenticated() {
		return nil, apperr.PermissionDenied("sign in to react to posts")
	}
	if _, err := s.viewablePost(ctx, v, postID); err != nil {
		return nil, err
	}

	if want {
		err := s.store.AddReaction(ctx, postID, v.UserID)
		// гонка двойного лайка: уникальный ключ отбил вторую вставку
		if err != nil && !errors.Is(err, storage.ErrDuplicate) {
			return nil, s.storeErr("add reaction", "post", err)
		}
	} else {
		err := s.store.RemoveReaction(ctx, postID, v.UserID)
		if err != nil && !errors.Is(err, storage.ErrNotFound) {
			return nil, s.storeErr("remove reaction", "post", err)
		}
	}
	metrics.ReactionTogglesTotal.WithLabelValues(strconv.FormatBool(want)).Inc()

	count, err := s.store.CountReactions(ctx, postID)
	if err != nil {
		metrics.EnrichmentFailuresTotal.WithLabelValues(kindLikes).Inc()
		s.log.Warn().Err(err).Str("post_id", postID).Msg("like count failed after reaction")
		count = 0
	}
	return &domain.ReactionState{PostID: postID, Reacted: want, LikeCount: count}, nil
}

package blog

import (
	"context"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/metrics"
)

// Moderate применяет действие модератора к посту и сохраняет новый статус.
// Повтор того же действия ничего не пишет и возвращает пост как есть.
func (s *Service) Moderate(ctx context.Context, v domain.Viewer, id string, action domain.Action) (*domain.Post, error) {
	if _, err := domain.ParseAction(string(action)); err != nil {
		return nil, err
	}
	// роль проверяется до чтения, иначе по ответу можно узнать, есть ли скрытый пост
	if !v.IsModerator() {
		metrics.ModerationActionsTotal.WithLabelValues(string(action), "denied").Inc()
		return nil, apperr.PermissionDenied("only moderators can %s posts", action)
	}

	post, err := s.store.GetPostByID(ctx, id)
	if err != nil {
		metrics.ModerationActionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, s.storeErr("get post", "post", err)
	}

	next, err := domain.Transition(post.Status, action, v.Role)
	if err != nil {
		metrics.ModerationActionsTotal.WithLabelValues(string(action), resultLabel(err)).Inc()
		s.log.Warn().Err(err).Str("post_id", id).Str("user_id", v.UserID).Str("action", string(action)).
			Msg("moderation rejected")
		return nil, err
	}
	if next == post.Status {
		metrics.ModerationActionsTotal.WithLabelValues(string(action), "noop").Inc()
		return post, nil
	}

	updated, err := s.store.UpdatePost(ctx, id, domain.PostPatch{Status: &next, UpdatedAt: s.now()})
	if err != nil {
		metrics.ModerationActionsTotal.WithLabelValues(string(action), "error").Inc()
		return nil, s.storeErr("update post status", "post", err)
	}

	metrics.ModerationActionsTotal.WithLabelValues(string(action), "applied").Inc()
	s.log.Info().Str("post_id", id).Str("moderator_id", v.UserID).
		Str("from", string(post.Status)).Str("to", string(next)).Msg("post moderated")
	return updated, nil
}

func resultLabel(err error) string {
	switch apperr.CodeOf(err) {
	case apperr.CodePermissionDenied:
		return "denied"
	case apperr.CodeConflict:
		return "conflict"
	case apperr.CodeValidation:
		return "invalid"
	}
	return "error"
}

package blog

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/domain"
)

// ListComments возвращает ветку комментариев поста, старые первыми.
func (s *Service) ListComments(ctx context.Context, v domain.Viewer, postID string) ([]domain.CommentView, error) {
	comments, err := s.Thread(ctx, v, postID)
	if err != nil {
		return nil, err
	}
	return s.commentViews(ctx, v, comments), nil
}

// Thread - комментарии поста без авторов и прав.
func (s *Service) Thread(ctx context.Context, v domain.Viewer, postID string) ([]*domain.Comment, error) {
	if _, err := s.viewablePost(ctx, v, postID); err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, postID)
	if err != nil {
		return nil, s.storeErr("list comments", "post", err)
	}
	return comments, nil
}

// AddComment добавляет комментарий к посту, который видит зритель.
func (s *Service) AddComment(ctx context.Context, v domain.Viewer, postID, content string) (*domain.CommentView, error) {
	if !v.Authenticated() {
		return nil, apperr.PermissionDenied("sign in to comment")
	}
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}
	if _, err := s.viewablePost(ctx, v, postID); err != nil {
		return nil, err
	}

	comment, err := s.store.CreateComment(ctx, &domain.Comment{
		PostID:    postID,
		AuthorID:  v.UserID,
		Content:   content,
		CreatedAt: s.now(),
	})
	if err != nil {
		return nil, s.storeErr("create comment", "post", err)
	}
	return s.commentView(ctx, v, comment), nil
}

// EditComment меняет текст комментария. Только автор.
func (s *Service) EditComment(ctx context.Context, v domain.Viewer, id, content string) (*domain.CommentView, error) {
	if !v.Authenticated() {
		return nil, apperr.PermissionDenied("sign in to edit comments")
	}
	content, err := validateComment(content)
	if err != nil {
		return nil, err
	}

	comment, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return nil, s.storeErr("get comment", "comment", err)
	}
	if !domain.CanEditComment(comment, v) {
		return nil, apperr.PermissionDenied("only the author can edit this comment")
	}
	// тот же текст - не правка: UpdatedAt не трогаем, отметки "edited" нет
	if content == strings.TrimSpace(comment.Content) {
		return s.commentView(ctx, v, comment), nil
	}

	// UpdatedAt обязан быть строго позже CreatedAt, даже если часы не сдвинулись.
	at := s.now()
	if !at.After(comment.CreatedAt) {
		at = comment.CreatedAt.Add(time.Microsecond)
	}
	updated, err := s.store.UpdateComment(ctx, id, content, at)
	if err != nil {
		return nil, s.storeErr("update comment", "comment", err)
	}
	return s.commentView(ctx, v, updated), nil
}

// DeleteComment удаляет комментарий. Автор или модератор.
func (s *Service) DeleteComment(ctx context.Context, v domain.Viewer, id string) error {
	if !v.Authenticated() {
		return apperr.PermissionDenied("sign in to delete comments")
	}
	comment, err := s.store.GetCommentByID(ctx, id)
	if err != nil {
		return s.storeErr("get comment", "comment", err)
	}
	if !domain.CanDeleteComment(comment, v) {
		return apperr.PermissionDenied("only the author or a moderator can delete this comment")
	}
	if err := s.store.DeleteComment(ctx, id); err != nil {
		return s.storeErr("delete comment", "comment", err)
	}
	return nil
}

func (s *Service) commentView(ctx context.Context, v domain.Viewer, c *domain.Comment) *domain.CommentView {
	views := s.commentViews(ctx, v, []*domain.Comment{c})
	return &views[0]
}

func validateComment(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", apperr.Validation("content", "comment cannot be empty")
	}
	if utf8.RuneCountInString(content) > domain.MaxCommentLength {
		return "", apperr.Validation("content", fmt.Sprintf("comment must be at most %d characters", domain.MaxCommentLength))
	}
	return content, nil
}

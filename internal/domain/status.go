package domain

import (
	"fmt"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
)

// Status - состояние поста в процессе модерации.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal - у approved и rejected нет исходящих переходов.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Action - действие модератора над постом.
type Action string

const (
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

// ParseAction разбирает действие модерации из строки.
func ParseAction(s string) (Action, error) {
	switch Action(s) {
	case ActionApprove, ActionReject:
		return Action(s), nil
	}
	return "", apperr.Validation("action", fmt.Sprintf("unknown moderation action %q", s))
}

// target - состояние, в которое ведёт действие.
func (a Action) target() Status {
	switch a {
	case ActionApprove:
		return StatusApproved
	case ActionReject:
		return StatusRejected
	}
	return ""
}

// InitialStatus - статус нового поста в зависимости от роли автора.
func InitialStatus(role Role) Status {
	if role == RoleModerator {
		return StatusApproved
	}
	return StatusPending
}

// Transition вычисляет новый статус поста. Переходы разрешены только модератору
// и только из pending. Повтор того же действия над уже переведённым постом
// возвращает текущий статус без ошибки.
func Transition(current Status, action Action, actor Role) (Status, error) {
	if actor != RoleModerator {
		return current, apperr.PermissionDenied("only moderators can %s posts", action)
	}
	next := action.target()
	if next == "" {
		return current, apperr.Validation("action", fmt.Sprintf("unknown moderation action %q", action))
	}

	switch {
	case current == StatusPending:
		return next, nil
	case current.Terminal():
		if current == next {
			return current, nil
		}
		return current, apperr.Conflict("post is already %s", current)
	default:
		return current, apperr.Conflict("post has unknown status %q", current)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/feed"
	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// Handler - HTTP-обработчики поверх blog.Service.
type Handler struct {
	svc *blog.Service
	log zerolog.Logger
}

type moderationRequest struct {
	Action string `json:"action"`
}

type reactionRequest struct {
	Reacted *bool `json:"reacted"`
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *Handler) listPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	criteria := feed.Criteria{
		SearchTerm:   q.Get("search"),
		SelectedTags: domain.NormalizeTags(q["tag"]),
	}
	if raw := q.Get("moderation"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeError(w, r, apperr.Validation("moderation", "moderation must be a boolean"))
			return
		}
		criteria.ModerationView = active
	}

	result, err := h.svc.ListFeed(r.Context(), auth.ViewerFrom(r.Context()), criteria)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var in domain.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.svc.CreatePost(r.Context(), auth.ViewerFrom(r.Context()), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.svc.GetPost(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) updatePost(w http.ResponseWriter, r *http.Request) {
	var in domain.PostInput
	if err := decodeJSON(w, r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.svc.UpdatePost(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"), in)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) deletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeletePost(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) moderatePost(w http.ResponseWriter, r *http.Request) {
	var req moderationRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	action, err := domain.ParseAction(req.Action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	post, err := h.svc.Moderate(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"), action)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *Handler) react(w http.ResponseWriter, r *http.Request) {
	var req reactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if req.Reacted == nil {
		h.writeError(w, r, apperr.Validation("reacted", "reacted is required"))
		return
	}
	state, err := h.svc.React(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"), *req.Reacted)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *Handler) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.svc.ListComments(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) addComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	comment, err := h.svc.AddComment(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "postID"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, comment)
}

func (h *Handler) editComment(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	comment, err := h.svc.EditComment(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "commentID"), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comment)
}

func (h *Handler) deleteComment(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteComment(r.Context(), auth.ViewerFrom(r.Context()), chi.URLParam(r, "commentID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// errorResponse - тело ответа с ошибкой.
type errorResponse struct {
	Code      apperr.Code `json:"code"`
	Message   string      `json:"message"`
	Field     string      `json:"field,omitempty"`
	Retryable bool        `json:"retryable"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	resp := errorResponse{Code: apperr.CodeInternal, Message: "internal error"}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		resp.Code = appErr.Code
		resp.Message = appErr.Message
		resp.Field = appErr.Field
	}
	resp.Retryable = resp.Code.Retryable()

	status := resp.Code.StatusCode()
	event := h.log.Debug()
	if status >= http.StatusInternalServerError {
		event = h.log.Error()
	}
	event.Err(err).Str("path", r.URL.Path).Str("code", string(resp.Code)).Msg("request failed")

	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("body", "request body is required")
		}
		return apperr.Validation("body", "invalid request body: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

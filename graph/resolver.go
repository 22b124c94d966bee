package graph

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/UkralStul/peacesync-blog/internal/domain"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/graph-gophers/graphql-go/relay"
	"github.com/rs/zerolog"
)

//go:embed schema.graphqls
var schemaSDL string

// maxParallelism - сколько полей одного запроса резолвится параллельно.
// Чем больше, тем крупнее батчи у лоадеров.
const maxParallelism = 32

// Resolver - корневой резолвер для Query и Mutation.
// Зритель берётся из контекста запроса (auth.Middleware).
type Resolver struct {
	svc *blog.Service
	log zerolog.Logger
}

func NewResolver(svc *blog.Service, log zerolog.Logger) *Resolver {
	return &Resolver{svc: svc, log: log.With().Str("component", "graphql").Logger()}
}

// NewSchema разбирает схему и привязывает к ней резолверы.
func NewSchema(r *Resolver) (*graphql.Schema, error) {
	return graphql.ParseSchema(schemaSDL, r,
		graphql.UseStringDescriptions(),
		graphql.MaxParallelism(maxParallelism),
		graphql.Logger(panicLogger{log: r.log}),
	)
}

// NewHandler - HTTP-обработчик GraphQL. Лоадеры и зритель должны быть
// уже положены в контекст middleware.
func NewHandler(svc *blog.Service, log zerolog.Logger) (http.Handler, error) {
	schema, err := NewSchema(NewResolver(svc, log))
	if err != nil {
		return nil, fmt.Errorf("failed to parse graphql schema: %w", err)
	}
	return &relay.Handler{Schema: schema}, nil
}

func viewer(ctx context.Context) domain.Viewer {
	return auth.ViewerFrom(ctx)
}

// gqlError отдаёт код ошибки приложения в extensions ответа.
type gqlError struct {
	err *apperr.Error
}

func (e *gqlError) Error() string { return e.err.Message }

func (e *gqlError) Unwrap() error { return e.err }

func (e *gqlError) Extensions() map[string]interface{} {
	ext := map[string]interface{}{
		"code":      string(e.err.Code),
		"retryable": e.err.Code.Retryable(),
	}
	if e.err.Field != "" {
		ext["field"] = e.err.Field
	}
	return ext
}

// fail переводит ошибку сервиса в ошибку GraphQL. Внутренние детали наружу не уходят.
func (r *Resolver) fail(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return &gqlError{err: appErr}
	}
	r.log.Error().Err(err).Msg("unexpected resolver error")
	return &gqlError{err: &apperr.Error{Code: apperr.CodeInternal, Message: "internal error"}}
}

type panicLogger struct {
	log zerolog.Logger
}

func (l panicLogger) LogPanic(_ context.Context, value interface{}) {
	l.log.Error().Interface("panic", value).Bytes("stack", debug.Stack()).Msg("graphql resolver panicked")
}

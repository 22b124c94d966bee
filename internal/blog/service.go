package blog

import (
	"context"
	"errors"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/apperr"
	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/rs/zerolog"
)

// Service - прикладной слой блога: видимость, модерация, обогащение,
// реакции и комментарии. Все операции принимают зрителя явно.
type Service struct {
	store    storage.Storage
	profiles dataloader.ProfileSource
	log      zerolog.Logger
	now      func() time.Time
}

// Option настраивает Service.
type Option func(*Service)

// WithProfiles подменяет источник профилей (например, кэш поверх хранилища).
func WithProfiles(src dataloader.ProfileSource) Option {
	return func(s *Service) { s.profiles = src }
}

// WithClock подменяет часы. Используется в тестах.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func New(store storage.Storage, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		store:    store,
		profiles: store,
		log:      log.With().Str("component", "blog").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// storeErr переводит ошибку хранилища в ошибку приложения.
func (s *Service) storeErr(op, resource string, err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.NotFound(resource)
	}
	s.log.Error().Err(err).Str("op", op).Msg("store call failed")
	return apperr.StoreUnavailable(op, err)
}

// loaders берёт лоадеры запроса или создаёт новые для вызова вне HTTP.
func (s *Service) loaders(ctx context.Context) *dataloader.Loaders {
	if l := dataloader.For(ctx); l != nil {
		return l
	}
	return dataloader.NewLoaders(s.store, s.profiles)
}

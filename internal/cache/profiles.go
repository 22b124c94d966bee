package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/UkralStul/peacesync-blog/internal/domain"
	"github.com/UkralStul/peacesync-blog/internal/metrics"
	"github.com/rs/zerolog"
)

const profileKeyPrefix = "blog:profile:"

// DefaultProfileTTL - время жизни профиля в кэше.
const DefaultProfileTTL = 10 * time.Minute

// ProfileStore - источник профилей за кэшем.
type ProfileStore interface {
	GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error)
	UpsertProfile(ctx context.Context, profile *domain.Profile) error
}

// Profiles - read-through кэш профилей авторов. Сбой кэша не ломает чтение:
// запрос уходит в хранилище.
type Profiles struct {
	kv    KV
	store ProfileStore
	ttl   time.Duration
	log   zerolog.Logger
}

func NewProfiles(kv KV, store ProfileStore, ttl time.Duration, log zerolog.Logger) *Profiles {
	if ttl <= 0 {
		ttl = DefaultProfileTTL
	}
	return &Profiles{kv: kv, store: store, ttl: ttl, log: log.With().Str("component", "profile_cache").Logger()}
}

func profileKey(id string) string { return profileKeyPrefix + id }

// GetProfilesByIDs отдаёт найденные в кэше профили, остальные добирает одним
// запросом к хранилищу и кладёт в кэш. Отсутствующие профили не кэшируются.
func (p *Profiles) GetProfilesByIDs(ctx context.Context, ids []string) (map[string]*domain.Profile, error) {
	result := make(map[string]*domain.Profile, len(ids))
	var missing []string

	for _, id := range ids {
		raw, err := p.kv.Get(ctx, profileKey(id))
		if err != nil {
			if !errors.Is(err, ErrMiss) {
				p.log.Warn().Err(err).Str("profile_id", id).Msg("profile cache read failed")
			}
			metrics.ProfileCacheLookupsTotal.WithLabelValues("miss").Inc()
			missing = append(missing, id)
			continue
		}
		var profile domain.Profile
		if err := json.Unmarshal([]byte(raw), &profile); err != nil {
			p.log.Warn().Err(err).Str("profile_id", id).Msg("corrupt profile cache entry")
			metrics.ProfileCacheLookupsTotal.WithLabelValues("miss").Inc()
			missing = append(missing, id)
			continue
		}
		metrics.ProfileCacheLookupsTotal.WithLabelValues("hit").Inc()
		result[id] = &profile
	}

	if len(missing) == 0 {
		return result, nil
	}

	fetched, err := p.store.GetProfilesByIDs(ctx, missing)
	if err != nil {
		return nil, err
	}
	for id, profile := range fetched {
		result[id] = profile
		p.put(ctx, profile)
	}
	return result, nil
}

// UpsertProfile пишет профиль в хранилище и сбрасывает запись в кэше.
func (p *Profiles) UpsertProfile(ctx context.Context, profile *domain.Profile) error {
	if err := p.store.UpsertProfile(ctx, profile); err != nil {
		return err
	}
	if err := p.kv.Del(ctx, profileKey(profile.ID)); err != nil {
		p.log.Warn().Err(err).Str("profile_id", profile.ID).Msg("profile cache invalidation failed")
	}
	return nil
}

func (p *Profiles) put(ctx context.Context, profile *domain.Profile) {
	raw, err := json.Marshal(profile)
	if err != nil {
		return
	}
	if err := p.kv.SetEx(ctx, profileKey(profile.ID), string(raw), p.ttl); err != nil {
		p.log.Warn().Err(err).Str("profile_id", profile.ID).Msg("profile cache write failed")
	}
}

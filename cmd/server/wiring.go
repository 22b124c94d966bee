package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/UkralStul/peacesync-blog/internal/cache"
	"github.com/UkralStul/peacesync-blog/internal/config"
	"github.com/UkralStul/peacesync-blog/internal/dataloader"
	"github.com/UkralStul/peacesync-blog/internal/seed"
	"github.com/UkralStul/peacesync-blog/internal/storage"
	"github.com/UkralStul/peacesync-blog/internal/storage/inmemory"
	"github.com/UkralStul/peacesync-blog/internal/storage/sqlstore"
	"github.com/UkralStul/peacesync-blog/pkg/logger"
	"github.com/rs/zerolog"
)

// app - собранные зависимости процесса.
type app struct {
	cfg      *config.Config
	log      zerolog.Logger
	store    storage.Storage
	sql      *sqlstore.Store // nil для in-memory
	profiles dataloader.ProfileSource
	cached   *cache.Profiles // nil без redis
	closers  []func() error
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if storageFlag != "" {
		cfg.Storage.Driver = storageFlag
		if err := cfg.Validate(); err != nil {
			return nil, err
		}
	}

	a := &app{cfg: cfg, log: logger.New(cfg.Log.Level, cfg.Log.Format)}
	a.log.Info().Str("storage", cfg.Storage.Driver).Msg("starting with storage")

	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		a.sql, err = sqlstore.NewPostgres(cfg.Storage.DatabaseURL, a.log)
	case config.StorageSQLite:
		a.sql, err = sqlstore.NewSQLite(cfg.Storage.SQLitePath, a.log)
	default:
		a.store = inmemory.New()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Driver, err)
	}
	if a.sql != nil {
		a.store = a.sql
		a.closers = append(a.closers, a.sql.Close)
	}

	a.profiles = a.store
	if cfg.Redis.Addr != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, a.log)
		if err != nil {
			// без кэша сервис работает, просто медленнее
			a.log.Warn().Err(err).Msg("profile cache disabled")
		} else {
			a.cached = cache.NewProfiles(rc, a.store, cfg.Redis.ProfileTTL, a.log)
			a.profiles = a.cached
			a.closers = append(a.closers, rc.Close)
		}
	}
	return a, nil
}

// seeder пишет профили через кэш, если он включён, чтобы не оставить там устаревших записей.
func (a *app) seeder(opts seed.Options) *seed.Seeder {
	sd := seed.NewSeeder(a.store, opts, a.log)
	if a.cached != nil {
		sd.WithProfileWriter(a.cached)
	}
	return sd
}

// seedOnStart заполняет демо-данными in-memory хранилище (оно пустое после старта)
// или любое другое при SEED_ON_START.
func (a *app) seedOnStart(ctx context.Context) error {
	if !a.cfg.Storage.SeedOnStart && a.cfg.Storage.Driver != config.StorageInMemory {
		return nil
	}
	if _, err := a.seeder(seed.DefaultOptions()).Run(ctx); err != nil && !errors.Is(err, seed.ErrAlreadySeeded) {
		return err
	}
	return nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("failed to close resource")
		}
	}
}

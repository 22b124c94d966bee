package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/UkralStul/peacesync-blog/graph"
	"github.com/UkralStul/peacesync-blog/internal/api"
	"github.com/UkralStul/peacesync-blog/internal/auth"
	"github.com/UkralStul/peacesync-blog/internal/blog"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg := a.cfg

	if err := a.seedOnStart(ctx); err != nil {
		return err
	}

	svc := blog.New(a.store, a.log, blog.WithProfiles(a.profiles))
	gql, err := graph.NewHandler(svc, a.log)
	if err != nil {
		return err
	}
	deps := api.Deps{
		Service:  svc,
		Verifier: auth.NewVerifier(cfg.Auth.JWTSecret, cfg.Auth.RoleClaim),
		Counts:   a.store,
		Profiles: a.profiles,
		GraphQL:  gql,
		Log:      a.log,
	}
	if a.sql != nil {
		deps.Health = a.sql
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("port", cfg.Server.Port).Msg("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-quit:
	}
	a.log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	a.log.Info().Msg("server exited gracefully")
	return nil
}

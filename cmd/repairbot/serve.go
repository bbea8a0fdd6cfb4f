package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/khayai/repairbot/internal/config"
	httpapi "github.com/khayai/repairbot/internal/http"
	"github.com/khayai/repairbot/internal/observability"
	"github.com/khayai/repairbot/internal/repo"
	"github.com/khayai/repairbot/internal/sysutil"
)

const (
	shutdownTimeout  = 15 * time.Second
	idempotencySweep = time.Hour
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the webhook, LIFF and admin HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

func runServer(ctx context.Context, c config.Config) error {
	log.Info().Str("version", version).Str("db", c.DBDriver).Msg("starting repairbot")

	shutdownOTel, err := observability.SetupOTel(ctx, c.OTEL, version)
	if err != nil {
		return fmt.Errorf("otel: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownOTel(sctx); err != nil {
			log.Warn().Err(err).Msg("otel shutdown")
		}
	}()

	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.close()

	go sysutil.Every(ctx, idempotencySweep, "purge-idempotency", func(ctx context.Context) error {
		n, err := repo.PurgeExpiredIdempotency(ctx, a.db, time.Now().UTC())
		if n > 0 {
			log.Debug().Int64("deleted", n).Msg("expired idempotency keys purged")
		}
		return err
	})

	gin.SetMode(c.GinMode)
	r := gin.New()
	httpapi.RegisterRoutes(r, a.db, a.deps, c)

	srv := &http.Server{
		Addr:              ":" + c.Port,
		Handler:           r,
		ReadTimeout:       c.ReadTimeout,
		ReadHeaderTimeout: c.ReadHeaderTimeout,
		WriteTimeout:      c.WriteTimeout,
		IdleTimeout:       c.IdleTimeout,
		MaxHeaderBytes:    c.MaxHeaderBytes,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("api", c.APIBasePath).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	// Requests in flight get their own deadline; notification pushes are
	// already detached from the request context.
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(sctx)
}

package commands

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"ecoloop/internal/config"
	"ecoloop/internal/middleware"
	"ecoloop/internal/router"
	"ecoloop/internal/services"
)

var (
	// Serve flags
	port        string
	autoMigrate bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the HTTP API on PORT (or --port).

Examples:
  ecoloop serve                       # use STORE_DRIVER from the environment
  ecoloop serve --store memory        # throwaway in-memory instance
  ecoloop serve --port 9000 --migrate # migrate the schema, then serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	serveCmd.Flags().StringVar(&port, "port", "", "Listen port (overrides PORT)")
	serveCmd.Flags().BoolVar(&autoMigrate, "migrate", false, "Migrate the schema before serving")
	rootCmd.AddCommand(serveCmd)
}

func runServe(parent context.Context) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if port != "" {
		cfg.Port = port
	}
	gin.SetMode(cfg.GinMode)

	st, err := openStore(ctx, cfg, autoMigrate || cfg.StoreDriver == config.DriverMemory)
	if err != nil {
		return err
	}
	defer st.Close()

	queue := services.NewNotificationQueue(st, cfg.NotifyQueueSize, services.NewMailService(cfg.SMTP))
	queue.Start()

	deps := services.Deps{Store: st, Notifier: queue}
	svc := services.New(deps, 5*time.Minute)
	auth := services.NewAuth(deps, cfg.JWTSecret, cfg.TokenTTL)

	if cfg.StoreDriver == config.DriverMemory {
		if _, err := svc.Catalog.Seed(ctx); err != nil {
			return err
		}
	}

	engine := router.New(router.Options{
		Services:       svc,
		Auth:           auth,
		Store:          st,
		StoreDriver:    cfg.StoreDriver,
		CORSOrigins:    cfg.CORSOrigins,
		RateLimit:      middleware.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute),
		RequestTimeout: cfg.RequestTimeout,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("store", cfg.StoreDriver).Msg("ecoloop server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}
	if err := queue.Close(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Notification queue did not drain")
	}
	return nil
}

/*
main.go - HTTP server entry point

PURPOSE:
  Starts the PPD rating API. Handles configuration, dependency injection,
  and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (defaults -> YAML file -> PPD_ environment)
  2. Build the zap logger and install it globally
  3. Open the session store (SQLite, or memory when db_path is empty)
  4. Create the rating service with metrics
  5. Start the idle-session sweeper (when session_ttl is set)
  6. Configure the HTTP router
  7. Serve until SIGINT/SIGTERM

COMMAND-LINE FLAGS:
  -config  YAML config file (default: $PPD_CONFIG)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the sweeper and close the store
  4. Exit

EXAMPLES:
  # Defaults: :8080, ./ppd.db
  ./server

  # In-memory sessions on another port
  PPD_ADDR=:3000 PPD_DB_PATH= ./server

  # Config file
  ./server -config=./ppd.yaml

SEE ALSO:
  - config/config.go: Configuration keys
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/warp/rating-engine/api"
	"github.com/warp/rating-engine/config"
	"github.com/warp/rating-engine/generic"
	"github.com/warp/rating-engine/generic/store"
	"github.com/warp/rating-engine/metrics"
	"github.com/warp/rating-engine/rating"
	"github.com/warp/rating-engine/store/sqlite"

	// Flows register themselves.
	_ "github.com/warp/rating-engine/knee"
	_ "github.com/warp/rating-engine/lumbar"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "server: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := config.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)

	// Initialize store
	var sessions generic.SessionStore
	if cfg.DBPath == "" {
		sessions = store.NewMemory()
		logger.Warn("db_path is empty, sessions are kept in memory")
	} else {
		db, err := sqlite.New(cfg.DBPath)
		if err != nil {
			return err
		}
		defer db.Close()
		sessions = db
	}

	var m *metrics.Manager
	routerCfg := api.RouterConfig{AllowedOrigins: cfg.AllowedOrigins, StaticDir: "./web/dist"}
	if cfg.MetricsEnabled {
		m = metrics.NewManager()
		routerCfg.Metrics = m.Handler()
	}

	svc := rating.NewService(sessions,
		rating.WithLogger(logger.Named("rating")),
		rating.WithMetrics(m),
	)
	handler := api.NewHandler(svc, logger.Named("api"))

	sweeper := rating.NewSweeper(svc, cfg.SessionTTL)
	sweeper.CheckInterval = cfg.SweepInterval
	sweeper.Start()
	defer sweeper.Stop()

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      api.NewRouter(handler, routerCfg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("server starting",
			zap.String("addr", cfg.Addr),
			zap.String("db_path", cfg.DBPath),
			zap.Bool("metrics", cfg.MetricsEnabled),
			zap.Int("flows", len(svc.Flows())),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

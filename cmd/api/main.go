package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"backend-gravelatlas/internal/config"
	"backend-gravelatlas/internal/db"
	"backend-gravelatlas/internal/server"
	"backend-gravelatlas/internal/tiles"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

var mainDepsProvider = defaultDeps
var mainRunner = realMain

func main() {
	mainRunner(mainDepsProvider())
}

type mainDeps struct {
	loadConfig      func() config.Config
	connectPostgres func(config.Config) (*pgxpool.Pool, error)
	connectRedis    func(config.Config) *redis.Client
	migrate         func(databaseURL string) error
	loadRoads       func(context.Context, config.Config) (*tiles.Index, error)
	notify          func(chan<- os.Signal, ...os.Signal)
	run             func(context.Context, config.Config, *pgxpool.Pool, *redis.Client, *tiles.Index, <-chan os.Signal, ListenFunc) error
}

func defaultDeps() mainDeps {
	return mainDeps{
		loadConfig:      config.Load,
		connectPostgres: db.ConnectPostgres,
		connectRedis:    db.ConnectRedis,
		migrate:         db.MigrateUp,
		loadRoads:       loadRoads,
		notify:          signal.Notify,
		run:             Run,
	}
}

func realMain(deps mainDeps) {
	cfg := deps.loadConfig()
	if err := cfg.Validate(); err != nil {
		log.Printf("invalid configuration: %v", err)
		return
	}

	var pg *pgxpool.Pool
	if cfg.Store == config.StorePostgres {
		var err error
		pg, err = deps.connectPostgres(cfg)
		if err != nil {
			log.Printf("postgres connection failed: %v", err)
		}
	}
	if pg != nil && cfg.MigrateOnStart {
		if err := deps.migrate(cfg.PostgresURL); err != nil {
			log.Printf("migrations failed: %v", err)
		}
	}

	rdb := deps.connectRedis(cfg)

	roads, err := deps.loadRoads(context.Background(), cfg)
	if err != nil {
		log.Printf("road layers not loaded: %v", err)
		roads = nil
	}

	signals := make(chan os.Signal, 1)
	deps.notify(signals, syscall.SIGINT, syscall.SIGTERM)

	if err := deps.run(context.Background(), cfg, pg, rdb, roads, signals, nil); err != nil {
		log.Printf("server exited with error: %v", err)
	}
}

// loadRoads builds the local road and gravel index from the configured
// layer files. Unset paths are skipped.
func loadRoads(ctx context.Context, cfg config.Config) (*tiles.Index, error) {
	ix := tiles.NewIndex(cfg.LayerZoom, cfg.LayerTolerancePx)
	layers := []struct{ name, path string }{
		{tiles.LayerRoad, cfg.RoadLayerPath},
		{tiles.LayerGravel, cfg.GravelLayerPath},
	}
	for _, l := range layers {
		if l.path == "" {
			continue
		}
		n, err := ix.LoadFile(ctx, l.name, l.path)
		if err != nil {
			return nil, fmt.Errorf("%s layer %s: %w", l.name, l.path, err)
		}
		log.Printf("loaded %d %s features from %s", n, l.name, l.path)
	}
	return ix, nil
}

type ListenFunc func(app *fiber.App, addr string) error

var defaultListen ListenFunc = func(app *fiber.App, addr string) error {
	return app.Listen(addr)
}

var shutdownFn = func(app *fiber.App, ctx context.Context) error {
	return app.ShutdownWithContext(ctx)
}

// Run starts the HTTP server and waits for termination signals.
func Run(ctx context.Context, cfg config.Config, pg *pgxpool.Pool, rdb *redis.Client, roads *tiles.Index, signals <-chan os.Signal, listen ListenFunc) error {
	srv := server.NewServer(cfg, pg, rdb, roads)

	if listen == nil {
		listen = defaultListen
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- listen(srv.App, cfg.ServerPort)
	}()

	select {
	case <-signals:
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			srv.Close()
			return err
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := shutdownFn(srv.App, shutdownCtx)
	srv.Close()
	if err != nil {
		return err
	}
	if pg != nil {
		pg.Close()
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	return nil
}

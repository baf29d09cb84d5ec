package server

import (
	"log"
	"net/http"

	"backend-gravelatlas/internal/auth"
	"backend-gravelatlas/internal/comment"
	"backend-gravelatlas/internal/config"
	"backend-gravelatlas/internal/draw"
	"backend-gravelatlas/internal/elevation"
	"backend-gravelatlas/internal/mapbox"
	"backend-gravelatlas/internal/resample"
	"backend-gravelatlas/internal/segment"
	"backend-gravelatlas/internal/snap"
	"backend-gravelatlas/internal/stream"
	"backend-gravelatlas/internal/tiles"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

type Server struct {
	App      *fiber.App
	Cfg      config.Config
	DB       *pgxpool.Pool
	Redis    *redis.Client
	Stream   *stream.Hub
	Roads    *tiles.Index
	Segments *segment.Service
	Draw     *draw.Registry
}

// NewServer wires the HTTP app. db and redisClient may be nil; roads holds
// the locally rendered road and gravel layers and may be empty.
func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client, roads *tiles.Index) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	if roads == nil {
		roads = tiles.NewIndex(cfg.LayerZoom, cfg.LayerTolerancePx)
	}

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Roads:  roads,
	}
	s.Segments = segment.NewService(s.segmentStore())
	s.Draw = draw.NewRegistry(newPipeline(cfg, redisClient, roads), s.Stream, s.Segments)

	registerRoutes(s)
	return s
}

// Close stops stream delivery and disconnects viewers.
func (s *Server) Close() {
	s.Stream.Close()
}

func (s *Server) segmentStore() segment.Store {
	if s.Cfg.Store == config.StoreMemory {
		return segment.NewMemoryStore()
	}
	if s.DB == nil {
		log.Printf("segment store: no postgres connection, keeping segments in memory")
		return segment.NewMemoryStore()
	}
	return segment.NewPostgresStore(s.DB)
}

// newPipeline assembles snapping, resampling and elevation for drawing.
// Mapbox is used for routing whenever a token is configured.
func newPipeline(cfg config.Config, rdb *redis.Client, roads *tiles.Index) *draw.Pipeline {
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	var (
		mb        *mapbox.Client
		router    snap.Router
		roadQuery snap.RoadQuery = roads
	)
	if cfg.MapboxToken != "" {
		mb = mapbox.NewClient(cfg.MapboxBaseURL, cfg.MapboxToken, httpClient)
		router = mb
		if cfg.RoadQuery == config.RoadsMapbox {
			roadQuery = mb
		}
	}

	var provider elevation.Provider
	switch {
	case cfg.ElevationSource == config.ElevationTerrain && mb != nil:
		provider = elevation.NewTerrainRGB(mb, cfg.ElevationWorkers)
	default:
		srtm, err := elevation.NewSRTM(httpClient)
		if err != nil {
			log.Printf("elevation: srtm unavailable, profiles will be flat: %v", err)
		} else {
			provider = srtm
		}
	}
	if provider != nil && rdb != nil {
		provider = elevation.NewCached(provider, rdb, cfg.ElevationCacheTTL)
	}

	return draw.NewPipeline(
		snap.New(router, roadQuery, cfg.SnapRadiusM),
		resample.New(roads, cfg.ResampleSpacingM),
		elevation.NewEnricher(provider, cfg.GradeBaselineM),
	)
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	segments := s.App.Group("/segments")
	segment.RegisterRoutes(segments, s.Segments, jwtMiddleware)
	if s.DB != nil {
		comment.RegisterRoutes(segments, comment.NewService(s.DB), jwtMiddleware)
	}
	draw.RegisterRoutes(s.App.Group("/draw"), s.Draw, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

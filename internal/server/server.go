package server

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/kobadaidesu/shade-route-app/internal/auth"
	"github.com/kobadaidesu/shade-route-app/internal/config"
	"github.com/kobadaidesu/shade-route-app/internal/nav"
	"github.com/kobadaidesu/shade-route-app/internal/position"
	"github.com/kobadaidesu/shade-route-app/internal/session"
	"github.com/kobadaidesu/shade-route-app/internal/stats"
	"github.com/kobadaidesu/shade-route-app/internal/stream"
)

type Server struct {
	App    *fiber.App
	Cfg    config.Config
	DB     *pgxpool.Pool
	Redis  *redis.Client
	Stream *stream.Hub
	Source *position.Source
}

func NewServer(cfg config.Config, db *pgxpool.Pool, redisClient *redis.Client) *Server {
	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())

	s := &Server{
		App:    app,
		Cfg:    cfg,
		DB:     db,
		Redis:  redisClient,
		Stream: stream.NewHub(redisClient),
		Source: position.NewSource(cfg.FixTimeout()),
	}

	registerRoutes(s)
	return s
}

func registerRoutes(s *Server) {
	s.App.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	jwtMiddleware := auth.JWTMiddleware(s.Cfg.JWTSecret)

	var store *session.Store
	if s.DB != nil {
		store = session.NewStore(s.DB)
	}
	statsSvc := stats.NewService(store, s.Redis, s.Cfg.StatsTTL())
	navSvc := nav.NewService(s.Source, store, s.Stream, statsSvc, s.Cfg.ArrivalRadiusM, s.Cfg.TrailLimit)

	auth.RegisterRoutes(s.App.Group("/auth"), auth.NewService(s.Cfg.JWTSecret, s.DB, s.Redis))
	position.RegisterRoutes(s.App.Group("/positions"), s.Source, jwtMiddleware)
	nav.RegisterRoutes(s.App.Group("/nav"), navSvc, jwtMiddleware)
	session.RegisterRoutes(s.App.Group("/sessions"), store, jwtMiddleware)
	stats.RegisterRoutes(s.App.Group("/stats"), statsSvc, jwtMiddleware)
	stream.RegisterRoutes(s.App.Group("/stream"), s.Stream)
}

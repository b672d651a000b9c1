package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"modgraph"
	"modgraph/internal/api/handler/endpoints"
	"modgraph/internal/api/models"
	"modgraph/internal/api/service"
	"modgraph/internal/api/websocket"
	"modgraph/internal/realtime"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/graceful"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func main() {
	modgraph.InitConfig(".env")
	cfg := modgraph.GetConfig()
	gin.SetMode(gin.ReleaseMode)

	if cfg.Mode == "dev" {
		if cfg.DatabaseEnabled() {
			if err := modgraph.DB.AutoMigrate(
				&models.User{},
				&models.Project{},
			); err != nil {
				modgraph.Logger.Fatal().Err(err).Msg("Failed to migrate database")
			}
			modgraph.Logger.Info().Msg("Database migrated successfully")
		}
		gin.SetMode(gin.DebugMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	router, err := graceful.Default(graceful.WithAddr(cfg.ApiPort))
	if err != nil {
		panic(err)
	}
	defer stop()
	defer router.Close()

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Modgraph-Hash"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	origin := uuid.NewString()
	compiler := service.NewCompileService(modgraph.Logger, compileOptions(cfg, origin))

	// Initialize WebSocket components
	processor := websocket.NewMessageProcessor(compiler, modgraph.Logger)
	hub := websocket.NewHub(modgraph.Logger)
	go hub.Run(ctx)
	modgraph.Logger.Info().Msg("WebSocket hub started")

	if cfg.NatsEnabled() {
		bridge := realtime.NewBridge(modgraph.Nats, hub, cfg.Nats.SubjectPrefix, origin, modgraph.Logger)
		if err = bridge.Subscribe(); err != nil {
			modgraph.Logger.Fatal().Err(err).Msg("Failed to subscribe to compile events")
		}
		defer bridge.Close()
	}

	initAPI(router, cfg, compiler, hub, processor)

	modgraph.Logger.Debug().Msgf("Starting modgraph API on port %s", cfg.ApiPort)
	if err = router.RunWithContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
		modgraph.Logger.Fatal().Msg(err.Error())
		panic(err)
	}
}

// compileOptions builds the compile cache levels and the event publisher
// from whichever backends are configured.
func compileOptions(cfg modgraph.AppConfig, origin string) service.CompileServiceOptions {
	ttl := time.Duration(cfg.Compile.CacheTTL) * time.Minute
	cache := service.TieredCache{service.NewLRUCache(cfg.Compile.CacheSize, ttl)}
	if cfg.RedisEnabled() {
		cache = append(cache, service.NewRedisCache(modgraph.Redis, "modgraph", ttl))
	}

	opts := service.CompileServiceOptions{
		Cache:    cache,
		Origin:   origin,
		MaxNodes: cfg.Compile.MaxGraphNodes,
	}
	if cfg.NatsEnabled() {
		opts.Publisher = realtime.NewPublisher(modgraph.Nats, cfg.Nats.SubjectPrefix)
	}
	return opts
}

func healthChecks(cfg modgraph.AppConfig) map[string]endpoints.HealthCheck {
	checks := make(map[string]endpoints.HealthCheck)
	if cfg.DatabaseEnabled() {
		checks["postgres"] = func(ctx context.Context) error {
			conn, err := modgraph.DB.DB()
			if err != nil {
				return err
			}
			return conn.PingContext(ctx)
		}
	}
	if cfg.RedisEnabled() {
		checks["redis"] = func(ctx context.Context) error {
			return modgraph.Redis.Ping(ctx).Err()
		}
	}
	if cfg.NatsEnabled() {
		checks["nats"] = func(ctx context.Context) error {
			if !modgraph.Nats.IsConnected() {
				return errors.New("not connected")
			}
			return modgraph.Nats.FlushWithContext(ctx)
		}
	}
	return checks
}

func initAPI(router *graceful.Graceful, cfg modgraph.AppConfig, compiler *service.CompileService, hub *websocket.Hub, processor *websocket.MessageProcessor) {
	endpoints.CompileHandler(router, compiler, healthChecks(cfg), modgraph.Logger)

	var projects *service.ProjectService
	if cfg.DatabaseEnabled() {
		projects = service.NewProjectService(compiler)
		endpoints.AuthHandler(router, cfg, service.NewUserService(), modgraph.Logger)
		endpoints.ProjectHandler(router, cfg, projects, modgraph.Logger)
	} else {
		modgraph.Logger.Warn().Msg("No database configured, accounts and saved projects are disabled")
	}

	endpoints.WebSocketHandler(router, cfg, hub, processor, projects, modgraph.Logger)
}

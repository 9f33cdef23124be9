package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"ruralsite/docs/swagger"
	"ruralsite/internal/api"
	"ruralsite/internal/api/middleware"
	"ruralsite/internal/api/registry"
	"ruralsite/internal/api/validator"
	"ruralsite/internal/auth"
	"ruralsite/internal/config"
	"ruralsite/internal/db"
	"ruralsite/internal/events"
	"ruralsite/internal/handlers"
	"ruralsite/internal/models"
	"ruralsite/internal/ratelimit"
	"ruralsite/internal/services"
	"ruralsite/internal/storage"
	"ruralsite/internal/tasks"
	"ruralsite/internal/utils/logger"
)

func main() {
	console := logger.New("ruralsite")

	// check if .env file exists
	if _, err := os.Stat(".env"); os.IsNotExist(err) {
		console.Info("No .env file found, skipping environment variable loading")
	} else {
		console.Info("Loading environment variables from .env file")
		if err := godotenv.Load(); err != nil {
			log.Fatalf("Failed to load environment variables: %v", err)
		}
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.SetLevel(logger.ParseLevel(cfg.LogLevel))

	issuer, err := auth.NewSessionIssuer(cfg.Session)
	if err != nil {
		log.Fatalf("Failed to initialize session signing: %v", err)
	}
	console.Info("Sessions signed with %s, ttl %s", issuer.Algorithm(), issuer.TTL())

	ctx := context.Background()

	// Connect to database
	conn, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(conn); err != nil {
			console.Error("Failed to close database connection", err)
		}
	}()
	if err := db.Migrate(conn); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}
	if err := models.CreateAdminFromEnv(conn, cfg.Admin, auth.Hasher(cfg.Session.BcryptCost)); err != nil {
		console.Warn("Failed to create bootstrap admin: %v", err)
	}

	store, err := storage.NewS3Store(ctx, cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to initialize asset storage: %v", err)
	}
	if err := store.Ping(ctx); err != nil {
		console.Warn("Asset storage is not reachable yet: %v", err)
	}

	bus := events.NewEventBus()
	cleanup := services.NewAssetCleanup(conn, store, bus)
	svc := registry.NewServices(services.Deps{
		DB:           conn,
		Store:        store,
		Inspector:    storage.Inspector{MaxBytes: cfg.Storage.MaxBytes, ImageMaxWidth: cfg.Storage.ImageMaxWidth},
		Validator:    validator.New(),
		Cleanup:      cleanup,
		Bus:          bus,
		QueryTimeout: cfg.Database.QueryTimeout,
	})
	subscribeAudit(bus, svc.Tables())

	authenticator, err := auth.NewAuthenticator(conn, issuer, cfg.Session.BcryptCost, cfg.Database.QueryTimeout)
	if err != nil {
		log.Fatalf("Failed to initialize authenticator: %v", err)
	}

	// Background work needs Redis; without it stranded assets wait for the
	// helper's retry-stranded-assets command.
	var (
		attempts      ratelimit.AttemptStore = ratelimit.NewMemoryStore()
		taskClient    *tasks.TaskClient
		taskServer    *tasks.Server
		taskScheduler *tasks.Scheduler
	)
	if cfg.Redis.Enabled() {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Username: cfg.Redis.Username,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer redisClient.Close()
		attempts = ratelimit.NewRedisStore(redisClient, "ruralsite:login")

		taskClient = tasks.NewTaskClient(cfg.Redis)
		defer taskClient.Close()
		bus.On(events.AssetStranded, taskClient.OnStranded)

		taskServer = tasks.NewServer(cfg.Redis, cfg.Worker, tasks.NewTaskHandler(cleanup, cfg.Worker.MaxRetryPasses))
		if err := taskServer.Start(); err != nil {
			log.Fatalf("Failed to start task server: %v", err)
		}

		taskScheduler, err = tasks.NewScheduler(cfg.Redis, cfg.Worker)
		if err != nil {
			log.Fatalf("Failed to configure task scheduler: %v", err)
		}
		if err := taskScheduler.Start(); err != nil {
			log.Fatalf("Failed to start task scheduler: %v", err)
		}
		if next, err := tasks.NextRun(cfg.Worker.SweepSchedule, time.Now()); err == nil {
			console.Info("Next stranded asset sweep at %s", next.Format(time.RFC3339))
		}
	} else {
		console.Warn("REDIS_ADDR not set; login attempts are tracked in memory and stranded assets are not retried automatically")
	}

	guard := ratelimit.NewLoginGuard(cfg.Login, attempts)
	gate := middleware.NewAuthMiddleware(issuer,
		middleware.WithCookie(cfg.Session.CookieName),
		middleware.WithPrincipalCheck(authenticator),
	)

	// Swagger documentation
	swagger.SwaggerInfo.Title = "Rural Site API"
	swagger.SwaggerInfo.Description = "Admin and public content API"
	swagger.SwaggerInfo.Version = "1.0"
	swagger.SwaggerInfo.BasePath = "/api/v1"

	apiServer := api.NewServer(cfg, api.Dependencies{
		Services: svc,
		Auth: handlers.NewAuthHandler(authenticator, guard, handlers.CookieSettings{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Server.SecureCookies,
		}),
		Gate:    gate,
		Limiter: guard,
		Ping:    db.Pinger(conn),
	})
	go func() {
		if err := apiServer.Start(); err != nil {
			log.Fatalf("API server error: %v", err)
		}
	}()
	console.Success("API server started on %s", cfg.Addr())

	// Wait for interrupt signal to gracefully shutdown the servers
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Create a deadline for graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		console.Error("Failed to shutdown API server", err)
	}
	if taskScheduler != nil {
		taskScheduler.Stop()
	}
	if taskServer != nil {
		taskServer.Shutdown()
	}
	bus.Wait()

	console.Info("Servers shutdown gracefully")
}

// subscribeAudit logs every content mutation with its actor.
func subscribeAudit(bus *events.EventBus, tables []string) {
	audit := logger.New("AUDIT")
	for _, table := range tables {
		for _, action := range []string{events.ActionCreated, events.ActionUpdated, events.ActionDeleted} {
			bus.On(events.Name(table, action), func(data interface{}) {
				if evt, ok := data.(events.ContentEvent); ok {
					audit.Info("%s %s %s by %s", evt.Resource, evt.ID, evt.Action, evt.Actor)
				}
			})
		}
	}
}

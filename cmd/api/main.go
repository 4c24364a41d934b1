package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"risewith9-sales-api/internal/cache"
	"risewith9-sales-api/internal/config"
	"risewith9-sales-api/internal/handler"
	"risewith9-sales-api/internal/middleware"
	"risewith9-sales-api/internal/repository"
	"risewith9-sales-api/internal/router"
	"risewith9-sales-api/internal/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Risewith9 Sales API...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize unit repository based on config
	var unitRepo repository.UnitRepository
	switch cfg.UnitDB.Type {
	case "mongodb", "mongo":
		mongoRepo, err := repository.NewMongoUnitRepository(
			cfg.UnitDB.MongoURI,
			cfg.UnitDB.MongoDatabase,
			cfg.UnitDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB: %v", err)
		}
		defer mongoRepo.Close()
		unitRepo = mongoRepo
		log.Println("MongoDB unit repository initialized")
	case "postgres", "postgresql":
		pgRepo, err := repository.NewPostgresUnitRepository(cfg.UnitDB.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		defer pgRepo.Close()
		unitRepo = pgRepo
		log.Println("PostgreSQL unit repository initialized")
	case "memory":
		unitRepo = repository.NewMemoryUnitRepository()
		log.Println("In-memory unit repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteUnitRepository(cfg.UnitDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		unitRepo = sqliteRepo
		log.Println("SQLite unit repository initialized")
	}

	// Initialize buyer repository. The SQLite and MySQL backends also carry
	// the builders table used for authentication.
	var buyerRepo repository.BuyerRepository
	var builderRepo repository.BuilderRepository
	switch cfg.BuyerDB.Type {
	case "mysql":
		mysqlDB, err := sql.Open("mysql", cfg.BuyerDB.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to open MySQL: %v", err)
		}
		mysqlDB.SetMaxOpenConns(10)
		mysqlDB.SetMaxIdleConns(5)
		mysqlDB.SetConnMaxLifetime(5 * time.Minute)
		if err := mysqlDB.Ping(); err != nil {
			log.Fatalf("Failed to ping MySQL: %v", err)
		}
		defer mysqlDB.Close()

		mysqlRepo := repository.NewMySQLBuyerRepository(mysqlDB)
		if err := mysqlRepo.EnsureTables(context.Background()); err != nil {
			log.Fatalf("Failed to create MySQL tables: %v", err)
		}
		buyerRepo = mysqlRepo
		builderRepo = mysqlRepo
		log.Println("MySQL buyer repository initialized")
	case "memory":
		memRepo := repository.NewMemoryBuyerRepository()
		buyerRepo = memRepo
		builderRepo = memRepo
		log.Println("In-memory buyer repository initialized")
	default: // sqlite
		sqliteRepo, err := repository.NewSQLiteBuyerRepository(cfg.BuyerDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize buyer SQLite: %v", err)
		}
		defer sqliteRepo.Close()
		buyerRepo = sqliteRepo
		builderRepo = sqliteRepo
		log.Println("SQLite buyer repository initialized")
	}

	// Initialize visit repository
	var visitRepo repository.VisitRepository
	switch cfg.VisitDB.Type {
	case "mongodb", "mongo":
		mongoVisits, err := repository.NewMongoVisitRepository(
			cfg.UnitDB.MongoURI,
			cfg.UnitDB.MongoDatabase,
			cfg.VisitDB.MongoCollection,
		)
		if err != nil {
			log.Fatalf("Failed to initialize MongoDB visit log: %v", err)
		}
		defer mongoVisits.Close()
		visitRepo = mongoVisits
		log.Println("MongoDB visit repository initialized")
	case "memory":
		visitRepo = repository.NewMemoryVisitRepository()
		log.Println("In-memory visit repository initialized")
	default: // sqlite
		sqliteVisits, err := repository.NewSQLiteVisitRepository(cfg.VisitDB.Path)
		if err != nil {
			log.Fatalf("Failed to initialize visit SQLite: %v", err)
		}
		defer sqliteVisits.Close()
		visitRepo = sqliteVisits
		log.Println("SQLite visit repository initialized")
	}

	// Initialize cache. Codes, sessions and tours need TTL storage; Redis
	// when configured, in-process memory otherwise.
	var appCache cache.Cache
	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := redisClient.Ping(ctx).Err()
		cancel()
		if err != nil {
			log.Printf("Warning: Redis connection failed, falling back to memory cache: %v", err)
			redisClient = nil
		}
	}
	if redisClient != nil {
		appCache = cache.NewRedisCache(redisClient)
		log.Println("Redis cache initialized")
	} else {
		memCache := cache.NewMemoryCache()
		defer memCache.Close()
		appCache = memCache
		log.Println("Memory cache initialized")
	}

	// Initialize visit write-behind buffer (Redis only)
	var visitBuffer *cache.RedisVisitBuffer
	if redisClient != nil {
		bufferCfg := cache.RedisBufferConfig{
			Addr:          cfg.Cache.RedisAddress(),
			Password:      cfg.Cache.RedisPassword,
			DB:            cfg.Cache.RedisDB,
			FlushInterval: 30 * time.Second,
		}
		buffer, err := cache.NewRedisVisitBuffer(bufferCfg, service.NewVisitFlushFunc(visitRepo))
		if err != nil {
			log.Printf("Warning: Redis visit buffer initialization failed: %v", err)
		} else {
			visitBuffer = buffer
			log.Println("Redis visit buffer initialized")
		}
	}

	// Initialize services
	insightService := service.NewInsightService(cfg.Insight.OpenAIAPIKey, cfg.Insight.Model)
	unitService := service.NewUnitService(unitRepo, insightService)
	accessService := service.NewAccessService(buyerRepo, unitRepo, appCache,
		cfg.Access.CodePrefix, cfg.Access.DefaultDuration)
	sessionService := service.NewSessionService(builderRepo, appCache)

	var analyticsService *service.AnalyticsService
	if visitBuffer != nil {
		analyticsService = service.NewAnalyticsService(visitRepo, visitBuffer, insightService)
	} else {
		analyticsService = service.NewAnalyticsService(visitRepo, nil, insightService)
	}
	tourService := service.NewTourService(accessService, appCache, analyticsService)

	// Seed the inventory when empty
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	units := repository.GenerateUnits(cfg.UnitDB.Towers(), cfg.UnitDB.SeedFloors, cfg.UnitDB.SeedHomes, rng)
	if err := unitService.EnsureSeeded(context.Background(), units); err != nil {
		log.Fatalf("Failed to seed inventory: %v", err)
	}

	// Bootstrap builder account
	if cfg.App.BuilderEmail != "" && cfg.App.BuilderPassword != "" {
		if creator, ok := builderRepo.(interface {
			CreateBuilder(ctx context.Context, email, passwordHash string) error
		}); ok {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.App.BuilderPassword), bcrypt.DefaultCost)
			if err != nil {
				log.Fatalf("Failed to hash builder password: %v", err)
			}
			if err := creator.CreateBuilder(context.Background(), cfg.App.BuilderEmail, string(hash)); err != nil {
				log.Fatalf("Failed to create builder account: %v", err)
			}
			log.Printf("Builder account ready: %s", cfg.App.BuilderEmail)
		}
	}

	// Start the expired-code sweeper
	sweeper := service.NewCodeSweeper(accessService, service.SweeperConfig{
		Interval: cfg.Access.SweepInterval,
	})
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize handlers
	healthHandler := handler.NewHealthHandler(cfg.App.Version)
	authHandler := handler.NewAuthHandler(sessionService)
	unitHandler := handler.NewUnitHandler(unitService)
	buyerHandler := handler.NewBuyerHandler(buyerRepo)
	accessHandler := handler.NewAccessHandler(accessService)
	tourHandler := handler.NewTourHandler(tourService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService)
	adminHandler := handler.NewAdminHandler(cfg.App.LoginKey, unitRepo, visitBuffer,
		cfg.UnitDB.Type, cfg.BuyerDB.Type)

	// Create auth middleware with injected dependencies
	authMiddleware := middleware.NewAuthMiddleware(middleware.AuthConfig{
		Sessions: sessionService,
		LoginKey: cfg.App.LoginKey,
	})

	// Create router
	r := router.New(router.Config{
		HealthHandler:    healthHandler,
		AuthHandler:      authHandler,
		UnitHandler:      unitHandler,
		BuyerHandler:     buyerHandler,
		AccessHandler:    accessHandler,
		TourHandler:      tourHandler,
		AnalyticsHandler: analyticsHandler,
		AdminHandler:     adminHandler,
		AuthMiddleware:   authMiddleware,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	// Close the visit buffer first (flushes pending events)
	if visitBuffer != nil {
		log.Println("Closing visit buffer...")
		visitBuffer.Close()
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
	fmt.Println("Goodbye!")
}

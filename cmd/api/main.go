package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/handlers"
	"alfredoptarigan/resume-parser/internal/logger"
	"alfredoptarigan/resume-parser/internal/repositories"
	"alfredoptarigan/resume-parser/internal/services"
)

func main() {
	// Load configuration
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Caller: cfg.IsDevelopment(),
	})

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	log.Info().Str("env", cfg.Server.Env).Msg("Config loaded")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Profile store
	mongoClient, err := config.InitMongo(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB")
	}

	profileRepo := repositories.NewProfileRepository(
		mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection),
	)
	if err := profileRepo.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to create profile indexes")
	}

	// Upload ledger
	var uploadRepo repositories.UploadRepository
	if cfg.Database.Enabled {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		uploadRepo = repositories.NewUploadRepository(db)
	} else {
		log.Info().Msg("Upload ledger disabled")
	}

	// Object storage
	storage, err := services.NewObjectStorage(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}
	if err := storage.EnsureBucket(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to prepare storage bucket")
	}

	// Gemini
	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini")
	}
	log.Info().Str("model", cfg.Gemini.Model).Msg("Gemini initialized")

	// Profile cache
	redisClient, err := config.InitRedis(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Redis")
	}
	var cache services.ProfileCache
	if redisClient != nil {
		cache = services.NewProfileCache(redisClient, cfg.Redis.TTL)
	} else {
		log.Info().Msg("Profile cache disabled")
	}

	// Semantic search
	var (
		searchIndex services.SearchIndex
		indexer     services.Indexer
	)
	if cfg.Qdrant.URL != "" {
		searchIndex, err = services.NewSearchIndex(cfg.Qdrant)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Qdrant")
		}
		if err := searchIndex.InitCollection(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Qdrant collection")
		}

		indexer = services.NewIndexer(
			searchIndex,
			geminiService,
			services.NewTextChunker(1000, 200),
			cfg.Indexer.Concurrency,
			cfg.Indexer.QueueSize,
		)
		indexer.Start(ctx)
	} else {
		log.Info().Msg("Profile search disabled")
	}

	profileService := services.NewProfileService(services.ProfileServiceDeps{
		Profiles:    profileRepo,
		Uploads:     uploadRepo,
		Storage:     storage,
		Extractor:   services.NewTextExtractor(),
		Parser:      services.NewResumeParser(geminiService, cfg.Gemini.MaxAttempts),
		Embedder:    geminiService,
		Cache:       cache,
		Indexer:     indexer,
		Search:      searchIndex,
		MaxFileSize: cfg.Storage.MaxFileSize,
	})

	profileHandler := handlers.NewProfileHandler(profileService, cfg.Storage.MaxFileSize)

	// Create Fiber app. The body limit leaves room above the file limit so
	// oversized resumes get a 400 from the handler instead of a 413.
	app := fiber.New(fiber.Config{
		AppName:      "Resume Parser API",
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		BodyLimit:    int(cfg.Storage.MaxFileSize*2) + 1<<20,
		ErrorHandler: handlers.ErrorHandler,
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format:     "[${time}] ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "2006-01-02 15:04:05",
		Output:     log.Logger,
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	// Routes
	app.Get("/", handlers.HandleRoot)
	app.Get("/health", handlers.HandleHealth)
	profileHandler.Register(app)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		log.Info().Msg("Shutting down server...")
		if err := app.Shutdown(); err != nil {
			log.Error().Err(err).Msg("Server forced to shutdown")
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Info().Str("addr", addr).Msg("Server starting")

	if err := app.Listen(addr); err != nil {
		log.Fatal().Err(err).Msg("Failed to start server")
	}

	shutdown(indexer, mongoClient, redisClient)
}

func shutdown(indexer services.Indexer, mongoClient *mongo.Client, redisClient *redis.Client) {
	if indexer != nil {
		indexer.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := mongoClient.Disconnect(ctx); err != nil {
		log.Error().Err(err).Msg("Failed to disconnect MongoDB")
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close Redis")
		}
	}

	log.Info().Msg("Server stopped")
}

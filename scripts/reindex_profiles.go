package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"alfredoptarigan/resume-parser/internal/config"
	"alfredoptarigan/resume-parser/internal/logger"
	"alfredoptarigan/resume-parser/internal/models"
	"alfredoptarigan/resume-parser/internal/repositories"
	"alfredoptarigan/resume-parser/internal/services"
)

// Rebuilds the search index from the stored resumes of every profile.
func main() {
	cfg := config.Load()
	logger.Init(logger.Config{Level: cfg.Logger.Level, Format: "pretty"})

	log.Info().Msg("Starting profile re-index...")

	if cfg.Qdrant.URL == "" {
		log.Fatal().Msg("QDRANT_URL is not set, nothing to index into")
	}

	ctx := context.Background()

	mongoClient, err := config.InitMongo(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())

	profileRepo := repositories.NewProfileRepository(
		mongoClient.Database(cfg.Mongo.Database).Collection(cfg.Mongo.Collection),
	)

	storage, err := services.NewObjectStorage(cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	geminiService, err := services.NewGeminiService(ctx, cfg.Gemini)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Gemini")
	}

	searchIndex, err := services.NewSearchIndex(cfg.Qdrant)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize Qdrant")
	}
	if err := searchIndex.InitCollection(ctx); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize collection")
	}

	extractor := services.NewTextExtractor()
	indexer := services.NewIndexer(searchIndex, geminiService, services.NewTextChunker(1000, 200), 1, 1)

	successCount := 0
	failCount := 0
	skipCount := 0

	err = profileRepo.ForEach(ctx, func(profile *models.Profile) error {
		l := log.With().Str("clerk_id", profile.ClerkID).Logger()

		if profile.ResumeFilename == "" {
			l.Warn().Msg("No stored resume, skipping")
			skipCount++
			return nil
		}

		objectKey := services.ResumeObjectKey(profile.ClerkID, profile.ResumeFilename)
		content, err := storage.Download(ctx, objectKey)
		if err != nil {
			l.Error().Err(err).Str("object_key", objectKey).Msg("Failed to download resume")
			failCount++
			return nil
		}

		text, err := extractor.ExtractText(profile.ResumeFilename, content)
		if err != nil {
			l.Error().Err(err).Msg("Failed to extract text")
			failCount++
			return nil
		}

		if err := indexer.Index(ctx, services.IndexJob{ClerkID: profile.ClerkID, Text: text}); err != nil {
			l.Error().Err(err).Msg("Failed to index profile")
			failCount++
			return nil
		}

		l.Info().Int("characters", len(text)).Msg("Profile indexed")
		successCount++
		return nil
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to walk profiles")
	}

	// Summary
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("Re-index Summary:")
	fmt.Printf("   Indexed: %d profiles\n", successCount)
	fmt.Printf("   Skipped: %d profiles\n", skipCount)
	fmt.Printf("   Failed:  %d profiles\n", failCount)
	fmt.Println(strings.Repeat("=", 60))

	if failCount > 0 {
		log.Warn().Msg("Some profiles failed to index. Please check the logs above.")
		os.Exit(1)
	}

	log.Info().Msg("All profiles indexed successfully")
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aimeal/backend/config"
	"github.com/aimeal/backend/internal/capability"
	httpDelivery "github.com/aimeal/backend/internal/delivery/http"
	"github.com/aimeal/backend/internal/domain"
	"github.com/aimeal/backend/internal/infrastructure/barcode"
	"github.com/aimeal/backend/internal/infrastructure/blobstore"
	"github.com/aimeal/backend/internal/infrastructure/cache"
	"github.com/aimeal/backend/internal/infrastructure/openfoodfacts"
	"github.com/aimeal/backend/internal/infrastructure/rekognition"
	"github.com/aimeal/backend/internal/usecase"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogging(cfg)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("storage", cfg.Storage.Type).
		Msg("Starting AIMeal Backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid timezone")
	}

	// Initialize infrastructure dependencies
	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize meal storage")
	}

	searchCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer searchCache.Close()
	log.Info().Dur("ttl", cfg.Cache.TTL).Msg("Search cache ready")

	catalogClient := openfoodfacts.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.Timeout, cfg.RateLimit.Catalog)

	// Enable debug mode in development environment
	if cfg.Catalog.Debug || cfg.Server.Environment == "development" {
		catalogClient.SetDebug(true)
		log.Debug().Msg("Catalog client debug mode enabled")
	}

	decoders := capability.NewProvider[domain.BarcodeDecoder]("barcode", barcodeLoader(cfg), barcode.FallbackDecoder{})
	classifiers := capability.NewProvider[domain.ImageClassifier]("classifier", classifierLoader(ctx, cfg), nil)

	// Initialize usecase layer
	catalog := usecase.NewCatalogService(searchCache, catalogClient, usecase.CatalogServiceConfig{
		CacheTTL: cfg.Cache.TTL,
	})

	meals := usecase.NewMealStore(blobs, usecase.MealStoreConfig{
		Key:      cfg.Storage.Key,
		Location: loc,
	})
	meals.Initialize(ctx)
	if status := meals.Status(); status.Error != "" {
		log.Warn().Str("error", status.Error).Msg("Meal store started without saved meals")
	}

	handler := httpDelivery.NewHandler(httpDelivery.Dependencies{
		Catalog:           catalog,
		Meals:             meals,
		Editor:            usecase.NewMealEditor(validator.New(validator.WithRequiredStructEnabled()), loc, nil),
		Summary:           usecase.NewSummaryService(meals, cfg.Summary.CalorieGoal),
		Recognizer:        usecase.NewFoodRecognizer(classifiers, nil),
		Decoders:          decoders,
		Capabilities:      []httpDelivery.CapabilityReporter{decoders, classifiers},
		ScanFallbackDelay: cfg.Capabilities.Barcode.FallbackDelay,
		SearchDebounce:    cfg.Search.Debounce,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

// setupLogging configures the global zerolog logger
func setupLogging(cfg *config.Config) {
	zerolog.TimeFieldFormat = time.RFC3339

	level, err := zerolog.ParseLevel(cfg.Server.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if cfg.Catalog.Debug {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Server.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// newBlobStore builds the meal list backend selected by configuration
func newBlobStore(ctx context.Context, cfg config.StorageConfig) (domain.BlobStore, error) {
	var (
		store domain.BlobStore
		err   error
	)

	switch cfg.Type {
	case "s3":
		log.Info().Str("bucket", cfg.S3Bucket).Str("prefix", cfg.S3Prefix).Msg("Using S3 meal storage")
		store, err = blobstore.NewS3StoreFromEnv(ctx, cfg.S3Region, cfg.S3Bucket, cfg.S3Prefix)
	case "postgres":
		log.Info().Msg("Using Postgres meal storage")
		store, err = blobstore.NewPostgresStore(cfg.DSN)
	default:
		log.Info().Str("dir", cfg.Dir).Msg("Using file meal storage")
		store, err = blobstore.NewFileStore(cfg.Dir)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}

// barcodeLoader returns the real decoder loader, or nil to always use the fallback
func barcodeLoader(cfg *config.Config) capability.Loader[domain.BarcodeDecoder] {
	if !cfg.Capabilities.Barcode.Enabled {
		log.Info().Msg("Barcode decoding disabled, scans report the example code")
		return nil
	}
	return func() (domain.BarcodeDecoder, error) {
		decoder, err := barcode.NewDecoder()
		if err != nil {
			return nil, err
		}
		return decoder, nil
	}
}

// classifierLoader returns the Rekognition loader, or nil when classification is disabled
func classifierLoader(ctx context.Context, cfg *config.Config) capability.Loader[domain.ImageClassifier] {
	c := cfg.Capabilities.Classifier
	if !c.Enabled {
		log.Info().Msg("Food classifier disabled, recognition returns catalog suggestions")
		return nil
	}
	return func() (domain.ImageClassifier, error) {
		classifier, err := rekognition.NewClassifierFromEnv(ctx, c.Region, usecase.FoodClasses, c.MinConfidence)
		if err != nil {
			return nil, err
		}
		return classifier, nil
	}
}

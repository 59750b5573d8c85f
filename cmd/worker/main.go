package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/budgetwise/internal/categorize"
	"github.com/dvloznov/budgetwise/internal/config"
	"github.com/dvloznov/budgetwise/internal/gcsuploader"
	infraBQ "github.com/dvloznov/budgetwise/internal/infra/bigquery"
	"github.com/dvloznov/budgetwise/internal/jobs"
	"github.com/dvloznov/budgetwise/internal/jobs/inmemory"
	"github.com/dvloznov/budgetwise/internal/logger"
	"github.com/dvloznov/budgetwise/internal/pipeline"
)

func main() {
	var configPath = flag.String("config", os.Getenv("BUDGETWISE_CONFIG"), "Path to TOML config file")
	flag.Parse()

	log := logger.New()

	conf, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if conf.ProjectID == "" {
		log.Fatal().Msg("No BigQuery project configured (set project_id or BUDGETWISE_PROJECT_ID)")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := infraBQ.NewRepository(ctx, conf.ProjectID, conf.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	storage := gcsuploader.NewGCSStorageService(conf.Bucket)

	var remote categorize.RemoteClassifier
	if gemini, err := categorize.NewGeminiClassifier(ctx, conf.GeminiModel); err != nil {
		log.Warn().Err(err).Msg("Gemini classifier unavailable, using keyword fallback only")
	} else {
		remote = gemini
	}

	vocabulary := categorize.NewVocabularyCache(repo, conf.CategoryCacheTTL, log)
	categorizer := categorize.New(remote, vocabulary, log)
	processor := pipeline.NewProcessor(repo, repo, storage, categorizer, log)

	// In production, this would be replaced with Cloud Tasks or Pub/Sub.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	log.Info().Msg("Starting worker service")

	handler := func(ctx context.Context, job jobs.Job) error {
		fileJob, ok := job.(*jobs.ProcessFileJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", fileJob.JobID).
			Str("file_id", fileJob.FileID).
			Str("gcs_uri", fileJob.GCSURI).
			Msg("Processing file job")

		result, err := processor.ProcessFile(ctx, pipeline.Request{
			UserID:   fileJob.UserID,
			FileID:   fileJob.FileID,
			GCSURI:   fileJob.GCSURI,
			MIMEType: fileJob.MIMEType,
			Filename: fileJob.Filename,
		})
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", fileJob.JobID).
				Str("file_id", fileJob.FileID).
				Msg("File processing failed")
			return err
		}

		log.Info().
			Str("job_id", fileJob.JobID).
			Str("file_id", fileJob.FileID).
			Int("saved", result.SavedCount).
			Int("duplicates", result.DuplicateCount).
			Msg("File processing completed")

		return nil
	}

	if err := jobQueue.Start(ctx, handler); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().Msg("Worker service started, waiting for jobs...")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down worker service...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Worker service exited")
}

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/budgetwise/internal/api/handlers"
	"github.com/dvloznov/budgetwise/internal/api/middleware"
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
	if conf.Bucket == "" {
		log.Warn().Msg("No GCS bucket configured - statement uploads will fail")
	}

	ctx := context.Background()

	repo, err := infraBQ.NewRepository(ctx, conf.ProjectID, conf.DatasetID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create repository")
	}
	defer repo.Close()

	storage := gcsuploader.NewGCSStorageService(conf.Bucket)

	// Remote classification is optional; without credentials the keyword
	// fallback categorizes everything.
	var remote categorize.RemoteClassifier
	if gemini, err := categorize.NewGeminiClassifier(ctx, conf.GeminiModel); err != nil {
		log.Warn().Err(err).Msg("Gemini classifier unavailable, using keyword fallback only")
	} else {
		remote = gemini
	}

	vocabulary := categorize.NewVocabularyCache(repo, conf.CategoryCacheTTL, log)
	categorizer := categorize.New(remote, vocabulary, log)

	processor := pipeline.NewProcessor(repo, repo, storage, categorizer, log)

	// Job infrastructure: in-memory queue with the worker pool running in
	// this process.
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
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

	go func() {
		log.Info().Msg("Starting job worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Job worker stopped with error")
		}
	}()

	filesHandler := handlers.NewFilesHandler(repo, storage, jobQueue, conf.DefaultUserID, conf.MaxUploadBytes, log)
	transactionsHandler := handlers.NewTransactionsHandler(repo, conf.DefaultUserID, log)
	categoriesHandler := handlers.NewCategoriesHandler(repo, log)
	analyticsHandler := handlers.NewAnalyticsHandler(repo, conf.DefaultUserID, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	mux := http.NewServeMux()

	// Files endpoints
	mux.HandleFunc("/api/files", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			filesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/files/upload", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			filesHandler.Upload(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/files/process", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			filesHandler.Process(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/files/", func(w http.ResponseWriter, r *http.Request) {
		fileID := strings.TrimPrefix(r.URL.Path, "/api/files/")
		if fileID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "File ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			filesHandler.Delete(w, r, fileID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Transactions endpoints
	mux.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			transactionsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		transactionID := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if transactionID == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		switch r.Method {
		case http.MethodPut:
			transactionsHandler.Update(w, r, transactionID)
		case http.MethodDelete:
			transactionsHandler.Delete(w, r, transactionID)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Categories endpoints
	mux.HandleFunc("/api/categories", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			categoriesHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Analytics endpoints
	mux.HandleFunc("/api/analytics/summary", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.Summary(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Jobs endpoints
	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.List(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.Get(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Apply middleware
	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(
					middleware.Auth(mux),
				),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + conf.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", conf.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}

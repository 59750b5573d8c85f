// Package handlers implements the HTTP API: statement upload and processing,
// transaction listing and edits, categories, analytics and job status.
package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/budgetwise/internal/aggregate"
	"github.com/dvloznov/budgetwise/internal/api/middleware"
	bq "github.com/dvloznov/budgetwise/internal/bigquery"
	"github.com/dvloznov/budgetwise/internal/extract"
	"github.com/dvloznov/budgetwise/internal/gcs"
	"github.com/dvloznov/budgetwise/internal/jobs"
)

// userID resolves the acting user from the X-User-ID header, falling back to
// the configured default for single-user deployments.
func userID(r *http.Request, fallback string) string {
	if id := r.Header.Get("X-User-ID"); id != "" {
		return id
	}
	return fallback
}

// FilesHandler handles statement-file endpoints.
type FilesHandler struct {
	files       bq.FileRepository
	storage     gcs.StorageService
	publisher   jobs.Publisher
	defaultUser string
	maxUpload   int64
	log         zerolog.Logger
}

// NewFilesHandler creates a new files handler.
func NewFilesHandler(files bq.FileRepository, storage gcs.StorageService, publisher jobs.Publisher, defaultUser string, maxUpload int64, log zerolog.Logger) *FilesHandler {
	return &FilesHandler{
		files:       files,
		storage:     storage,
		publisher:   publisher,
		defaultUser: defaultUser,
		maxUpload:   maxUpload,
		log:         log,
	}
}

// List handles GET /api/files
func (h *FilesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	files, err := h.files.ListFilesByUser(ctx, user)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list files")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list files")
		return
	}

	if files == nil {
		files = []*bq.FileRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// Upload handles POST /api/files/upload. The statement comes as the "file"
// part of a multipart form. Unsupported formats are rejected up front so the
// file never reaches storage or the queue.
func (h *FilesHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid multipart form or file too large")
		return
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file part is required")
		return
	}
	defer part.Close()

	filename := filepath.Base(header.Filename)
	contentType := header.Header.Get("Content-Type")

	if !extract.Supported(contentType, filename) {
		middleware.WriteError(w, http.StatusBadRequest, fmt.Sprintf("Unsupported file format: %s", filename))
		return
	}

	data, err := io.ReadAll(part)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Failed to read file")
		return
	}

	fileID := uuid.New().String()
	objectName := fmt.Sprintf("uploads/%s/%s/%s-%s", user, time.Now().Format("2006/01/02"), fileID, filename)

	gcsURI, err := h.storage.UploadBytes(ctx, objectName, data, contentType)
	if err != nil {
		h.log.Error().Err(err).Str("file_id", fileID).Msg("Failed to upload file to storage")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to store file")
		return
	}

	row := &bq.FileRow{
		FileID:           fileID,
		UserID:           user,
		GCSURI:           gcsURI,
		OriginalFilename: filename,
		FileMimeType:     contentType,
		SizeBytes:        int64(len(data)),
		Status:           bq.FileStatusPending,
		UploadTS:         time.Now(),
	}
	if err := h.files.InsertFile(ctx, row); err != nil {
		h.log.Error().Err(err).Str("file_id", fileID).Msg("Failed to insert file record")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save file record")
		return
	}

	job := &jobs.ProcessFileJob{
		FileID:   fileID,
		UserID:   user,
		GCSURI:   gcsURI,
		MIMEType: contentType,
		Filename: filename,
	}
	if err := h.publisher.PublishProcessFile(ctx, job); err != nil {
		h.log.Error().Err(err).Str("file_id", fileID).Msg("Failed to enqueue processing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue processing job")
		return
	}

	h.log.Info().
		Str("file_id", fileID).
		Str("job_id", job.JobID).
		Str("gcs_uri", gcsURI).
		Int("bytes", len(data)).
		Msg("File uploaded and queued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"file_id": fileID,
		"job_id":  job.JobID,
		"gcs_uri": gcsURI,
		"status":  string(job.Status),
	})
}

// Process handles POST /api/files/process. It re-enqueues an already
// uploaded file, typically after a transient failure.
func (h *FilesHandler) Process(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	var req struct {
		FileID string `json:"file_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "file_id is required")
		return
	}

	file, err := h.files.GetFile(ctx, req.FileID)
	if err != nil {
		middleware.WriteError(w, http.StatusNotFound, "File not found")
		return
	}
	if file.UserID != user {
		middleware.WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	job := &jobs.ProcessFileJob{
		FileID:   file.FileID,
		UserID:   file.UserID,
		GCSURI:   file.GCSURI,
		MIMEType: file.FileMimeType,
		Filename: file.OriginalFilename,
	}
	if err := h.publisher.PublishProcessFile(ctx, job); err != nil {
		h.log.Error().Err(err).Str("file_id", file.FileID).Msg("Failed to enqueue processing job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue processing job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("file_id", file.FileID).Msg("Processing job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"file_id": file.FileID,
		"status":  string(job.Status),
	})
}

// Delete handles DELETE /api/files/{id}. It removes the file record together
// with every transaction imported from it.
func (h *FilesHandler) Delete(w http.ResponseWriter, r *http.Request, fileID string) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	file, err := h.files.GetFile(ctx, fileID)
	if err != nil || file.UserID != user {
		middleware.WriteError(w, http.StatusNotFound, "File not found")
		return
	}

	if err := h.files.DeleteFile(ctx, user, fileID); err != nil {
		h.log.Error().Err(err).Str("file_id", fileID).Msg("Failed to delete file")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete file")
		return
	}

	h.log.Info().Str("file_id", fileID).Msg("File and its transactions deleted")

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"file_id": fileID,
		"status":  "deleted",
	})
}

// TransactionsHandler handles transaction endpoints.
type TransactionsHandler struct {
	txs         bq.TransactionRepository
	defaultUser string
	log         zerolog.Logger
}

// NewTransactionsHandler creates a new transactions handler.
func NewTransactionsHandler(txs bq.TransactionRepository, defaultUser string, log zerolog.Logger) *TransactionsHandler {
	return &TransactionsHandler{
		txs:         txs,
		defaultUser: defaultUser,
		log:         log,
	}
}

// monthYear parses the month/year query parameters, defaulting to the
// current month.
func monthYear(r *http.Request) (time.Month, int, error) {
	now := time.Now()
	month := now.Month()
	year := now.Year()

	query := r.URL.Query()
	if v := query.Get("month"); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month: %q", v)
		}
		month = time.Month(m)
	}
	if v := query.Get("year"); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < 1900 || y > 9999 {
			return 0, 0, fmt.Errorf("invalid year: %q", v)
		}
		year = y
	}

	return month, year, nil
}

// List handles GET /api/transactions
func (h *TransactionsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	month, year, err := monthYear(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	transactions, err := h.txs.ListTransactionsForPeriod(ctx, user, month, year)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to query transactions")
		return
	}

	if transactions == nil {
		transactions = []*bq.TransactionRow{}
	}
	middleware.WriteJSON(w, http.StatusOK, transactions)
}

// Update handles PUT /api/transactions/{id}
func (h *TransactionsHandler) Update(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	var update bq.TransactionUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if update.CategoryName == nil && update.SubcategoryName == nil && update.Description == nil {
		middleware.WriteError(w, http.StatusBadRequest, "No fields to update")
		return
	}

	if err := h.txs.UpdateTransaction(ctx, user, transactionID, update); err != nil {
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to update transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to update transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"transaction_id": transactionID,
		"status":         "updated",
	})
}

// Delete handles DELETE /api/transactions/{id}
func (h *TransactionsHandler) Delete(w http.ResponseWriter, r *http.Request, transactionID string) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	if err := h.txs.DeleteTransaction(ctx, user, transactionID); err != nil {
		h.log.Error().Err(err).Str("transaction_id", transactionID).Msg("Failed to delete transaction")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to delete transaction")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]string{
		"transaction_id": transactionID,
		"status":         "deleted",
	})
}

// CategoriesHandler handles category endpoints.
type CategoriesHandler struct {
	repo bq.CategoryRepository
	log  zerolog.Logger
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(repo bq.CategoryRepository, log zerolog.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		repo: repo,
		log:  log,
	}
}

// List handles GET /api/categories
func (h *CategoriesHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := h.repo.ListActiveCategories(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list categories")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"categories": categories,
		"count":      len(categories),
	})
}

// AnalyticsHandler handles analytics endpoints.
type AnalyticsHandler struct {
	txs         bq.TransactionRepository
	defaultUser string
	log         zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(txs bq.TransactionRepository, defaultUser string, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		txs:         txs,
		defaultUser: defaultUser,
		log:         log,
	}
}

// Summary handles GET /api/analytics/summary
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userID(r, h.defaultUser)

	month, year, err := monthYear(r)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := h.txs.ListTransactionsForPeriod(ctx, user, month, year)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to query transactions for summary")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute summary")
		return
	}

	txs := make([]aggregate.Transaction, 0, len(rows))
	for _, row := range rows {
		txs = append(txs, aggregate.Transaction{
			Date:        row.TransactionDate.In(time.UTC),
			Description: row.Description,
			Amount:      row.Amount,
			IsIncome:    row.IsIncome,
			Category:    row.CategoryName,
		})
	}

	middleware.WriteJSON(w, http.StatusOK, aggregate.Summarize(txs, month, year))
}

// JobsHandler handles job-status endpoints.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{
		store: store,
		log:   log,
	}
}

// Get handles GET /api/jobs/{id}
func (h *JobsHandler) Get(w http.ResponseWriter, r *http.Request, jobID string) {
	ctx := r.Context()

	job, err := h.store.GetJob(ctx, jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// List handles GET /api/jobs
func (h *JobsHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	filter := jobs.JobFilter{
		FileID: query.Get("file_id"),
		UserID: query.Get("user_id"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(ctx, filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

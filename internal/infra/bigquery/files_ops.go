package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
	"github.com/dvloznov/budgetwise/internal/logger"
)

// InsertFile inserts a single FileRow into the files table.
func (r *Repository) InsertFile(ctx context.Context, row *bq.FileRow) error {
	inserter := r.table(filesTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertFile: inserting row: %w", err)
	}
	return nil
}

// GetFile retrieves a file record by ID.
func (r *Repository) GetFile(ctx context.Context, fileID string) (*bq.FileRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			file_id,
			user_id,
			gcs_uri,
			original_filename,
			file_mime_type,
			size_bytes,
			status,
			error_message,
			saved_count,
			duplicate_count,
			upload_ts,
			processed_ts
		FROM %s.%s
		WHERE file_id = @file_id
	`, r.datasetID, filesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "file_id", Value: fileID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetFile: query read: %w", err)
	}

	var row bq.FileRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetFile: file %s not found", fileID)
	}
	if err != nil {
		return nil, fmt.Errorf("GetFile: iter next: %w", err)
	}

	return &row, nil
}

// ListFilesByUser retrieves all file records for a user, newest first.
func (r *Repository) ListFilesByUser(ctx context.Context, userID string) ([]*bq.FileRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			file_id,
			user_id,
			gcs_uri,
			original_filename,
			file_mime_type,
			size_bytes,
			status,
			error_message,
			saved_count,
			duplicate_count,
			upload_ts,
			processed_ts
		FROM %s.%s
		WHERE user_id = @user_id
		ORDER BY upload_ts DESC
	`, r.datasetID, filesTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListFilesByUser: query read: %w", err)
	}

	var rows []*bq.FileRow
	for {
		var row bq.FileRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListFilesByUser: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// MarkFileProcessing sets status=processing on a file record.
func (r *Repository) MarkFileProcessing(ctx context.Context, fileID string) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status
		WHERE file_id = @file_id
	`, r.datasetID, filesTable), []bigquery.QueryParameter{
		{Name: "status", Value: bq.FileStatusProcessing},
		{Name: "file_id", Value: fileID},
	})
	if err != nil {
		return fmt.Errorf("MarkFileProcessing: %w", err)
	}
	return nil
}

// MarkFileCompleted sets status=completed, processed_ts and the
// saved/duplicate counts on a file record.
func (r *Repository) MarkFileCompleted(ctx context.Context, fileID string, saved, duplicates int) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    processed_ts = @processed_ts,
		    saved_count = @saved_count,
		    duplicate_count = @duplicate_count,
		    error_message = ""
		WHERE file_id = @file_id
	`, r.datasetID, filesTable), []bigquery.QueryParameter{
		{Name: "status", Value: bq.FileStatusCompleted},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "saved_count", Value: int64(saved)},
		{Name: "duplicate_count", Value: int64(duplicates)},
		{Name: "file_id", Value: fileID},
	})
	if err != nil {
		return fmt.Errorf("MarkFileCompleted: %w", err)
	}
	return nil
}

// MarkFileFailed sets status=error, processed_ts and error_message. It logs
// rather than returns errors so a failing pipeline can always record its
// outcome without masking the original failure.
func (r *Repository) MarkFileFailed(ctx context.Context, fileID string, procErr error) {
	log := logger.FromContext(ctx)

	errMsg := ""
	if procErr != nil {
		errMsg = procErr.Error()
		const maxLen = 2000
		if len(errMsg) > maxLen {
			errMsg = errMsg[:maxLen]
		}
	}

	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s.%s
		SET status = @status,
		    processed_ts = @processed_ts,
		    error_message = @error_message
		WHERE file_id = @file_id
	`, r.datasetID, filesTable), []bigquery.QueryParameter{
		{Name: "status", Value: bq.FileStatusError},
		{Name: "processed_ts", Value: time.Now()},
		{Name: "error_message", Value: errMsg},
		{Name: "file_id", Value: fileID},
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("file_id", fileID).
			Msg("MarkFileFailed: running update query")
	}
}

package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
)

// DeleteFile deletes a file record and every transaction imported from it.
// Transactions go first so a failure partway leaves the file record visible
// rather than orphaning its transactions.
func (r *Repository) DeleteFile(ctx context.Context, userID, fileID string) error {
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "file_id", Value: fileID},
	}

	err := r.runDML(ctx, fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE user_id = @user_id
		  AND file_id = @file_id
	`, r.datasetID, transactionsTable), params)
	if err != nil {
		return fmt.Errorf("DeleteFile: deleting transactions: %w", err)
	}

	err = r.runDML(ctx, fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE user_id = @user_id
		  AND file_id = @file_id
	`, r.datasetID, filesTable), params)
	if err != nil {
		return fmt.Errorf("DeleteFile: deleting file record: %w", err)
	}

	return nil
}

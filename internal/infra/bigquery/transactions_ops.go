package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
)

// InsertTransaction inserts a single TransactionRow into the transactions
// table.
func (r *Repository) InsertTransaction(ctx context.Context, row *bq.TransactionRow) error {
	inserter := r.table(transactionsTable).Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertTransaction: inserting row: %w", err)
	}
	return nil
}

// TransactionExists reports whether the user already has a transaction with
// the same date, description and amount. Amounts are compared to two decimal
// places, matching how statement amounts are parsed.
func (r *Repository) TransactionExists(ctx context.Context, userID string, date civil.Date, description string, amount float64) (bool, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_date = @transaction_date
		  AND description = @description
		  AND ROUND(amount, 2) = ROUND(@amount, 2)
	`, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_date", Value: date.String()},
		{Name: "description", Value: description},
		{Name: "amount", Value: amount},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("TransactionExists: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil {
		return false, fmt.Errorf("TransactionExists: iter next: %w", err)
	}

	return row.N > 0, nil
}

// ListTransactionsForPeriod retrieves a user's transactions for one calendar
// month, ordered by date then creation time.
func (r *Repository) ListTransactionsForPeriod(ctx context.Context, userID string, month time.Month, year int) ([]*bq.TransactionRow, error) {
	start := civil.Date{Year: year, Month: month, Day: 1}
	end := civil.DateOf(time.Date(year, month, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, -1))

	q := r.client.Query(fmt.Sprintf(`
		SELECT
			transaction_id,
			user_id,
			file_id,
			transaction_date,
			description,
			amount,
			is_income,
			category_name,
			subcategory_name,
			confidence,
			created_ts,
			updated_ts
		FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_date >= @start_date
		  AND transaction_date <= @end_date
		ORDER BY transaction_date, created_ts
	`, r.datasetID, transactionsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "start_date", Value: start.String()},
		{Name: "end_date", Value: end.String()},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListTransactionsForPeriod: query read: %w", err)
	}

	var rows []*bq.TransactionRow
	for {
		var row bq.TransactionRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTransactionsForPeriod: iter next: %w", err)
		}
		rows = append(rows, &row)
	}

	return rows, nil
}

// UpdateTransaction updates the mutable fields of a transaction. Only the
// non-nil fields of update are written; updated_ts is always refreshed.
func (r *Repository) UpdateTransaction(ctx context.Context, userID, transactionID string, update bq.TransactionUpdate) error {
	set := "updated_ts = @updated_ts"
	params := []bigquery.QueryParameter{
		{Name: "updated_ts", Value: time.Now()},
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	}

	if update.CategoryName != nil {
		set += ", category_name = @category_name"
		params = append(params, bigquery.QueryParameter{Name: "category_name", Value: *update.CategoryName})
	}
	if update.SubcategoryName != nil {
		set += ", subcategory_name = @subcategory_name"
		params = append(params, bigquery.QueryParameter{Name: "subcategory_name", Value: *update.SubcategoryName})
	}
	if update.Description != nil {
		set += ", description = @description"
		params = append(params, bigquery.QueryParameter{Name: "description", Value: *update.Description})
	}

	err := r.runDML(ctx, fmt.Sprintf(`
		UPDATE %s.%s
		SET %s
		WHERE user_id = @user_id
		  AND transaction_id = @transaction_id
	`, r.datasetID, transactionsTable, set), params)
	if err != nil {
		return fmt.Errorf("UpdateTransaction: %w", err)
	}
	return nil
}

// DeleteTransaction deletes a single transaction.
func (r *Repository) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	err := r.runDML(ctx, fmt.Sprintf(`
		DELETE FROM %s.%s
		WHERE user_id = @user_id
		  AND transaction_id = @transaction_id
	`, r.datasetID, transactionsTable), []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "transaction_id", Value: transactionID},
	})
	if err != nil {
		return fmt.Errorf("DeleteTransaction: %w", err)
	}
	return nil
}

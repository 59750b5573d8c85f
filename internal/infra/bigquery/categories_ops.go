package bigquery

import (
	"context"
	"fmt"

	"google.golang.org/api/iterator"

	bq "github.com/dvloznov/budgetwise/internal/bigquery"
)

// ListActiveCategories returns all active categories ordered by name.
func (r *Repository) ListActiveCategories(ctx context.Context) ([]bq.CategoryRow, error) {
	q := r.client.Query(fmt.Sprintf(`
		SELECT
			category_id,
			name,
			icon,
			color,
			is_default,
			is_active,
			created_ts
		FROM %s.%s
		WHERE is_active = TRUE
		ORDER BY name
	`, r.datasetID, categoriesTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: query read: %w", err)
	}

	var rows []bq.CategoryRow
	for {
		var row bq.CategoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveCategories: iter next: %w", err)
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// ListCategoryNames returns the names of all active categories. It satisfies
// the categorization vocabulary source.
func (r *Repository) ListCategoryNames(ctx context.Context) ([]string, error) {
	rows, err := r.ListActiveCategories(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(rows))
	for _, row := range rows {
		names = append(names, row.Name)
	}
	return names, nil
}

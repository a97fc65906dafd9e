package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/iterator"
)

// ListActiveCategories returns a tracker's active categories ordered by name.
func ListActiveCategories(ctx context.Context, projectID, datasetID, trackerID string) ([]CategoryRow, error) {
	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: bigquery client: %w", err)
	}
	defer client.Close()

	return ListActiveCategoriesWithClient(ctx, client, datasetID, trackerID)
}

// ListActiveCategoriesWithClient returns a tracker's active categories ordered by name
// using the provided BigQuery client.
func ListActiveCategoriesWithClient(ctx context.Context, client *bigquery.Client, datasetID, trackerID string) ([]CategoryRow, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT
		  category_id,
		  tracker_id,
		  category_name,
		  subcategory_name,
		  is_active
		FROM %s.categories
		WHERE tracker_id = @tracker_id
		  AND is_active = TRUE
		ORDER BY category_name, subcategory_name
	`, datasetID))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "tracker_id", Value: trackerID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListActiveCategories: query read: %w", err)
	}

	var rows []CategoryRow
	for {
		var r CategoryRow
		err := it.Next(&r)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListActiveCategories: iter next: %w", err)
		}
		rows = append(rows, r)
	}

	return rows, nil
}

// InsertCategoryWithClient adds a category row for a tracker using the
// provided BigQuery client. Used by the quick-add flow.
func InsertCategoryWithClient(ctx context.Context, client *bigquery.Client, datasetID string, row *CategoryRow) error {
	table := client.Dataset(datasetID).Table(categoriesTable)
	inserter := table.Inserter()
	if err := inserter.Put(ctx, row); err != nil {
		return fmt.Errorf("InsertCategory: inserting row: %w", err)
	}

	return nil
}

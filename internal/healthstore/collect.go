package healthstore

import (
	"context"
	"fmt"

	"github.com/claude/healthbridge/internal/models"
)

// Collect pages through q until the token is exhausted or limit records have
// been gathered. A limit <= 0 collects everything.
func Collect(ctx context.Context, store Store, q Query, limit int) ([]models.RawSample, error) {
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if limit > 0 && limit < q.PageSize {
		q.PageSize = limit
	}

	var out []models.RawSample
	for {
		page, err := store.QueryRecords(ctx, q)
		if err != nil {
			return nil, fmt.Errorf("querying %s: %w", q.Kind, err)
		}
		out = append(out, page.Records...)

		if limit > 0 && len(out) >= limit {
			return out[:limit], nil
		}
		if page.NextPageToken == "" {
			return out, nil
		}
		if page.NextPageToken == q.PageToken {
			return nil, fmt.Errorf("querying %s: page token %q did not advance", q.Kind, q.PageToken)
		}
		q.PageToken = page.NextPageToken
	}
}

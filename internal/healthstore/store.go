// Package healthstore defines the health store collaborator consumed by the
// pipelines, together with pagination helpers and an in-memory store.
package healthstore

import (
	"context"
	"errors"
	"time"

	"github.com/claude/healthbridge/internal/models"
)

// DefaultPageSize is used when a Query leaves PageSize unset.
const DefaultPageSize = 500

// ErrNotAuthorized is returned by QueryRecords and Save when access to the
// kind has been denied.
var ErrNotAuthorized = errors.New("not authorized")

// Query selects records of one kind whose interval overlaps [Start, End].
type Query struct {
	Kind      models.NativeKind
	Start     time.Time
	End       time.Time
	PageToken string
	PageSize  int
	Ascending bool
}

// Page is one page of query results. An empty NextPageToken means the
// result set is exhausted.
type Page struct {
	Records       []models.RawSample
	NextPageToken string
}

// Store is the health data store. Implementations must be safe for
// concurrent use; one handle is shared by every pipeline.
type Store interface {
	// QueryRecords fails with ErrNotAuthorized when read access to q.Kind
	// is denied. A kind not yet determined reads as empty or as stored.
	QueryRecords(ctx context.Context, q Query) (Page, error)

	// ReadAuthorization probes read access for kind. It may round-trip to
	// the backing service.
	ReadAuthorization(ctx context.Context, kind models.NativeKind) (models.AuthStatus, error)

	// WriteAuthorization reports the locally known write status for kind.
	WriteAuthorization(kind models.NativeKind) models.AuthStatus

	RequestAuthorization(ctx context.Context, read, write []models.NativeKind) error

	// Save fails with ErrNotAuthorized when write access to the sample's kind
	// is denied.
	Save(ctx context.Context, sample models.RawSample) error

	// Available reports whether the store can be used, with a reason when
	// it cannot.
	Available(ctx context.Context) (bool, string)
	Platform() string
	Supports(kind models.NativeKind) bool
}

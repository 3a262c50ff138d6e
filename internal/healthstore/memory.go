package healthstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"github.com/claude/healthbridge/internal/models"
)

// MemoryStore is a Store held entirely in memory. It backs the demo mode and
// the pipeline tests, which script its authorization answers and failures.
type MemoryStore struct {
	mu          sync.RWMutex
	samples     []models.RawSample
	readStatus  map[models.NativeKind]models.AuthStatus
	writeStatus map[models.NativeKind]models.AuthStatus
	queryErrs   map[models.NativeKind]error
	probeErrs   map[models.NativeKind]error
	unsupported map[models.NativeKind]bool
	saveErr     error
	available   bool
	reason      string
	pageSize    int
	queries     int
	requested   [][]models.NativeKind
}

// NewMemoryStore returns an available store in which every kind is
// authorized for reading and writing.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		readStatus:  make(map[models.NativeKind]models.AuthStatus),
		writeStatus: make(map[models.NativeKind]models.AuthStatus),
		queryErrs:   make(map[models.NativeKind]error),
		probeErrs:   make(map[models.NativeKind]error),
		unsupported: make(map[models.NativeKind]bool),
		available:   true,
	}
}

// Add appends samples. Samples without an ID get a random one.
func (m *MemoryStore) Add(samples ...models.RawSample) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range samples {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		m.samples = append(m.samples, s)
	}
}

func (m *MemoryStore) SetReadStatus(kind models.NativeKind, status models.AuthStatus) {
	m.mu.Lock()
	m.readStatus[kind] = status
	m.mu.Unlock()
}

func (m *MemoryStore) SetWriteStatus(kind models.NativeKind, status models.AuthStatus) {
	m.mu.Lock()
	m.writeStatus[kind] = status
	m.mu.Unlock()
}

// FailQueries makes every query for kind return err.
func (m *MemoryStore) FailQueries(kind models.NativeKind, err error) {
	m.mu.Lock()
	m.queryErrs[kind] = err
	m.mu.Unlock()
}

// FailProbes makes read authorization probes for kind return err.
func (m *MemoryStore) FailProbes(kind models.NativeKind, err error) {
	m.mu.Lock()
	m.probeErrs[kind] = err
	m.mu.Unlock()
}

// FailSaves makes every Save return err.
func (m *MemoryStore) FailSaves(err error) {
	m.mu.Lock()
	m.saveErr = err
	m.mu.Unlock()
}

// Unsupport marks kind as not offered by this store.
func (m *MemoryStore) Unsupport(kind models.NativeKind) {
	m.mu.Lock()
	m.unsupported[kind] = true
	m.mu.Unlock()
}

// SetAvailable toggles store availability.
func (m *MemoryStore) SetAvailable(available bool, reason string) {
	m.mu.Lock()
	m.available, m.reason = available, reason
	m.mu.Unlock()
}

// SetPageSize caps the page size regardless of the query, forcing callers
// through pagination.
func (m *MemoryStore) SetPageSize(n int) {
	m.mu.Lock()
	m.pageSize = n
	m.mu.Unlock()
}

// Samples returns a copy of every stored sample, including saved ones.
func (m *MemoryStore) Samples() []models.RawSample {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]models.RawSample(nil), m.samples...)
}

// QueryCount returns the number of QueryRecords calls served.
func (m *MemoryStore) QueryCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.queries
}

// Requested returns the kinds passed to RequestAuthorization, read kinds
// first then write kinds, per call.
func (m *MemoryStore) Requested() [][]models.NativeKind {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([][]models.NativeKind(nil), m.requested...)
}

func (m *MemoryStore) QueryRecords(ctx context.Context, q Query) (Page, error) {
	if err := ctx.Err(); err != nil {
		return Page{}, err
	}

	m.mu.Lock()
	m.queries++
	m.mu.Unlock()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if err := m.queryErrs[q.Kind]; err != nil {
		return Page{}, err
	}
	if m.readStatus[q.Kind] == models.AuthDenied {
		return Page{}, fmt.Errorf("reading %s: %w", q.Kind, ErrNotAuthorized)
	}

	var matched []models.RawSample
	for _, s := range m.samples {
		if s.Kind != q.Kind {
			continue
		}
		if s.End.Before(q.Start) || s.Start.After(q.End) {
			continue
		}
		matched = append(matched, s)
	}
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Start.Equal(b.Start) {
			if q.Ascending {
				return a.Start.Before(b.Start)
			}
			return a.Start.After(b.Start)
		}
		return a.ID < b.ID
	})

	offset := 0
	if q.PageToken != "" {
		n, err := strconv.Atoi(q.PageToken)
		if err != nil || n < 0 {
			return Page{}, fmt.Errorf("invalid page token %q", q.PageToken)
		}
		offset = n
	}
	size := q.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	if m.pageSize > 0 && m.pageSize < size {
		size = m.pageSize
	}

	if offset >= len(matched) {
		return Page{}, nil
	}
	end := offset + size
	page := Page{}
	if end < len(matched) {
		page.NextPageToken = strconv.Itoa(end)
	} else {
		end = len(matched)
	}
	page.Records = append(page.Records, matched[offset:end]...)
	return page, nil
}

func (m *MemoryStore) ReadAuthorization(ctx context.Context, kind models.NativeKind) (models.AuthStatus, error) {
	if err := ctx.Err(); err != nil {
		return models.AuthUnknown, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.probeErrs[kind]; err != nil {
		return models.AuthUnknown, err
	}
	if status, ok := m.readStatus[kind]; ok {
		return status, nil
	}
	return models.AuthAuthorized, nil
}

func (m *MemoryStore) WriteAuthorization(kind models.NativeKind) models.AuthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if status, ok := m.writeStatus[kind]; ok {
		return status
	}
	return models.AuthAuthorized
}

// RequestAuthorization grants every kind whose status is still not
// determined, the way a user accepting the prompt would.
func (m *MemoryStore) RequestAuthorization(ctx context.Context, read, write []models.NativeKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.available {
		return errors.New("health store unavailable")
	}
	for _, k := range read {
		if m.readStatus[k] == models.AuthNotDetermined {
			m.readStatus[k] = models.AuthAuthorized
		}
	}
	for _, k := range write {
		if m.writeStatus[k] == models.AuthNotDetermined {
			m.writeStatus[k] = models.AuthAuthorized
		}
	}
	call := append(append([]models.NativeKind(nil), read...), write...)
	m.requested = append(m.requested, call)
	return nil
}

func (m *MemoryStore) Save(ctx context.Context, sample models.RawSample) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if m.writeStatus[sample.Kind] == models.AuthDenied {
		return fmt.Errorf("writing %s: %w", sample.Kind, ErrNotAuthorized)
	}
	if sample.ID == "" {
		sample.ID = uuid.NewString()
	}
	m.samples = append(m.samples, sample)
	return nil
}

func (m *MemoryStore) Available(ctx context.Context) (bool, string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.available, m.reason
}

func (m *MemoryStore) Platform() string { return "memory" }

func (m *MemoryStore) Supports(kind models.NativeKind) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return !m.unsupported[kind]
}

var _ Store = (*MemoryStore)(nil)

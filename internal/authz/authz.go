// Package authz decides per logical data type whether reading and writing
// are authorized, given per-kind answers from the health store.
package authz

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/observability"
)

// Policy combines the statuses of a type's native kinds.
type Policy int

const (
	// PolicyRepresentative uses the status of the type's primary kind.
	PolicyRepresentative Policy = iota
	// PolicyAnyOf authorizes when at least one kind is authorized.
	PolicyAnyOf
	// PolicyAllOf authorizes only when every kind is authorized.
	PolicyAllOf
)

// Heart deliberately keeps the representative policy: its status follows
// heartRate alone.
var policies = map[models.DataType]Policy{
	models.DataTypeActivity: PolicyAnyOf,
	models.DataTypeBody:     PolicyAnyOf,
	models.DataTypeMobility: PolicyAllOf,
}

// PolicyFor returns the policy applied to dt.
func PolicyFor(dt models.DataType) Policy {
	return policies[dt]
}

// Kinds returns the kinds whose status decides dt.
func Kinds(dt models.DataType) []models.NativeKind {
	if PolicyFor(dt) == PolicyRepresentative {
		return []models.NativeKind{dt.PrimaryKind()}
	}
	return dt.Kinds()
}

// Evaluator computes authorization outcomes.
type Evaluator struct {
	store healthstore.Store
	log   *slog.Logger
}

// NewEvaluator creates an Evaluator.
func NewEvaluator(store healthstore.Store, log *slog.Logger) *Evaluator {
	return &Evaluator{store: store, log: log}
}

// Evaluate partitions read and write into authorized and denied sets. Read
// status probes every distinct kind concurrently and waits for all of them;
// write status is answered locally by the store. Anything short of
// authorized, including a failed probe, counts as denied.
func (e *Evaluator) Evaluate(ctx context.Context, read, write []models.DataType) models.AuthorizationOutcome {
	out := models.AuthorizationOutcome{
		ReadAuthorized:  []models.DataType{},
		ReadDenied:      []models.DataType{},
		WriteAuthorized: []models.DataType{},
		WriteDenied:     []models.DataType{},
	}

	read = dedupe(read)
	readStatus := e.probeRead(ctx, read)
	for _, dt := range read {
		if decide(PolicyFor(dt), Kinds(dt), func(k models.NativeKind) models.AuthStatus { return readStatus[k] }) {
			out.ReadAuthorized = append(out.ReadAuthorized, dt)
		} else {
			out.ReadDenied = append(out.ReadDenied, dt)
		}
	}

	for _, dt := range dedupe(write) {
		if decide(PolicyFor(dt), Kinds(dt), e.store.WriteAuthorization) {
			out.WriteAuthorized = append(out.WriteAuthorized, dt)
		} else {
			out.WriteDenied = append(out.WriteDenied, dt)
		}
	}
	return out
}

func (e *Evaluator) probeRead(ctx context.Context, types []models.DataType) map[models.NativeKind]models.AuthStatus {
	var kinds []models.NativeKind
	seen := make(map[models.NativeKind]bool)
	for _, dt := range types {
		for _, k := range Kinds(dt) {
			if !seen[k] {
				seen[k] = true
				kinds = append(kinds, k)
			}
		}
	}

	statuses := make([]models.AuthStatus, len(kinds))
	var g errgroup.Group
	for i, k := range kinds {
		g.Go(func() error {
			status, err := e.store.ReadAuthorization(ctx, k)
			if err != nil {
				e.log.Warn("read authorization probe failed", "kind", k, "error", err)
				status = models.AuthUnknown
			}
			observability.RecordAuthProbe(string(k), string(status))
			statuses[i] = status
			return nil
		})
	}
	_ = g.Wait()

	result := make(map[models.NativeKind]models.AuthStatus, len(kinds))
	for i, k := range kinds {
		result[k] = statuses[i]
	}
	return result
}

func decide(p Policy, kinds []models.NativeKind, status func(models.NativeKind) models.AuthStatus) bool {
	if len(kinds) == 0 {
		return false
	}
	switch p {
	case PolicyAnyOf:
		for _, k := range kinds {
			if status(k) == models.AuthAuthorized {
				return true
			}
		}
		return false
	default:
		for _, k := range kinds {
			if status(k) != models.AuthAuthorized {
				return false
			}
		}
		return true
	}
}

func dedupe(types []models.DataType) []models.DataType {
	seen := make(map[models.DataType]bool, len(types))
	out := make([]models.DataType, 0, len(types))
	for _, dt := range types {
		if !seen[dt] {
			seen[dt] = true
			out = append(out, dt)
		}
	}
	return out
}

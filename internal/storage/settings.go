package storage

import (
	"context"
	"fmt"

	"github.com/claude/healthbridge/internal/models"
)

// kindSetting is one row of kind_settings.
type kindSetting struct {
	Enabled     bool
	ReadStatus  models.AuthStatus
	WriteStatus models.AuthStatus
}

// KindSetting is the exported view of a kind's settings.
type KindSetting struct {
	Kind        models.NativeKind `json:"kind"`
	Enabled     bool              `json:"enabled"`
	ReadStatus  models.AuthStatus `json:"read_status"`
	WriteStatus models.AuthStatus `json:"write_status"`
}

// GetKindSettings returns every row of kind_settings.
func (db *DB) GetKindSettings(ctx context.Context) ([]KindSetting, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT kind, enabled, read_status, write_status FROM kind_settings ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("querying kind settings: %w", err)
	}
	defer rows.Close()

	var result []KindSetting
	for rows.Next() {
		var s KindSetting
		if err := rows.Scan(&s.Kind, &s.Enabled, &s.ReadStatus, &s.WriteStatus); err != nil {
			return nil, fmt.Errorf("scanning kind setting: %w", err)
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func (db *DB) refreshSettings(ctx context.Context) error {
	rows, err := db.GetKindSettings(ctx)
	if err != nil {
		return err
	}
	settings := make(map[models.NativeKind]kindSetting, len(rows))
	for _, r := range rows {
		settings[r.Kind] = kindSetting{
			Enabled:     r.Enabled,
			ReadStatus:  parseStatus(string(r.ReadStatus)),
			WriteStatus: parseStatus(string(r.WriteStatus)),
		}
	}

	db.mu.Lock()
	db.settings = settings
	db.mu.Unlock()
	return nil
}

func (db *DB) setting(kind models.NativeKind) (kindSetting, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	s, ok := db.settings[kind]
	return s, ok
}

// parseStatus maps stored text onto the status vocabulary.
func parseStatus(s string) models.AuthStatus {
	switch models.AuthStatus(s) {
	case models.AuthAuthorized, models.AuthDenied, models.AuthNotDetermined:
		return models.AuthStatus(s)
	}
	return models.AuthUnknown
}

// Supports reports whether kind is enabled in kind_settings.
func (db *DB) Supports(kind models.NativeKind) bool {
	s, ok := db.setting(kind)
	return ok && s.Enabled
}

// ReadAuthorization reads the stored read status of kind.
func (db *DB) ReadAuthorization(ctx context.Context, kind models.NativeKind) (models.AuthStatus, error) {
	var status string
	err := db.Pool.QueryRow(ctx,
		`SELECT read_status FROM kind_settings WHERE kind = $1`, kind).Scan(&status)
	if err != nil {
		if isNoRows(err) {
			return models.AuthNotDetermined, nil
		}
		return models.AuthUnknown, fmt.Errorf("reading authorization for %s: %w", kind, err)
	}
	return parseStatus(status), nil
}

// WriteAuthorization answers from the cached settings.
func (db *DB) WriteAuthorization(kind models.NativeKind) models.AuthStatus {
	s, ok := db.setting(kind)
	if !ok {
		return models.AuthNotDetermined
	}
	return s.WriteStatus
}

// RequestAuthorization grants every requested kind that has not been
// decided yet. Kinds an operator explicitly denied stay denied.
func (db *DB) RequestAuthorization(ctx context.Context, read, write []models.NativeKind) error {
	tx, err := db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if len(read) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE kind_settings SET read_status = 'authorized', updated_at = now()
			 WHERE kind = ANY($1) AND read_status = 'notDetermined'`,
			kindStrings(read)); err != nil {
			return fmt.Errorf("granting read access: %w", err)
		}
	}
	if len(write) > 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE kind_settings SET write_status = 'authorized', updated_at = now()
			 WHERE kind = ANY($1) AND write_status = 'notDetermined'`,
			kindStrings(write)); err != nil {
			return fmt.Errorf("granting write access: %w", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing authorization: %w", err)
	}
	return db.refreshSettings(ctx)
}

// SetKindSetting overrides the settings of one kind.
func (db *DB) SetKindSetting(ctx context.Context, s KindSetting) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO kind_settings (kind, enabled, read_status, write_status)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (kind) DO UPDATE SET
		   enabled = EXCLUDED.enabled,
		   read_status = EXCLUDED.read_status,
		   write_status = EXCLUDED.write_status,
		   updated_at = now()`,
		s.Kind, s.Enabled, s.ReadStatus, s.WriteStatus)
	if err != nil {
		return fmt.Errorf("updating kind setting %s: %w", s.Kind, err)
	}
	return db.refreshSettings(ctx)
}

func kindStrings(kinds []models.NativeKind) []string {
	out := make([]string, len(kinds))
	for i, k := range kinds {
		out[i] = string(k)
	}
	return out
}

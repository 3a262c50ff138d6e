package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/claude/healthbridge/internal/healthstore"
	"github.com/claude/healthbridge/internal/models"
)

const sampleColumns = `id, kind, start_time, end_time, qty, unit, category, source, metadata,
	workout_activity_type, workout_duration_sec, workout_distance_m, workout_energy_kcal`

// QueryRecords returns one page of samples of q.Kind overlapping the window.
// Page tokens are row offsets.
func (db *DB) QueryRecords(ctx context.Context, q healthstore.Query) (healthstore.Page, error) {
	if st, ok := db.setting(q.Kind); ok && st.ReadStatus == models.AuthDenied {
		return healthstore.Page{}, fmt.Errorf("reading %s: %w", q.Kind, healthstore.ErrNotAuthorized)
	}
	offset, err := parsePageToken(q.PageToken)
	if err != nil {
		return healthstore.Page{}, err
	}
	size := q.PageSize
	if size <= 0 {
		size = healthstore.DefaultPageSize
	}

	order := "DESC"
	if q.Ascending {
		order = "ASC"
	}

	// One extra row tells whether another page exists.
	rows, err := db.Pool.Query(ctx,
		`SELECT `+sampleColumns+`
		 FROM samples
		 WHERE kind = $1 AND end_time >= $2 AND start_time <= $3
		 ORDER BY start_time `+order+`, id ASC
		 LIMIT $4 OFFSET $5`,
		q.Kind, q.Start, q.End, size+1, offset)
	if err != nil {
		return healthstore.Page{}, fmt.Errorf("querying samples: %w", err)
	}
	defer rows.Close()

	records, err := scanSamples(rows)
	if err != nil {
		return healthstore.Page{}, err
	}

	page := healthstore.Page{Records: records}
	if len(records) > size {
		page.Records = records[:size]
		page.NextPageToken = strconv.Itoa(offset + size)
	}
	return page, nil
}

// Save inserts one sample. A missing ID is generated.
func (db *DB) Save(ctx context.Context, s models.RawSample) error {
	if db.WriteAuthorization(s.Kind) == models.AuthDenied {
		return fmt.Errorf("writing %s: %w", s.Kind, healthstore.ErrNotAuthorized)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	var (
		activity             *int
		duration, dist, kcal *float64
	)
	if w := s.Workout; w != nil {
		activity = &w.ActivityType
		duration = &w.DurationSec
		dist = w.DistanceMeters
		kcal = w.EnergyKcal
	}

	_, err := db.Pool.Exec(ctx,
		`INSERT INTO samples (`+sampleColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
		 ON CONFLICT (id) DO NOTHING`,
		s.ID, s.Kind, s.Start, s.End, s.Quantity, s.Unit, s.Category, s.Source, s.Metadata,
		activity, duration, dist, kcal)
	if err != nil {
		return fmt.Errorf("inserting sample: %w", err)
	}
	return nil
}

// InsertSamples batch-inserts samples in one transaction. Returns the number
// actually inserted; duplicates by ID are skipped.
func (db *DB) InsertSamples(ctx context.Context, samples []models.RawSample) (int64, error) {
	if len(samples) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, s := range samples {
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		var (
			activity             *int
			duration, dist, kcal *float64
		)
		if w := s.Workout; w != nil {
			a, d := w.ActivityType, w.DurationSec
			activity, duration = &a, &d
			dist, kcal = w.DistanceMeters, w.EnergyKcal
		}
		batch.Queue(`INSERT INTO samples (`+sampleColumns+`)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (id) DO NOTHING`,
			s.ID, s.Kind, s.Start, s.End, s.Quantity, s.Unit, s.Category, s.Source, s.Metadata,
			activity, duration, dist, kcal)
	}

	br := db.Pool.SendBatch(ctx, batch)
	defer br.Close()

	var inserted int64
	for range samples {
		tag, err := br.Exec()
		if err != nil {
			return inserted, fmt.Errorf("inserting samples: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

func scanSamples(rows pgx.Rows) ([]models.RawSample, error) {
	var result []models.RawSample
	for rows.Next() {
		var (
			s        models.RawSample
			activity *int
			duration *float64
			dist     *float64
			kcal     *float64
		)
		if err := rows.Scan(&s.ID, &s.Kind, &s.Start, &s.End, &s.Quantity, &s.Unit, &s.Category,
			&s.Source, &s.Metadata, &activity, &duration, &dist, &kcal); err != nil {
			return nil, fmt.Errorf("scanning sample: %w", err)
		}
		if activity != nil {
			s.Workout = &models.WorkoutFields{
				ActivityType:   *activity,
				DistanceMeters: dist,
				EnergyKcal:     kcal,
			}
			if duration != nil {
				s.Workout.DurationSec = *duration
			}
		}
		result = append(result, s)
	}
	return result, rows.Err()
}

func parsePageToken(token string) (int, error) {
	if token == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(token)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid page token %q", token)
	}
	return n, nil
}

func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

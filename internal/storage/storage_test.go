package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/claude/healthbridge/internal/models"
)

func TestParsePageToken(t *testing.T) {
	cases := []struct {
		token   string
		want    int
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"500", 500, false},
		{"-1", 0, true},
		{"abc", 0, true},
	}
	for _, tc := range cases {
		got, err := parsePageToken(tc.token)
		if (err != nil) != tc.wantErr {
			t.Errorf("parsePageToken(%q) error = %v, wantErr %v", tc.token, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("parsePageToken(%q) = %d, want %d", tc.token, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	cases := map[string]models.AuthStatus{
		"authorized":    models.AuthAuthorized,
		"denied":        models.AuthDenied,
		"notDetermined": models.AuthNotDetermined,
		"sharingDenied": models.AuthUnknown,
		"":              models.AuthUnknown,
	}
	for in, want := range cases {
		if got := parseStatus(in); got != want {
			t.Errorf("parseStatus(%q) = %q, want %q", in, got, want)
		}
	}
}

// Supports and WriteAuthorization answer from the cache without a database.
func TestCachedSettings(t *testing.T) {
	db := &DB{settings: map[models.NativeKind]kindSetting{
		models.KindStepCount: {Enabled: true, WriteStatus: models.AuthAuthorized},
		models.KindVO2Max:    {Enabled: false, WriteStatus: models.AuthDenied},
	}}

	if !db.Supports(models.KindStepCount) {
		t.Error("stepCount should be supported")
	}
	if db.Supports(models.KindVO2Max) {
		t.Error("disabled kind should not be supported")
	}
	if db.Supports(models.KindWorkout) {
		t.Error("unknown kind should not be supported")
	}
	if got := db.WriteAuthorization(models.KindStepCount); got != models.AuthAuthorized {
		t.Errorf("WriteAuthorization = %q", got)
	}
	if got := db.WriteAuthorization(models.KindWorkout); got != models.AuthNotDetermined {
		t.Errorf("WriteAuthorization(unknown) = %q", got)
	}
}

func TestIsNoRows(t *testing.T) {
	if !isNoRows(fmt.Errorf("wrapped: %w", pgx.ErrNoRows)) {
		t.Error("expected wrapped ErrNoRows to match")
	}
	if isNoRows(errors.New("no rows in result set")) {
		t.Error("plain string error should not match")
	}
}

package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/claude/healthbridge/internal/models"
	"github.com/claude/healthbridge/internal/storage"
	"github.com/go-chi/chi/v5"
)

// KindSettings is implemented by stores that persist per-kind switches and
// authorization state.
type KindSettings interface {
	GetKindSettings(ctx context.Context) ([]storage.KindSetting, error)
	SetKindSetting(ctx context.Context, s storage.KindSetting) error
}

type kindSettingUpdate struct {
	Enabled     bool              `json:"enabled"`
	ReadStatus  models.AuthStatus `json:"read_status"`
	WriteStatus models.AuthStatus `json:"write_status"`
}

func (s *Server) handleKindSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "store keeps no kind settings"})
		return
	}
	settings, err := s.settings.GetKindSettings(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleUpdateKindSetting(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "store keeps no kind settings"})
		return
	}
	kind := models.NativeKind(chi.URLParam(r, "kind"))
	if !knownKind(kind) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("unknown kind %q", kind), Code: codeBadRequest})
		return
	}

	var upd kindSettingUpdate
	if !decodeBody(w, r, &upd) {
		return
	}
	if upd.ReadStatus == "" {
		upd.ReadStatus = models.AuthNotDetermined
	}
	if upd.WriteStatus == "" {
		upd.WriteStatus = models.AuthNotDetermined
	}
	if !validStatus(upd.ReadStatus) || !validStatus(upd.WriteStatus) {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "status must be authorized, denied or notDetermined", Code: codeBadRequest})
		return
	}

	setting := storage.KindSetting{
		Kind:        kind,
		Enabled:     upd.Enabled,
		ReadStatus:  upd.ReadStatus,
		WriteStatus: upd.WriteStatus,
	}
	if err := s.settings.SetKindSetting(r.Context(), setting); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: err.Error()})
		return
	}
	s.log.Info("kind setting updated", "kind", kind, "enabled", upd.Enabled, "user", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusOK, setting)
}

func knownKind(kind models.NativeKind) bool {
	for _, k := range models.KindsFor(models.AllDataTypes) {
		if k == kind {
			return true
		}
	}
	return false
}

func validStatus(st models.AuthStatus) bool {
	switch st {
	case models.AuthAuthorized, models.AuthDenied, models.AuthNotDetermined:
		return true
	}
	return false
}

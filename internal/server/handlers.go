package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/healthbridge/internal/health"
	"github.com/claude/healthbridge/internal/models"
)

const codeBadRequest = "BadRequest"

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleAvailability(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.IsAvailable(r.Context()))
}

func (s *Server) handleRequestAuthorization(w http.ResponseWriter, r *http.Request) {
	var req health.AuthorizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome, err := s.svc.RequestAuthorization(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.log.Info("authorization requested",
		"user", userInfoFromContext(r).Login,
		"read", len(req.Read),
		"write", len(req.Write),
	)
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleCheckAuthorization(w http.ResponseWriter, r *http.Request) {
	var req health.AuthorizationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome, err := s.svc.CheckAuthorization(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

func (s *Server) handleQuerySamples(w http.ResponseWriter, r *http.Request) {
	var req health.ReadRequest
	if !decodeBody(w, r, &req) {
		return
	}
	s.readSamples(w, r, req)
}

func (s *Server) handleQuerySamplesGet(w http.ResponseWriter, r *http.Request) {
	req, err := parseReadQuery(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Code: codeBadRequest})
		return
	}
	s.readSamples(w, r, req)
}

func (s *Server) readSamples(w http.ResponseWriter, r *http.Request, req health.ReadRequest) {
	res, err := s.svc.ReadSamples(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if res.Samples == nil {
		res.Samples = []health.Row{}
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSaveSample(w http.ResponseWriter, r *http.Request) {
	var req health.SaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.svc.SaveSample(r.Context(), req); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseReadQuery maps GET query parameters onto a ReadRequest.
func parseReadQuery(r *http.Request) (health.ReadRequest, error) {
	q := r.URL.Query()
	req := health.ReadRequest{
		DataType:  q.Get("dataType"),
		StartDate: q.Get("startDate"),
		EndDate:   q.Get("endDate"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return req, errors.New("limit must be a non-negative integer")
		}
		req.Limit = &n
	}
	if v := q.Get("ascending"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return req, errors.New("ascending must be true or false")
		}
		req.Ascending = &b
	}
	return req, nil
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid JSON: " + err.Error(), Code: codeBadRequest})
		return false
	}
	return true
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code models.ErrorCode) int {
	switch code {
	case models.CodeInvalidDataType, models.CodeInvalidDate, models.CodeInvalidDateRange:
		return http.StatusBadRequest
	case models.CodeDataTypeUnavailable:
		return http.StatusNotFound
	case models.CodeHealthDataUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := models.CodeOf(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorBody{Error: err.Error(), Code: string(code)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

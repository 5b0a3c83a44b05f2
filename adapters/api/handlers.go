package api

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/go-chi/chi/v5"

	"simeval/app"
	"simeval/domain/core"
	"simeval/domain/measurement"
	"simeval/internal/errors"
	"simeval/internal/registry"
	"simeval/internal/serialize"
)

// evaluationRequest is the body of POST /evaluations. File paths are
// relative to the server's data directory. The report is returned in the
// response and stored, never written to a caller-named file.
type evaluationRequest struct {
	GroundTruthFile string `json:"ground_truth_file"`
	SimulationFile  string `json:"simulation_file"`
	Measurement     string `json:"measurement,omitempty"`
	Scale           string `json:"scale,omitempty"`
	EntityType      string `json:"entity_type,omitempty"`
}

type evaluationResponse struct {
	RunID    string          `json:"run_id"`
	Stored   bool            `json:"stored"`
	Failures int             `json:"failures"`
	Report   json.RawMessage `json:"report"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "ok",
		"measurements": s.registry.Len(),
	})
}

// handleListMeasurements lists registry entries, optionally filtered by the
// scale and entity_type query parameters.
func (s *Server) handleListMeasurements(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r.URL.Query().Get("scale"), r.URL.Query().Get("entity_type"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	ids := s.registry.Select(filter)
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		spec, err := s.registry.Lookup(id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		out = append(out, s.measurementView(spec))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetMeasurement(w http.ResponseWriter, r *http.Request) {
	spec, err := s.registry.Lookup(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.measurementView(spec))
}

func (s *Server) measurementView(spec measurement.Spec) any {
	view := spec.Metadata()
	view["id"] = spec.ID
	view["table"] = s.registry.TableOf(spec.ID)
	return serialize.Convert(view)
}

func (s *Server) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.unavailable(w, "report store")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, errors.InvalidInput("limit must be a non-negative integer"))
			return
		}
		limit = n
	}

	reports, err := s.reports.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reports)
}

// handleGetReport returns a stored report body as it was written.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	if s.reports == nil {
		s.unavailable(w, "report store")
		return
	}
	runID, err := core.ParseRunID(chi.URLParam(r, "runID"))
	if err != nil {
		s.writeError(w, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}

	stored, err := s.reports.Get(r.Context(), runID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Run-ID", stored.RunID.String())
	w.WriteHeader(http.StatusOK)
	w.Write(stored.Report)
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	if s.evaluator == nil {
		s.unavailable(w, "evaluation")
		return
	}

	var body evaluationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&body); err != nil {
		s.writeError(w, errors.WithCode(errors.CodeInvalidInput, err))
		return
	}
	filter, err := parseFilter(body.Scale, body.EntityType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	groundTruth, err := s.dataPath("ground_truth_file", body.GroundTruthFile)
	if err != nil {
		s.writeError(w, err)
		return
	}
	simulation, err := s.dataPath("simulation_file", body.SimulationFile)
	if err != nil {
		s.writeError(w, err)
		return
	}

	result, err := s.evaluator.Evaluate(r.Context(), app.EvaluationRequest{
		GroundTruthFile: groundTruth,
		SimulationFile:  simulation,
		Filter:          filter,
		MeasurementID:   body.Measurement,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, evaluationResponse{
		RunID:    result.RunID.String(),
		Stored:   result.Stored,
		Failures: len(result.Report.Failures()),
		Report:   result.JSON,
	})
}

// dataPath resolves a request path under the data directory. Empty paths
// pass through so the service reports them as missing.
func (s *Server) dataPath(field, path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if !filepath.IsLocal(path) {
		return "", errors.InvalidInput(field + " must be a relative path inside the data directory")
	}
	return filepath.Join(s.dataDir, path), nil
}

func parseFilter(scale, entityType string) (registry.Filter, error) {
	var f registry.Filter
	if scale != "" {
		sc, err := measurement.ParseScale(scale)
		if err != nil {
			return f, errors.WithCode(errors.CodeInvalidInput, err)
		}
		f.Scale = sc
	}
	if entityType != "" {
		et, err := measurement.ParseEntityType(entityType)
		if err != nil {
			return f, errors.WithCode(errors.CodeInvalidInput, err)
		}
		f.EntityType = et
	}
	return f, nil
}

func (s *Server) unavailable(w http.ResponseWriter, what string) {
	writeJSON(w, http.StatusServiceUnavailable, errorBody(errors.CodeInternalError, what+" is not configured"))
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)
	if status >= http.StatusInternalServerError {
		s.log.Error("request failed", "code", code, "error", err)
	}
	writeJSON(w, status, errorBody(code, err.Error()))
}

func statusFor(code string) int {
	switch code {
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeInvalidInput, errors.CodeConfigInvalid:
		return http.StatusBadRequest
	case errors.CodeCapabilityNotFound, errors.CodeComputationFailure:
		return http.StatusUnprocessableEntity
	case errors.CodeDatabaseError:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(code, message string) map[string]any {
	return map[string]any{"error": map[string]string{"code": code, "message": message}}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

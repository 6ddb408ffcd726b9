package triage

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/healthfolio/careroute/pkg/types"
)

// setupRoutes configures HTTP routes for the triage service
func (s *Service) setupRoutes(router *mux.Router) {
	if s.config.Monitoring.Enabled {
		router.Use(s.metrics.HTTPMiddleware)
		router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")
	}

	api := router.PathPrefix("/api/v1").Subrouter()

	// Triage
	api.HandleFunc("/triage", s.triageHandler).Methods("POST")

	// Session lifecycle
	api.HandleFunc("/sessions", s.createSessionHandler).Methods("POST")
	api.HandleFunc("/sessions/{id}", s.getSessionHandler).Methods("GET")
	api.HandleFunc("/sessions/{id}/status", s.updateSessionStatusHandler).Methods("PATCH")

	// Provider directory (read-only)
	api.HandleFunc("/providers", s.getProvidersHandler).Methods("GET")

	// Health check
	api.HandleFunc("/health", s.healthCheckHandler).Methods("GET")

	s.logger.Info("Triage service routes configured")
}

// triageHandler handles triage requests
func (s *Service) triageHandler(w http.ResponseWriter, r *http.Request) {
	var req types.TriageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if req.UserID == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "user_id is required", nil)
		return
	}
	if req.Flags == nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "flags must be an array", nil)
		return
	}

	result, err := s.Triage(r.Context(), &req)
	if err != nil {
		if types.IsType(err, types.ErrorTypeValidation) {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid triage request", err)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to triage", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, result)
}

// createSessionHandler handles session booking
func (s *Service) createSessionHandler(w http.ResponseWriter, r *http.Request) {
	var req types.ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	session, err := s.Schedule(r.Context(), &req)
	if err != nil {
		switch {
		case types.IsType(err, types.ErrorTypeNotFound):
			s.writeErrorResponse(w, http.StatusNotFound, "Provider not found", err)
		case types.IsType(err, types.ErrorTypeValidation):
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid session request", err)
		case types.IsType(err, types.ErrorTypeConflict):
			s.writeErrorResponse(w, http.StatusConflict, "No available slot", err)
		default:
			s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to schedule session", err)
		}
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, session)
}

// getSessionHandler handles session retrieval
func (s *Service) getSessionHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	session, ok := s.GetSession(sessionID)
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, session)
}

// updateSessionStatusHandler handles session status transitions
func (s *Service) updateSessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	sessionID := vars["id"]

	var req struct {
		Status types.SessionStatus `json:"status"`
		Notes  string              `json:"notes,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ok, err := s.UpdateSessionStatus(sessionID, req.Status, req.Notes)
	if err != nil {
		var cre *types.CareRouteError
		if errors.As(err, &cre) && cre.Type == types.ErrorTypeValidation {
			s.writeErrorResponse(w, http.StatusBadRequest, "Invalid status update", err)
			return
		}
		s.writeErrorResponse(w, http.StatusInternalServerError, "Failed to update session status", err)
		return
	}
	if !ok {
		s.writeErrorResponse(w, http.StatusNotFound, "Session not found", nil)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]bool{"success": true})
}

// getProvidersHandler handles provider listing, optionally filtered by
// specialty
func (s *Service) getProvidersHandler(w http.ResponseWriter, r *http.Request) {
	specialty := types.Specialty(r.URL.Query().Get("specialty"))

	providers := s.Providers(specialty)

	s.writeJSONResponse(w, http.StatusOK, providers)
}

// healthCheckHandler handles health check requests
func (s *Service) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "healthy",
		"service":   "triage",
		"timestamp": s.now().UTC(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Errorf("Failed to encode JSON response: %v", err)
	}
}

// writeErrorResponse writes an error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	s.logger.Errorf("%s: %v", message, err)

	response := map[string]interface{}{
		"error":  message,
		"status": statusCode,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	s.writeJSONResponse(w, statusCode, response)
}

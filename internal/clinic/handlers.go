package clinic

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/ranvier2d2/nexo-plus-project/pkg/monitoring"
	"github.com/ranvier2d2/nexo-plus-project/pkg/types"
)

const maxBodyBytes = 1 << 20

// setupRoutes configures HTTP routes for the monitor service
func (s *Service) setupRoutes(router *mux.Router) {
	mm := monitoring.NewMonitoringMiddleware(s.metrics, s.tracing, s.logger)
	router.Use(mm.HTTPMiddleware)
	router.Use(s.rateLimitMiddleware)

	// Operational endpoints
	router.HandleFunc("/health", s.health.HTTPHandler()).Methods("GET")
	router.Handle(s.config.Monitoring.MetricsPath, s.metrics.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/health", s.health.HTTPHandler()).Methods("GET")

	// Patient routes
	api.HandleFunc("/patients", s.createPatientHandler).Methods("POST")
	api.HandleFunc("/patients", s.listPatientsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.getPatientHandler).Methods("GET")
	api.HandleFunc("/patients/{id}", s.updatePatientHandler).Methods("PUT")
	api.HandleFunc("/patients/{id}", s.deletePatientHandler).Methods("DELETE")

	// Measurement routes
	api.HandleFunc("/patients/{id}/measurements", s.addMeasurementHandler).Methods("POST")
	api.HandleFunc("/patients/{id}/measurements", s.getMeasurementsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}/measurements/latest", s.getLatestMeasurementHandler).Methods("GET")

	// Alerts and interventions
	api.HandleFunc("/patients/{id}/alerts", s.getAlertsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}/alerts/recommendations", s.getRecommendationsHandler).Methods("GET")
	api.HandleFunc("/patients/{id}/interventions", s.getInterventionsHandler).Methods("GET")

	// Guidelines
	api.HandleFunc("/guidelines/clinical", s.getClinicalGuidelinesHandler).Methods("GET")
	api.HandleFunc("/guidelines/interpret", s.interpretGuidelinesHandler).Methods("GET")
	api.HandleFunc("/guidelines/followup/{id}", s.getFollowupHandler).Methods("GET")

	// Threshold parameters
	api.HandleFunc("/parameters", s.getParametersHandler).Methods("GET")
	api.HandleFunc("/parameters", s.updateParametersHandler).Methods("PUT")
	api.HandleFunc("/parameters/audit", s.getParametersAuditHandler).Methods("GET")

	// Ingestion
	api.HandleFunc("/ingestion/text", s.addTextIngestionHandler).Methods("POST")
	api.HandleFunc("/ingestion/text", s.listTextIngestionHandler).Methods("GET")
	api.HandleFunc("/ingestion/vision", s.addVisionIngestionHandler).Methods("POST")
	api.HandleFunc("/ingestion/vision", s.listVisionIngestionHandler).Methods("GET")

	s.logger.Info("Monitor service routes configured")
}

// createPatientHandler handles patient registration
func (s *Service) createPatientHandler(w http.ResponseWriter, r *http.Request) {
	var patient types.Patient
	if !s.decodeBody(w, r, &patient) {
		return
	}

	created, err := s.patients.Create(r.Context(), &patient)
	if err != nil {
		s.writeServiceError(w, "Failed to create patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, created)
}

// listPatientsHandler handles listing all patients
func (s *Service) listPatientsHandler(w http.ResponseWriter, r *http.Request) {
	patients, err := s.patients.List(r.Context())
	if err != nil {
		s.writeServiceError(w, "Failed to list patients", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, patients)
}

// getPatientHandler handles patient retrieval
func (s *Service) getPatientHandler(w http.ResponseWriter, r *http.Request) {
	patient, err := s.patients.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, patient)
}

// updatePatientHandler handles patient updates; measurements and history are kept
func (s *Service) updatePatientHandler(w http.ResponseWriter, r *http.Request) {
	var patient types.Patient
	if !s.decodeBody(w, r, &patient) {
		return
	}

	updated, err := s.patients.Update(r.Context(), mux.Vars(r)["id"], &patient)
	if err != nil {
		s.writeServiceError(w, "Failed to update patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, updated)
}

// deletePatientHandler handles patient deletion
func (s *Service) deletePatientHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.patients.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		s.writeServiceError(w, "Failed to delete patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{"message": "Patient deleted successfully"})
}

// addMeasurementHandler appends a measurement to a patient's history
func (s *Service) addMeasurementHandler(w http.ResponseWriter, r *http.Request) {
	var m types.Measurement
	if !s.decodeBody(w, r, &m) {
		return
	}

	stored, err := s.patients.AppendMeasurement(r.Context(), mux.Vars(r)["id"], m)
	if err != nil {
		s.writeServiceError(w, "Failed to add measurement", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, stored)
}

// getMeasurementsHandler lists a patient's measurements
func (s *Service) getMeasurementsHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.patients.Measurements(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get measurements", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, history)
}

// getLatestMeasurementHandler returns the most recent measurement, or null
func (s *Service) getLatestMeasurementHandler(w http.ResponseWriter, r *http.Request) {
	latest, err := s.patients.LatestMeasurement(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get latest measurement", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, latest)
}

// getAlertsHandler evaluates a patient's alerts and applies the notification policy.
// Notification failures do not change the response.
func (s *Service) getAlertsHandler(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.policy.CheckPatient(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to evaluate alerts", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, outcome.Alerts)
}

// getRecommendationsHandler returns adherence recommendations for a patient
func (s *Service) getRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	patient, err := s.patients.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get patient", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, s.advisor.Recommendations(r.Context(), patient))
}

// getInterventionsHandler returns a patient's intervention history
func (s *Service) getInterventionsHandler(w http.ResponseWriter, r *http.Request) {
	history, err := s.patients.Interventions(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get interventions", err)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, history)
}

// getClinicalGuidelinesHandler returns guideline text for a source
func (s *Service) getClinicalGuidelinesHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "source query parameter is required", nil)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"source":     strings.ToUpper(source),
		"guidelines": s.advisor.Clinical(source),
	})
}

// interpretGuidelinesHandler answers a question about a guideline source
func (s *Service) interpretGuidelinesHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	query := r.URL.Query().Get("query")
	if source == "" || query == "" {
		s.writeErrorResponse(w, http.StatusBadRequest, "source and query parameters are required", nil)
		return
	}

	s.writeJSONResponse(w, http.StatusOK, map[string]string{
		"source":         strings.ToUpper(source),
		"query":          query,
		"interpretation": s.advisor.Interpret(r.Context(), source, query),
	})
}

// getFollowupHandler returns the follow-up schedule for a patient
func (s *Service) getFollowupHandler(w http.ResponseWriter, r *http.Request) {
	patient, err := s.patients.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		s.writeServiceError(w, "Failed to get patient", err)
		return
	}

	schedule := s.advisor.Schedule(patient, s.parameters.Get(r.Context()))
	s.writeJSONResponse(w, http.StatusOK, map[string]string{"followup_schedule": schedule})
}

// getParametersHandler returns the current threshold parameters
func (s *Service) getParametersHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.parameters.Get(r.Context()))
}

// updateParametersHandler applies a partial threshold update
func (s *Service) updateParametersHandler(w http.ResponseWriter, r *http.Request) {
	var update types.ParameterUpdate
	if !s.decodeStrictBody(w, r, &update) {
		return
	}

	params, err := s.parameters.Update(r.Context(), &update)
	if err != nil {
		s.writeServiceError(w, "Failed to update parameters", err)
		return
	}
	s.metrics.RecordParameterUpdate()

	s.writeJSONResponse(w, http.StatusOK, params)
}

// getParametersAuditHandler returns the parameter audit log
func (s *Service) getParametersAuditHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.parameters.AuditLog(r.Context()))
}

// addTextIngestionHandler stores a text ingestion record
func (s *Service) addTextIngestionHandler(w http.ResponseWriter, r *http.Request) {
	var item types.TextIngestion
	if !s.decodeBody(w, r, &item) {
		return
	}

	stored, err := s.ingestion.AddText(r.Context(), &item)
	if err != nil {
		s.writeServiceError(w, "Failed to ingest text", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, stored)
}

// listTextIngestionHandler lists text ingestion records
func (s *Service) listTextIngestionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.ingestion.ListText(r.Context()))
}

// addVisionIngestionHandler stores a vision ingestion record
func (s *Service) addVisionIngestionHandler(w http.ResponseWriter, r *http.Request) {
	var item types.VisionIngestion
	if !s.decodeBody(w, r, &item) {
		return
	}

	stored, err := s.ingestion.AddVision(r.Context(), &item)
	if err != nil {
		s.writeServiceError(w, "Failed to ingest vision data", err)
		return
	}

	s.writeJSONResponse(w, http.StatusCreated, stored)
}

// listVisionIngestionHandler lists vision ingestion records
func (s *Service) listVisionIngestionHandler(w http.ResponseWriter, r *http.Request) {
	s.writeJSONResponse(w, http.StatusOK, s.ingestion.ListVision(r.Context()))
}

// Helper methods

// decodeBody decodes a JSON body and writes a 400 on failure
func (s *Service) decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return s.decode(w, r, dst, false)
}

// decodeStrictBody is decodeBody that also rejects unknown fields
func (s *Service) decodeStrictBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	return s.decode(w, r, dst, true)
}

func (s *Service) decode(w http.ResponseWriter, r *http.Request, dst interface{}, strict bool) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if strict {
		decoder.DisallowUnknownFields()
	}
	if err := decoder.Decode(dst); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeJSONResponse writes a JSON response
func (s *Service) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.WithError(err).Error("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (s *Service) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := map[string]interface{}{
		"detail": message,
		"status": statusCode,
	}
	if err != nil {
		response["error"] = err.Error()
	}

	s.writeJSONResponse(w, statusCode, response)
}

// writeServiceError maps a ServiceError type to its HTTP status
func (s *Service) writeServiceError(w http.ResponseWriter, message string, err error) {
	var se *types.ServiceError
	if !errors.As(err, &se) {
		s.logger.WithError(err).Error(message)
		s.writeErrorResponse(w, http.StatusInternalServerError, message, nil)
		return
	}

	switch se.Type {
	case types.ErrorTypeNotFound:
		s.writeJSONResponse(w, http.StatusNotFound, map[string]string{"detail": se.Message})
	case types.ErrorTypeValidation:
		response := map[string]interface{}{
			"detail": se.Message,
			"status": http.StatusBadRequest,
			"code":   se.Code,
		}
		if len(se.Details) > 0 {
			response["details"] = se.Details
		}
		s.writeJSONResponse(w, http.StatusBadRequest, response)
	default:
		s.logger.WithError(err).Error(message)
		s.writeErrorResponse(w, http.StatusInternalServerError, message, nil)
	}
}

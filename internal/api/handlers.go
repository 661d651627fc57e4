// internal/api/handlers.go
package api

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"venue-recommender/internal/common/database"
	"venue-recommender/internal/common/errors"
	"venue-recommender/internal/common/metrics"
	"venue-recommender/internal/common/validation"
	"venue-recommender/internal/models"
)

const transport = "http"

func (router *Router) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready reports 503 while any backend fails its ping.
func (router *Router) Ready(w http.ResponseWriter, r *http.Request) {
	failures := database.CheckAll(r.Context(), router.readyTimeout, router.backends...)
	if len(failures) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status":   "not_ready",
			"failures": failures,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// Recommend serves POST /api/v1/recommendations.
func (router *Router) Recommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendationRequest
	body := http.MaxBytesReader(w, r.Body, router.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !stderrors.Is(err, io.EOF) {
		router.reject(w, r, errors.NewInvalidRequestError("malformed JSON body: "+err.Error()))
		return
	}

	if result := validation.ValidateStruct(req); !result.Valid {
		router.reject(w, r, errors.NewInvalidRequestError(result.Error()))
		return
	}

	resp, err := router.recommender.Execute(r.Context(), &req)
	if err != nil {
		stdErr := errors.AsStandardError(err)
		router.logger.Error("recommendation failed", map[string]interface{}{
			"requestId": chimiddleware.GetReqID(r.Context()),
			"code":      string(stdErr.Code),
			"error":     err.Error(),
		})
		metrics.RecommendationRequests.WithLabelValues(transport, "error").Inc()
		writeJSON(w, statusFor(stdErr), stdErr)
		return
	}

	metrics.RecommendationRequests.WithLabelValues(transport, "success").Inc()
	writeJSON(w, http.StatusOK, resp)
}

func (router *Router) reject(w http.ResponseWriter, r *http.Request, stdErr *errors.StandardError) {
	router.logger.Warn("invalid recommendation request", map[string]interface{}{
		"requestId": chimiddleware.GetReqID(r.Context()),
		"details":   stdErr.Details,
	})
	metrics.RecommendationRequests.WithLabelValues(transport, "invalid").Inc()
	writeJSON(w, http.StatusBadRequest, stdErr)
}

func statusFor(stdErr *errors.StandardError) int {
	switch {
	case stdErr.Code == errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case stdErr.Retryable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

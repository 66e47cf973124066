package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"smartflow/database/types"
)

// response is the envelope on every API reply.
type response struct {
	Success    bool              `json:"success"`
	Data       interface{}       `json:"data,omitempty"`
	Pagination *types.Pagination `json:"pagination,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// writeJSON sends a successful envelope.
func writeJSON(w http.ResponseWriter, data interface{}) {
	writePaginated(w, data, nil)
}

// writePaginated sends a successful envelope with pagination metadata.
func writePaginated(w http.ResponseWriter, data interface{}, p *types.Pagination) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response{Success: true, Data: data, Pagination: p}); err != nil {
		log.Error().Err(err).Msg("response encoding failed")
	}
}

// respondError logs the underlying error and sends a sanitized JSON
// error envelope; internal details never reach the client.
func respondError(w http.ResponseWriter, code int, message string, err error) {
	if err != nil {
		log.Error().Err(err).Int("code", code).Msg(message)
	} else {
		log.Warn().Int("code", code).Msg(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(response{Success: false, Error: message}) //nolint:errcheck
}

// getIntParam retrieves an integer query parameter with a default
// value and optional range validation.
func getIntParam(r *http.Request, key string, defaultVal int, minVal, maxVal *int) int {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}

	if minVal != nil && val < *minVal {
		return defaultVal
	}
	if maxVal != nil && val > *maxVal {
		return defaultVal
	}

	return val
}

// getFloatParam retrieves a float query parameter with default value
func getFloatParam(r *http.Request, key string, defaultVal float64) float64 {
	valStr := r.URL.Query().Get(key)
	if valStr == "" {
		return defaultVal
	}

	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return defaultVal
	}

	return val
}

func intPtr(v int) *int { return &v }

package api

import (
	"net/http"
	"time"

	"smartflow/scheduler"
)

// healthPayload reports process and dependency status.
type healthPayload struct {
	Status    string             `json:"status"`
	Timestamp time.Time          `json:"timestamp"`
	Database  string             `json:"database"`
	Fetch     *scheduler.History `json:"fetch,omitempty"`
}

// handleHealth reports liveness plus the fetch run history. A broken
// database connection degrades the status but still answers 200 so
// orchestrators can read the detail.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	payload := healthPayload{
		Status:    "ok",
		Timestamp: time.Now(),
		Database:  "up",
	}

	if err := s.repo.Ping(); err != nil {
		payload.Status = "degraded"
		payload.Database = "down"
	}
	if s.sched != nil {
		h := s.sched.History()
		payload.Fetch = &h
	}

	writeJSON(w, payload)
}

// handleFetchLogs lists recent fetch outcomes.
func (s *Server) handleFetchLogs(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 50, intPtr(1), intPtr(500))

	logs, err := s.repo.Analytics.GetFetchLogs(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch logs", err)
		return
	}

	writeJSON(w, logs)
}

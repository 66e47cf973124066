package api

import (
	"net/http"
)

// maxSignalStrength is the largest attainable signal strength: every
// scoring term at its individual cap (80 + 15 + 15 + 25 + 10).
const maxSignalStrength = 145

// handleBuySignals derives the ranked buy signals for the current
// window. Signals are recomputed on every call; there is deliberately
// no cache in front of this endpoint.
func (s *Server) handleBuySignals(w http.ResponseWriter, r *http.Request) {
	minStrength := getIntParam(r, "minStrength", 70, intPtr(0), intPtr(maxSignalStrength))
	page := getIntParam(r, "page", 1, intPtr(1), nil)
	pageSize := getIntParam(r, "pageSize", 20, intPtr(1), intPtr(100))
	offset := (page - 1) * pageSize

	signals, pagination, err := s.repo.Signals.GenerateBuySignals(minStrength, pageSize, offset)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to generate signals", err)
		return
	}

	writePaginated(w, signals, &pagination)
}

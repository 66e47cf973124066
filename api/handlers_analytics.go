package api

import (
	"net/http"

	"smartflow/cache"
	"smartflow/database/types"
)

// Cache keys for the dashboard aggregates. Only these aggregates are
// cached; signals and listings always compute fresh.
const (
	cacheKeyStats         = "smartflow:stats"
	cacheKeyTopClients    = "smartflow:top-clients"
	cacheKeyActiveSymbols = "smartflow:active-symbols"
)

// handleAccumulation lists active accumulation patterns.
func (s *Server) handleAccumulation(w http.ResponseWriter, r *http.Request) {
	minDeals := getIntParam(r, "minDeals", 3, intPtr(1), nil)

	patterns, err := s.repo.Patterns.GetAccumulationPatterns(minDeals)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch accumulation patterns", err)
		return
	}

	writeJSON(w, patterns)
}

// handleTopClients serves the top buyers over the stats window.
func (s *Server) handleTopClients(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 10, intPtr(1), intPtr(100))

	var cached []types.TopClient
	if s.cacheGet(r, cacheKeyTopClients, &cached) {
		writeJSON(w, cached)
		return
	}

	clients, err := s.repo.Analytics.GetTopClients(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch top clients", err)
		return
	}

	s.cacheSet(r, cacheKeyTopClients, clients)
	writeJSON(w, clients)
}

// handleActiveSymbols serves the most active symbols over the stats
// window.
func (s *Server) handleActiveSymbols(w http.ResponseWriter, r *http.Request) {
	limit := getIntParam(r, "limit", 10, intPtr(1), intPtr(100))

	var cached []types.ActiveSymbol
	if s.cacheGet(r, cacheKeyActiveSymbols, &cached) {
		writeJSON(w, cached)
		return
	}

	symbols, err := s.repo.Analytics.GetActiveSymbols(limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch active symbols", err)
		return
	}

	s.cacheSet(r, cacheKeyActiveSymbols, symbols)
	writeJSON(w, symbols)
}

// statsPayload is the combined dashboard overview.
type statsPayload struct {
	Overview      *types.OverviewStats `json:"overview"`
	TopClients    []types.TopClient    `json:"top_clients"`
	ActiveSymbols []types.ActiveSymbol `json:"active_symbols"`
}

// handleStats combines the three dashboard aggregates in one response.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	var cached statsPayload
	if s.cacheGet(r, cacheKeyStats, &cached) {
		writeJSON(w, cached)
		return
	}

	overview, err := s.repo.Analytics.GetStats()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch stats", err)
		return
	}
	clients, err := s.repo.Analytics.GetTopClients(10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch stats", err)
		return
	}
	symbols, err := s.repo.Analytics.GetActiveSymbols(10)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch stats", err)
		return
	}

	payload := statsPayload{Overview: overview, TopClients: clients, ActiveSymbols: symbols}
	s.cacheSet(r, cacheKeyStats, payload)
	writeJSON(w, payload)
}

// cacheGet reports whether key was served from cache into dest.
// A nil cache or any cache error is just a miss.
func (s *Server) cacheGet(r *http.Request, key string, dest interface{}) bool {
	if s.cache == nil {
		return false
	}
	return s.cache.Get(r.Context(), key, dest) == nil
}

func (s *Server) cacheSet(r *http.Request, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	// Best effort; a failed write just means the next request recomputes.
	s.cache.Set(r.Context(), key, value, cache.DashboardTTL) //nolint:errcheck
}

package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"smartflow/database"
	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

// handleGetDeals serves the filtered, paginated enriched deals listing.
func (s *Server) handleGetDeals(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := types.DealFilters{
		Exchange:    strings.ToUpper(q.Get("exchange")),
		DealType:    strings.ToUpper(q.Get("dealType")),
		MinDelivery: getFloatParam(r, "minDelivery", 0),
		StartDate:   q.Get("startDate"),
		EndDate:     q.Get("endDate"),
		Search:      q.Get("search"),
		Page:        getIntParam(r, "page", 1, intPtr(1), nil),
		PageSize:    getIntParam(r, "pageSize", 100, intPtr(1), intPtr(500)),
	}

	deals, pagination, err := s.repo.Deals.QueryEnriched(filters)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch deals", err)
		return
	}

	writePaginated(w, deals, &pagination)
}

// handleGetDealsBySymbol serves the recent deals of one symbol.
func (s *Server) handleGetDealsBySymbol(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	if symbol == "" {
		respondError(w, http.StatusBadRequest, "symbol is required", nil)
		return
	}

	limit := getIntParam(r, "limit", 50, intPtr(1), intPtr(200))
	deals, err := s.repo.Deals.BySymbol(symbol, limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch deals", err)
		return
	}

	writeJSON(w, deals)
}

// dealRequest is the manual deal entry payload.
type dealRequest struct {
	DealDate    string  `json:"deal_date"` // YYYY-MM-DD
	Exchange    string  `json:"exchange"`
	DealType    string  `json:"deal_type"`
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"company_name"`
	ClientName  string  `json:"client_name"`
	Action      string  `json:"action"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
}

// handleCreateDeal accepts a manually entered deal. The value is
// recomputed server-side and the pattern state is updated exactly as
// the ingestion pipeline would.
func (s *Server) handleCreateDeal(w http.ResponseWriter, r *http.Request) {
	var req dealRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	deal, err := req.toDeal()
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	id, err := s.repo.Deals.Insert(deal)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to insert deal", err)
		return
	}

	if deal.Action == models.ActionBuy {
		err = s.repo.Patterns.RecordBuy(deal)
	} else {
		err = s.repo.Patterns.RecordSell(deal)
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to update pattern", err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(response{Success: true, Data: map[string]int64{"id": id}}) //nolint:errcheck
}

func (req dealRequest) toDeal() (*models.Deal, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, database.NewValidationError("symbol", "is required")
	}
	if strings.TrimSpace(req.ClientName) == "" {
		return nil, database.NewValidationError("client_name", "is required")
	}
	if req.Quantity <= 0 {
		return nil, database.NewValidationError("quantity", "must be positive")
	}
	if req.Price <= 0 {
		return nil, database.NewValidationError("price", "must be positive")
	}

	date, err := time.Parse("2006-01-02", req.DealDate)
	if err != nil {
		return nil, database.NewValidationError("deal_date", "must be YYYY-MM-DD")
	}

	exchange := models.Exchange(strings.ToUpper(req.Exchange))
	if exchange != models.ExchangeNSE && exchange != models.ExchangeBSE {
		return nil, database.NewValidationError("exchange", "must be NSE or BSE")
	}
	dealType := models.DealType(strings.ToUpper(req.DealType))
	if dealType != models.DealTypeBlock && dealType != models.DealTypeBulk {
		return nil, database.NewValidationError("deal_type", "must be BLOCK or BULK")
	}

	action := models.ActionSell
	switch strings.ToUpper(strings.TrimSpace(req.Action)) {
	case "B", "BUY":
		action = models.ActionBuy
	}

	return &models.Deal{
		DealDate:    date,
		Exchange:    exchange,
		DealType:    dealType,
		Symbol:      symbol,
		CompanyName: strings.TrimSpace(req.CompanyName),
		ClientName:  strings.TrimSpace(req.ClientName),
		Action:      action,
		Quantity:    req.Quantity,
		Price:       req.Price,
		DealValue:   float64(req.Quantity) * req.Price,
	}, nil
}

// handleGetDelivery looks up the stored delivery statistic for one
// (symbol, date, exchange) key.
func (s *Server) handleGetDelivery(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	date := r.URL.Query().Get("date")
	if symbol == "" || date == "" {
		respondError(w, http.StatusBadRequest, "symbol and date are required", nil)
		return
	}

	exchange := models.Exchange(strings.ToUpper(r.URL.Query().Get("exchange")))
	if exchange == "" {
		exchange = models.ExchangeNSE
	}

	rec, err := s.repo.Deals.GetDelivery(symbol, date, exchange)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to fetch delivery data", err)
		return
	}
	if rec == nil {
		notFound := database.NewNotFoundErrorWithID("delivery data", symbol)
		respondError(w, http.StatusNotFound, notFound.Error(), nil)
		return
	}

	writeJSON(w, rec)
}

package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"smartflow/database/types"
)

func TestGetIntParam(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"present", "/x?limit=25", 25},
		{"missing", "/x", 10},
		{"not a number", "/x?limit=abc", 10},
		{"below min", "/x?limit=0", 10},
		{"above max", "/x?limit=999", 10},
		{"at min", "/x?limit=1", 1},
		{"at max", "/x?limit=100", 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := getIntParam(r, "limit", 10, intPtr(1), intPtr(100))
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMinStrengthRange(t *testing.T) {
	// Strengths above 100 are attainable, so thresholds up to the
	// per-term-cap maximum must pass through instead of falling back
	// to the default.
	tests := []struct {
		name string
		url  string
		want int
	}{
		{"above 100", "/x?minStrength=120", 120},
		{"at maximum", "/x?minStrength=145", 145},
		{"past maximum", "/x?minStrength=146", 70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tt.url, nil)
			got := getIntParam(r, "minStrength", 70, intPtr(0), intPtr(maxSignalStrength))
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestGetFloatParam(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?minDelivery=82.5", nil)
	if got := getFloatParam(r, "minDelivery", 0); got != 82.5 {
		t.Errorf("got %v, want 82.5", got)
	}

	r = httptest.NewRequest("GET", "/x?minDelivery=junk", nil)
	if got := getFloatParam(r, "minDelivery", 7); got != 7 {
		t.Errorf("got %v, want default 7", got)
	}
}

func TestResponseEnvelope(t *testing.T) {
	w := httptest.NewRecorder()
	p := types.NewPagination(25, 10, 10)
	writePaginated(w, []string{"a", "b"}, &p)

	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}

	var envelope struct {
		Success    bool             `json:"success"`
		Data       []string         `json:"data"`
		Pagination types.Pagination `json:"pagination"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if !envelope.Success {
		t.Error("success = false")
	}
	if envelope.Pagination.CurrentPage != 2 || envelope.Pagination.TotalPages != 3 {
		t.Errorf("pagination = %+v", envelope.Pagination)
	}
}

func TestRespondError(t *testing.T) {
	w := httptest.NewRecorder()
	respondError(w, 500, "failed to fetch deals", nil)

	if w.Code != 500 {
		t.Errorf("status = %d, want 500", w.Code)
	}

	var envelope struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if envelope.Success {
		t.Error("success = true on error response")
	}
	if envelope.Error != "failed to fetch deals" {
		t.Errorf("error = %q", envelope.Error)
	}
}

func TestDealRequestValidation(t *testing.T) {
	valid := dealRequest{
		DealDate: "2026-08-20", Exchange: "nse", DealType: "block",
		Symbol: "tcs", ClientName: "Fund A", Action: "buy",
		Quantity: 100, Price: 50,
	}

	deal, err := valid.toDeal()
	if err != nil {
		t.Fatalf("valid request rejected: %v", err)
	}
	if deal.Symbol != "TCS" || deal.Exchange != "NSE" || deal.DealType != "BLOCK" {
		t.Errorf("fields not canonicalized: %+v", deal)
	}
	if deal.DealValue != 5000 {
		t.Errorf("value = %v, want recomputed 5000", deal.DealValue)
	}

	tests := []struct {
		name   string
		mutate func(*dealRequest)
	}{
		{"empty symbol", func(r *dealRequest) { r.Symbol = "" }},
		{"empty client", func(r *dealRequest) { r.ClientName = " " }},
		{"zero quantity", func(r *dealRequest) { r.Quantity = 0 }},
		{"negative price", func(r *dealRequest) { r.Price = -1 }},
		{"bad date", func(r *dealRequest) { r.DealDate = "20/08/2026" }},
		{"bad exchange", func(r *dealRequest) { r.Exchange = "NYSE" }},
		{"bad deal type", func(r *dealRequest) { r.DealType = "ODD" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)
			if _, err := req.toDeal(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

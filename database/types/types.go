// Package types holds the derived, read-time data shapes shared by the
// database sub-repositories and the API layer, plus the pure
// classification functions applied to them. EnrichedDeal and BuySignal
// are views over the persisted entities: they are recomputed on every
// read and never stored.
package types

import (
	"time"

	models "smartflow/database/models_pkg"
)

// HoldingType classifies a deal by the likely holding intent behind it.
type HoldingType string

const (
	HoldingStrongLongterm     HoldingType = "STRONG_LONGTERM"
	HoldingModerateLongterm   HoldingType = "MODERATE_LONGTERM"
	HoldingShorttermPotential HoldingType = "SHORTTERM_POTENTIAL"
	HoldingSpeculation        HoldingType = "SPECULATION"
)

// SignalType classifies an accumulation signal.
type SignalType string

const (
	SignalAccumulation  SignalType = "ACCUMULATION"
	SignalInstitutional SignalType = "INSTITUTIONAL"
	SignalBreakout      SignalType = "BREAKOUT"
	SignalInsider       SignalType = "INSIDER"
)

// Urgency ranks how fresh the buying activity behind a signal is.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// RecommendedAction is the suggested follow-up for a signal.
type RecommendedAction string

const (
	ActionBuyNow   RecommendedAction = "BUY_NOW"
	ActionBuyOnDip RecommendedAction = "BUY_ON_DIP"
	ActionMonitor  RecommendedAction = "MONITOR"
	ActionWait     RecommendedAction = "WAIT"
)

// EnrichedDeal is one row of the enriched_deals view: a deal joined
// with its delivery statistic and the buyer's accumulation pattern.
// Missing join partners surface as zero values (left-outer-join
// semantics). HoldingType and ConfidenceScore are filled in by
// Enrich after scanning.
type EnrichedDeal struct {
	ID              int64             `json:"id"`
	DealDate        time.Time         `json:"deal_date"`
	Exchange        models.Exchange   `json:"exchange"`
	DealType        models.DealType   `json:"deal_type"`
	Symbol          string            `json:"symbol"`
	CompanyName     string            `json:"company_name"`
	ClientName      string            `json:"client_name"`
	Action          models.DealAction `json:"action"`
	Quantity        int64             `json:"quantity"`
	Price           float64           `json:"price"`
	DealValue       float64           `json:"deal_value"`
	DeliveryPercent float64           `json:"delivery_percent"`
	TradedQuantity  int64             `json:"traded_quantity"`
	DeliveredQty    int64             `gorm:"column:delivered_quantity" json:"delivered_quantity"`
	TotalBuyDeals   int               `json:"total_buy_deals"`
	AvgHoldingDays  int               `json:"avg_holding_days"`
	IsAccumulating  bool              `json:"is_accumulating"`
	ConsecutiveBuys int               `json:"consecutive_buys"`

	HoldingType     HoldingType `gorm:"-" json:"holding_type"`
	ConfidenceScore float64     `gorm:"-" json:"confidence_score"`
}

// Enrich computes the derived classification fields from the joined
// columns. It must be called on every scanned row before the deal is
// handed to a consumer.
func (d *EnrichedDeal) Enrich() {
	d.HoldingType = ClassifyHolding(d.DeliveryPercent, d.AvgHoldingDays)
	d.ConfidenceScore = ConfidenceScore(d.DeliveryPercent, d.AvgHoldingDays, d.DealValue, d.IsAccumulating)
}

// ClassifyHolding maps delivery percentage and average holding days to
// a holding type. The rules are ordered; the first match wins.
func ClassifyHolding(deliveryPercent float64, avgHoldingDays int) HoldingType {
	switch {
	case deliveryPercent >= 90 && avgHoldingDays >= 30:
		return HoldingStrongLongterm
	case deliveryPercent >= 80 && avgHoldingDays >= 15:
		return HoldingModerateLongterm
	case deliveryPercent >= 70:
		return HoldingShorttermPotential
	default:
		return HoldingSpeculation
	}
}

// ConfidenceScore computes the 0-100 per-deal confidence score:
// 40% delivery, 30% holding duration (capped at 100 days), a size
// bonus for deals above ₹5Cr, and an accumulation bonus. Missing
// delivery or pattern data contributes zero to its term.
func ConfidenceScore(deliveryPercent float64, avgHoldingDays int, dealValue float64, isAccumulating bool) float64 {
	holding := float64(avgHoldingDays)
	if holding > 100 {
		holding = 100
	}

	score := deliveryPercent*0.4 + holding*0.3
	if dealValue > 50_000_000 {
		score += 20
	} else {
		score += 10
	}
	if isAccumulating {
		score += 10
	}
	return score
}

// DealFilters narrows the enriched deals listing.
type DealFilters struct {
	Exchange    string // "NSE", "BSE" or "ALL"
	DealType    string // "BLOCK", "BULK" or "ALL"
	MinDelivery float64
	StartDate   string // YYYY-MM-DD, inclusive
	EndDate     string // YYYY-MM-DD, inclusive
	Search      string // matched against symbol, company and client name
	Page        int
	PageSize    int
}

// Pagination is the metadata attached to every paginated response.
type Pagination struct {
	CurrentPage  int  `json:"currentPage"`
	PageSize     int  `json:"pageSize"`
	TotalRecords int  `json:"totalRecords"`
	TotalPages   int  `json:"totalPages"`
	HasNext      bool `json:"hasNext"`
	HasPrev      bool `json:"hasPrev"`
}

// NewPagination derives pagination metadata from a total record count,
// a page size and a record offset.
func NewPagination(totalRecords, pageSize, offset int) Pagination {
	if pageSize <= 0 {
		pageSize = 1
	}
	totalPages := (totalRecords + pageSize - 1) / pageSize
	currentPage := offset/pageSize + 1
	return Pagination{
		CurrentPage:  currentPage,
		PageSize:     pageSize,
		TotalRecords: totalRecords,
		TotalPages:   totalPages,
		HasNext:      currentPage < totalPages,
		HasPrev:      currentPage > 1,
	}
}

// AccumulationPattern is one row of the accumulation listing: a
// (client, symbol) pair with an active accumulation pattern.
type AccumulationPattern struct {
	ClientName         string     `json:"client_name"`
	Symbol             string     `json:"symbol"`
	TotalBuyDeals      int        `json:"total_buy_deals"`
	TotalBuyQuantity   int64      `json:"total_buy_quantity"`
	TotalBuyValue      float64    `json:"total_buy_value"`
	AvgHoldingDays     int        `json:"avg_holding_days"`
	AvgDeliveryPercent float64    `json:"avg_delivery_percent"`
	ConsecutiveBuys    int        `json:"consecutive_buys"`
	LastBuyDate        *time.Time `json:"last_buy_date"`
}

// BuySignal is a ranked, scored accumulation signal for one symbol.
// Signals are derived fresh from the trailing window on every request
// and never persisted.
type BuySignal struct {
	ID                 int               `json:"id"`
	Symbol             string            `json:"symbol"`
	CompanyName        string            `json:"company_name"`
	SignalType         SignalType        `json:"signal_type"`
	SignalStrength     int               `json:"signal_strength"`
	Reasons            []string          `json:"reasons"`
	PrimaryBuyer       string            `json:"primary_buyer"`
	BuyerTrackRecord   float64           `json:"buyer_track_record"`
	TotalBought2M      int               `json:"total_bought_2m"`
	AvgBuyPrice        float64           `json:"avg_buy_price"`
	LatestBuyDate      time.Time         `json:"latest_buy_date"`
	ConsecutiveBuys    int               `json:"consecutive_buys"`
	AvgDelivery        float64           `json:"avg_delivery"`
	EntryPrice         float64           `json:"entry_price"`
	TargetPrice        float64           `json:"target_price"`
	StopLoss           float64           `json:"stop_loss"`
	PotentialReturn    float64           `json:"potential_return"`
	RiskRewardRatio    float64           `json:"risk_reward_ratio"`
	DaysInAccumulation int               `json:"days_in_accumulation"`
	RecommendedAction  RecommendedAction `json:"recommended_action"`
	Urgency            Urgency           `json:"urgency"`

	// TotalValue is carried for sorting; not part of the API payload.
	TotalValue float64 `json:"-"`
}

// OverviewStats is the 30-day dashboard summary.
type OverviewStats struct {
	TotalDeals           int64   `json:"total_deals"`
	TodayDeals           int64   `json:"today_deals"`
	StrongLongterm       int64   `json:"strong_longterm"`
	AccumulationPatterns int64   `json:"accumulation_patterns"`
	AvgDeliveryPercent   float64 `json:"avg_delivery_percent"`
}

// TopClient aggregates one client's BUY activity over the stats window.
type TopClient struct {
	ClientName  string  `json:"client_name"`
	TotalDeals  int64   `json:"total_deals"`
	TotalValue  float64 `json:"total_value"`
	AvgDelivery float64 `json:"avg_delivery"`
}

// ActiveSymbol aggregates one symbol's deal activity over the stats window.
type ActiveSymbol struct {
	Symbol      string  `json:"symbol"`
	CompanyName string  `json:"company_name"`
	DealCount   int64   `json:"deal_count"`
	TotalValue  float64 `json:"total_value"`
	AvgDelivery float64 `json:"avg_delivery"`
}

// ClientPerformance is one client's trailing-window pick count, used
// for the buyer track record lookup during signal derivation.
type ClientPerformance struct {
	ClientName string `json:"client_name"`
	TotalPicks int    `json:"total_picks"`
}

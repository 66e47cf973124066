// Package models defines the persisted data models for the SmartFlow
// deal-analysis system. They live in their own package so that the
// database sub-repositories can share them without import cycles.
package models

import "time"

// Exchange identifies the stock exchange a record came from.
type Exchange string

const (
	ExchangeNSE Exchange = "NSE"
	ExchangeBSE Exchange = "BSE"
)

// DealType distinguishes block deals (negotiated single-counterparty
// trades) from bulk deals (aggregated large open-market trades).
type DealType string

const (
	DealTypeBlock DealType = "BLOCK"
	DealTypeBulk  DealType = "BULK"
)

// DealAction is the trade direction.
type DealAction string

const (
	ActionBuy  DealAction = "BUY"
	ActionSell DealAction = "SELL"
)

// Deal represents a single disclosed block or bulk trade. Deals are
// append-only: once inserted they are never mutated or deleted.
//
// Key Fields:
//   - DealDate: trading date the disclosure refers to (indexed)
//   - Exchange: NSE or BSE
//   - DealType: BLOCK or BULK
//   - Symbol: uppercase ticker (indexed)
//   - ClientName: counterparty as published by the exchange (indexed)
//   - DealValue: always Quantity × Price, recomputed at normalization,
//     never trusted from the source feed
type Deal struct {
	ID          int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	DealDate    time.Time  `gorm:"type:date;index;not null" json:"deal_date"`
	Exchange    Exchange   `gorm:"size:10;index;not null" json:"exchange"`
	DealType    DealType   `gorm:"size:10;index;not null" json:"deal_type"`
	Symbol      string     `gorm:"size:50;index;not null" json:"symbol"`
	CompanyName string     `gorm:"size:255" json:"company_name"`
	ClientName  string     `gorm:"size:255;index;not null" json:"client_name"`
	Action      DealAction `gorm:"size:10;not null" json:"action"`
	Quantity    int64      `gorm:"not null" json:"quantity"`
	Price       float64    `gorm:"type:decimal(10,2);not null" json:"price"`
	DealValue   float64    `gorm:"type:decimal(15,2);not null" json:"deal_value"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for Deal
func (Deal) TableName() string {
	return "deals"
}

// DeliveryData is the daily delivery statistic for one symbol on one
// exchange. Delivery percentage (shares actually transferred vs.
// traded) is the conviction proxy behind the holding classification.
// Rows are upserted: a re-fetch for the same (symbol, date, exchange)
// overwrites the previous values.
type DeliveryData struct {
	ID                int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Symbol            string    `gorm:"size:50;uniqueIndex:idx_delivery_key;not null" json:"symbol"`
	TradeDate         time.Time `gorm:"type:date;uniqueIndex:idx_delivery_key;not null" json:"trade_date"`
	Exchange          Exchange  `gorm:"size:10;uniqueIndex:idx_delivery_key;not null" json:"exchange"`
	TradedQuantity    int64     `gorm:"not null" json:"traded_quantity"`
	DeliveredQuantity int64     `gorm:"not null" json:"delivered_quantity"`
	DeliveryPercent   float64   `gorm:"type:decimal(5,2);index;not null" json:"delivery_percent"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
}

// TableName specifies the table name for DeliveryData
func (DeliveryData) TableName() string {
	return "delivery_data"
}

// ClientPattern is the incrementally maintained accumulation state for
// one (client, symbol) pair. Only BUY deals mutate the buy-side
// aggregates; the row is created on the first BUY and never deleted.
//
// ConsecutiveBuys counts every BUY recorded since tracking began and,
// by default, is never reset by a SELL; IsAccumulating is set on the
// first BUY and never cleared. Both behaviors are inherited from the
// upstream data model (see the pattern repository for the opt-in
// reset policy).
//
// AvgHoldingDays and AvgDeliveryPercent exist in the schema but are
// not maintained by the tracker; consumers treat NULL as zero.
type ClientPattern struct {
	ID                 int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ClientName         string     `gorm:"size:255;uniqueIndex:idx_client_symbol;index;not null" json:"client_name"`
	Symbol             string     `gorm:"size:50;uniqueIndex:idx_client_symbol;index;not null" json:"symbol"`
	TotalBuyDeals      int        `gorm:"default:0" json:"total_buy_deals"`
	TotalSellDeals     int        `gorm:"default:0" json:"total_sell_deals"`
	TotalBuyQuantity   int64      `gorm:"default:0" json:"total_buy_quantity"`
	TotalBuyValue      float64    `gorm:"type:decimal(15,2);default:0" json:"total_buy_value"`
	FirstBuyDate       *time.Time `gorm:"type:date" json:"first_buy_date,omitempty"`
	LastBuyDate        *time.Time `gorm:"type:date" json:"last_buy_date,omitempty"`
	AvgHoldingDays     *int       `json:"avg_holding_days,omitempty"`
	IsAccumulating     bool       `gorm:"default:false;index" json:"is_accumulating"`
	ConsecutiveBuys    int        `gorm:"default:0" json:"consecutive_buys"`
	AvgDeliveryPercent *float64   `gorm:"type:decimal(5,2)" json:"avg_delivery_percent,omitempty"`
	LastUpdated        time.Time  `gorm:"autoUpdateTime" json:"last_updated"`
}

// TableName specifies the table name for ClientPattern
func (ClientPattern) TableName() string {
	return "client_patterns"
}

// FetchStatus is the outcome of one fetch operation.
type FetchStatus string

const (
	FetchSuccess FetchStatus = "SUCCESS"
	FetchPartial FetchStatus = "PARTIAL"
	FetchFailed  FetchStatus = "FAILED"
)

// FetchLog records the outcome of one scheduled fetch per
// (date, data type, exchange); re-runs on the same day overwrite.
type FetchLog struct {
	ID             int64       `gorm:"primaryKey;autoIncrement" json:"id"`
	FetchDate      time.Time   `gorm:"type:date;uniqueIndex:idx_fetch_log_key;not null" json:"fetch_date"`
	DataType       string      `gorm:"size:50;uniqueIndex:idx_fetch_log_key;not null" json:"data_type"`
	Exchange       string      `gorm:"size:10;uniqueIndex:idx_fetch_log_key;not null" json:"exchange"`
	Status         FetchStatus `gorm:"size:20;not null" json:"status"`
	RecordsFetched int         `gorm:"default:0" json:"records_fetched"`
	ErrorMessage   string      `gorm:"type:text" json:"error_message,omitempty"`
	FetchTimestamp time.Time   `gorm:"autoUpdateTime" json:"fetch_timestamp"`
}

// TableName specifies the table name for FetchLog
func (FetchLog) TableName() string {
	return "data_fetch_log"
}

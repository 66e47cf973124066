// Package deals persists trade records and serves the enriched deals
// listing.
package deals

import (
	"fmt"
	"strings"

	"gorm.io/gorm"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

// Repository handles database operations for deal records
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new deals repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert appends a deal and returns its id. Deals are immutable once
// written; there is no update path.
func (r *Repository) Insert(deal *models.Deal) (int64, error) {
	if err := r.db.Create(deal).Error; err != nil {
		return 0, fmt.Errorf("Insert: %w", err)
	}
	return deal.ID, nil
}

// QueryEnriched returns one page of the enriched deals listing plus
// pagination metadata. Filters are combined with AND; the search term
// matches symbol, company name and client name case-insensitively.
func (r *Repository) QueryEnriched(f types.DealFilters) ([]types.EnrichedDeal, types.Pagination, error) {
	where, args := buildFilterClause(f)

	var total int64
	countSQL := "SELECT COUNT(*) FROM enriched_deals" + where
	if err := r.db.Raw(countSQL, args...).Scan(&total).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("QueryEnriched count: %w", err)
	}

	pageSize := f.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	page := f.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	pageSQL := "SELECT * FROM enriched_deals" + where +
		" ORDER BY deal_date DESC, deal_value DESC, id DESC LIMIT ? OFFSET ?"
	pageArgs := append(append([]interface{}{}, args...), pageSize, offset)

	var rows []types.EnrichedDeal
	if err := r.db.Raw(pageSQL, pageArgs...).Scan(&rows).Error; err != nil {
		return nil, types.Pagination{}, fmt.Errorf("QueryEnriched page: %w", err)
	}
	for i := range rows {
		rows[i].Enrich()
	}

	return rows, types.NewPagination(int(total), pageSize, offset), nil
}

// BySymbol returns the most recent enriched deals for one symbol.
func (r *Repository) BySymbol(symbol string, limit int) ([]types.EnrichedDeal, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []types.EnrichedDeal
	err := r.db.Raw(`
		SELECT * FROM enriched_deals
		WHERE symbol = ?
		ORDER BY deal_date DESC, id DESC
		LIMIT ?
	`, strings.ToUpper(symbol), limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("BySymbol: %w", err)
	}
	for i := range rows {
		rows[i].Enrich()
	}
	return rows, nil
}

// UpsertDelivery writes the daily delivery statistic for a symbol.
// Re-fetches for the same (symbol, date, exchange) overwrite the
// prior values, so the operation is idempotent per key.
func (r *Repository) UpsertDelivery(rec *models.DeliveryData) error {
	err := r.db.Exec(`
		INSERT INTO delivery_data (
			symbol, trade_date, exchange, traded_quantity,
			delivered_quantity, delivery_percent, created_at
		) VALUES (?, ?, ?, ?, ?, ?, NOW())
		ON CONFLICT (symbol, trade_date, exchange)
		DO UPDATE SET
			traded_quantity = EXCLUDED.traded_quantity,
			delivered_quantity = EXCLUDED.delivered_quantity,
			delivery_percent = EXCLUDED.delivery_percent
	`, rec.Symbol, rec.TradeDate, rec.Exchange, rec.TradedQuantity,
		rec.DeliveredQuantity, rec.DeliveryPercent).Error
	if err != nil {
		return fmt.Errorf("UpsertDelivery: %w", err)
	}
	return nil
}

// GetDelivery looks up the delivery statistic for one key.
func (r *Repository) GetDelivery(symbol, date string, exchange models.Exchange) (*models.DeliveryData, error) {
	var rec models.DeliveryData
	err := r.db.
		Where("symbol = ? AND trade_date = ? AND exchange = ?", strings.ToUpper(symbol), date, exchange).
		First(&rec).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetDelivery: %w", err)
	}
	return &rec, nil
}

// buildFilterClause translates filters into a WHERE clause. "ALL" and
// zero values mean no constraint, matching the dashboard defaults.
func buildFilterClause(f types.DealFilters) (string, []interface{}) {
	var conds []string
	var args []interface{}

	if f.Exchange != "" && f.Exchange != "ALL" {
		conds = append(conds, "exchange = ?")
		args = append(args, f.Exchange)
	}
	if f.DealType != "" && f.DealType != "ALL" {
		conds = append(conds, "deal_type = ?")
		args = append(args, f.DealType)
	}
	if f.MinDelivery > 0 {
		conds = append(conds, "delivery_percent >= ?")
		args = append(args, f.MinDelivery)
	}
	if f.StartDate != "" {
		conds = append(conds, "deal_date >= ?")
		args = append(args, f.StartDate)
	}
	if f.EndDate != "" {
		conds = append(conds, "deal_date <= ?")
		args = append(args, f.EndDate)
	}
	if f.Search != "" {
		conds = append(conds, "(symbol ILIKE ? OR company_name ILIKE ? OR client_name ILIKE ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

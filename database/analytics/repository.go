// Package analytics serves the dashboard aggregates and the fetch
// audit log. All aggregates are computed over a trailing 30-day window.
package analytics

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

// StatsWindowDays is the trailing window behind every dashboard
// aggregate.
const StatsWindowDays = 30

// Repository handles database operations for dashboard analytics
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new analytics repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetStats computes the dashboard overview. Strong long-term deals are
// counted straight off the join columns (delivery >= 90, holding >= 30)
// so the count agrees with the listing's classification.
func (r *Repository) GetStats() (*types.OverviewStats, error) {
	var stats types.OverviewStats

	err := r.db.Raw(`
		SELECT
			COUNT(*) AS total_deals,
			COUNT(*) FILTER (WHERE deal_date = CURRENT_DATE) AS today_deals,
			COUNT(*) FILTER (WHERE delivery_percent >= 90 AND avg_holding_days >= 30) AS strong_longterm,
			COALESCE(AVG(delivery_percent), 0) AS avg_delivery_percent
		FROM enriched_deals
		WHERE deal_date >= CURRENT_DATE - INTERVAL '1 day' * ?
	`, StatsWindowDays).Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("GetStats: %w", err)
	}

	err = r.db.Raw(`
		SELECT COUNT(*)
		FROM client_patterns
		WHERE is_accumulating = TRUE AND total_buy_deals >= 3
	`).Scan(&stats.AccumulationPatterns).Error
	if err != nil {
		return nil, fmt.Errorf("GetStats patterns: %w", err)
	}

	return &stats, nil
}

// GetTopClients ranks buyers by total BUY value over the stats window.
func (r *Repository) GetTopClients(limit int) ([]types.TopClient, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []types.TopClient
	err := r.db.Raw(`
		SELECT
			client_name,
			COUNT(*) AS total_deals,
			SUM(deal_value) AS total_value,
			COALESCE(AVG(delivery_percent), 0) AS avg_delivery
		FROM enriched_deals
		WHERE action = 'BUY'
			AND deal_date >= CURRENT_DATE - INTERVAL '1 day' * ?
		GROUP BY client_name
		ORDER BY total_value DESC
		LIMIT ?
	`, StatsWindowDays, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetTopClients: %w", err)
	}
	return rows, nil
}

// GetActiveSymbols ranks symbols by deal count over the stats window.
func (r *Repository) GetActiveSymbols(limit int) ([]types.ActiveSymbol, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []types.ActiveSymbol
	err := r.db.Raw(`
		SELECT
			symbol,
			MAX(company_name) AS company_name,
			COUNT(*) AS deal_count,
			SUM(deal_value) AS total_value,
			COALESCE(AVG(delivery_percent), 0) AS avg_delivery
		FROM enriched_deals
		WHERE deal_date >= CURRENT_DATE - INTERVAL '1 day' * ?
		GROUP BY symbol
		ORDER BY deal_count DESC, total_value DESC
		LIMIT ?
	`, StatsWindowDays, limit).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetActiveSymbols: %w", err)
	}
	return rows, nil
}

// LogFetch upserts the outcome of one fetch operation. The key is
// (fetch date, data type, exchange): re-runs on the same day overwrite
// the earlier outcome rather than accumulate.
func (r *Repository) LogFetch(entry *models.FetchLog) error {
	if entry.FetchDate.IsZero() {
		entry.FetchDate = time.Now()
	}

	err := r.db.Exec(`
		INSERT INTO data_fetch_log (
			fetch_date, data_type, exchange, status,
			records_fetched, error_message, fetch_timestamp
		) VALUES (?, ?, ?, ?, ?, ?, NOW())
		ON CONFLICT (fetch_date, data_type, exchange)
		DO UPDATE SET
			status = EXCLUDED.status,
			records_fetched = EXCLUDED.records_fetched,
			error_message = EXCLUDED.error_message,
			fetch_timestamp = NOW()
	`, entry.FetchDate, entry.DataType, entry.Exchange, entry.Status,
		entry.RecordsFetched, entry.ErrorMessage).Error
	if err != nil {
		return fmt.Errorf("LogFetch: %w", err)
	}
	return nil
}

// GetFetchLogs returns the most recent fetch outcomes.
func (r *Repository) GetFetchLogs(limit int) ([]models.FetchLog, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.FetchLog
	err := r.db.
		Order("fetch_timestamp DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetFetchLogs: %w", err)
	}
	return rows, nil
}

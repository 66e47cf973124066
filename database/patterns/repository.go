// Package patterns maintains the per-(client, symbol) accumulation
// state. This is the only mutable aggregate in the system: updates are
// single-statement atomic upserts so concurrent ingestion runs cannot
// lose increments.
package patterns

import (
	"fmt"

	"gorm.io/gorm"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

// Repository handles database operations for client patterns
type Repository struct {
	db *gorm.DB

	// resetOnSell zeroes consecutive_buys when a SELL is recorded for a
	// tracked pair. Off by default: the upstream data model never
	// resets the counter, and the accumulation flag never clears.
	resetOnSell bool
}

// NewRepository creates a new patterns repository
func NewRepository(db *gorm.DB, resetOnSell bool) *Repository {
	return &Repository{db: db, resetOnSell: resetOnSell}
}

// RecordBuy folds a BUY deal into the buyer's accumulation state.
// The whole read-modify-write is one INSERT ... ON CONFLICT DO UPDATE,
// which Postgres serializes per row: two concurrent buys for the same
// (client, symbol) both land, neither increment is lost.
//
// last_buy_date advances to the later of the stored and incoming
// dates, so out-of-order batches cannot move it backwards.
// consecutive_buys increments on every BUY unconditionally.
func (r *Repository) RecordBuy(deal *models.Deal) error {
	if deal.Action != models.ActionBuy {
		return nil // only BUY deals touch accumulation state
	}

	err := r.db.Exec(`
		INSERT INTO client_patterns (
			client_name, symbol, total_buy_deals, total_buy_quantity,
			total_buy_value, first_buy_date, last_buy_date,
			consecutive_buys, is_accumulating, last_updated
		) VALUES (?, ?, 1, ?, ?, ?, ?, 1, TRUE, NOW())
		ON CONFLICT (client_name, symbol)
		DO UPDATE SET
			total_buy_deals = client_patterns.total_buy_deals + 1,
			total_buy_quantity = client_patterns.total_buy_quantity + EXCLUDED.total_buy_quantity,
			total_buy_value = client_patterns.total_buy_value + EXCLUDED.total_buy_value,
			last_buy_date = GREATEST(client_patterns.last_buy_date, EXCLUDED.last_buy_date),
			consecutive_buys = client_patterns.consecutive_buys + 1,
			is_accumulating = TRUE,
			last_updated = NOW()
	`, deal.ClientName, deal.Symbol, deal.Quantity, deal.DealValue,
		deal.DealDate, deal.DealDate).Error
	if err != nil {
		return fmt.Errorf("RecordBuy: %w", err)
	}
	return nil
}

// RecordSell counts a SELL against an existing pattern row. Pairs
// without a prior BUY are ignored (sell-only clients are not tracked).
// Unless the reset policy is enabled the accumulation counters are
// left untouched.
func (r *Repository) RecordSell(deal *models.Deal) error {
	if deal.Action != models.ActionSell {
		return nil
	}

	query := `
		UPDATE client_patterns
		SET total_sell_deals = total_sell_deals + 1,
		    last_updated = NOW()
		WHERE client_name = ? AND symbol = ?
	`
	if r.resetOnSell {
		query = `
			UPDATE client_patterns
			SET total_sell_deals = total_sell_deals + 1,
			    consecutive_buys = 0,
			    last_updated = NOW()
			WHERE client_name = ? AND symbol = ?
		`
	}

	if err := r.db.Exec(query, deal.ClientName, deal.Symbol).Error; err != nil {
		return fmt.Errorf("RecordSell: %w", err)
	}
	return nil
}

// GetAccumulationPatterns lists active accumulation pairs with at
// least minDeals buys, largest positions first.
func (r *Repository) GetAccumulationPatterns(minDeals int) ([]types.AccumulationPattern, error) {
	if minDeals <= 0 {
		minDeals = 3
	}

	var rows []types.AccumulationPattern
	err := r.db.Raw(`
		SELECT
			client_name,
			symbol,
			total_buy_deals,
			total_buy_quantity,
			total_buy_value,
			COALESCE(avg_holding_days, 0) AS avg_holding_days,
			COALESCE(avg_delivery_percent, 0) AS avg_delivery_percent,
			consecutive_buys,
			last_buy_date
		FROM client_patterns
		WHERE is_accumulating = TRUE
			AND total_buy_deals >= ?
		ORDER BY total_buy_value DESC
		LIMIT 50
	`, minDeals).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("GetAccumulationPatterns: %w", err)
	}
	return rows, nil
}

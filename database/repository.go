package database

import (
	"github.com/rs/zerolog/log"

	"smartflow/database/analytics"
	"smartflow/database/deals"
	models "smartflow/database/models_pkg"
	"smartflow/database/patterns"
	"smartflow/database/signals"
)

// DealRepository bundles the sub-repositories behind one handle. The
// API layer and the ingestion pipeline only ever see this type.
type DealRepository struct {
	db *Database

	Deals     *deals.Repository
	Patterns  *patterns.Repository
	Signals   *signals.Repository
	Analytics *analytics.Repository
}

// NewDealRepository creates the repository aggregate.
// resetConsecutiveOnSell enables the opt-in policy of zeroing
// consecutive_buys when a SELL is recorded for a tracked pair.
func NewDealRepository(db *Database, resetConsecutiveOnSell bool) *DealRepository {
	gdb := db.DB()
	return &DealRepository{
		db:        db,
		Deals:     deals.NewRepository(gdb),
		Patterns:  patterns.NewRepository(gdb, resetConsecutiveOnSell),
		Signals:   signals.NewRepository(gdb),
		Analytics: analytics.NewRepository(gdb),
	}
}

// Ping verifies the underlying connection.
func (r *DealRepository) Ping() error {
	return r.db.Ping()
}

// InitSchema migrates the tables and (re)creates the enriched_deals
// view. The view performs only the left joins; holding type and
// confidence score are computed in Go at scan time so the decision
// table lives in exactly one place (types.ClassifyHolding).
func (r *DealRepository) InitSchema() error {
	log.Info().Msg("starting database schema initialization")

	gdb := r.db.DB()

	if err := gdb.AutoMigrate(
		&models.Deal{},
		&models.DeliveryData{},
		&models.ClientPattern{},
		&models.FetchLog{},
	); err != nil {
		return WrapDBError("auto-migrate", err)
	}

	// Partial index for the accumulation listing
	if err := gdb.Exec(`
		CREATE INDEX IF NOT EXISTS idx_client_patterns_accumulating
		ON client_patterns(is_accumulating)
		WHERE is_accumulating = TRUE
	`).Error; err != nil {
		return WrapDBError("create accumulation index", err)
	}

	if err := gdb.Exec(`
		CREATE OR REPLACE VIEW enriched_deals AS
		SELECT
			d.id,
			d.deal_date,
			d.exchange,
			d.deal_type,
			d.symbol,
			d.company_name,
			d.client_name,
			d.action,
			d.quantity,
			d.price,
			d.deal_value,

			COALESCE(dd.delivery_percent, 0) AS delivery_percent,
			COALESCE(dd.traded_quantity, 0) AS traded_quantity,
			COALESCE(dd.delivered_quantity, 0) AS delivered_quantity,

			COALESCE(cp.total_buy_deals, 0) AS total_buy_deals,
			COALESCE(cp.avg_holding_days, 0) AS avg_holding_days,
			COALESCE(cp.is_accumulating, FALSE) AS is_accumulating,
			COALESCE(cp.consecutive_buys, 0) AS consecutive_buys

		FROM deals d
		LEFT JOIN delivery_data dd
			ON d.symbol = dd.symbol
			AND d.deal_date = dd.trade_date
			AND d.exchange = dd.exchange
		LEFT JOIN client_patterns cp
			ON d.client_name = cp.client_name
			AND d.symbol = cp.symbol
	`).Error; err != nil {
		return WrapDBError("create enriched_deals view", err)
	}

	log.Info().Msg("database schema ready")
	return nil
}

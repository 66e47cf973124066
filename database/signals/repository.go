package signals

import (
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"

	"smartflow/database/types"
)

// Repository fetches the window snapshots the derivation runs over.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new signals repository
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GenerateBuySignals derives the ranked buy signals from the current
// deal window and returns one page. Both snapshot queries run inside a
// single repeatable-read transaction so the signal list and the track
// records describe the same instant even while ingestion is writing.
func (r *Repository) GenerateBuySignals(minStrength, pageSize, offset int) ([]types.BuySignal, types.Pagination, error) {
	if pageSize <= 0 {
		pageSize = 20
	}
	if offset < 0 {
		offset = 0
	}

	rows, perf, err := r.snapshot()
	if err != nil {
		return nil, types.Pagination{}, err
	}

	trackRecords := make(map[string]float64, len(perf))
	for _, p := range perf {
		// Flat per-buyer rate; see the track record constants.
		trackRecords[p.ClientName] = trackRecordRate
	}

	all := Derive(rows, trackRecords, time.Now())
	page, meta := Paginate(all, minStrength, pageSize, offset)
	return page, meta, nil
}

// snapshot reads the signal window and the buyer track-record window
// under one consistent view.
func (r *Repository) snapshot() ([]types.EnrichedDeal, []types.ClientPerformance, error) {
	tx := r.db.Begin(&sql.TxOptions{
		Isolation: sql.LevelRepeatableRead,
		ReadOnly:  true,
	})
	if tx.Error != nil {
		return nil, nil, fmt.Errorf("snapshot begin: %w", tx.Error)
	}
	defer tx.Rollback()

	var rows []types.EnrichedDeal
	err := tx.Raw(`
		SELECT * FROM enriched_deals
		WHERE action = 'BUY'
			AND deal_date >= CURRENT_DATE - INTERVAL '1 day' * ?
			AND deal_value >= ?
			AND delivery_percent >= ?
	`, SignalWindowDays, MinDealValue, MinDeliveryPct).Scan(&rows).Error
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot window: %w", err)
	}

	var perf []types.ClientPerformance
	err = tx.Raw(`
		SELECT client_name, COUNT(DISTINCT symbol) AS total_picks
		FROM deals
		WHERE action = 'BUY'
			AND deal_date >= CURRENT_DATE - INTERVAL '1 day' * ?
		GROUP BY client_name
	`, TrackRecordWindowDays).Scan(&perf).Error
	if err != nil {
		return nil, nil, fmt.Errorf("snapshot track records: %w", err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, nil, fmt.Errorf("snapshot commit: %w", err)
	}
	return rows, perf, nil
}

package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"smartflow/config"
	"smartflow/database"
	models "smartflow/database/models_pkg"
	"smartflow/helpers"
)

// ErrRunInProgress is returned when another ingestion run already
// holds the batch lock.
var ErrRunInProgress = errors.New("ingestion run already in progress")

// Data type labels used in the fetch log.
const (
	dataTypeBlockDeals   = "BLOCK_DEALS"
	dataTypeBulkDeals    = "BULK_DEALS"
	dataTypeDeliveryData = "DELIVERY_DATA"
)

// RunStats summarizes one ingestion run.
type RunStats struct {
	NSEBlockDeals int           `json:"nse_block_deals"`
	NSEBulkDeals  int           `json:"nse_bulk_deals"`
	BSEBlockDeals int           `json:"bse_block_deals"`
	BSEBulkDeals  int           `json:"bse_bulk_deals"`
	DeliveryData  int           `json:"delivery_data"`
	UniqueSymbols int           `json:"unique_symbols"`
	Inserted      int           `json:"inserted"`
	Errors        int           `json:"errors"`
	Duration      time.Duration `json:"-"`
}

// Service runs the full fetch-normalize-store pipeline.
type Service struct {
	repo *database.DealRepository
	lock *database.BatchLock
	nse  *NSEClient
	bse  *BSEClient
	cfg  config.IngestConfig
	log  zerolog.Logger
}

// NewService wires the pipeline together.
func NewService(repo *database.DealRepository, lock *database.BatchLock, cfg config.IngestConfig) *Service {
	return &Service{
		repo: repo,
		lock: lock,
		nse:  NewNSEClient(cfg.NSEBaseURL, cfg.HTTPTimeout),
		bse:  NewBSEClient(cfg.BSEBaseURL, cfg.HTTPTimeout),
		cfg:  cfg,
		log:  log.With().Str("component", "ingest").Logger(),
	}
}

// Run executes one ingestion batch: fetch NSE and BSE deals, insert
// them, fold BUYs into the pattern tracker, then fetch NSE delivery
// data for every symbol seen.
//
// The batch holds the advisory lock for its whole duration; a second
// run while one is active returns ErrRunInProgress. A failing source
// never aborts the others, and a cancelled context keeps whatever was
// already inserted.
func (s *Service) Run(ctx context.Context) (*RunStats, error) {
	acquired, err := s.lock.TryAcquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest run: %w", err)
	}
	if !acquired {
		s.log.Warn().Msg("skipping run: batch lock held by another run")
		return nil, ErrRunInProgress
	}
	defer func() {
		if err := s.lock.Release(context.Background()); err != nil {
			s.log.Error().Err(err).Msg("failed to release batch lock")
		}
	}()

	start := time.Now()
	stats := &RunStats{}
	s.log.Info().Msg("starting data fetch (NSE + BSE)")

	nseBlock, nseBulk := s.fetchNSE(ctx, stats)
	bseBulk, bseBlock := s.fetchBSE(ctx, stats)

	type batch struct {
		raws     []RawDeal
		exchange models.Exchange
		dealType models.DealType
	}
	batches := []batch{
		{nseBlock, models.ExchangeNSE, models.DealTypeBlock},
		{nseBulk, models.ExchangeNSE, models.DealTypeBulk},
		{bseBulk, models.ExchangeBSE, models.DealTypeBulk},
		{bseBlock, models.ExchangeBSE, models.DealTypeBlock},
	}

	symbols := make(map[string]struct{})
	for _, b := range batches {
		for _, raw := range b.raws {
			if err := ctx.Err(); err != nil {
				s.logPartialCancel(stats)
				return stats, err
			}
			if err := s.storeDeal(raw, b.exchange, b.dealType, symbols); err != nil {
				s.log.Error().Err(err).Str("symbol", raw.Symbol).Msg("deal rejected")
				stats.Errors++
			} else {
				stats.Inserted++
			}
			s.pause(ctx, s.cfg.RecordDelay)
		}
	}
	stats.UniqueSymbols = len(symbols)

	s.fetchDeliveries(ctx, symbols, stats)

	stats.Duration = time.Since(start)
	s.log.Info().
		Int("nse_block", stats.NSEBlockDeals).
		Int("nse_bulk", stats.NSEBulkDeals).
		Int("bse_block", stats.BSEBlockDeals).
		Int("bse_bulk", stats.BSEBulkDeals).
		Int("inserted", stats.Inserted).
		Int("delivery", stats.DeliveryData).
		Int("errors", stats.Errors).
		Dur("duration", stats.Duration).
		Msg("data fetch completed")

	return stats, nil
}

// storeDeal normalizes and persists one record, updating the pattern
// state for its direction.
func (s *Service) storeDeal(raw RawDeal, exchange models.Exchange, dealType models.DealType, symbols map[string]struct{}) error {
	deal, err := NormalizeDeal(raw, exchange, dealType)
	if err != nil {
		return err
	}
	if _, err := s.repo.Deals.Insert(deal); err != nil {
		return err
	}
	symbols[deal.Symbol] = struct{}{}

	var patternErr error
	if deal.Action == models.ActionBuy {
		patternErr = s.repo.Patterns.RecordBuy(deal)
	} else {
		patternErr = s.repo.Patterns.RecordSell(deal)
	}
	if patternErr != nil {
		return patternErr
	}

	s.log.Debug().
		Str("exchange", string(deal.Exchange)).
		Str("type", string(deal.DealType)).
		Str("symbol", deal.Symbol).
		Str("client", deal.ClientName).
		Str("action", string(deal.Action)).
		Int64("quantity", deal.Quantity).
		Str("value", helpers.FormatIndianRupees(deal.DealValue)).
		Msg("deal stored")
	return nil
}

// fetchNSE pulls both NSE feeds. The session bootstrap failing skips
// NSE entirely; each feed logs its own outcome.
func (s *Service) fetchNSE(ctx context.Context, stats *RunStats) (block, bulk []RawDeal) {
	if err := s.nse.InitSession(ctx); err != nil {
		s.log.Error().Err(err).Msg("NSE session init failed, continuing with BSE only")
		s.logFetch(dataTypeBlockDeals, models.ExchangeNSE, 0, err)
		s.logFetch(dataTypeBulkDeals, models.ExchangeNSE, 0, err)
		return nil, nil
	}
	s.pause(ctx, s.cfg.RequestDelay)

	block, err := s.nse.FetchBlockDeals(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("NSE block deals fetch failed")
		stats.Errors++
	}
	s.logFetch(dataTypeBlockDeals, models.ExchangeNSE, len(block), err)
	stats.NSEBlockDeals = len(block)

	s.pause(ctx, s.cfg.RequestDelay)

	bulk, err = s.nse.FetchBulkDeals(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("NSE bulk deals fetch failed")
		stats.Errors++
	}
	s.logFetch(dataTypeBulkDeals, models.ExchangeNSE, len(bulk), err)
	stats.NSEBulkDeals = len(bulk)

	return block, bulk
}

func (s *Service) fetchBSE(ctx context.Context, stats *RunStats) (bulk, block []RawDeal) {
	s.pause(ctx, s.cfg.RequestDelay)

	bulk, err := s.bse.FetchBulkDeals(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("BSE bulk deals fetch failed")
		stats.Errors++
	}
	s.logFetch(dataTypeBulkDeals, models.ExchangeBSE, len(bulk), err)
	stats.BSEBulkDeals = len(bulk)

	s.pause(ctx, s.cfg.RequestDelay)

	block, err = s.bse.FetchBlockDeals(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("BSE block deals fetch failed")
		stats.Errors++
	}
	s.logFetch(dataTypeBlockDeals, models.ExchangeBSE, len(block), err)
	stats.BSEBlockDeals = len(block)

	return bulk, block
}

// fetchDeliveries pulls the NSE delivery statistic for every symbol
// seen this run. BSE-only symbols simply come back empty from NSE and
// stay without delivery data.
func (s *Service) fetchDeliveries(ctx context.Context, symbols map[string]struct{}, stats *RunStats) {
	s.log.Info().Int("symbols", len(symbols)).Msg("fetching delivery data")

	for symbol := range symbols {
		if ctx.Err() != nil {
			s.logPartialCancel(stats)
			return
		}
		s.pause(ctx, s.cfg.RequestDelay)

		rec, err := s.nse.FetchDelivery(ctx, symbol)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("no delivery data")
			stats.Errors++
			continue
		}
		if rec == nil || rec.DeliveryPercent <= 0 {
			continue
		}
		if err := s.repo.Deals.UpsertDelivery(rec); err != nil {
			s.log.Error().Err(err).Str("symbol", symbol).Msg("delivery upsert failed")
			stats.Errors++
			continue
		}
		stats.DeliveryData++
	}

	s.logFetch(dataTypeDeliveryData, models.ExchangeNSE, stats.DeliveryData, nil)
}

// logFetch records one source outcome in the fetch log. Zero records
// without an error counts as PARTIAL (the source responded but had
// nothing for us, or we could not tell).
func (s *Service) logFetch(dataType string, exchange models.Exchange, records int, err error) {
	status := models.FetchSuccess
	msg := ""
	switch {
	case err != nil:
		status = models.FetchFailed
		msg = err.Error()
	case records == 0:
		status = models.FetchPartial
	}

	entry := &models.FetchLog{
		FetchDate:      time.Now(),
		DataType:       dataType,
		Exchange:       string(exchange),
		Status:         status,
		RecordsFetched: records,
		ErrorMessage:   msg,
	}
	if logErr := s.repo.Analytics.LogFetch(entry); logErr != nil {
		s.log.Error().Err(logErr).Str("data_type", dataType).Msg("fetch log write failed")
	}
}

func (s *Service) logPartialCancel(stats *RunStats) {
	s.log.Warn().Int("inserted", stats.Inserted).Msg("run cancelled, keeping completed inserts")
	entry := &models.FetchLog{
		FetchDate:      time.Now(),
		DataType:       "ALL",
		Exchange:       "MIXED",
		Status:         models.FetchPartial,
		RecordsFetched: stats.Inserted,
		ErrorMessage:   "run cancelled",
	}
	if err := s.repo.Analytics.LogFetch(entry); err != nil {
		s.log.Error().Err(err).Msg("fetch log write failed")
	}
}

// pause sleeps for d or until the context is cancelled.
func (s *Service) pause(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	select {
	case <-ctx.Done():
	case <-time.After(d):
	}
}

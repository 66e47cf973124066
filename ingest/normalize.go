// Package ingest pulls block and bulk deal disclosures from the NSE
// and BSE websites, normalizes them, and folds them into the store.
package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	models "smartflow/database/models_pkg"
)

// RawDeal is one deal record as published by an exchange feed, before
// any validation. String fields carry whatever the source sent.
type RawDeal struct {
	Date        string
	Symbol      string
	CompanyName string
	ClientName  string
	BuyOrSell   string
	Quantity    int64
	Price       float64
}

// nseMonths maps the upper-case month abbreviations NSE uses in
// DD-MON-YYYY dates. time.Parse("02-Jan-2006") would reject the
// upper-case form, so the mapping is explicit.
var nseMonths = map[string]time.Month{
	"JAN": time.January, "FEB": time.February, "MAR": time.March,
	"APR": time.April, "MAY": time.May, "JUN": time.June,
	"JUL": time.July, "AUG": time.August, "SEP": time.September,
	"OCT": time.October, "NOV": time.November, "DEC": time.December,
}

// NormalizeDeal validates and canonicalizes one raw record. Records
// with an empty symbol, non-positive quantity or price, or an
// unparsable date are rejected; the caller logs and moves on.
//
// The deal value is always recomputed as quantity times price; a value
// published by the source is never trusted.
func NormalizeDeal(raw RawDeal, exchange models.Exchange, dealType models.DealType) (*models.Deal, error) {
	symbol := strings.ToUpper(strings.TrimSpace(raw.Symbol))
	if symbol == "" {
		return nil, fmt.Errorf("normalize: empty symbol")
	}
	if raw.Quantity <= 0 {
		return nil, fmt.Errorf("normalize %s: quantity %d", symbol, raw.Quantity)
	}
	if raw.Price <= 0 {
		return nil, fmt.Errorf("normalize %s: price %v", symbol, raw.Price)
	}

	date, err := parseDealDate(raw.Date, exchange)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", symbol, err)
	}

	return &models.Deal{
		DealDate:    date,
		Exchange:    exchange,
		DealType:    dealType,
		Symbol:      symbol,
		CompanyName: strings.TrimSpace(raw.CompanyName),
		ClientName:  strings.TrimSpace(raw.ClientName),
		Action:      normalizeAction(raw.BuyOrSell),
		Quantity:    raw.Quantity,
		Price:       raw.Price,
		DealValue:   float64(raw.Quantity) * raw.Price,
	}, nil
}

func parseDealDate(s string, exchange models.Exchange) (time.Time, error) {
	if exchange == models.ExchangeBSE {
		return parseBSEDate(s)
	}
	return parseNSEDate(s)
}

// parseNSEDate parses the NSE DD-MON-YYYY form, e.g. "02-JAN-2026".
func parseNSEDate(s string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("bad NSE date %q", s)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad NSE date %q", s)
	}
	month, ok := nseMonths[strings.ToUpper(parts[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("bad NSE month in %q", s)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("bad NSE date %q", s)
	}
	if day < 1 || day > 31 {
		return time.Time{}, fmt.Errorf("bad NSE day in %q", s)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}

// parseBSEDate parses the BSE DD/MM/YYYY form, e.g. "02/01/2026".
func parseBSEDate(s string) (time.Time, error) {
	t, err := time.Parse("02/01/2006", strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("bad BSE date %q", s)
	}
	return t, nil
}

// normalizeAction maps the feed's buy/sell marker to a direction.
// "B" and "BUY" (any case) are buys; everything else, including the
// BSE long forms "S" and "SELL", is a sell.
func normalizeAction(s string) models.DealAction {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "B", "BUY":
		return models.ActionBuy
	default:
		return models.ActionSell
	}
}

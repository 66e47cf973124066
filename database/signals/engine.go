// Package signals derives ranked buy signals from the trailing deal
// window. The derivation is a pure function of the window snapshot:
// no hidden state, identical inputs produce identical output, and
// nothing here is ever persisted or cached.
package signals

import (
	"fmt"
	"sort"
	"time"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
	"smartflow/helpers"
)

// symbolAggregate accumulates the eligible buys of one symbol.
type symbolAggregate struct {
	Symbol         string
	CompanyName    string
	TotalBuys      int
	TotalQuantity  int64
	TotalValue     float64
	LatestBuyDate  time.Time
	FirstBuyDate   time.Time
	MaxConsecutive int

	sumPrice    float64
	sumDelivery float64
	buyers      map[string]struct{}

	// Primary buyer: the client behind the single largest eligible
	// deal. Equal values tie-break to the lexicographically smallest
	// client name so the choice is deterministic across runs.
	PrimaryBuyer string
	primaryValue float64
}

func (a *symbolAggregate) add(d types.EnrichedDeal) {
	a.TotalBuys++
	a.TotalQuantity += d.Quantity
	a.TotalValue += d.DealValue
	a.sumPrice += d.Price
	a.sumDelivery += d.DeliveryPercent

	if a.CompanyName < d.CompanyName {
		a.CompanyName = d.CompanyName
	}
	if a.FirstBuyDate.IsZero() || d.DealDate.Before(a.FirstBuyDate) {
		a.FirstBuyDate = d.DealDate
	}
	if d.DealDate.After(a.LatestBuyDate) {
		a.LatestBuyDate = d.DealDate
	}
	if d.ConsecutiveBuys > a.MaxConsecutive {
		a.MaxConsecutive = d.ConsecutiveBuys
	}

	if a.buyers == nil {
		a.buyers = make(map[string]struct{})
	}
	a.buyers[d.ClientName] = struct{}{}

	if d.DealValue > a.primaryValue ||
		(d.DealValue == a.primaryValue && (a.PrimaryBuyer == "" || d.ClientName < a.PrimaryBuyer)) {
		a.PrimaryBuyer = d.ClientName
		a.primaryValue = d.DealValue
	}
}

func (a *symbolAggregate) avgBuyPrice() float64 {
	return a.sumPrice / float64(a.TotalBuys)
}

func (a *symbolAggregate) avgDelivery() float64 {
	return a.sumDelivery / float64(a.TotalBuys)
}

func (a *symbolAggregate) uniqueBuyers() int {
	return len(a.buyers)
}

func (a *symbolAggregate) accumulationDays() int {
	return int(a.LatestBuyDate.Sub(a.FirstBuyDate).Hours() / 24)
}

// Derive turns a window snapshot of enriched BUY deals into unranked
// buy signals. trackRecords maps client name to the historical success
// rate (see the repository for how it is populated); buyers absent
// from the map get the default rate. today anchors the recency checks
// and is a parameter so the derivation stays deterministic under test.
//
// Rows failing the per-deal window guards (BUY, value, delivery) are
// skipped, so Derive is safe to call on unfiltered input as well.
func Derive(rows []types.EnrichedDeal, trackRecords map[string]float64, today time.Time) []types.BuySignal {
	bySymbol := make(map[string]*symbolAggregate)
	for _, d := range rows {
		if d.Action != models.ActionBuy || d.DealValue < MinDealValue || d.DeliveryPercent < MinDeliveryPct {
			continue
		}
		agg, ok := bySymbol[d.Symbol]
		if !ok {
			agg = &symbolAggregate{Symbol: d.Symbol}
			bySymbol[d.Symbol] = agg
		}
		agg.add(d)
	}

	signals := make([]types.BuySignal, 0, len(bySymbol))
	for _, agg := range bySymbol {
		// A symbol qualifies only with enough distinct buys and a high
		// enough average delivery; failing groups are dropped before
		// scoring.
		if agg.TotalBuys < MinBuys || agg.avgDelivery() < MinAvgDelivery {
			continue
		}
		signals = append(signals, buildSignal(agg, trackRecords, today))
	}

	sort.Slice(signals, func(i, j int) bool {
		if signals[i].SignalStrength != signals[j].SignalStrength {
			return signals[i].SignalStrength > signals[j].SignalStrength
		}
		if signals[i].TotalValue != signals[j].TotalValue {
			return signals[i].TotalValue > signals[j].TotalValue
		}
		return signals[i].Symbol < signals[j].Symbol
	})

	return signals
}

// Paginate filters by minimum strength, numbers the surviving signals
// by rank and returns one page plus pagination metadata.
func Paginate(all []types.BuySignal, minStrength, pageSize, offset int) ([]types.BuySignal, types.Pagination) {
	eligible := all[:0:0]
	for _, s := range all {
		if s.SignalStrength >= minStrength {
			eligible = append(eligible, s)
		}
	}

	total := len(eligible)
	if offset > total {
		offset = total
	}
	end := offset + pageSize
	if end > total {
		end = total
	}

	page := make([]types.BuySignal, end-offset)
	copy(page, eligible[offset:end])
	for i := range page {
		page[i].ID = offset + i + 1 // rank within the full eligible ordering
	}

	return page, types.NewPagination(total, pageSize, offset)
}

func buildSignal(agg *symbolAggregate, trackRecords map[string]float64, today time.Time) types.BuySignal {
	avgDelivery := agg.avgDelivery()
	avgPrice := agg.avgBuyPrice()
	accumDays := agg.accumulationDays()

	trackRecord, ok := trackRecords[agg.PrimaryBuyer]
	if !ok {
		trackRecord = trackRecordDefaultRate
	}

	return types.BuySignal{
		Symbol:             agg.Symbol,
		CompanyName:        agg.CompanyName,
		SignalType:         classify(agg, avgDelivery),
		SignalStrength:     strength(agg, avgDelivery),
		Reasons:            reasons(agg, avgDelivery, accumDays, trackRecord),
		PrimaryBuyer:       agg.PrimaryBuyer,
		BuyerTrackRecord:   trackRecord,
		TotalBought2M:      agg.TotalBuys,
		AvgBuyPrice:        avgPrice,
		LatestBuyDate:      agg.LatestBuyDate,
		ConsecutiveBuys:    agg.MaxConsecutive,
		AvgDelivery:        avgDelivery,
		EntryPrice:         avgPrice,
		TargetPrice:        avgPrice * targetPriceMultiplier,
		StopLoss:           avgPrice * stopLossMultiplier,
		PotentialReturn:    fixedPotentialReturn,
		RiskRewardRatio:    fixedRiskRewardRatio,
		DaysInAccumulation: accumDays,
		RecommendedAction:  recommend(agg, avgDelivery, accumDays, today),
		Urgency:            urgency(agg, today),
		TotalValue:         agg.TotalValue,
	}
}

// strength scores a symbol group. Every term is individually capped;
// the float result truncates to int.
func strength(agg *symbolAggregate, avgDelivery float64) int {
	buys := agg.TotalBuys
	if buys > strengthBuysCap {
		buys = strengthBuysCap
	}
	delivery := avgDelivery
	if delivery > 100 {
		delivery = 100
	}
	consecutive := agg.MaxConsecutive
	if consecutive > strengthConsecutiveCap {
		consecutive = strengthConsecutiveCap
	}

	score := strengthBuysWeight*float64(buys) + strengthDeliveryWeight*delivery
	if agg.uniqueBuyers() >= multiBuyerMin {
		score += multiBuyerBonus
	}
	score += strengthConsecutive * float64(consecutive)
	if agg.TotalValue >= largeValueMin {
		score += largeValueBonus
	} else {
		score += smallValueBonus
	}

	return int(score)
}

// classify picks the signal type; the rules are ordered, first match
// wins.
func classify(agg *symbolAggregate, avgDelivery float64) types.SignalType {
	switch {
	case agg.TotalBuys >= accumulationTypeBuys && agg.MaxConsecutive >= reasonConsecutiveMin:
		return types.SignalAccumulation
	case agg.uniqueBuyers() >= institutionalBuyers && agg.TotalValue >= largeValueMin:
		return types.SignalInstitutional
	case avgDelivery >= breakoutMinDelivery:
		return types.SignalBreakout
	default:
		return types.SignalInsider
	}
}

func urgency(agg *symbolAggregate, today time.Time) types.Urgency {
	switch {
	case withinDays(agg.LatestBuyDate, today, urgentRecentDays) && agg.TotalBuys >= urgentMinBuys:
		return types.UrgencyHigh
	case withinDays(agg.LatestBuyDate, today, mediumRecentDays):
		return types.UrgencyMedium
	default:
		return types.UrgencyLow
	}
}

func recommend(agg *symbolAggregate, avgDelivery float64, accumDays int, today time.Time) types.RecommendedAction {
	switch {
	case withinDays(agg.LatestBuyDate, today, buyNowRecentDays) && avgDelivery >= buyNowMinDelivery:
		return types.ActionBuyNow
	case agg.TotalBuys >= buyOnDipMinBuys:
		return types.ActionBuyOnDip
	case accumDays <= monitorMaxAccumDays:
		return types.ActionMonitor
	default:
		return types.ActionWait
	}
}

// reasons builds the ordered justification list; each entry appears
// only when its trigger holds, relative order is fixed.
func reasons(agg *symbolAggregate, avgDelivery float64, accumDays int, trackRecord float64) []string {
	var out []string
	if agg.TotalBuys >= reasonStrongBuys {
		out = append(out, fmt.Sprintf("Strong accumulation: %d buys in %d days", agg.TotalBuys, accumDays))
	}
	if avgDelivery >= reasonHighDelivery {
		out = append(out, fmt.Sprintf("Very high delivery: %.1f%%", avgDelivery))
	}
	if agg.uniqueBuyers() >= multiBuyerMin {
		out = append(out, fmt.Sprintf("Multiple institutions buying: %d buyers", agg.uniqueBuyers()))
	}
	if agg.MaxConsecutive >= reasonConsecutiveMin {
		out = append(out, fmt.Sprintf("Consecutive buying pattern: %d times", agg.MaxConsecutive))
	}
	if agg.TotalValue >= largeValueMin {
		out = append(out, fmt.Sprintf("Large institutional position: %s", helpers.FormatCrore(agg.TotalValue)))
	}
	if trackRecord >= reasonTrackRecordMin {
		out = append(out, fmt.Sprintf("Proven buyer: %.0f%% success rate", trackRecord))
	}
	return out
}

// withinDays reports whether date falls on or after today minus n
// days, comparing calendar dates the way the store compares DATE
// columns.
func withinDays(date, today time.Time, n int) bool {
	threshold := truncateDate(today).AddDate(0, 0, -n)
	return !truncateDate(date).Before(threshold)
}

func truncateDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

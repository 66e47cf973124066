package signals

import (
	"fmt"
	"testing"
	"time"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

var testToday = time.Date(2026, time.August, 28, 12, 0, 0, 0, time.UTC)

func day(offset int) time.Time {
	return time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

// buyDeal builds an eligible BUY row with sensible defaults.
func buyDeal(symbol, client string, date time.Time, mutate ...func(*types.EnrichedDeal)) types.EnrichedDeal {
	d := types.EnrichedDeal{
		Symbol:          symbol,
		CompanyName:     symbol + " Ltd",
		ClientName:      client,
		Action:          models.ActionBuy,
		DealDate:        date,
		Quantity:        10_000,
		Price:           2000,
		DealValue:       20_000_000,
		DeliveryPercent: 85,
		ConsecutiveBuys: 1,
	}
	for _, m := range mutate {
		m(&d)
	}
	return d
}

func TestDeriveEligibility(t *testing.T) {
	// Two buys: below the minimum deal count, no signal.
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "Fund A", day(-5)),
		buyDeal("TCS", "Fund B", day(-3)),
	}
	if got := Derive(rows, nil, testToday); len(got) != 0 {
		t.Fatalf("2 buys produced %d signals, want 0", len(got))
	}

	// A third buy crosses the threshold.
	rows = append(rows, buyDeal("TCS", "Fund C", day(-1)))
	if got := Derive(rows, nil, testToday); len(got) != 1 {
		t.Fatalf("3 buys produced %d signals, want 1", len(got))
	}
}

func TestDeriveAvgDeliveryFloor(t *testing.T) {
	// Three buys but average delivery below 80: no signal.
	rows := []types.EnrichedDeal{
		buyDeal("INFY", "A", day(-5), func(d *types.EnrichedDeal) { d.DeliveryPercent = 76 }),
		buyDeal("INFY", "B", day(-4), func(d *types.EnrichedDeal) { d.DeliveryPercent = 78 }),
		buyDeal("INFY", "C", day(-3), func(d *types.EnrichedDeal) { d.DeliveryPercent = 80 }),
	}
	if got := Derive(rows, nil, testToday); len(got) != 0 {
		t.Fatalf("avg delivery 78 produced %d signals, want 0", len(got))
	}
}

func TestDeriveSkipsIneligibleRows(t *testing.T) {
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "A", day(-5)),
		buyDeal("TCS", "B", day(-4)),
		buyDeal("TCS", "C", day(-3)),
		// SELL, small deal and low delivery must all be ignored.
		buyDeal("TCS", "D", day(-2), func(d *types.EnrichedDeal) { d.Action = models.ActionSell }),
		buyDeal("TCS", "E", day(-2), func(d *types.EnrichedDeal) { d.DealValue = 5_000_000 }),
		buyDeal("TCS", "F", day(-2), func(d *types.EnrichedDeal) { d.DeliveryPercent = 60 }),
	}

	got := Derive(rows, nil, testToday)
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].TotalBought2M != 3 {
		t.Errorf("total buys = %d, want 3 (ineligible rows must not count)", got[0].TotalBought2M)
	}
}

func TestStrengthTruncation(t *testing.T) {
	// 3 buys, avg delivery 90, 3 buyers, max consecutive 1, value 60M:
	// 8*3 + 0.15*90 + 15 + 5*1 + 5 = 24 + 13.5 + 15 + 5 + 5 = 62.5 -> 62
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "A", day(-5), func(d *types.EnrichedDeal) { d.DeliveryPercent = 90 }),
		buyDeal("TCS", "B", day(-4), func(d *types.EnrichedDeal) { d.DeliveryPercent = 90 }),
		buyDeal("TCS", "C", day(-3), func(d *types.EnrichedDeal) { d.DeliveryPercent = 90 }),
	}

	got := Derive(rows, nil, testToday)
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].SignalStrength != 62 {
		t.Errorf("strength = %d, want 62 (62.5 truncated)", got[0].SignalStrength)
	}
}

func TestStrengthCaps(t *testing.T) {
	// 12 buys by one client, consecutive 9, 300M total, delivery 100.
	// Each term hits its cap: buys 8*10, delivery 0.15*100, no
	// multi-buyer bonus (one buyer), consecutive 5*5, large value 10.
	var rows []types.EnrichedDeal
	for i := 0; i < 12; i++ {
		rows = append(rows, buyDeal("TCS", "Solo Whale", day(-i-1), func(d *types.EnrichedDeal) {
			d.DeliveryPercent = 100
			d.DealValue = 25_000_000
			d.ConsecutiveBuys = 9
		}))
	}

	got := Derive(rows, nil, testToday)
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	// 80 + 15 + 25 + 10 = 130; the terms cap individually, the sum
	// does not.
	if got[0].SignalStrength != 130 {
		t.Errorf("strength = %d, want 130", got[0].SignalStrength)
	}
}

func TestStrengthComposite(t *testing.T) {
	// 5 buys from 3 buyers, delivery 90, max consecutive 3, 120M total:
	// 8*5 + 0.15*90 + 15 + 5*3 + 10 = 40 + 13.5 + 15 + 15 + 10 = 93.5 -> 93
	clients := []string{"A", "B", "C", "A", "B"}
	var rows []types.EnrichedDeal
	for i, c := range clients {
		rows = append(rows, buyDeal("TCS", c, day(-i-1), func(d *types.EnrichedDeal) {
			d.DeliveryPercent = 90
			d.DealValue = 24_000_000
			d.ConsecutiveBuys = 3
		}))
	}

	got := Derive(rows, nil, testToday)
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].SignalStrength != 93 {
		t.Errorf("strength = %d, want 93", got[0].SignalStrength)
	}
}

func TestClassifyPrecedence(t *testing.T) {
	// 5 buys with consecutive >= 3 wins ACCUMULATION even when the
	// institutional and breakout conditions also hold.
	var rows []types.EnrichedDeal
	for i := 0; i < 5; i++ {
		rows = append(rows, buyDeal("TCS", fmt.Sprintf("Fund %d", i), day(-i-1), func(d *types.EnrichedDeal) {
			d.DeliveryPercent = 96
			d.DealValue = 30_000_000
			d.ConsecutiveBuys = 4
		}))
	}
	got := Derive(rows, nil, testToday)
	if got[0].SignalType != types.SignalAccumulation {
		t.Errorf("type = %v, want ACCUMULATION", got[0].SignalType)
	}

	// 3 distinct buyers, >= 100M total, under 5 buys: INSTITUTIONAL.
	rows = []types.EnrichedDeal{
		buyDeal("INFY", "A", day(-3), func(d *types.EnrichedDeal) { d.DealValue = 40_000_000 }),
		buyDeal("INFY", "B", day(-2), func(d *types.EnrichedDeal) { d.DealValue = 40_000_000 }),
		buyDeal("INFY", "C", day(-1), func(d *types.EnrichedDeal) { d.DealValue = 40_000_000 }),
	}
	got = Derive(rows, nil, testToday)
	if got[0].SignalType != types.SignalInstitutional {
		t.Errorf("type = %v, want INSTITUTIONAL", got[0].SignalType)
	}

	// Same three buyers, small value, delivery >= 95: BREAKOUT.
	rows = []types.EnrichedDeal{
		buyDeal("WIPRO", "A", day(-3), func(d *types.EnrichedDeal) { d.DeliveryPercent = 96 }),
		buyDeal("WIPRO", "B", day(-2), func(d *types.EnrichedDeal) { d.DeliveryPercent = 95 }),
		buyDeal("WIPRO", "C", day(-1), func(d *types.EnrichedDeal) { d.DeliveryPercent = 97 }),
	}
	got = Derive(rows, nil, testToday)
	if got[0].SignalType != types.SignalBreakout {
		t.Errorf("type = %v, want BREAKOUT", got[0].SignalType)
	}

	// Nothing special: INSIDER fallback.
	rows = []types.EnrichedDeal{
		buyDeal("HDFC", "A", day(-30)),
		buyDeal("HDFC", "A", day(-20)),
		buyDeal("HDFC", "A", day(-10)),
	}
	got = Derive(rows, nil, testToday)
	if got[0].SignalType != types.SignalInsider {
		t.Errorf("type = %v, want INSIDER", got[0].SignalType)
	}
}

func TestUrgency(t *testing.T) {
	build := func(latest time.Time, buys int) []types.EnrichedDeal {
		var rows []types.EnrichedDeal
		for i := 0; i < buys; i++ {
			rows = append(rows, buyDeal("TCS", fmt.Sprintf("C%d", i), latest.AddDate(0, 0, -i)))
		}
		return rows
	}

	// 4 buys, latest 2 days ago: HIGH.
	got := Derive(build(day(-2), 4), nil, testToday)
	if got[0].Urgency != types.UrgencyHigh {
		t.Errorf("urgency = %v, want HIGH", got[0].Urgency)
	}

	// 3 buys, latest 2 days ago: not enough buys for HIGH, recent
	// enough for MEDIUM.
	got = Derive(build(day(-2), 3), nil, testToday)
	if got[0].Urgency != types.UrgencyMedium {
		t.Errorf("urgency = %v, want MEDIUM", got[0].Urgency)
	}

	// Latest 20 days ago: LOW.
	got = Derive(build(day(-20), 4), nil, testToday)
	if got[0].Urgency != types.UrgencyLow {
		t.Errorf("urgency = %v, want LOW", got[0].Urgency)
	}
}

func TestRecommendedAction(t *testing.T) {
	// Latest buy yesterday with delivery >= 90: BUY_NOW.
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "A", day(-1), func(d *types.EnrichedDeal) { d.DeliveryPercent = 92 }),
		buyDeal("TCS", "B", day(-5), func(d *types.EnrichedDeal) { d.DeliveryPercent = 92 }),
		buyDeal("TCS", "C", day(-8), func(d *types.EnrichedDeal) { d.DeliveryPercent = 92 }),
	}
	got := Derive(rows, nil, testToday)
	if got[0].RecommendedAction != types.ActionBuyNow {
		t.Errorf("action = %v, want BUY_NOW", got[0].RecommendedAction)
	}

	// 5+ buys, stale latest date: BUY_ON_DIP.
	var dip []types.EnrichedDeal
	for i := 0; i < 5; i++ {
		dip = append(dip, buyDeal("INFY", fmt.Sprintf("C%d", i), day(-10-i)))
	}
	got = Derive(dip, nil, testToday)
	if got[0].RecommendedAction != types.ActionBuyOnDip {
		t.Errorf("action = %v, want BUY_ON_DIP", got[0].RecommendedAction)
	}

	// 3 buys inside a 14-day accumulation window, not recent enough
	// for BUY_NOW: MONITOR.
	rows = []types.EnrichedDeal{
		buyDeal("WIPRO", "A", day(-4)),
		buyDeal("WIPRO", "B", day(-8)),
		buyDeal("WIPRO", "C", day(-12)),
	}
	got = Derive(rows, nil, testToday)
	if got[0].RecommendedAction != types.ActionMonitor {
		t.Errorf("action = %v, want MONITOR", got[0].RecommendedAction)
	}

	// 3 buys spread over 40 days, stale: WAIT.
	rows = []types.EnrichedDeal{
		buyDeal("HDFC", "A", day(-10)),
		buyDeal("HDFC", "B", day(-30)),
		buyDeal("HDFC", "C", day(-50)),
	}
	got = Derive(rows, nil, testToday)
	if got[0].RecommendedAction != types.ActionWait {
		t.Errorf("action = %v, want WAIT", got[0].RecommendedAction)
	}
}

func TestPricingLevels(t *testing.T) {
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "A", day(-3), func(d *types.EnrichedDeal) { d.Price = 100 }),
		buyDeal("TCS", "B", day(-2), func(d *types.EnrichedDeal) { d.Price = 200 }),
		buyDeal("TCS", "C", day(-1), func(d *types.EnrichedDeal) { d.Price = 300 }),
	}

	got := Derive(rows, nil, testToday)
	s := got[0]

	if s.AvgBuyPrice != 200 {
		t.Errorf("avg price = %v, want 200", s.AvgBuyPrice)
	}
	if s.EntryPrice != 200 {
		t.Errorf("entry = %v, want avg price", s.EntryPrice)
	}
	if s.TargetPrice != 250 {
		t.Errorf("target = %v, want 250", s.TargetPrice)
	}
	if diff := s.StopLoss - 184; diff < -1e-9 || diff > 1e-9 {
		t.Errorf("stop = %v, want 184", s.StopLoss)
	}
	if s.PotentialReturn != 25.0 {
		t.Errorf("potential return = %v, want fixed 25.0", s.PotentialReturn)
	}
	if s.RiskRewardRatio != 3.12 {
		t.Errorf("risk/reward = %v, want fixed 3.12", s.RiskRewardRatio)
	}
}

func TestPrimaryBuyerTieBreak(t *testing.T) {
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "Zeta Fund", day(-3), func(d *types.EnrichedDeal) { d.DealValue = 50_000_000 }),
		buyDeal("TCS", "Alpha Fund", day(-2), func(d *types.EnrichedDeal) { d.DealValue = 50_000_000 }),
		buyDeal("TCS", "Mid Fund", day(-1), func(d *types.EnrichedDeal) { d.DealValue = 30_000_000 }),
	}

	got := Derive(rows, nil, testToday)
	if got[0].PrimaryBuyer != "Alpha Fund" {
		t.Errorf("primary buyer = %q, want lexicographically smallest on tie", got[0].PrimaryBuyer)
	}
}

func TestTrackRecordLookup(t *testing.T) {
	rows := []types.EnrichedDeal{
		buyDeal("TCS", "Known Fund", day(-3), func(d *types.EnrichedDeal) { d.DealValue = 90_000_000 }),
		buyDeal("TCS", "Other", day(-2)),
		buyDeal("TCS", "Another", day(-1)),
	}

	records := map[string]float64{"Known Fund": 70.0}
	got := Derive(rows, records, testToday)
	if got[0].BuyerTrackRecord != 70.0 {
		t.Errorf("track record = %v, want 70.0", got[0].BuyerTrackRecord)
	}

	// Unknown primary buyer falls back to the default rate.
	got = Derive(rows, map[string]float64{}, testToday)
	if got[0].BuyerTrackRecord != 50.0 {
		t.Errorf("track record = %v, want default 50.0", got[0].BuyerTrackRecord)
	}
}

func TestReasonsOrderAndOmission(t *testing.T) {
	// Trigger every reason at once.
	var rows []types.EnrichedDeal
	for i := 0; i < 5; i++ {
		rows = append(rows, buyDeal("TCS", fmt.Sprintf("Fund %d", i), day(-i-1), func(d *types.EnrichedDeal) {
			d.DeliveryPercent = 95
			d.DealValue = 30_000_000
			d.ConsecutiveBuys = 4
		}))
	}

	records := map[string]float64{"Fund 0": 70.0, "Fund 1": 70.0, "Fund 2": 70.0, "Fund 3": 70.0, "Fund 4": 70.0}
	got := Derive(rows, records, testToday)
	reasons := got[0].Reasons

	want := []string{
		"Strong accumulation: 5 buys in 4 days",
		"Very high delivery: 95.0%",
		"Multiple institutions buying: 5 buyers",
		"Consecutive buying pattern: 4 times",
		"Large institutional position: ₹15.00Cr",
		"Proven buyer: 70% success rate",
	}
	if len(reasons) != len(want) {
		t.Fatalf("got %d reasons %v, want %d", len(reasons), reasons, len(want))
	}
	for i := range want {
		if reasons[i] != want[i] {
			t.Errorf("reason[%d] = %q, want %q", i, reasons[i], want[i])
		}
	}

	// A quiet signal triggers none of them.
	quiet := []types.EnrichedDeal{
		buyDeal("HDFC", "A", day(-30), func(d *types.EnrichedDeal) { d.ConsecutiveBuys = 0 }),
		buyDeal("HDFC", "A", day(-20), func(d *types.EnrichedDeal) { d.ConsecutiveBuys = 0 }),
		buyDeal("HDFC", "A", day(-10), func(d *types.EnrichedDeal) { d.ConsecutiveBuys = 0 }),
	}
	got = Derive(quiet, nil, testToday)
	if len(got[0].Reasons) != 0 {
		t.Errorf("quiet signal reasons = %v, want none", got[0].Reasons)
	}
}

func TestDeriveSorting(t *testing.T) {
	mkRows := func(symbol string, delivery, value float64) []types.EnrichedDeal {
		return []types.EnrichedDeal{
			buyDeal(symbol, "A", day(-3), func(d *types.EnrichedDeal) { d.DeliveryPercent = delivery; d.DealValue = value }),
			buyDeal(symbol, "B", day(-2), func(d *types.EnrichedDeal) { d.DeliveryPercent = delivery; d.DealValue = value }),
			buyDeal(symbol, "C", day(-1), func(d *types.EnrichedDeal) { d.DeliveryPercent = delivery; d.DealValue = value }),
		}
	}

	var rows []types.EnrichedDeal
	rows = append(rows, mkRows("BBB", 85, 20_000_000)...) // same strength as CCC
	rows = append(rows, mkRows("CCC", 85, 20_000_000)...) // tie broken by symbol
	rows = append(rows, mkRows("AAA", 99, 50_000_000)...) // strongest

	got := Derive(rows, nil, testToday)
	if len(got) != 3 {
		t.Fatalf("got %d signals, want 3", len(got))
	}
	if got[0].Symbol != "AAA" {
		t.Errorf("first = %q, want AAA (highest strength)", got[0].Symbol)
	}
	if got[1].Symbol != "BBB" || got[2].Symbol != "CCC" {
		t.Errorf("tie order = %q, %q; want BBB then CCC", got[1].Symbol, got[2].Symbol)
	}
}

func TestPaginate(t *testing.T) {
	var all []types.BuySignal
	for i := 0; i < 25; i++ {
		all = append(all, types.BuySignal{Symbol: fmt.Sprintf("S%02d", i), SignalStrength: 90 - i})
	}

	page, meta := Paginate(all, 70, 10, 10)
	// Strengths 90..66: twenty-one are >= 70.
	if meta.TotalRecords != 21 {
		t.Fatalf("totalRecords = %d, want 21", meta.TotalRecords)
	}
	if len(page) != 10 {
		t.Fatalf("page length = %d, want 10", len(page))
	}
	if page[0].ID != 11 || page[9].ID != 20 {
		t.Errorf("ids = %d..%d, want 11..20 (rank within full ordering)", page[0].ID, page[9].ID)
	}
	if meta.CurrentPage != 2 || !meta.HasNext || !meta.HasPrev {
		t.Errorf("meta = %+v, want page 2 with next and prev", meta)
	}

	// Offset past the end yields an empty page, not an error.
	page, meta = Paginate(all, 70, 10, 100)
	if len(page) != 0 {
		t.Errorf("page length = %d, want 0", len(page))
	}
	if meta.TotalRecords != 21 {
		t.Errorf("totalRecords = %d, want 21", meta.TotalRecords)
	}
}

func TestDeriveDeterminism(t *testing.T) {
	var rows []types.EnrichedDeal
	for i := 0; i < 4; i++ {
		rows = append(rows, buyDeal("TCS", fmt.Sprintf("F%d", i), day(-i-1)))
		rows = append(rows, buyDeal("INFY", fmt.Sprintf("F%d", i), day(-i-2)))
	}

	first := Derive(rows, nil, testToday)
	for i := 0; i < 10; i++ {
		again := Derive(rows, nil, testToday)
		if len(again) != len(first) {
			t.Fatalf("run %d: length changed", i)
		}
		for j := range first {
			if again[j].Symbol != first[j].Symbol || again[j].SignalStrength != first[j].SignalStrength {
				t.Fatalf("run %d: output changed at %d", i, j)
			}
		}
	}
}

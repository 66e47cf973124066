package signals

// Trailing windows bounding aggregation recency
const (
	// SignalWindowDays bounds the deals considered for signal derivation.
	SignalWindowDays = 60
	// TrackRecordWindowDays bounds the buyer track-record lookback.
	TrackRecordWindowDays = 180
)

// Per-deal eligibility thresholds for the signal window
const (
	MinDealValue   = 10_000_000.0
	MinDeliveryPct = 75.0
)

// Per-symbol eligibility thresholds for a signal
const (
	MinBuys        = 3
	MinAvgDelivery = 80.0
)

// Signal strength scoring terms. Each term is individually capped;
// there is no clamp on the sum.
const (
	strengthBuysCap        = 10
	strengthBuysWeight     = 8.0
	strengthDeliveryWeight = 0.15
	multiBuyerMin          = 3
	multiBuyerBonus        = 15.0
	strengthConsecutiveCap = 5
	strengthConsecutive    = 5.0
	largeValueMin          = 100_000_000.0
	largeValueBonus        = 10.0
	smallValueBonus        = 5.0
)

// Pricing level multipliers and the fixed return/risk figures.
// PotentialReturn and RiskRewardRatio are deliberately literal
// constants rather than values derived from entry/target/stop; see
// DESIGN.md before changing them.
const (
	targetPriceMultiplier = 1.25
	stopLossMultiplier    = 0.92
	fixedPotentialReturn  = 25.0
	fixedRiskRewardRatio  = 3.12
)

// Buyer track record: every buyer seen in the track-record window is
// assigned a flat success rate; absent buyers fall back to the
// default. Both are product-level stubs preserved verbatim.
const (
	trackRecordRate        = 70.0
	trackRecordDefaultRate = 50.0
)

// Reason thresholds
const (
	reasonStrongBuys      = 5
	reasonHighDelivery    = 90.0
	reasonConsecutiveMin  = 3
	reasonTrackRecordMin  = 70.0
	urgentRecentDays      = 3
	urgentMinBuys         = 4
	mediumRecentDays      = 7
	buyNowRecentDays      = 2
	buyNowMinDelivery     = 90.0
	buyOnDipMinBuys       = 5
	monitorMaxAccumDays   = 14
	accumulationTypeBuys  = 5
	institutionalBuyers   = 3
	breakoutMinDelivery   = 95.0
)

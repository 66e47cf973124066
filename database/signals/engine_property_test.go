package signals

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	models "smartflow/database/models_pkg"
	"smartflow/database/types"
)

// Property: for any window of eligible buys, every derived signal has
// a strength inside the bounds the scoring terms allow (minimum 5 from
// the small-value bonus, maximum 145 with every term at its cap), the
// list is sorted by strength descending, and repeated derivation over
// the same rows yields the same ordering.
func TestProperty_StrengthBoundsAndOrdering(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	symbols := gen.OneConstOf("TCS", "INFY", "RELIANCE", "WIPRO", "HDFC")
	clients := gen.OneConstOf("Fund A", "Fund B", "Fund C", "Fund D")

	dealGen := gopter.CombineGens(
		symbols,
		clients,
		gen.Int64Range(1_000, 1_000_000),     // quantity
		gen.Float64Range(10, 5_000),          // price
		gen.Float64Range(10_000_000, 5e8),    // deal value (already eligible)
		gen.Float64Range(75, 100),            // delivery
		gen.IntRange(0, 60),                  // days ago
		gen.IntRange(0, 12),                  // consecutive buys
	).Map(func(vals []interface{}) types.EnrichedDeal {
		return types.EnrichedDeal{
			Symbol:          vals[0].(string),
			CompanyName:     vals[0].(string) + " Ltd",
			ClientName:      vals[1].(string),
			Action:          models.ActionBuy,
			Quantity:        vals[2].(int64),
			Price:           vals[3].(float64),
			DealValue:       vals[4].(float64),
			DeliveryPercent: vals[5].(float64),
			DealDate:        testToday.AddDate(0, 0, -vals[6].(int)),
			ConsecutiveBuys: vals[7].(int),
		}
	})

	properties.Property("strength bounded, sorted, deterministic", prop.ForAll(
		func(rows []types.EnrichedDeal) bool {
			signals := Derive(rows, nil, testToday)

			for i, s := range signals {
				if s.SignalStrength < 5 || s.SignalStrength > 145 {
					return false
				}
				if i > 0 && signals[i-1].SignalStrength < s.SignalStrength {
					return false
				}
			}

			again := Derive(rows, nil, testToday)
			if len(again) != len(signals) {
				return false
			}
			for i := range signals {
				if again[i].Symbol != signals[i].Symbol ||
					again[i].SignalStrength != signals[i].SignalStrength ||
					again[i].PrimaryBuyer != signals[i].PrimaryBuyer {
					return false
				}
			}
			return true
		},
		gen.SliceOf(dealGen),
	))

	properties.TestingRun(t)
}

// Property: pagination never invents records. The page is at most
// pageSize long, every entry passes the strength filter, and the IDs
// number the page continuously from offset+1.
func TestProperty_PaginationConsistency(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.Rng.Seed(time.Now().UnixNano())

	properties := gopter.NewProperties(parameters)

	signalGen := gen.IntRange(0, 145).Map(func(strength int) types.BuySignal {
		return types.BuySignal{SignalStrength: strength}
	})

	properties.Property("page respects filter, size and numbering", prop.ForAll(
		func(all []types.BuySignal, minStrength, pageSize, offset int) bool {
			page, meta := Paginate(all, minStrength, pageSize, offset)

			if len(page) > pageSize {
				return false
			}
			eligible := 0
			for _, s := range all {
				if s.SignalStrength >= minStrength {
					eligible++
				}
			}
			if meta.TotalRecords != eligible {
				return false
			}
			// A non-empty page implies the offset was within range, so
			// the IDs must number from offset+1.
			for i, s := range page {
				if s.SignalStrength < minStrength {
					return false
				}
				if s.ID != offset+i+1 {
					return false
				}
			}
			return true
		},
		gen.SliceOf(signalGen),
		gen.IntRange(0, 100),
		gen.IntRange(1, 50),
		gen.IntRange(0, 60),
	))

	properties.TestingRun(t)
}

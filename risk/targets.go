package risk

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

// PlannedRisk is the amount lost if the stop is hit: qty * |entry - stop|.
func PlannedRisk(qty, entry, stop decimal.Decimal) decimal.Decimal {
	return qty.Mul(entry.Sub(stop).Abs())
}

// RR returns reward/risk for a planned trade, or zero when the stop sits on
// the entry.
func RR(entry, stop, takeProfit decimal.Decimal) decimal.Decimal {
	risk := entry.Sub(stop).Abs()
	if risk.IsZero() {
		return decimal.Zero
	}
	reward := takeProfit.Sub(entry).Abs()
	return reward.Div(risk)
}

// TargetFromPercent places a take-profit pct percent away from entry in the
// profitable direction.
func TargetFromPercent(entry, pct decimal.Decimal, long bool) decimal.Decimal {
	move := entry.Mul(pct).Div(hundred)
	if long {
		return entry.Add(move)
	}
	return entry.Sub(move)
}

// TargetFromRatio places a take-profit so that reward = ratio * risk.
func TargetFromRatio(entry, stop, ratio decimal.Decimal, long bool) decimal.Decimal {
	move := entry.Sub(stop).Abs().Mul(ratio)
	if long {
		return entry.Add(move)
	}
	return entry.Sub(move)
}

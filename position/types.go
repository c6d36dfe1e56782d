package position

// Side is the direction of a position.
type Side string

const (
	Long  Side = "LONG"
	Short Side = "SHORT"
)

func (s Side) Valid() bool {
	return s == Long || s == Short
}

// StopLossType selects how the stop level moves on each price update.
type StopLossType string

const (
	StopFixed         StopLossType = "FIXED"
	StopTrailing      StopLossType = "TRAILING"
	StopATR           StopLossType = "ATR_BASED"
	StopBreakeven     StopLossType = "BREAKEVEN"
	StopBreakevenPlus StopLossType = "BREAKEVEN_PLUS"
)

// TakeProfitType selects how the target is derived. Only ATR_BASED moves
// after it is set.
type TakeProfitType string

const (
	TakeProfitFixed      TakeProfitType = "FIXED"
	TakeProfitPercentage TakeProfitType = "PERCENTAGE"
	TakeProfitATR        TakeProfitType = "ATR_BASED"
	TakeProfitRatio      TakeProfitType = "RATIO_BASED"
)

// TriggerKind names the risk level a price crossed.
type TriggerKind string

const (
	TriggerStopLoss   TriggerKind = "STOP_LOSS"
	TriggerTakeProfit TriggerKind = "TAKE_PROFIT"
)

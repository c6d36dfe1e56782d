package account

import (
	"github.com/rustyeddy/papertrader/position"
	"github.com/shopspring/decimal"
)

// AccountType tags the backend behind a TradingAccount.
type AccountType string

const (
	PaperTrading AccountType = "PAPER_TRADING"
	LiveTrading  AccountType = "LIVE_TRADING"
	Testnet      AccountType = "TESTNET"
)

// TradingAccount is what strategies, controllers and feeds talk to. Live
// backends implement the same contract against a broker API; the position
// ledger behind it is shared.
type TradingAccount interface {
	ID() string
	Type() AccountType

	ExecuteOrder(Order) Order
	CancelOrder(orderID string) (bool, error)

	Balance() decimal.Decimal
	AvailableBalance() decimal.Decimal
	AssetBalance(asset string) decimal.Decimal
	AllBalances() map[string]decimal.Decimal

	TotalExposure() decimal.Decimal
	DailyPnL() decimal.Decimal
	TotalPnL() decimal.Decimal

	Order(orderID string) (Order, error)
	AllOrders() []Order
	OpenOrders() []Order
	FilledOrders() []Order

	AccountStats() AccountStats
	Reset()

	IsEnabled() bool
	SetEnabled(bool)

	OpenPositions() []position.Snapshot
	OpenPositionsBySymbol(symbol string) []position.Snapshot
	Position(positionID string) (position.Snapshot, error)
	PositionHistory() []position.Snapshot
	PositionManager() *position.Manager

	UpdateCurrentPrices(prices map[string]decimal.Decimal)
}

// TradeClosedListener is told about positions the account closed on its own.
type TradeClosedListener interface {
	OnTradeClosed(positionID string, reason string)
}

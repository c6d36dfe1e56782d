package account

import (
	"time"

	"github.com/rustyeddy/papertrader/position"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AccountStats is a read-only summary for dashboards. TotalLoss and
// LargestLoss are negative; AvgLoss is the average loss magnitude.
type AccountStats struct {
	TotalTrades   int             `json:"total_trades"`
	WinningTrades int             `json:"winning_trades"`
	LosingTrades  int             `json:"losing_trades"`
	WinRate       decimal.Decimal `json:"win_rate"`
	TotalWin      decimal.Decimal `json:"total_win"`
	TotalLoss     decimal.Decimal `json:"total_loss"`
	AvgWin        decimal.Decimal `json:"avg_win"`
	AvgLoss       decimal.Decimal `json:"avg_loss"`
	ProfitFactor  decimal.Decimal `json:"profit_factor"`
	LargestWin    decimal.Decimal `json:"largest_win"`
	LargestLoss   decimal.Decimal `json:"largest_loss"`
	LastTradeAt   time.Time       `json:"last_trade_at,omitzero"`
	Balance       decimal.Decimal `json:"balance"`
	TotalPnL      decimal.Decimal `json:"total_pnl"`
	OpenPositions int             `json:"open_positions"`
}

// stats holds the running counters. Losses are accumulated as negative
// numbers.
type stats struct {
	totalTrades   int
	winningTrades int
	losingTrades  int
	totalWin      decimal.Decimal
	totalLoss     decimal.Decimal
	largestWin    decimal.Decimal
	largestLoss   decimal.Decimal
	lastTradeAt   time.Time
}

func (s *stats) record(realized decimal.Decimal, sell bool, at time.Time) {
	s.totalTrades++
	s.lastTradeAt = at
	if !sell {
		return
	}
	switch realized.Sign() {
	case 1:
		s.winningTrades++
		s.totalWin = s.totalWin.Add(realized)
		if realized.GreaterThan(s.largestWin) {
			s.largestWin = realized
		}
	case -1:
		s.losingTrades++
		s.totalLoss = s.totalLoss.Add(realized)
		if realized.LessThan(s.largestLoss) {
			s.largestLoss = realized
		}
	}
}

func (s *stats) summary() AccountStats {
	out := AccountStats{
		TotalTrades:   s.totalTrades,
		WinningTrades: s.winningTrades,
		LosingTrades:  s.losingTrades,
		WinRate:       decimal.Zero,
		TotalWin:      s.totalWin,
		TotalLoss:     s.totalLoss,
		AvgWin:        decimal.Zero,
		AvgLoss:       decimal.Zero,
		ProfitFactor:  decimal.Zero,
		LargestWin:    s.largestWin,
		LargestLoss:   s.largestLoss,
		LastTradeAt:   s.lastTradeAt,
	}
	if s.totalTrades > 0 {
		out.WinRate = decimal.NewFromInt(int64(s.winningTrades)).
			Div(decimal.NewFromInt(int64(s.totalTrades))).
			Mul(hundred).
			Round(position.PctPlaces)
	}
	if s.winningTrades > 0 {
		out.AvgWin = s.totalWin.Div(decimal.NewFromInt(int64(s.winningTrades))).Round(position.PnLPlaces)
	}
	if s.losingTrades > 0 {
		out.AvgLoss = s.totalLoss.Abs().Div(decimal.NewFromInt(int64(s.losingTrades))).Round(position.PnLPlaces)
		if !out.AvgLoss.IsZero() {
			out.ProfitFactor = out.AvgWin.Div(out.AvgLoss).Round(position.PctPlaces)
		}
	}
	return out
}

// sameDay compares calendar dates in a's location.
func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

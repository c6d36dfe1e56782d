package journal

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatTradeOrg(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("01HQ3K8V7X2Y9Z0ABCDEFGHJKM", time.Date(2024, 3, 15, 14, 20, 30, 0, time.UTC))
	result := FormatTradeOrg(trade)

	assert.True(t, strings.HasPrefix(result, "** Trade: SELL BTCUSDT (DEFGHJKM)\n"))
	assert.Contains(t, result, ":PROPERTIES:")
	assert.Contains(t, result, ":TRADE_ID: 01HQ3K8V7X2Y9Z0ABCDEFGHJKM")
	assert.Contains(t, result, ":ORDER_ID: O-01HQ3K8V7X2Y9Z0ABCDEFGHJKM")
	assert.Contains(t, result, ":QUANTITY: 0.12345678")
	assert.Contains(t, result, ":PRICE: 50123.45")
	assert.Contains(t, result, ":VALUE: 6188.07")
	assert.Contains(t, result, ":REALIZED_PL: -12.50")
	assert.Contains(t, result, ":STRATEGY: ema-cross")
	assert.Contains(t, result, ":TIME: 2024-03-15T14:20:30Z")
	assert.Contains(t, result, ":REASON: take profit")
	assert.Contains(t, result, ":END:")

	assert.Contains(t, result, "*** Thesis")
	assert.Contains(t, result, "*** Execution")
	assert.Contains(t, result, "*** Review")
}

func TestFormatTradeOrgShortIDAndNoStrategy(t *testing.T) {
	t.Parallel()

	trade := sampleTrade("short", ts)
	trade.StrategyID = ""

	result := FormatTradeOrg(trade)
	assert.Contains(t, result, "** Trade: SELL BTCUSDT (short)")
	assert.NotContains(t, result, ":STRATEGY:")
}

func TestFormatTradesOrg(t *testing.T) {
	t.Parallel()

	assert.Empty(t, FormatTradesOrg(nil))

	out := FormatTradesOrg([]TradeRecord{sampleTrade("a", ts), sampleTrade("b", ts)})
	assert.Equal(t, 2, strings.Count(out, ":PROPERTIES:"))
	assert.Contains(t, out, "- \n\n\n** Trade: SELL BTCUSDT (b)")
}

func TestSessionReportOrg(t *testing.T) {
	t.Parallel()

	r := SessionReport{
		AccountID:    "paper-1",
		QuoteAsset:   "USDT",
		Start:        ts,
		End:          ts.Add(time.Hour),
		StartBalance: d("10000"),
		EndBalance:   d("10250"),
		RealizedPnL:  d("250"),
		Trades:       4,
		Wins:         1,
		Losses:       1,
		WinRate:      d("25"),
		Trail:        []TradeRecord{sampleTrade("a", ts)},
		Notes:        []string{"stops too tight"},
	}
	assert.True(t, d("250").Equal(r.NetPL()))
	assert.True(t, d("2.5").Equal(r.ReturnPct()))

	out, err := r.FormatSessionOrg()
	require.NoError(t, err)
	assert.Contains(t, out, "* PAPER SESSION: paper-1")
	assert.Contains(t, out, ":NET_PL:      250.00")
	assert.Contains(t, out, ":RETURN_PCT:  2.50")
	assert.Contains(t, out, ":PROFIT_FAC:  (no losses)")
	assert.Contains(t, out, "| 03:04:05 | SELL | BTCUSDT | 0.12345678 | 50123.45 | -12.50 |")
	assert.Contains(t, out, "- stops too tight")
}

func TestSessionReportZeroStartBalance(t *testing.T) {
	t.Parallel()

	r := SessionReport{EndBalance: d("5")}
	assert.True(t, r.ReturnPct().IsZero())
}

package account

import (
	"sort"
	"strings"
)

// DefaultQuoteAssets are matched when an account is not configured with its
// own list.
var DefaultQuoteAssets = []string{"USDT", "USDC", "BUSD", "FDUSD", "BTC", "ETH", "BNB", "USD", "EUR"}

// SplitSymbol splits a concatenated pair like BTCUSDT into base and quote.
// The longest quote asset that is a proper suffix wins; a symbol matching
// none is treated as base against defaultQuote.
func SplitSymbol(symbol string, quotes []string, defaultQuote string) (base, quote string) {
	sym := strings.ToUpper(symbol)
	sorted := append([]string(nil), quotes...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, q := range sorted {
		q = strings.ToUpper(q)
		if q != "" && len(sym) > len(q) && strings.HasSuffix(sym, q) {
			return sym[:len(sym)-len(q)], q
		}
	}
	return sym, strings.ToUpper(defaultQuote)
}

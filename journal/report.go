package journal

import (
	"bytes"
	"os"
	"text/template"
	"time"

	"github.com/shopspring/decimal"
)

// SessionReport summarises one paper-trading session.
type SessionReport struct {
	AccountID  string
	QuoteAsset string
	Start      time.Time
	End        time.Time

	StartBalance decimal.Decimal
	EndBalance   decimal.Decimal
	RealizedPnL  decimal.Decimal
	OpenPnL      decimal.Decimal

	Trades       int
	Wins         int
	Losses       int
	WinRate      decimal.Decimal
	ProfitFactor decimal.Decimal
	LargestWin   decimal.Decimal
	LargestLoss  decimal.Decimal

	Trail []TradeRecord
	Notes []string
}

// NetPL is the change in quote balance over the session.
func (r SessionReport) NetPL() decimal.Decimal {
	return r.EndBalance.Sub(r.StartBalance)
}

// ReturnPct is NetPL relative to the start balance, in percent.
func (r SessionReport) ReturnPct() decimal.Decimal {
	if r.StartBalance.IsZero() {
		return decimal.Zero
	}
	return r.NetPL().Div(r.StartBalance).Mul(decimal.NewFromInt(100))
}

var reportFuncs = template.FuncMap{
	"money": func(d decimal.Decimal) string { return d.StringFixed(2) },
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
}

var sessionTemplate = template.Must(template.New("session").Funcs(reportFuncs).Parse(SessionOrgTemplate))

// FormatSessionOrg renders the report as an Org-mode document.
func (r SessionReport) FormatSessionOrg() (string, error) {
	buf := new(bytes.Buffer)
	if err := sessionTemplate.Execute(buf, r); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r SessionReport) WriteSessionOrg(path string) error {
	out, err := r.FormatSessionOrg()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(out), 0644)
}

const SessionOrgTemplate = `* PAPER SESSION: {{.AccountID}}
:PROPERTIES:
:ACCOUNT:     {{.AccountID}}
:QUOTE:       {{.QuoteAsset}}
:START:       [{{(orTime .Start).Format "2006-01-02 Mon 15:04"}}]
:END_TIME:    [{{(orTime .End).Format "2006-01-02 Mon 15:04"}}]
:START_BAL:   {{money .StartBalance}}
:END_BAL:     {{money .EndBalance}}
:NET_PL:      {{money .NetPL}}
:RETURN_PCT:  {{money .ReturnPct}}
:TRADES:      {{.Trades}}
:WINS:        {{.Wins}}
:LOSSES:      {{.Losses}}
:WIN_RATE:    {{money .WinRate}}
:PROFIT_FAC:  {{if .ProfitFactor.IsZero}}(no losses){{else}}{{money .ProfitFactor}}{{end}}
:END:

** Performance Summary
- Net P/L:          *{{money .NetPL}}*
- Realized P/L:     *{{money .RealizedPnL}}*
- Open P/L:         *{{money .OpenPnL}}*
- Largest win:      *{{money .LargestWin}}*
- Largest loss:     *{{money .LargestLoss}}*

** Trade Distribution
| Outcome | Count |
|---------+-------|
| Wins    | {{.Wins}} |
| Losses  | {{.Losses}} |
| Total   | {{.Trades}} |
{{- if .Trail }}

** Fills
| Time | Side | Symbol | Quantity | Price | Realized |
|------+------+--------+----------+-------+----------|
{{- range .Trail }}
| {{.Time.UTC.Format "15:04:05"}} | {{.Side}} | {{.Symbol}} | {{.Quantity}} | {{.Price}} | {{money .RealizedPL}} |
{{- end }}
{{- end }}
{{- if .Notes }}

** Observations
{{- range .Notes }}
- {{.}}
{{- end }}
{{- end }}
`

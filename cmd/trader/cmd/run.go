package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/rustyeddy/papertrader/account"
	"github.com/rustyeddy/papertrader/config"
	"github.com/rustyeddy/papertrader/feed"
	"github.com/rustyeddy/papertrader/indicators"
	"github.com/rustyeddy/papertrader/journal"
	"github.com/rustyeddy/papertrader/logger"
	"github.com/rustyeddy/papertrader/position"
	"github.com/rustyeddy/papertrader/risk"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Replay a scripted paper session",
	Long: `Run a paper-trading session from a configuration file.

The file seeds the account, lists the price steps to replay and the MARKET
orders to submit after given steps. Fills and equity snapshots go to the
configured journal.

Example:
  trader run -f session.yaml --report session.org`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

var (
	runConfigPath  string
	runReportPath  string
	runStatusEvery time.Duration
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "file", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().StringVarP(&runReportPath, "report", "r", "", "write an Org-mode session report to this path")
	runCmd.Flags().DurationVar(&runStatusEvery, "status-every", 5*time.Second, "how often to log account status")
	_ = runCmd.MarkFlagRequired("file")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Log.Level != "" && !cmd.Flags().Changed("log-level") {
		logger.SetLevel(cfg.Log.Level)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Running session from %s\n", runConfigPath)
	fmt.Fprintf(out, "  Account: %s (%s %s)\n\n", cfg.Account.ID, cfg.Account.InitialBalance.StringFixed(2), cfg.Account.QuoteAsset)

	report, err := runSession(ctx, cfg, runStatusEvery)
	if err != nil {
		return err
	}
	printReport(out, report)

	if runReportPath != "" {
		if err := report.WriteSessionOrg(runReportPath); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Fprintf(out, "\nReport written to %s\n", runReportPath)
	}
	return nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "csv":
		return journal.NewCSV(jc.TradesFile, jc.EquityFile)
	case "sqlite":
		return journal.NewSQLite(jc.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

// closeLogger reports positions the account closed on a stop or target.
type closeLogger struct{}

func (closeLogger) OnTradeClosed(positionID, reason string) {
	logger.Infof("position %s closed: %s", positionID, reason)
}

// atrFeed refreshes the ATR of open positions before the account sees
// each price step.
type atrFeed struct {
	acct    *account.PaperAccount
	tracker *indicators.Tracker
}

func (f atrFeed) UpdateCurrentPrices(prices map[string]decimal.Decimal) {
	mgr := f.acct.PositionManager()
	for symbol, atr := range f.tracker.Update(prices) {
		for _, snap := range mgr.OpenPositionsBySymbol(symbol) {
			if p, ok := mgr.Handle(snap.ID); ok {
				p.SetATRValue(atr)
			}
		}
	}
	f.acct.UpdateCurrentPrices(prices)
}

// runSession replays cfg against a fresh paper account while a second
// goroutine logs status until the replay ends.
func runSession(ctx context.Context, cfg *config.Config, statusEvery time.Duration) (journal.SessionReport, error) {
	j, err := openJournal(cfg.Journal)
	if err != nil {
		return journal.SessionReport{}, fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	acct := account.NewPaper(account.PaperConfig{
		ID:                 cfg.Account.ID,
		QuoteAsset:         cfg.Account.QuoteAsset,
		QuoteAssets:        cfg.Account.QuoteAssets,
		InitialBalance:     cfg.Account.InitialBalance,
		AutoCloseOnTrigger: cfg.Account.AutoCloseOnTrigger,
		Journal:            j,
	})
	acct.SetEnabled(cfg.Account.IsEnabled())
	acct.SetTradeClosedListener(closeLogger{})

	replay, err := feed.FromConfig(cfg.Simulation)
	if err != nil {
		return journal.SessionReport{}, err
	}

	var sink feed.PriceSink = acct
	var tracker *indicators.Tracker
	if cfg.Simulation.ATRPeriod > 0 {
		tracker = indicators.NewTracker(cfg.Simulation.ATRPeriod)
		sink = atrFeed{acct: acct, tracker: tracker}
	}

	pending := make(map[int][]config.OrderStep)
	for _, o := range cfg.Simulation.Orders {
		pending[o.AfterStep] = append(pending[o.AfterStep], o)
	}
	replay.OnStep = func(_ context.Context, applied int) error {
		for _, o := range pending[applied] {
			submitOrder(acct, tracker, o)
		}
		return nil
	}

	start := time.Now()
	done := make(chan struct{})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer close(done)
		return replay.Run(gctx, sink)
	})
	g.Go(func() error {
		if statusEvery <= 0 {
			return nil
		}
		ticker := time.NewTicker(statusEvery)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return nil
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				s := acct.AccountStats()
				logger.L().Info("status",
					"balance", s.Balance.StringFixed(2),
					"total_pnl", s.TotalPnL.StringFixed(2),
					"open_positions", s.OpenPositions,
					"trades", s.TotalTrades,
				)
			}
		}
	})
	if err := g.Wait(); err != nil {
		return journal.SessionReport{}, fmt.Errorf("replay: %w", err)
	}

	return buildReport(acct, cfg.Account.InitialBalance, start, time.Now()), nil
}

func submitOrder(acct *account.PaperAccount, tracker *indicators.Tracker, o config.OrderStep) {
	price := o.Price
	if price.IsZero() {
		last, ok := acct.LastPrice(o.Symbol)
		if !ok {
			logger.Warnf("skipping %s %s: no price yet", o.Side, o.Symbol)
			return
		}
		price = last
	}

	order := account.MarketOrder(o.Symbol, account.OrderSide(strings.ToUpper(o.Side)), o.Quantity, price)
	order.StrategyID = o.Strategy
	if o.StopLoss != nil {
		order.SuggestedStopLoss = decimal.NewNullDecimal(*o.StopLoss)
	}
	if o.TakeProfit != nil {
		order.SuggestedTakeProfit = decimal.NewNullDecimal(*o.TakeProfit)
	}

	if o.StopLoss != nil {
		attrs := []any{
			"symbol", o.Symbol,
			"risk", risk.PlannedRisk(o.Quantity, price, *o.StopLoss).StringFixed(2),
		}
		if o.TakeProfit != nil {
			attrs = append(attrs, "rr", risk.RR(price, *o.StopLoss, *o.TakeProfit).StringFixed(2))
		}
		logger.L().Debug("planned trade", attrs...)
	}

	res := acct.ExecuteOrder(order)
	if res.Status != account.StatusFilled {
		return
	}
	logger.Debugf("order %s filled: %s %s %s @ %s", res.ID, res.Side, res.ExecutedQuantity, res.Symbol, res.ExecutedPrice)
	if tracker == nil || res.Side != account.Buy {
		return
	}

	for _, positionID := range res.PositionIDs {
		p, ok := acct.PositionManager().Handle(positionID)
		if !ok {
			continue
		}
		p.SetATRValue(tracker.Value(o.Symbol))
		if o.ATRStopMultiplier == nil {
			continue
		}
		sl := position.StopLoss{Type: position.StopATR, ATRMultiplier: *o.ATRStopMultiplier}
		if o.StopLoss != nil {
			sl.Price = *o.StopLoss
		}
		if err := p.SetStopLoss(sl); err != nil {
			logger.Warnf("position %s: ATR stop not attached: %v", positionID, err)
		}
	}
}

func buildReport(acct *account.PaperAccount, startBalance decimal.Decimal, start, end time.Time) journal.SessionReport {
	stats := acct.AccountStats()
	summary := acct.PositionManager().Summary()

	r := journal.SessionReport{
		AccountID:    acct.ID(),
		QuoteAsset:   acct.QuoteAsset(),
		Start:        start,
		End:          end,
		StartBalance: startBalance,
		EndBalance:   acct.Balance(),
		RealizedPnL:  summary.TotalRealizedPnL,
		OpenPnL:      summary.TotalUnrealizedPnL,
		Trades:       stats.TotalTrades,
		Wins:         stats.WinningTrades,
		Losses:       stats.LosingTrades,
		WinRate:      stats.WinRate,
		ProfitFactor: stats.ProfitFactor,
		LargestWin:   stats.LargestWin,
		LargestLoss:  stats.LargestLoss,
		Trail:        acct.TradeHistory(),
	}
	if summary.OpenPositions > 0 {
		r.Notes = append(r.Notes, fmt.Sprintf("%d position(s) still open at the end of the session", summary.OpenPositions))
	}
	if !acct.IsEnabled() {
		r.Notes = append(r.Notes, "account was disabled; every order was rejected")
	}
	return r
}

func printReport(w io.Writer, r journal.SessionReport) {
	fmt.Fprintln(w, "=== Session Results ===")
	fmt.Fprintf(w, "Start balance: %s %s\n", r.StartBalance.StringFixed(2), r.QuoteAsset)
	fmt.Fprintf(w, "End balance:   %s %s\n", r.EndBalance.StringFixed(2), r.QuoteAsset)
	fmt.Fprintf(w, "Realized P&L:  %s\n", r.RealizedPnL.StringFixed(2))
	fmt.Fprintf(w, "Open P&L:      %s\n", r.OpenPnL.StringFixed(2))
	fmt.Fprintf(w, "Fills:         %d (wins %d, losses %d)\n", r.Trades, r.Wins, r.Losses)
	fmt.Fprintf(w, "Win rate:      %s%%\n", r.WinRate.StringFixed(2))
	for _, n := range r.Notes {
		fmt.Fprintf(w, "Note: %s\n", n)
	}
}

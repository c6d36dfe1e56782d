package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader  = []string{"trade_id", "order_id", "symbol", "side", "quantity", "price", "value", "realized_pl", "strategy_id", "time", "reason"}
	equityHeader = []string{"time", "balance", "equity", "realized_pnl", "unrealized_pnl", "open_positions"}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	j := &CSVJournal{
		trades: csv.NewWriter(tf),
		equity: csv.NewWriter(ef),
		tf:     tf,
		ef:     ef,
	}
	if err := writeRow(j.trades, tradeHeader); err != nil {
		j.Close()
		return nil, err
	}
	if err := writeRow(j.equity, equityHeader); err != nil {
		j.Close()
		return nil, err
	}
	return j, nil
}

func writeRow(w *csv.Writer, row []string) error {
	if err := w.Write(row); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	return writeRow(j.trades, []string{
		t.TradeID,
		t.OrderID,
		t.Symbol,
		t.Side,
		t.Quantity.String(),
		t.Price.String(),
		t.Value.String(),
		t.RealizedPL.String(),
		t.StrategyID,
		t.Time.UTC().Format(time.RFC3339),
		t.Reason,
	})
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	return writeRow(j.equity, []string{
		e.Time.UTC().Format(time.RFC3339),
		e.Balance.String(),
		e.Equity.String(),
		e.RealizedPnL.String(),
		e.UnrealizedPnL.String(),
		strconv.Itoa(e.OpenPositions),
	})
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.ef.Close()
}

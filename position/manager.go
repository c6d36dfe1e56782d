package position

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Manager owns every position of one account. Closed positions stay in the
// arena and move to history; ids are never reused.
type Manager struct {
	mu        sync.RWMutex
	positions map[string]*Position
	created   []string            // every id, oldest first
	open      map[string][]string // symbol -> open ids, oldest first
	history   []string            // closed ids, in close order
	now       func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		positions: make(map[string]*Position),
		open:      make(map[string][]string),
		now:       time.Now,
	}
}

// SetClock replaces the time source used to stamp entries and exits.
func (m *Manager) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// OpenPosition registers a new open position and returns its handle so the
// caller can attach risk levels and a strategy tag.
func (m *Manager) OpenPosition(symbol string, side Side, entryPrice, quantity decimal.Decimal) (*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, err := New(symbol, side, entryPrice, quantity, m.now())
	if err != nil {
		return nil, fmt.Errorf("open position: %w", err)
	}

	m.positions[p.id] = p
	m.created = append(m.created, p.id)
	m.open[symbol] = append(m.open[symbol], p.id)
	return p, nil
}

// ClosePosition closes qty of a position at price and returns the realized
// P&L of that slice.
func (m *Manager) ClosePosition(positionID string, price, qty decimal.Decimal) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.positions[positionID]
	if !ok {
		return decimal.Zero, fmt.Errorf("close position %q: %w", positionID, ErrPositionNotFound)
	}

	return m.closeLocked(p, price, qty)
}

func (m *Manager) closeLocked(p *Position, price, qty decimal.Decimal) (decimal.Decimal, error) {
	pnl, err := p.Close(price, qty, m.now())
	if err != nil {
		return decimal.Zero, err
	}

	if !p.IsOpen() {
		m.open[p.symbol] = removeID(m.open[p.symbol], p.id)
		if len(m.open[p.symbol]) == 0 {
			delete(m.open, p.symbol)
		}
		m.history = append(m.history, p.id)
	}
	return pnl, nil
}

// CloseLot is one slice of a multi-position close.
type CloseLot struct {
	PositionID string
	Quantity   decimal.Decimal
}

// ClosePositions closes every lot at price, or none of them: all lots are
// checked against the live positions before the first one is touched. It
// returns the realized P&L per lot.
func (m *Manager) ClosePositions(lots []CloseLot, price decimal.Decimal) ([]decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !price.IsPositive() {
		return nil, fmt.Errorf("close positions: %w: price %s", ErrInvalidPosition, price)
	}

	want := make(map[string]decimal.Decimal, len(lots))
	for _, lot := range lots {
		p, ok := m.positions[lot.PositionID]
		if !ok {
			return nil, fmt.Errorf("close position %q: %w", lot.PositionID, ErrPositionNotFound)
		}
		if !lot.Quantity.IsPositive() {
			return nil, fmt.Errorf("close %s: %w: %s", lot.PositionID, ErrInvalidQuantity, lot.Quantity)
		}
		want[lot.PositionID] = want[lot.PositionID].Add(lot.Quantity)

		snap := p.Snapshot()
		if !snap.IsOpen {
			return nil, fmt.Errorf("close %s: %w", lot.PositionID, ErrPositionClosed)
		}
		if want[lot.PositionID].GreaterThan(snap.Quantity) {
			return nil, fmt.Errorf("close %s: %w: %s of %s", lot.PositionID, ErrInvalidQuantity, want[lot.PositionID], snap.Quantity)
		}
	}

	pnls := make([]decimal.Decimal, 0, len(lots))
	for _, lot := range lots {
		pnl, err := m.closeLocked(m.positions[lot.PositionID], price, lot.Quantity)
		if err != nil {
			return pnls, err
		}
		pnls = append(pnls, pnl)
	}
	return pnls, nil
}

func removeID(ids []string, target string) []string {
	for i, v := range ids {
		if v == target {
			return append(ids[:i:i], ids[i+1:]...)
		}
	}
	return ids
}

// Get returns a snapshot of any position, open or closed.
func (m *Manager) Get(positionID string) (Snapshot, bool) {
	p, ok := m.Handle(positionID)
	if !ok {
		return Snapshot{}, false
	}
	return p.Snapshot(), true
}

// Handle returns the live position for callers that need to change its risk
// configuration.
func (m *Manager) Handle(positionID string) (*Position, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.positions[positionID]
	return p, ok
}

func (m *Manager) snapshots(ids []string) []Snapshot {
	out := make([]Snapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, m.positions[id].Snapshot())
	}
	return out
}

// OpenPositions lists open positions across all symbols, oldest first.
func (m *Manager) OpenPositions() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var ids []string
	for _, id := range m.created {
		if m.positions[id].IsOpen() {
			ids = append(ids, id)
		}
	}
	return m.snapshots(ids)
}

// OpenPositionsBySymbol lists open positions for symbol, oldest first. This
// is the FIFO order sells close in.
func (m *Manager) OpenPositionsBySymbol(symbol string) []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots(m.open[symbol])
}

// PositionHistory lists closed positions in the order they closed.
func (m *Manager) PositionHistory() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots(m.history)
}

// AllPositions lists every position ever opened, oldest first.
func (m *Manager) AllPositions() []Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshots(m.created)
}

// Summary aggregates the manager's positions.
type Summary struct {
	OpenPositions      int             `json:"open_positions"`
	ClosedPositions    int             `json:"closed_positions"`
	TotalUnrealizedPnL decimal.Decimal `json:"total_unrealized_pnl"`
	TotalRealizedPnL   decimal.Decimal `json:"total_realized_pnl"`
	TotalPnL           decimal.Decimal `json:"total_pnl"`
	WinningPositions   int             `json:"winning_positions"`
	LosingPositions    int             `json:"losing_positions"`
}

func (m *Manager) Summary() Summary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var s Summary
	for _, id := range m.created {
		snap := m.positions[id].Snapshot()
		s.TotalRealizedPnL = s.TotalRealizedPnL.Add(snap.RealizedPnL)
		if snap.IsOpen {
			s.OpenPositions++
			s.TotalUnrealizedPnL = s.TotalUnrealizedPnL.Add(snap.UnrealizedPnL)
			continue
		}
		s.ClosedPositions++
		switch snap.RealizedPnL.Sign() {
		case 1:
			s.WinningPositions++
		case -1:
			s.LosingPositions++
		}
	}
	s.TotalPnL = s.TotalRealizedPnL.Add(s.TotalUnrealizedPnL)
	return s
}

// UpdatePrices marks every open position whose symbol has a price, moves
// adaptive stops and targets, and reports which positions crossed a level.
// Triggers are advisory: nothing is closed here.
func (m *Manager) UpdatePrices(prices map[string]decimal.Decimal) []Trigger {
	m.mu.RLock()
	var targets []*Position
	for symbol, ids := range m.open {
		if _, ok := prices[symbol]; !ok {
			continue
		}
		for _, id := range ids {
			targets = append(targets, m.positions[id])
		}
	}
	m.mu.RUnlock()

	var triggers []Trigger
	for _, p := range targets {
		if trig := p.applyTick(prices[p.symbol]); trig != nil {
			triggers = append(triggers, *trig)
		}
	}
	// ids are ULIDs, so this is creation order.
	sort.Slice(triggers, func(i, j int) bool {
		return triggers[i].PositionID < triggers[j].PositionID
	})
	return triggers
}

// Reset forgets every position.
func (m *Manager) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make(map[string]*Position)
	m.created = nil
	m.open = make(map[string][]string)
	m.history = nil
}

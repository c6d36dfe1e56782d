// Package feed drives scripted market prices into an account.
package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/rustyeddy/papertrader/config"
	"github.com/shopspring/decimal"
)

// PriceSink receives price snapshots. account.TradingAccount satisfies it.
type PriceSink interface {
	UpdateCurrentPrices(prices map[string]decimal.Decimal)
}

// Step is one snapshot. A positive Delay replaces the replay interval
// before this step.
type Step struct {
	Prices map[string]decimal.Decimal
	Delay  time.Duration
}

// Replay delivers Steps to a sink in order.
type Replay struct {
	Steps    []Step
	Interval time.Duration

	// OnStep runs before the first step with applied == 0 and after each
	// step with the number of steps delivered so far. An error stops the
	// replay.
	OnStep func(ctx context.Context, applied int) error
}

// FromConfig builds a Replay from a simulation config.
func FromConfig(sc config.SimulationConfig) (*Replay, error) {
	interval, err := sc.ParseInterval()
	if err != nil {
		return nil, fmt.Errorf("interval: %w", err)
	}

	r := &Replay{Interval: interval}
	for i, ps := range sc.PriceSteps {
		delay, err := ps.ParseDuration()
		if err != nil {
			return nil, fmt.Errorf("invalid delay in step %d: %w", i, err)
		}
		r.Steps = append(r.Steps, Step{Prices: ps.Prices, Delay: delay})
	}
	return r, nil
}

// Run blocks until every step is delivered or ctx is done.
func (r *Replay) Run(ctx context.Context, sink PriceSink) error {
	if err := r.hook(ctx, 0); err != nil {
		return err
	}

	for i, step := range r.Steps {
		wait := step.Delay
		if wait <= 0 && i > 0 {
			wait = r.Interval
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}

		prices := make(map[string]decimal.Decimal, len(step.Prices))
		for symbol, price := range step.Prices {
			prices[symbol] = price
		}
		sink.UpdateCurrentPrices(prices)

		if err := r.hook(ctx, i+1); err != nil {
			return err
		}
	}
	return nil
}

func (r *Replay) hook(ctx context.Context, applied int) error {
	if r.OnStep == nil {
		return nil
	}
	if err := r.OnStep(ctx, applied); err != nil {
		return fmt.Errorf("after step %d: %w", applied, err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

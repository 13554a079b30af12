package payroll

import (
	"context"

	"github.com/shopspring/decimal"
)

// =============================================================================
// RATE RESOLVER - Which rate applies on a given date?
// =============================================================================

// RateSource provides a worker's full rate history. Implemented by the
// sqlite store and by the in-memory store used in tests.
type RateSource interface {
	RatesForWorker(ctx context.Context, workerID string) ([]PayRate, error)
}

// RateResolver picks the pay rate effective on a date. It caches rate
// histories for the lifetime of one pipeline run only; a fresh resolver is
// built per invocation so no state survives across requests.
type RateResolver struct {
	src   RateSource
	cache map[string][]PayRate
}

func NewRateResolver(src RateSource) *RateResolver {
	return &RateResolver{src: src, cache: make(map[string][]PayRate)}
}

// Resolve returns the rate in effect for the worker on the given date.
// The interval covering the date wins; when overlapping data matches more
// than one interval, the latest EffectiveFrom takes precedence. When no
// interval covers the date the result is zero - callers flag such lines for
// manual review rather than failing the run.
func (r *RateResolver) Resolve(ctx context.Context, workerID string, date WorkDate) (decimal.Decimal, error) {
	rates, ok := r.cache[workerID]
	if !ok {
		var err error
		rates, err = r.src.RatesForWorker(ctx, workerID)
		if err != nil {
			return decimal.Zero, err
		}
		r.cache[workerID] = rates
	}

	var best *PayRate
	for i := range rates {
		rate := &rates[i]
		if !rate.Covers(date) {
			continue
		}
		if best == nil || rate.EffectiveFrom.After(best.EffectiveFrom) {
			best = rate
		}
	}
	if best == nil {
		return decimal.Zero, nil
	}
	return best.Rate, nil
}

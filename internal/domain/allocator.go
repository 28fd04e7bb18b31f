package domain

import (
	"fmt"
	"math"
)

// Allocator converts a requested batch size into exact per-strategy
// item quotas. Pure, deterministic, no I/O.
type Allocator struct {
	percentages map[Strategy]float64
	remainder   Strategy
}

// NewAllocator builds an allocator from a percentage table and the
// designated remainder strategy that absorbs integer-rounding loss.
// The table must cover every strategy, include the remainder strategy
// and sum to exactly 1.0. Called once at startup; failing here is
// fail-fast by design of the caller.
func NewAllocator(percentages map[Strategy]float64, remainder Strategy) (*Allocator, error) {
	if _, ok := percentages[remainder]; !ok {
		return nil, fmt.Errorf("remainder strategy %q has no percentage", remainder)
	}
	sum := 0.0
	for s, p := range percentages {
		if p < 0 {
			return nil, fmt.Errorf("%w: %s is negative", ErrInvalidPercentages, s)
		}
		sum += p
	}
	// Exact up to accumulated float error of a handful of additions.
	if math.Abs(sum-1.0) > 1e-9 {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidPercentages, sum)
	}
	return &Allocator{percentages: percentages, remainder: remainder}, nil
}

// Allocate splits total into per-strategy quotas. Every strategy except
// the remainder receives floor(total*percentage); the remainder
// receives whatever is left, so the quotas always sum to total exactly.
func (a *Allocator) Allocate(total int) (map[Strategy]int, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidPageSize, total)
	}

	quotas := make(map[Strategy]int, len(a.percentages))
	allocated := 0
	for s, p := range a.percentages {
		if s == a.remainder {
			continue
		}
		n := int(math.Floor(float64(total) * p))
		quotas[s] = n
		allocated += n
	}
	quotas[a.remainder] = total - allocated

	return quotas, nil
}

package domain

import (
	"errors"
	"testing"
)

func defaultPercentages() map[Strategy]float64 {
	return map[Strategy]float64{
		StrategyCF:      0.40,
		StrategyPopular: 0.30,
		StrategyNew:     0.10,
		StrategyRandom:  0.20,
	}
}

func TestAllocator_DefaultSplit(t *testing.T) {
	a, err := NewAllocator(defaultPercentages(), StrategyRandom)
	if err != nil {
		t.Fatalf("NewAllocator() error = %v", err)
	}

	quotas, err := a.Allocate(250)
	if err != nil {
		t.Fatalf("Allocate(250) error = %v", err)
	}

	want := map[Strategy]int{
		StrategyCF:      100,
		StrategyPopular: 75,
		StrategyNew:     25,
		StrategyRandom:  50,
	}
	for s, n := range want {
		if quotas[s] != n {
			t.Errorf("Allocate(250)[%s] = %d, want %d", s, quotas[s], n)
		}
	}
}

func TestAllocator_SumIsExact(t *testing.T) {
	// Percentages chosen so floor() loses items on most totals.
	a, err := NewAllocator(map[Strategy]float64{
		StrategyCF:      0.33,
		StrategyPopular: 0.33,
		StrategyNew:     0.14,
		StrategyRandom:  0.20,
	}, StrategyRandom)
	if err != nil {
		t.Fatalf("NewAllocator() error = %v", err)
	}

	for total := 1; total <= 500; total++ {
		quotas, err := a.Allocate(total)
		if err != nil {
			t.Fatalf("Allocate(%d) error = %v", total, err)
		}
		sum := 0
		for _, n := range quotas {
			sum += n
		}
		if sum != total {
			t.Fatalf("Allocate(%d) quotas sum to %d", total, sum)
		}
	}
}

func TestAllocator_RejectsNonPositiveTotal(t *testing.T) {
	a, err := NewAllocator(defaultPercentages(), StrategyRandom)
	if err != nil {
		t.Fatalf("NewAllocator() error = %v", err)
	}

	for _, total := range []int{0, -1, -250} {
		if _, err := a.Allocate(total); !errors.Is(err, ErrInvalidPageSize) {
			t.Errorf("Allocate(%d) error = %v, want ErrInvalidPageSize", total, err)
		}
	}
}

func TestNewAllocator_Validation(t *testing.T) {
	tests := []struct {
		name        string
		percentages map[Strategy]float64
		remainder   Strategy
		wantErr     bool
	}{
		{
			name:        "valid",
			percentages: defaultPercentages(),
			remainder:   StrategyRandom,
			wantErr:     false,
		},
		{
			name: "sum below one",
			percentages: map[Strategy]float64{
				StrategyCF:      0.40,
				StrategyPopular: 0.30,
				StrategyNew:     0.10,
				StrategyRandom:  0.10,
			},
			remainder: StrategyRandom,
			wantErr:   true,
		},
		{
			name: "sum above one",
			percentages: map[Strategy]float64{
				StrategyCF:      0.50,
				StrategyPopular: 0.30,
				StrategyNew:     0.10,
				StrategyRandom:  0.20,
			},
			remainder: StrategyRandom,
			wantErr:   true,
		},
		{
			name: "negative percentage",
			percentages: map[Strategy]float64{
				StrategyCF:      1.10,
				StrategyPopular: 0.10,
				StrategyNew:     -0.40,
				StrategyRandom:  0.20,
			},
			remainder: StrategyRandom,
			wantErr:   true,
		},
		{
			name: "remainder not in table",
			percentages: map[Strategy]float64{
				StrategyCF:      0.50,
				StrategyPopular: 0.30,
				StrategyNew:     0.20,
			},
			remainder: StrategyRandom,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAllocator(tt.percentages, tt.remainder)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewAllocator() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

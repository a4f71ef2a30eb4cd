package mathutil

import (
	"math/rand"
	"testing"
)

func TestLargestRemainder(t *testing.T) {
	tests := []struct {
		name     string
		total    int64
		weights  []int64
		expected []int64
	}{
		{"Even thirds", 100, []int64{1, 1, 1}, []int64{34, 33, 33}},
		{"Negative total", -7, []int64{2, 1}, []int64{-5, -2}},
		{"Exact split", 30000, []int64{2, 1}, []int64{20000, 10000}},
		{"Net split", 27000, []int64{2, 1}, []int64{18000, 9000}},
		{"Zero weight keeps nothing", 10, []int64{0, 3, 1}, []int64{0, 8, 2}},
		{"Tie goes to earlier month", 1, []int64{1, 1}, []int64{1, 0}},
		{"Zero total", 0, []int64{3, 4}, []int64{0, 0}},
		{"Single bucket", 12345, []int64{7}, []int64{12345}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parts, err := LargestRemainder(tt.total, tt.weights)
			if err != nil {
				t.Fatalf("LargestRemainder() error = %v", err)
			}
			if len(parts) != len(tt.expected) {
				t.Fatalf("LargestRemainder() returned %d parts, expected %d", len(parts), len(tt.expected))
			}
			for i := range parts {
				if parts[i] != tt.expected[i] {
					t.Errorf("part %d = %d, expected %d", i, parts[i], tt.expected[i])
				}
			}
		})
	}
}

func TestLargestRemainderThirdsStayWithinOneUnit(t *testing.T) {
	parts, err := LargestRemainder(100, []int64{1, 1, 1})
	if err != nil {
		t.Fatalf("LargestRemainder() error = %v", err)
	}
	if Sum(parts) != 100 {
		t.Errorf("sum = %d, expected 100", Sum(parts))
	}
	for i, p := range parts {
		if p != 33 && p != 34 {
			t.Errorf("part %d = %d, expected 33 or 34", i, p)
		}
	}
}

func TestLargestRemainderZeroWeights(t *testing.T) {
	parts, err := LargestRemainder(500, []int64{0, 0})
	if err != nil {
		t.Fatalf("LargestRemainder() error = %v", err)
	}
	if parts != nil {
		t.Errorf("expected nil parts for zero weight sum, got %v", parts)
	}

	parts, err = LargestRemainder(500, nil)
	if err != nil || parts != nil {
		t.Errorf("expected nil, nil for empty weights, got %v, %v", parts, err)
	}
}

func TestLargestRemainderRejectsNegativeWeights(t *testing.T) {
	if _, err := LargestRemainder(10, []int64{1, -1}); err == nil {
		t.Error("expected error for negative weight")
	}
}

func TestLargestRemainderPreservesTotals(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 2000; run++ {
		n := 1 + rng.Intn(6)
		weights := make([]int64, n)
		for i := range weights {
			weights[i] = int64(rng.Intn(32))
		}
		weights[rng.Intn(n)]++
		total := rng.Int63n(10_000_000) - 5_000_000

		parts, err := LargestRemainder(total, weights)
		if err != nil {
			t.Fatalf("run %d: LargestRemainder() error = %v", run, err)
		}
		if Sum(parts) != total {
			t.Fatalf("run %d: sum %d != total %d (weights %v)", run, Sum(parts), total, weights)
		}
		for i, w := range weights {
			if w == 0 && parts[i] != 0 {
				t.Fatalf("run %d: zero weight bucket %d received %d", run, i, parts[i])
			}
		}
	}
}

func TestDivRound(t *testing.T) {
	tests := []struct {
		name     string
		num, den int64
		expected int64
	}{
		{"Exact", 10, 2, 5},
		{"Round half up", 5, 2, 3},
		{"Round down", 7, 3, 2},
		{"Negative half away from zero", -5, 2, -3},
		{"Negative round toward zero", -7, 3, -2},
		{"Negative denominator", 7, -2, -4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DivRound(tt.num, tt.den); got != tt.expected {
				t.Errorf("DivRound(%d, %d) = %d, expected %d", tt.num, tt.den, got, tt.expected)
			}
		})
	}
}

package mathutil

import (
	"fmt"
	"sort"
)

// LargestRemainder splits total across weights so that the parts sum to
// total exactly. Each part starts at floor(total*w/sum(w)); the leftover
// units go one at a time to the largest fractional remainders, ties going
// to the lower index. Negative totals are distributed as the mirror image
// of the positive case.
//
// A nil slice is returned when the weights sum to zero; callers decide where
// the total lands in that case.
func LargestRemainder(total int64, weights []int64) ([]int64, error) {
	var sum int64
	for i, w := range weights {
		if w < 0 {
			return nil, fmt.Errorf("weight %d is negative: %d", i, w)
		}
		sum += w
	}
	if sum == 0 {
		return nil, nil
	}

	negative := total < 0
	magnitude := total
	if negative {
		magnitude = -total
	}

	parts := make([]int64, len(weights))
	remainders := make([]int64, len(weights))
	var allocated int64
	for i, w := range weights {
		// magnitude*w can overflow for very large amounts; split the product
		// into quotient and remainder of magnitude/sum first.
		q := magnitude / sum
		r := magnitude % sum
		parts[i] = q*w + (r*w)/sum
		remainders[i] = (r * w) % sum
		allocated += parts[i]
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return remainders[order[a]] > remainders[order[b]]
	})

	for k := int64(0); k < magnitude-allocated; k++ {
		parts[order[int(k)%len(order)]]++
	}

	if negative {
		for i := range parts {
			parts[i] = -parts[i]
		}
	}
	return parts, nil
}

// Sum returns the sum of values.
func Sum(values []int64) int64 {
	var total int64
	for _, v := range values {
		total += v
	}
	return total
}

package core

// -----------------------------------------------------------------------------

// PercentChange calculates the percentage change from base to current.
// The second return is false when base is zero: the change is
// undefined and must be reported as absent, never approximated.
func PercentChange(current, base float64) (float64, bool) {
	if base == 0 {
		return 0, false
	}
	return (current - base) / base * 100, true
}

// -----------------------------------------------------------------------------

// SumIntValues sums the values of the given hour buckets.
func SumIntValues(values map[int]int, hours []int) int {
	total := 0
	for _, h := range hours {
		total += values[h]
	}
	return total
}

package ichimoku

// RollingMax returns, for every index i, the maximum of values[i-window+1..i].
// Entries before the first full window are nil.
func RollingMax(values []float64, window int) []*float64 {
	return rolling(values, window, func(incoming, back float64) bool { return incoming >= back })
}

// RollingMin returns, for every index i, the minimum of values[i-window+1..i].
// Entries before the first full window are nil.
func RollingMin(values []float64, window int) []*float64 {
	return rolling(values, window, func(incoming, back float64) bool { return incoming <= back })
}

// rolling keeps a monotonic deque of indices in a flat arena. Every index is
// pushed and popped at most once, so a pass costs O(len(values)).
// evicts reports whether the incoming value makes the back of the deque useless.
func rolling(values []float64, window int, evicts func(incoming, back float64) bool) []*float64 {
	out := make([]*float64, len(values))
	if window <= 0 {
		return out
	}

	dq := make([]int, len(values))
	head, tail := 0, 0
	for i, v := range values {
		for tail > head && evicts(v, values[dq[tail-1]]) {
			tail--
		}
		dq[tail] = i
		tail++

		// indices in the deque are increasing, only the front can fall out
		if dq[head] <= i-window {
			head++
		}
		if i >= window-1 {
			x := values[dq[head]]
			out[i] = &x
		}
	}
	return out
}

// midpoints returns (highest high + lowest low) / 2 over each trailing window.
func midpoints(highs, lows []float64, window int) []*float64 {
	hi := RollingMax(highs, window)
	lo := RollingMin(lows, window)
	out := make([]*float64, len(highs))
	for i := range out {
		if hi[i] == nil || lo[i] == nil {
			continue
		}
		m := (*hi[i] + *lo[i]) / 2
		out[i] = &m
	}
	return out
}

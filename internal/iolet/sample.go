package iolet

import "math"

const twoPi = 2 * math.Pi

func cos(x float64) float64 { return math.Cos(x) }

// sampleLinear looks up value at time t in a (times, values) table sorted
// ascending by time, linearly interpolating between samples and clamping
// to the endpoints outside the table's range. Returns 0 for an empty
// table.
func sampleLinear(times, values []float64, t float64) float64 {
	if len(times) == 0 {
		return 0
	}
	if t <= times[0] {
		return values[0]
	}
	last := len(times) - 1
	if t >= times[last] {
		return values[last]
	}
	for i := 1; i <= last; i++ {
		if t <= times[i] {
			t0, t1 := times[i-1], times[i]
			v0, v1 := values[i-1], values[i]
			if t1 == t0 {
				return v0
			}
			frac := (t - t0) / (t1 - t0)
			return v0 + frac*(v1-v0)
		}
	}
	return values[last]
}

package counters

import (
	"math"

	"github.com/lfsj/RealNerdStats/pkg/types"
)

// Rate converts two readings of one cumulative counter into a per-second rate.
// A counter that went backwards (process restart, wrap) yields 0, as does a
// non-positive or non-finite interval.
func Rate(prev, cur uint64, seconds float64) float64 {
	if seconds <= 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return 0
	}
	if cur < prev {
		return 0
	}
	return float64(cur-prev) / seconds
}

// Calculate derives per-field rates. seen=false means there is no previous
// reading for this identity, so every field is reported as 0.
func Calculate(prev types.Counters, seen bool, cur types.Counters, seconds float64) types.Rates {
	if !seen {
		return types.Rates{}
	}
	return types.Rates{
		Read:  Rate(prev.Read, cur.Read, seconds),
		Write: Rate(prev.Write, cur.Write, seconds),
	}
}

// Package detect extracts discrete hardware parameters from latency
// curves. A curve holds one latency value per sweep configuration, in
// sweep order, and each detector looks for the consecutive-ratio
// signature of one kind of hardware boundary. Detectors never fail: a
// curve without a qualifying transition reports the caller's fallback.
package detect

// A Curve is one measured latency value per sweep configuration, in
// sweep order. Values are relative; only consecutive ratios matter.
type Curve []float64

// PlateauRise returns the candidate just before the plateau that ends a
// rising curve. The plateau is the longest run of configurations at the
// end of the sweep whose consecutive ratios stay within rise of 1.0 in
// both directions, and the curve must have risen by more than rise
// somewhere before it. Returns fallback when the curve never settles,
// never rises, or is too short to hold a plateau.
func PlateauRise(curve Curve, candidates []int, rise float64, fallback int) int {
	n := min(len(curve), len(candidates))
	if n < 3 {
		return fallback
	}

	p := n - 1
	for p > 0 && flat(curve[p]/curve[p-1], rise) {
		p--
	}

	// p == 0 means the whole curve is one plateau; p == n-1 means the
	// curve was still moving at the end of the sweep. Neither brackets
	// a boundary.
	if p == 0 || p == n-1 {
		return fallback
	}

	for s := 1; s <= p; s++ {
		if curve[s]/curve[s-1] > rise {
			return candidates[p-1]
		}
	}

	return fallback
}

// flat reports whether a consecutive ratio is neither a significant rise
// nor a significant drop.
func flat(ratio, rise float64) bool {
	return ratio < rise && ratio > 1/rise
}

// PlateauDrop returns the candidate just before the first configuration
// whose latency falls below drop times its predecessor's. The scan skips
// the first ratio, which compares the two smallest configurations and
// carries no boundary information. Returns fallback when no drop occurs.
func PlateauDrop(curve Curve, candidates []int, drop float64, fallback int) int {
	n := min(len(curve), len(candidates))

	for s := 2; s < n; s++ {
		if curve[s]/curve[s-1] < drop {
			return candidates[s-1]
		}
	}

	return fallback
}

// A Tier bounds the footprints that may report one cache level and the
// consecutive-latency ratio that signals its boundary.
type Tier struct {
	// MinFootprint (exclusive) and MaxFootprint (inclusive) bound the
	// footprints attributable to this tier. A zero MaxFootprint means
	// unbounded.
	MinFootprint int
	MaxFootprint int

	// Threshold is the consecutive ratio a jump must exceed to latch
	// this tier.
	Threshold float64
}

func (t Tier) covers(footprint int) bool {
	if footprint <= t.MinFootprint {
		return false
	}

	if t.MaxFootprint != 0 && footprint > t.MaxFootprint {
		return false
	}

	return true
}

// Knee walks a latency curve over increasing footprints once and
// latches, for each tier, the footprint preceding the first qualifying
// jump: the first ratio that exceeds the tier's threshold while the
// prior footprint lies in the tier's range. Tiers are tried in order and
// each jump latches at most one tier. A latched tier ignores all later
// jumps; a tier that never latches reports 0.
func Knee(curve Curve, footprints []int, tiers []Tier) []int {
	found := make([]int, len(tiers))

	n := min(len(curve), len(footprints))
	for s := 1; s < n; s++ {
		ratio := curve[s] / curve[s-1]
		prior := footprints[s-1]

		for t, tier := range tiers {
			if found[t] != 0 || !tier.covers(prior) {
				continue
			}

			if ratio > tier.Threshold {
				found[t] = prior
				break
			}
		}
	}

	return found
}

// MaxRatio returns the candidate preceding the single largest
// consecutive jump that also exceeds threshold. Taking the global
// maximum instead of the first crossing makes the detector robust on
// noisy curves where several ratios clear the threshold; ties keep the
// earliest jump. Returns fallback when no ratio exceeds threshold.
func MaxRatio(curve Curve, candidates []int, threshold float64, fallback int) int {
	n := min(len(curve), len(candidates))

	detected := fallback
	maxRatio := 1.0

	for s := 1; s < n; s++ {
		ratio := curve[s] / curve[s-1]
		if ratio > maxRatio && ratio > threshold {
			maxRatio = ratio
			detected = candidates[s-1]
		}
	}

	return detected
}

package probe

import "sort"

// A TrialStrategy turns repeated runs of a probe into one answer. Probes
// whose signal is noisy run several sweeps and let the strategy settle
// the disagreements.
type TrialStrategy interface {
	// Decide runs the probe as many times as the strategy needs and
	// returns the chosen value.
	Decide(run func() int) int
}

// SingleShot runs the probe once and trusts the answer.
type SingleShot struct{}

// Decide returns the result of one run.
func (SingleShot) Decide(run func() int) int {
	return run()
}

// MajorityVote runs the probe Trials times and returns the most common
// answer. A tie keeps the answer that appeared first.
type MajorityVote struct {
	Trials int
}

// Decide returns the mode of Trials runs.
func (v MajorityVote) Decide(run func() int) int {
	if v.Trials < 1 {
		panic("a majority vote needs at least one trial")
	}

	results := make([]int, v.Trials)
	for i := range results {
		results[i] = run()
	}

	return mode(results)
}

// Median runs the probe Trials times and returns the middle answer, the
// lower of the two middles when Trials is even.
type Median struct {
	Trials int
}

// Decide returns the median of Trials runs.
func (m Median) Decide(run func() int) int {
	if m.Trials < 1 {
		panic("a median needs at least one trial")
	}

	results := make([]int, m.Trials)
	for i := range results {
		results[i] = run()
	}

	sort.Ints(results)

	return results[(len(results)-1)/2]
}

// mode returns the most frequent value, keeping the first-encountered
// value on ties.
func mode(results []int) int {
	value := results[0]
	maxCount := 1

	for _, candidate := range results {
		count := 0
		for _, r := range results {
			if r == candidate {
				count++
			}
		}

		if count > maxCount {
			maxCount = count
			value = candidate
		}
	}

	return value
}

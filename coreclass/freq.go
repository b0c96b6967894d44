package coreclass

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is where Linux exposes per-CPU frequency limits.
const DefaultRoot = "/sys/devices/system/cpu"

// Sets reports which CPUs belong to each class, bucketing the per-CPU
// maximum frequencies under root. CPUs in the highest frequency bucket
// are the performance set and the rest are the efficiency set. On
// machines with a single bucket every CPU is in both sets.
func Sets(root string) (performance, efficiency []int, err error) {
	freqs, err := maxFrequencies(root)
	if err != nil {
		return nil, nil, err
	}

	top := 0
	for _, f := range freqs {
		if f > top {
			top = f
		}
	}

	for cpu, f := range freqs {
		if f == top {
			performance = append(performance, cpu)
		} else {
			efficiency = append(efficiency, cpu)
		}
	}

	if len(efficiency) == 0 {
		efficiency = performance
	}

	return performance, efficiency, nil
}

// maxFrequencies reads cpuinfo_max_freq for consecutive CPUs under root.
// The slice is indexed by CPU number.
func maxFrequencies(root string) ([]int, error) {
	var freqs []int

	for cpu := 0; ; cpu++ {
		dir := filepath.Join(root, fmt.Sprintf("cpu%d", cpu))
		if _, err := os.Stat(dir); err != nil {
			break
		}

		data, err := os.ReadFile(
			filepath.Join(dir, "cpufreq", "cpuinfo_max_freq"))
		if err != nil {
			return nil, fmt.Errorf(
				"cannot read max frequency of cpu%d: %w", cpu, err)
		}

		freq, err := strconv.Atoi(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf(
				"cannot parse max frequency of cpu%d: %w", cpu, err)
		}

		freqs = append(freqs, freq)
	}

	if len(freqs) == 0 {
		return nil, fmt.Errorf("no CPUs found under %s", root)
	}

	return freqs, nil
}

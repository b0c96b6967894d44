package probe

import (
	"github.com/shirou/gopsutil/mem"
)

// fallbackMemoryBudget is assumed when the platform cannot report how much
// memory is free. It accommodates every default sweep.
const fallbackMemoryBudget = 256 * 1024 * 1024

// availableMemory returns how many bytes a probe may allocate for its
// buffers. Probes shrink their sweeps rather than fail when the machine
// cannot back their preferred buffer sizes.
func availableMemory() int {
	vm, err := mem.VirtualMemory()
	if err != nil || vm.Available == 0 {
		return fallbackMemoryBudget
	}

	return int(vm.Available)
}

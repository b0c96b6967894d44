// Package report renders probing results and the authoritative kernel
// and CPUID views as console text.
package report

import (
	"fmt"
	"strings"

	"github.com/sarchlab/memprobe/coreclass"
	"github.com/sarchlab/memprobe/cpuid"
	"github.com/sarchlab/memprobe/session"
	"github.com/sarchlab/memprobe/sysfs"
)

// Format renders one run's results, one line per parameter that was
// measured. Parameters whose probe was skipped or found nothing are left
// out.
func Format(results session.Results) string {
	var sb strings.Builder

	if results.LineSize > 0 {
		fmt.Fprintf(&sb, "Cache Line Size: %d bytes\n", results.LineSize)
	}

	if results.L1 > 0 {
		fmt.Fprintf(&sb, "L1 Data Cache:   %d KB\n", results.L1/1024)
	}

	if results.L2 > 0 {
		if results.L2 >= 1024*1024 {
			fmt.Fprintf(&sb, "L2 Cache:        %d MB\n",
				results.L2/(1024*1024))
		} else {
			fmt.Fprintf(&sb, "L2 Cache:        %d KB\n", results.L2/1024)
		}
	}

	if results.L3 > 0 {
		fmt.Fprintf(&sb, "L3 Cache:        %d MB\n", results.L3/(1024*1024))
	}

	if results.Ways > 0 {
		fmt.Fprintf(&sb, "L1 Associativity: %d-way (heuristic)\n",
			results.Ways)
	}

	if results.PageSize > 0 {
		fmt.Fprintf(&sb, "Page Size: %d bytes (%d KB)\n",
			results.PageSize, results.PageSize/1024)
	}

	if results.TLBEntries > 0 {
		fmt.Fprintf(&sb, "TLB Size:  %d entries\n", results.TLBEntries)
	}

	return sb.String()
}

// ClassHeading returns the section heading for one core class's results.
func ClassHeading(class coreclass.Class) string {
	switch class {
	case coreclass.Performance:
		return "Performance Cores (P-cores)"
	case coreclass.Efficiency:
		return "Efficiency Cores (E-cores)"
	default:
		return "Default Core"
	}
}

// FormatTopology renders what the kernel reports about one CPU's caches.
func FormatTopology(cpu int, infos []sysfs.CacheInfo) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== Processor Cache Info (CPU %d) ===\n", cpu)

	for _, info := range infos {
		fmt.Fprintf(&sb, "\n[Cache Level Index %d]:\n", info.Index)
		fmt.Fprintf(&sb, "  Level:         L%d\n", info.Level)
		fmt.Fprintf(&sb, "  Type:          %s\n", info.Type)
		fmt.Fprintf(&sb, "  Size:          %s\n", sizeString(info.SizeBytes))

		if info.Ways > 0 {
			fmt.Fprintf(&sb, "  Associativity: %d-way\n", info.Ways)
		}

		if info.LineSizeBytes > 0 {
			fmt.Fprintf(&sb, "  Line Size:     %d bytes\n",
				info.LineSizeBytes)
		}

		if info.SharedCPUList != "" {
			fmt.Fprintf(&sb, "  Shared CPUs:   %s\n", info.SharedCPUList)
		}
	}

	return sb.String()
}

// FormatCPUID renders what the processor reports about itself. Values the
// processor does not expose are left out.
func FormatCPUID(info cpuid.Info) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "=== CPUID Reported Values ===\n")

	if info.Brand != "" {
		fmt.Fprintf(&sb, "Brand:           %s\n", info.Brand)
	}

	if info.LineSize > 0 {
		fmt.Fprintf(&sb, "Cache Line Size: %d bytes\n", info.LineSize)
	}

	if info.L1Data > 0 {
		fmt.Fprintf(&sb, "L1 Data Cache:   %s\n", sizeString(info.L1Data))
	}

	if info.L1Inst > 0 {
		fmt.Fprintf(&sb, "L1 Inst Cache:   %s\n", sizeString(info.L1Inst))
	}

	if info.L2 > 0 {
		fmt.Fprintf(&sb, "L2 Cache:        %s\n", sizeString(info.L2))
	}

	if info.L3 > 0 {
		fmt.Fprintf(&sb, "L3 Cache:        %s\n", sizeString(info.L3))
	}

	return sb.String()
}

// sizeString renders a byte count as MB from 1 MiB up and KB below.
func sizeString(bytes int) string {
	if bytes >= 1024*1024 {
		return fmt.Sprintf("%d MB", bytes/(1024*1024))
	}

	return fmt.Sprintf("%d KB", bytes/1024)
}

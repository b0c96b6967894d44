// Package sysfs reads the kernel's description of the CPU caches. The
// probes never consult it; it exists so probed values can be checked
// against what the hardware itself reports.
package sysfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// DefaultRoot is the mount point of the kernel's sysfs.
const DefaultRoot = "/sys"

// CacheInfo describes one cache as the kernel reports it. Fields the
// platform does not expose are zero.
type CacheInfo struct {
	Index         int
	Level         int
	Type          string
	SizeBytes     int
	LineSizeBytes int
	Ways          int
	SharedCPUList string
}

// DescribeCPU reads the cache hierarchy of the given CPU from a sysfs
// tree rooted at root, normally DefaultRoot.
func DescribeCPU(root string, cpu int) ([]CacheInfo, error) {
	cacheDir := filepath.Join(
		root, "devices", "system", "cpu",
		fmt.Sprintf("cpu%d", cpu), "cache")

	if _, err := os.Stat(cacheDir); err != nil {
		return nil, fmt.Errorf("cpu%d exposes no cache topology: %w", cpu, err)
	}

	var caches []CacheInfo

	for index := 0; ; index++ {
		dir := filepath.Join(cacheDir, fmt.Sprintf("index%d", index))
		if _, err := os.Stat(dir); err != nil {
			break
		}

		info, err := describeIndex(dir, index)
		if err != nil {
			return nil, err
		}

		caches = append(caches, info)
	}

	if len(caches) == 0 {
		return nil, fmt.Errorf("cpu%d exposes no cache indexes", cpu)
	}

	return caches, nil
}

// KernelPageSize returns the page size the kernel gives this process.
func KernelPageSize() int {
	return os.Getpagesize()
}

func describeIndex(dir string, index int) (CacheInfo, error) {
	info := CacheInfo{Index: index}

	level, err := readEntry(dir, "level")
	if err != nil {
		return info, err
	}

	info.Level, err = strconv.Atoi(level)
	if err != nil {
		return info, fmt.Errorf("cannot parse cache level %q: %w", level, err)
	}

	info.Type, err = readEntry(dir, "type")
	if err != nil {
		return info, err
	}

	size, err := readEntry(dir, "size")
	if err != nil {
		return info, err
	}

	info.SizeBytes, err = parseSize(size)
	if err != nil {
		return info, err
	}

	// Line size, way count, and sharing are not exposed everywhere.
	if s, err := readEntry(dir, "coherency_line_size"); err == nil {
		info.LineSizeBytes, _ = strconv.Atoi(s)
	}

	if s, err := readEntry(dir, "ways_of_associativity"); err == nil {
		info.Ways, _ = strconv.Atoi(s)
	}

	if s, err := readEntry(dir, "shared_cpu_list"); err == nil {
		info.SharedCPUList = s
	}

	return info, nil
}

func readEntry(dir, name string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		return "", fmt.Errorf("cannot read cache %s: %w", name, err)
	}

	return strings.TrimSpace(string(data)), nil
}

// parseSize converts the kernel's human-readable cache size, such as
// "48K" or "2M", into bytes.
func parseSize(size string) (int, error) {
	if size == "" {
		return 0, fmt.Errorf("empty cache size")
	}

	unit := map[byte]int{'K': 1 << 10, 'M': 1 << 20, 'G': 1 << 30}

	base := size
	mult := 1

	if u, ok := unit[size[len(size)-1]]; ok {
		base = size[:len(size)-1]
		mult = u
	}

	val, err := strconv.Atoi(base)
	if err != nil {
		return 0, fmt.Errorf("cannot parse cache size %q: %w", size, err)
	}

	return val * mult, nil
}

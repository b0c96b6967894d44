// Package coreclass steers probing onto a chosen class of cores.
// Heterogeneous processors pair performance cores with efficiency cores
// that can carry different cache and TLB geometries, so a probe only
// describes the class of core it ran on. The package buckets cores by
// their maximum frequency and pins the probing thread to one bucket.
package coreclass

import (
	"errors"
	"fmt"
	"strings"
)

// A Class names a kind of core to probe on.
type Class int

const (
	// Default runs wherever the scheduler puts the probe.
	Default Class = iota

	// Performance runs on the cores with the highest maximum frequency.
	Performance

	// Efficiency runs on the cores below the highest frequency bucket.
	Efficiency
)

// ErrNotSupported reports that this platform cannot steer threads onto a
// core class.
var ErrNotSupported = errors.New(
	"core class steering is not supported on this platform")

// String returns the name of the class.
func (c Class) String() string {
	switch c {
	case Default:
		return "default"
	case Performance:
		return "performance"
	case Efficiency:
		return "efficiency"
	}

	return fmt.Sprintf("class(%d)", int(c))
}

// ParseClass returns the class named by s.
func ParseClass(s string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "default":
		return Default, nil
	case "performance":
		return Performance, nil
	case "efficiency":
		return Efficiency, nil
	}

	return Default, fmt.Errorf("unknown core class %q", s)
}

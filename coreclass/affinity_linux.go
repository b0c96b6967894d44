//go:build linux

package coreclass

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Steer pins the calling goroutine's OS thread to the CPUs of the given
// class until the returned restore func runs. Steering to Default is a
// no-op. The caller must run restore on the same goroutine.
func Steer(class Class) (restore func(), err error) {
	if class == Default {
		return func() {}, nil
	}

	performance, efficiency, err := Sets(DefaultRoot)
	if err != nil {
		return nil, err
	}

	cpus := performance
	if class == Efficiency {
		cpus = efficiency
	}

	if len(cpus) == 0 {
		return nil, fmt.Errorf("no %s cores found", class)
	}

	runtime.LockOSThread()

	var previous unix.CPUSet
	if err := unix.SchedGetaffinity(0, &previous); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("cannot read thread affinity: %w", err)
	}

	var set unix.CPUSet
	for _, cpu := range cpus {
		set.Set(cpu)
	}

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		runtime.UnlockOSThread()
		return nil, fmt.Errorf("cannot pin thread to %s cores: %w", class, err)
	}

	restore = func() {
		_ = unix.SchedSetaffinity(0, &previous)
		runtime.UnlockOSThread()
	}

	return restore, nil
}

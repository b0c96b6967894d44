//go:build !linux

package coreclass

// Steer pins nothing off Linux. Default still succeeds as a no-op, so
// unsteered runs behave the same everywhere; asking for a specific class
// reports ErrNotSupported and the caller decides whether to probe
// unsteered.
func Steer(class Class) (restore func(), err error) {
	if class == Default {
		return func() {}, nil
	}

	return nil, ErrNotSupported
}

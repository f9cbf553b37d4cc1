// Package affinity pins a goroutine's OS thread to a specific CPU core,
// an optional capability the teacher has no equivalent of — grounded on
// golang.org/x/sys/unix (already an indirect dependency via pebble/grpc)
// since Linux CPU affinity has no stdlib surface.
package affinity

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// Pin locks the calling goroutine to its current OS thread and restricts
// that thread to core. It must be called from the goroutine that should
// run on core, typically the first line of a worker's Run method, and
// that goroutine must never call runtime.UnlockOSThread itself.
func Pin(core int) error {
	runtime.LockOSThread()

	var set unix.CPUSet
	set.Zero()
	set.Set(core)

	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("affinity: pin to core %d: %w", core, err)
	}
	return nil
}

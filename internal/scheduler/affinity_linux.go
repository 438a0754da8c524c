//go:build linux

package scheduler

import (
	"runtime"

	"golang.org/x/sys/unix"
)

// pinToCPU locks the calling goroutine to its OS thread and pins that
// thread to CPU core idx, best effort. A worker's core assignment
// barely matters for correctness, only for keeping its working set
// warm across chunks, so a failure here is silently ignored.
func pinToCPU(idx int) {
	runtime.LockOSThread()

	ncpu := runtime.NumCPU()
	if ncpu <= 0 {
		return
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(idx % ncpu)
	_ = unix.SchedSetaffinity(0, &set)
}

//go:build !linux

package scheduler

// pinToCPU is a no-op on platforms without a Linux-style affinity
// syscall; workers simply run wherever the Go runtime schedules them.
func pinToCPU(idx int) {}

//go:build linux

package core

import (
	"errors"

	"golang.org/x/sys/unix"
)

var errNoAllowedCPU = errors.New("no CPU in the allowed affinity set")

// pinCurrentThread binds the current OS thread to the workerID-th CPU of the
// allowed set, which need not be numbered from zero under taskset or a cpuset
// cgroup. It returns the chosen CPU, or -1 when none could be chosen.
func pinCurrentThread(workerID int) (int, error) {
	var allowed unix.CPUSet
	if err := unix.SchedGetaffinity(0, &allowed); err != nil {
		return -1, err
	}
	cpuID := nthAllowedCPU(&allowed, workerID)
	if cpuID < 0 {
		return -1, errNoAllowedCPU
	}

	var set unix.CPUSet
	set.Zero()
	set.Set(cpuID)
	return cpuID, unix.SchedSetaffinity(0, &set)
}

// nthAllowedCPU returns the CPU number of the (n mod count)-th set bit of
// allowed, or -1 if allowed is empty.
func nthAllowedCPU(allowed *unix.CPUSet, n int) int {
	count := allowed.Count()
	if count == 0 || n < 0 {
		return -1
	}
	n %= count
	maxCPU := len(allowed) * 64
	for cpu := 0; cpu < maxCPU; cpu++ {
		if !allowed.IsSet(cpu) {
			continue
		}
		if n == 0 {
			return cpu
		}
		n--
	}
	return -1
}

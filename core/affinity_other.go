//go:build !linux

package core

// pinCurrentThread is a no-op on platforms without sched_setaffinity.
func pinCurrentThread(workerID int) (int, error) {
	return -1, nil
}

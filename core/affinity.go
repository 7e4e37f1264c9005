package core

import "runtime"

// placeWorker locks the calling goroutine to its OS thread and, when pin is
// set, binds that thread to the workerID-th CPU (modulo the count) of the
// process's allowed CPU set. The returned func undoes the lock. A pinned
// thread is never handed back to the runtime: it exits together with the
// goroutine.
func placeWorker(workerID int, pin bool, logger Logger) func() {
	runtime.LockOSThread()
	if !pin {
		return runtime.UnlockOSThread
	}

	cpuID, err := pinCurrentThread(workerID)
	if err != nil {
		logger.Warn("worker cpu pinning failed",
			F("worker", workerID),
			F("cpu", cpuID),
			F("error", err),
		)
	}
	return func() {}
}

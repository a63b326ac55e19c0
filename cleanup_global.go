package flowcore

import (
	"sync"

	"github.com/kflow/flowcore/cleanup"
	"github.com/kflow/flowcore/flog"
)

// The cleanup thread is the one piece of global state the core carries
// (spec §9, "Global state"): a process-wide collaborator with standard
// init/teardown that connect/siphon/join defer their cascading
// closure/error propagation onto, breaking the recursive-lock cycles
// watcher callbacks would otherwise risk.
var (
	cleanupMu     sync.Mutex
	globalCleanup *cleanup.Queue
)

// InitCleanup explicitly starts the process-wide cleanup worker pool with
// the given number of workers. Calling it is optional — connectors lazily
// start a small default pool on first use — but production code should
// call it once at startup so pool size is a deliberate choice.
func InitCleanup(workers int) {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	if globalCleanup != nil {
		globalCleanup.Close()
	}
	globalCleanup = cleanup.New(workers, flog.Nop())
}

// ShutdownCleanup stops the process-wide cleanup pool, waiting for
// in-flight deferred work to finish.
func ShutdownCleanup() {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	if globalCleanup != nil {
		globalCleanup.Close()
		globalCleanup = nil
	}
}

func defaultCleanupQueue() *cleanup.Queue {
	cleanupMu.Lock()
	defer cleanupMu.Unlock()
	if globalCleanup == nil {
		globalCleanup = cleanup.New(4, flog.Nop())
	}
	return globalCleanup
}

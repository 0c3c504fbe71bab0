package tasks

import (
	"custody-processor/utility/locker"
	"custody-processor/utility/logger"
)

// RunExclusive ... Runs a scheduled job unless its previous run is still in
// progress, in which case this tick is skipped
func RunExclusive(locks *locker.Keyed, jobName string, job func()) {
	release, ok := locks.TryAcquire(jobName)
	if !ok {
		logger.Warning("Previous %s run still in progress, skipping this tick", jobName)
		return
	}
	defer release()
	job()
}

package upload

import (
	"sync"

	"ConsolidaFin/api/constants"
)

// JobStatus is the snapshot a polling client sees for one upload job.
type JobStatus struct {
	Progress      int    `json:"progress"`
	Status        string `json:"status"`
	Error         string `json:"error,omitempty"`
	ErrorSeverity string `json:"errorSeverity,omitempty"`
}

// JobStore is the progress registry consulted by the polling endpoint and
// written by the pipeline. The in-memory implementation below assumes a
// single process instance; a deployment spanning processes would swap in a
// shared store behind the same interface.
type JobStore interface {
	Get(jobID string) JobStatus
	Set(jobID string, progress int, status, errMsg, severity string)
}

type MemoryJobStore struct {
	mu   sync.RWMutex
	jobs map[string]JobStatus
}

func NewMemoryJobStore() *MemoryJobStore {
	return &MemoryJobStore{jobs: make(map[string]JobStatus)}
}

// Get returns the current snapshot. Unknown jobs read as still-starting:
// the poller never sees a 404.
func (s *MemoryJobStore) Get(jobID string) JobStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.jobs[jobID]; ok {
		return st
	}
	return JobStatus{Progress: 0, Status: constants.StatusProcessing}
}

func (s *MemoryJobStore) Set(jobID string, progress int, status, errMsg, severity string) {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[jobID] = JobStatus{
		Progress:      progress,
		Status:        status,
		Error:         errMsg,
		ErrorSeverity: severity,
	}
}

// markError resets progress to zero and records the failure for the poller.
func markError(jobs JobStore, jobID string, perr *PipelineError) {
	jobs.Set(jobID, 0, constants.StatusError, perr.Message, perr.Severity)
}

package pool

import "fmt"

// WorkerState describes where a worker is in its lifecycle. A worker moves
// Waiting -> Executing -> Waiting for every job and ends in Terminated; there
// is no re-entry from Terminated.
type WorkerState int32

const (
	StateWaiting WorkerState = iota
	StateExecuting
	StateTerminated
)

// MarshalJSON renders the state as its lowercase name so JSON consumers
// (the statusz endpoint) see "waiting" rather than 0.
func (s WorkerState) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// UnmarshalJSON accepts the names MarshalJSON produces.
func (s *WorkerState) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case `"waiting"`:
		*s = StateWaiting
	case `"executing"`:
		*s = StateExecuting
	case `"terminated"`:
		*s = StateTerminated
	default:
		return fmt.Errorf("unknown worker state %s", data)
	}
	return nil
}

func (s WorkerState) String() string {
	switch s {
	case StateWaiting:
		return "waiting"
	case StateExecuting:
		return "executing"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// WorkerStatus is the observable state of one worker.
type WorkerStatus struct {
	ID       int         `json:"id"`
	State    WorkerState `json:"state"`
	Executed int64       `json:"executed"`
}

// Stats is a point-in-time snapshot of pool activity. Counters are read
// atomically but independently, so a snapshot taken while jobs are in
// flight may be mid-transition (e.g. Submitted one ahead of Queued).
type Stats struct {
	Size        int            `json:"size"`
	LiveWorkers int            `json:"live_workers"`
	Submitted   int64          `json:"submitted"`
	Executed    int64          `json:"executed"`
	Rejected    int64          `json:"rejected"`
	Crashed     int64          `json:"crashed"`
	Queued      int            `json:"queued"`
	Workers     []WorkerStatus `json:"workers"`
}

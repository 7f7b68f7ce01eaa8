package domain

import "time"

// RunStatus is the lifecycle state of a traversal run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
)

// Run is the persisted record of one traversal
type Run struct {
	ID         string     `json:"id"`
	Graph      string     `json:"graph"`
	Source     string     `json:"source"`
	Seed       int64      `json:"seed"`
	NodeCount  int        `json:"node_count"`
	Emitted    int        `json:"emitted"`
	Status     RunStatus  `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

// Duration returns how long the run took, or zero while it is still running
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// GraphInfo summarizes a stored graph
type GraphInfo struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	NodeCount int       `json:"node_count"`
	EdgeCount int       `json:"edge_count"`
}

package model

import "time"

// ImportRun statuses.
const (
	ImportStatusRunning  = "running"
	ImportStatusComplete = "complete"
	ImportStatusFailed   = "failed"
)

// SyncResult summarizes one dataset sync.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Loaded   int `json:"loaded"`
	Rejected int `json:"rejected"`
}

// ImportRun is the persisted log entry for one dataset import.
type ImportRun struct {
	ID         string     `json:"id"`
	Dataset    string     `json:"dataset"`
	Status     string     `json:"status"`
	Result     SyncResult `json:"result"`
	Error      string     `json:"error,omitempty"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

package task

import (
	"fmt"
	"time"
)

type ResultState int32

const (
	_ ResultState = iota
	ResultStateSuccess
	ResultStateFailed
)

func (r ResultState) String() string {
	switch r {
	case ResultStateSuccess:
		return "SUCCESS"
	case ResultStateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("UNKNOWN TYPE %d", r)
	}
}

type Result struct {
	JobID      string      `json:"job_id"`
	Filename   string      `json:"filename"`
	State      ResultState `json:"state"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`
	SHA3       string      `json:"sha3,omitempty"`
	Output     []byte      `json:"-"`
	Warnings   []string    `json:"warnings"`
}

func (r Result) Success() bool {
	return r.State == ResultStateSuccess
}

// BatchResult keeps results in job submission order.
type BatchResult struct {
	Results    []Result `json:"results"`
	Archive    []byte   `json:"-"`
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
}

// AllWarnings flattens every result's warnings, each prefixed with its filename.
func (b BatchResult) AllWarnings() []string {
	var warnings []string
	for _, r := range b.Results {
		for _, w := range r.Warnings {
			warnings = append(warnings, fmt.Sprintf("%s: %s", r.Filename, w))
		}
	}

	return warnings
}

package models

import "time"

// NarrateRequest asks for the narrative of one plan document.
type NarrateRequest struct {
	// Name identifies the document in logs and batch reports.
	Name     string `json:"name,omitempty"`
	Document []byte `json:"-"`
	// Source labels metrics, e.g. "cli", "http", "batch".
	Source string `json:"source,omitempty"`
}

// NarrateResult is the outcome of a narration.
type NarrateResult struct {
	Name      string        `json:"name,omitempty"`
	Narrative string        `json:"narrative"`
	NodeCount int           `json:"node_count"`
	Cached    bool          `json:"cached"`
	Duration  time.Duration `json:"duration"`
}

// BatchFailure records a document the batch could not narrate.
type BatchFailure struct {
	Name  string `json:"name" yaml:"name"`
	Code  string `json:"code" yaml:"code"`
	Error string `json:"error" yaml:"error"`
}

// BatchReport summarizes a batch run.
type BatchReport struct {
	RunID     string         `json:"run_id" yaml:"run_id"`
	Total     int            `json:"total" yaml:"total"`
	Succeeded int            `json:"succeeded" yaml:"succeeded"`
	Outputs   []string       `json:"outputs" yaml:"outputs"`
	Failures  []BatchFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
	Duration  time.Duration  `json:"duration" yaml:"duration"`
}

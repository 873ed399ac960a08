package models

// ExplainResult is a plan fetched from a database backend.
type ExplainResult struct {
	Backend       string    `json:"backend"`
	Query         string    `json:"query"`
	Document      *Document `json:"-"`
	EstimatedRows int64     `json:"estimated_rows"`
	NodeCount     int       `json:"node_count"`
}

// ExplainNarration pairs a fetched plan with its narrative.
type ExplainNarration struct {
	Explain   *ExplainResult `json:"explain"`
	Narration *NarrateResult `json:"narration"`
}

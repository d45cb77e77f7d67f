package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	RecordsReceived int      `json:"records_received"`
	RecordsInserted int64    `json:"records_inserted"`
	RecordsSkipped  int64    `json:"records_skipped"`
	RecordsRejected int      `json:"records_rejected"`
	RejectedNames   []string `json:"rejected_names,omitempty"`

	OutcomesReceived int   `json:"outcomes_received,omitempty"`
	OutcomesInserted int64 `json:"outcomes_inserted,omitempty"`
	OutcomesSkipped  int   `json:"outcomes_skipped,omitempty"`
	Deloads          int   `json:"deloads,omitempty"`

	Message string `json:"message,omitempty"`
}

package model

// Result statuses. Exactly one ProcessingResult is produced per work item.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// ProcessingResult records the terminal outcome for one work item: the
// produced output paths on success, a human-readable cause on failure, and
// any non-fatal diagnostics collected along the way.
type ProcessingResult struct {
	ItemID      string   `json:"item_id"`
	Source      string   `json:"source"`
	Status      string   `json:"status"`
	Outputs     []string `json:"outputs,omitempty"`
	Error       string   `json:"error,omitempty"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

func (r ProcessingResult) Succeeded() bool {
	return r.Status == ResultSuccess
}

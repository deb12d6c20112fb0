package domain

// OutcomeStatus is the terminal status of one execution attempt as reported to
// callers.
type OutcomeStatus string

// Outcome status values
const (
	OutcomeSuccess OutcomeStatus = "success"
	OutcomeError   OutcomeStatus = "error"
)

// Outcome is the terminal result of one execution attempt.
type Outcome struct {
	Status      OutcomeStatus `json:"status"`
	DocumentURL string        `json:"document_url,omitempty"`
	Detail      string        `json:"detail,omitempty"`
}

// Succeeded reports whether the attempt produced a document.
func (o Outcome) Succeeded() bool {
	return o.Status == OutcomeSuccess
}

// LogStatus maps the outcome onto the terminal log status.
func (o Outcome) LogStatus() LogStatus {
	if o.Succeeded() {
		return LogStatusCompleted
	}
	return LogStatusFailed
}

// Result is the TTL-bounded record written to the task store after an attempt.
type Result struct {
	Status      OutcomeStatus `json:"status"`
	DocType     DocType       `json:"doc_type"`
	DocumentURL string        `json:"url,omitempty"`
	Error       string        `json:"error,omitempty"`
}

// NewResult builds the cached result for an attempt.
func NewResult(docType DocType, o Outcome) Result {
	return Result{
		Status:      o.Status,
		DocType:     docType,
		DocumentURL: o.DocumentURL,
		Error:       o.Detail,
	}
}

package constants

// StepStatus is the outcome recorded for a workflow step.
type StepStatus string

// Stable values (stored as-is by the session stores).
const (
	StepStatusPending StepStatus = "PENDING" // not run yet in this session
	StepStatusOK      StepStatus = "OK"      // table produced and stored
	StepStatusFailed  StepStatus = "FAILED"  // last attempt failed, previous table untouched
)

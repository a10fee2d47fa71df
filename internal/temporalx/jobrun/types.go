package jobrun

const (
	// WorkflowName is the generic job workflow. Each registered job type is also
	// registered as a workflow name so a run can be started by its job type.
	WorkflowName = "job_run"
	ActivityTick = "job_run_tick"
)

type TickResult struct {
	JobID    string `json:"job_id"`
	JobType  string `json:"job_type,omitempty"`
	Status   string `json:"status"`
	Stage    string `json:"stage,omitempty"`
	Progress int    `json:"progress,omitempty"`
	Message  string `json:"message,omitempty"`
	Attempts int    `json:"attempts,omitempty"`
	// Retryable is set on a failed run that has attempts left.
	Retryable bool `json:"retryable,omitempty"`
}

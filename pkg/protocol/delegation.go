package protocol

// DelegationRequest asks the dispatcher to run one subagent to completion.
type DelegationRequest struct {
	SubagentType string `json:"subagent_type"`
	Prompt       string `json:"prompt"`
	Description  string `json:"description,omitempty"`
}

// DelegationMetadata identifies the delegated work in a result.
type DelegationMetadata struct {
	SubagentType    string `json:"subagent_type"`
	TaskDescription string `json:"task_description"`
}

// DelegationResult is the packaged report the orchestrator consumes.
// Output is a single human-readable string; callers never see raw tool-call
// objects or model message arrays.
type DelegationResult struct {
	Title    string             `json:"title"`
	Metadata DelegationMetadata `json:"metadata"`
	Output   string             `json:"output"`
}

// ToolInvocation records one tool call made during a delegation, paired to
// its result by the provider-supplied call ID.
type ToolInvocation struct {
	CallID string `json:"call_id"`
	Name   string `json:"name"`
	Result string `json:"result"`
	Failed bool   `json:"failed,omitempty"`
}

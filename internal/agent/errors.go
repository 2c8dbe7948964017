package agent

import "fmt"

// InvalidAgentError reports a delegation request naming an agent that does
// not exist or is not usable as a subagent. Fatal, never retried.
type InvalidAgentError struct {
	Name string
}

func (e *InvalidAgentError) Error() string {
	return fmt.Sprintf("agent %q does not exist or cannot run as a subagent", e.Name)
}

// ToolRegistryError reports that the tool set for a request context could
// not be constructed. Distinct from a deliberate zero-tool grant.
type ToolRegistryError struct {
	Err error
}

func (e *ToolRegistryError) Error() string { return fmt.Sprintf("tool registry: %v", e.Err) }
func (e *ToolRegistryError) Unwrap() error { return e.Err }

// CompletionServiceError reports that the completion service failed after
// its bounded retries, or that the tool loop never settled. No partial
// result is trustworthy, so the whole delegation fails.
type CompletionServiceError struct {
	Attempts int
	Err      error
}

func (e *CompletionServiceError) Error() string {
	return fmt.Sprintf("completion service failed after %d attempts: %v", e.Attempts, e.Err)
}
func (e *CompletionServiceError) Unwrap() error { return e.Err }

// ConflictError reports an attempt to overwrite a built-in agent definition.
type ConflictError struct {
	Name string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("agent %q is built-in and cannot be overwritten", e.Name)
}

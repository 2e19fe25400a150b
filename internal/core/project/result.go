package project

// =============================================================================
// Deployment Result
// =============================================================================

// Result is the structured outcome every deployment operation returns.
// Internal errors never escape an operation boundary; they are normalized
// into a failed Result with a human-readable message.
type Result struct {
	Status  string `json:"status"` // "success" or "failed"
	Message string `json:"message,omitempty"`

	// ContainerID is set on single-container paths.
	ContainerID string `json:"container_id,omitempty"`

	// DeployedServices lists the compose services that started, in deploy
	// order. A partial stack reports what succeeded, not all-or-nothing.
	DeployedServices []string `json:"deployed_services,omitempty"`

	// Logs carries the accumulated build or orchestration log so callers
	// can show diagnostics without re-deriving them.
	Logs []string `json:"logs,omitempty"`

	// ConnectionInfo carries credentials for managed service deployments.
	ConnectionInfo map[string]any `json:"connection_info,omitempty"`
}

// Succeeded reports whether the operation completed.
func (r Result) Succeeded() bool {
	return r.Status == "success"
}

// Success builds a successful Result with the given message.
func Success(message string) Result {
	return Result{Status: "success", Message: message}
}

// Failure builds a failed Result with the given message.
func Failure(message string) Result {
	return Result{Status: "failed", Message: message}
}

package gen

import "fmt"

// CyclicDependencyError is returned when a data input resolves, directly or
// through other producers, back to a node whose rule is still running.
type CyclicDependencyError struct {
	NodeID string
	PortID string
}

func (e *CyclicDependencyError) Error() string {
	if e.PortID == "" {
		return fmt.Sprintf("cyclic data dependency at node %q", e.NodeID)
	}
	return fmt.Sprintf("cyclic data dependency at node %q (port %q)", e.NodeID, e.PortID)
}

// Severity of a compile diagnostic
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Diagnostic is a non-fatal finding reported alongside the generated script.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	Root     string   `json:"root,omitempty"`
	NodeID   string   `json:"nodeId,omitempty"`
	Message  string   `json:"message"`
}

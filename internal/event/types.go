package event

// Priority orders the handlers of one emitter; lower runs first and equal
// priorities run in registration order.
type Priority int

const (
	PriorityCritical Priority = 0
	// PriorityHigh handlers see an event before extensions do. The
	// autoprefixer save hook uses it so later will-save handlers observe
	// the prefixed text.
	PriorityHigh   Priority = 100
	PriorityNormal Priority = 200
	PriorityLow    Priority = 300
)

func (p Priority) String() string {
	switch {
	case p <= PriorityCritical:
		return "critical"
	case p <= PriorityHigh:
		return "high"
	case p <= PriorityNormal:
		return "normal"
	}
	return "low"
}

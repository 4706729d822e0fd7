package types

// Priority classifies how urgently an artifact should be handled.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ParsePriority maps a raw header value to a Priority.
// Unknown values are treated as normal.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityHigh, PriorityNormal, PriorityLow:
		return Priority(s)
	default:
		return PriorityNormal
	}
}

// Rank returns the sort rank of a priority (high sorts first).
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Zone is the operational role of a running process.
// Cloud drafts plans; Local approves and executes them.
type Zone string

const (
	ZoneCloud Zone = "cloud"
	ZoneLocal Zone = "local"
)

// ParseZone maps a configuration value to a Zone, defaulting to local.
func ParseZone(s string) Zone {
	if Zone(s) == ZoneCloud {
		return ZoneCloud
	}
	return ZoneLocal
}

// Artifact types written by watchers and sinks.
const (
	TypeEmail      = "email"
	TypeFile       = "file"
	TypeSocialPost = "social_post"
)

// Plan lifecycle states carried in the status header field.
const (
	StatusPendingApproval = "pending_approval"
	StatusApproved        = "approved"
	StatusRejected        = "rejected"
)

// Plan actions dispatched by the orchestrator.
const (
	ActionReply      = "reply"
	ActionSocialPost = "social_post"
)

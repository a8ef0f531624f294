// Package model provides capability-based model selection for apply runs.
// Instead of hardcoding model names, callers specify capabilities ("decision",
// "fast") and the registry resolves them to available models with fallback chains.
package model

// Capability represents a semantic capability for model selection.
type Capability string

const (
	// CapabilityDecision is for per-field fill-or-ask decisions during a run.
	// Needs reliable structured output more than raw intelligence.
	CapabilityDecision Capability = "decision"

	// CapabilityFast is for quick responses, simple tasks.
	CapabilityFast Capability = "fast"
)

// IsValid checks if a capability string is a known capability.
func (c Capability) IsValid() bool {
	switch c {
	case CapabilityDecision, CapabilityFast:
		return true
	}
	return false
}

// String returns the string representation of the capability.
func (c Capability) String() string {
	return string(c)
}

// ParseCapability converts a string to a Capability, returning empty for invalid values.
func ParseCapability(s string) Capability {
	cap := Capability(s)
	if cap.IsValid() {
		return cap
	}
	return ""
}

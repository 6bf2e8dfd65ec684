package entitlement

// Action is the closed set of outcomes an event can map to.
type Action string

const (
	// ActionSetPro grants the pro entitlement
	ActionSetPro Action = "set_pro"

	// ActionSetFree revokes the pro entitlement
	ActionSetFree Action = "set_free"

	// ActionNoChange leaves the stored entitlement untouched
	ActionNoChange Action = "no_change"

	// ActionReject marks the event as unprocessable (unrecognized type)
	ActionReject Action = "reject"
)

// Decision is the output of mapping a billing event onto the entitlement
// model. Reason is for logs and audit only, never control flow.
type Decision struct {
	Action Action
	Reason string
}

// DesiredPro returns the boolean the store should hold after this decision.
// Only meaningful for ActionSetPro and ActionSetFree.
func (d Decision) DesiredPro() bool {
	return d.Action == ActionSetPro
}

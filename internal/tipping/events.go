package tipping

// State is the phase of a tip attempt. Recorded, Cancelled, and Failed are
// terminal.
type State int

const (
	StateIdle State = iota
	StateEstimating
	StateSigning
	StateSubmitting
	StateRecorded
	StateCancelled
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateEstimating:
		return "estimating"
	case StateSigning:
		return "signing"
	case StateSubmitting:
		return "submitting"
	case StateRecorded:
		return "recorded"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Event is one lifecycle transition of a tip attempt, delivered in order to
// the attempt's observer.
type Event struct {
	State State
	Hash  string
	Err   error
}

// Notification variants understood by the presentation layer.
const (
	VariantSuccess = "success"
	VariantWarning = "warning"
	VariantError   = "error"
)

// Notification is a plain toast payload.
type Notification struct {
	Variant string
	Message string
}

// ConfirmPrompt asks the presentation layer for a confirmation dialog.
type ConfirmPrompt struct {
	Title       string
	Description string
}

// Notifier receives user-facing payloads. Rendering is out of scope; the
// presentation layer decides how to show them.
type Notifier interface {
	Notify(Notification)
	Confirm(ConfirmPrompt)
}

type noopNotifier struct{}

func (noopNotifier) Notify(Notification)   {}
func (noopNotifier) Confirm(ConfirmPrompt) {}

package events

const (
	// KindResponseClarification identifies a terminal clarifying reply with
	// no action attached.
	KindResponseClarification Kind = "response.clarification"
	// KindResponseConfirmationRequired identifies a terminal reply carrying
	// a pending mutation awaiting explicit approval.
	KindResponseConfirmationRequired Kind = "response.confirmation_required"
	// KindResponseExecuted identifies a terminal reply for an executed
	// read or confirmed mutation.
	KindResponseExecuted Kind = "response.executed"
)

// ResponseClarification asks the user something before any action is
// taken.
type ResponseClarification struct {
	Base
	Message string
}

func NewResponseClarification(message string) ResponseClarification {
	return ResponseClarification{Base: NewBase(KindResponseClarification), Message: message}
}

// ResponseConfirmationRequired carries the human-readable confirmation
// sentence for a pending mutation. The full preview travels on the result
// payload, not the event.
type ResponseConfirmationRequired struct {
	Base
	Action  string
	Message string
}

func NewResponseConfirmationRequired(action, message string) ResponseConfirmationRequired {
	return ResponseConfirmationRequired{Base: NewBase(KindResponseConfirmationRequired), Action: action, Message: message}
}

// ResponseExecuted marks a completed read or mutation.
type ResponseExecuted struct {
	Base
	Action  string
	Message string
}

func NewResponseExecuted(action, message string) ResponseExecuted {
	return ResponseExecuted{Base: NewBase(KindResponseExecuted), Action: action, Message: message}
}

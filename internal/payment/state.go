package payment

import "github.com/dropkickfish/barq-client/internal/enum"

// State is the payment attempt state shown on the pay button.
type State int

const (
	StateLoading State = iota
	StateReady
	StateSubmitting
	StateSucceeded
	StateFailed
)

// Clickable reports whether the submit button accepts a press.
func (s State) Clickable() bool {
	switch s {
	case StateReady, StateFailed, StateSucceeded:
		return true
	}
	return false
}

// Title is the pay button label for the state.
func (s State) Title() string {
	switch s {
	case StateLoading:
		return "Loading"
	case StateReady:
		return "Submit"
	case StateSubmitting:
		return "Paying..."
	case StateSucceeded:
		return "Track order!"
	case StateFailed:
		return "Try Again"
	}
	return ""
}

func (s State) String() string {
	switch s {
	case StateLoading:
		return enum.PaymentAttemptLoading
	case StateReady:
		return enum.PaymentAttemptReady
	case StateSubmitting:
		return enum.PaymentAttemptSubmitting
	case StateSucceeded:
		return enum.PaymentAttemptSucceeded
	case StateFailed:
		return enum.PaymentAttemptFailed
	}
	return "UNKNOWN"
}

// Field identifies one card input widget.
type Field string

const (
	FieldNumber Field = "number"
	FieldExpiry Field = "expiry"
	FieldCVC    Field = "cvc"
	FieldPostal Field = "postal"
)

// DefaultFields is the widget set rendered on the pay page.
var DefaultFields = []Field{FieldNumber, FieldExpiry, FieldCVC, FieldPostal}

// readiness is a counted set of fields that reported ready.
type readiness struct {
	required map[Field]struct{}
	seen     map[Field]struct{}
}

func newReadiness(fields []Field) readiness {
	r := readiness{
		required: make(map[Field]struct{}, len(fields)),
		seen:     make(map[Field]struct{}, len(fields)),
	}
	for _, f := range fields {
		r.required[f] = struct{}{}
	}
	return r
}

// mark records f; unknown fields are ignored. It returns true once every
// required field has reported.
func (r *readiness) mark(f Field) bool {
	if _, ok := r.required[f]; ok {
		r.seen[f] = struct{}{}
	}
	return r.complete()
}

func (r *readiness) complete() bool {
	return len(r.seen) == len(r.required)
}

func (r *readiness) reset() {
	r.seen = make(map[Field]struct{}, len(r.required))
}

// known reports whether f is one of the required fields.
func (r *readiness) known(f Field) bool {
	_, ok := r.required[f]
	return ok
}

package enum

// ── Group A: Client state machines ──

// Page is the screen the navigator currently shows. Exactly one is active.
type Page string

const (
	PageMenu     Page = "MENU"
	PageCheckout Page = "CHECKOUT"
	PagePay      Page = "PAY"
	PageQueue    Page = "QUEUE"
	PageClosed   Page = "CLOSED"
)

const (
	PaymentAttemptLoading    = "LOADING"
	PaymentAttemptReady      = "READY"
	PaymentAttemptSubmitting = "SUBMITTING"
	PaymentAttemptSucceeded  = "SUCCEEDED"
	PaymentAttemptFailed     = "FAILED"
)

// ── Group B: Backend wire values ──

// PaymentStatusPaid is the only /pay response status that confirms an order.
const PaymentStatusPaid = "paid"

// Order statuses. The backend may send others; they are carried through as-is.
const (
	OrderStatusNone = ""
	OrderStatusPaid = "PAID"
)

const CurrencyEUR = "eur"

// ── Group C: Event types pushed to screens and received from the venue ──

const (
	EventPageChanged = "page.changed"
	EventOrderStatus = "order.status"
)

// ── Group D: Device roles ──

const (
	DeviceRoleScreen   = "SCREEN"
	DeviceRoleOperator = "OPERATOR"
)

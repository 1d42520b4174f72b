package email

// Kind selects the template a queued message is rendered with.
type Kind string

const (
	KindVerification       Kind = "verification"
	KindVerificationResend Kind = "verification_resend"
	KindPasswordReset      Kind = "password_reset"
)

// Message is the unit of work in the outbox. It carries the semantic fields
// rather than a rendered body so retries re-render with current templates.
type Message struct {
	Kind      Kind   `json:"kind"`
	To        string `json:"to"`
	FirstName string `json:"firstName"`
	Token     string `json:"token"`
	Attempts  int    `json:"attempts"`
}

package mail

import (
	"context"
	"io"
)

// Message is a provider-agnostic email.
type Message struct {
	// From overrides the configured sender when set.
	From string
	// To lists required recipients.
	To []string
	// Cc lists carbon copy recipients.
	Cc []string
	// Bcc lists blind carbon copy recipients.
	Bcc []string
	// Subject is the email subject line.
	Subject string
	// TextBody is the plain-text alternative.
	TextBody string
	// HTMLBody is the HTML alternative.
	HTMLBody string
}

// Mail abstracts an email provider.
type Mail interface {
	io.Closer
	// Send dispatches msg. Implementations honor ctx cancellation and deadline.
	Send(ctx context.Context, msg Message) error
}

package entity

// Kind names an email template pair (subject, text and html).
type Kind int

const (
	KindUnknown Kind = iota
	KindOTP
	KindPasswordReset
)

func (k Kind) String() string {
	switch k {
	case KindOTP:
		return "otp"
	case KindPasswordReset:
		return "password_reset"
	default:
		return "unknown"
	}
}

// Email is a rendered message ready for the mail provider.
type Email struct {
	Kind    Kind
	To      string
	Subject string
	Text    string
	HTML    string
}

package event

const OTPIssuedDestination string = "otp.issued"
const OTPIssuedConsumerNotification string = "otp_issued_notification"

// OTPIssuedMessage never carries the plaintext code; SealedCode is opened
// with OTPCodeAAD of the same recipient.
type OTPIssuedMessage struct {
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	SealedCode []byte `json:"sealed_code"`
	ExpiresAt  int64  `json:"expires_at"`
}

// OTPCodeAAD binds a sealed code to its recipient.
func OTPCodeAAD(email string) []byte {
	return []byte(OTPIssuedDestination + ":" + email)
}

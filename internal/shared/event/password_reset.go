package event

const PasswordResetDestination string = "account.password_reset"
const PasswordResetConsumerNotification string = "password_reset_notification"

// PasswordResetMessage carries the reset link sealed for the recipient. The
// link embeds a live token, so it never crosses the broker in clear text.
type PasswordResetMessage struct {
	UserID     int64  `json:"user_id,string"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	SealedLink []byte `json:"sealed_link"`
}

// ResetLinkAAD binds a sealed reset link to its recipient.
func ResetLinkAAD(email string) []byte {
	return []byte(PasswordResetDestination + ":" + email)
}

package inbound

type SendRequest struct {
	Email string `json:"email"`
}

type SendResponse struct {
	ID        string `json:"id"`
	ExpiresAt int64  `json:"expires_at"`
}

func (SendResponse) Message() string {
	return "OTP sent successfully"
}

type VerifyRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResponse struct {
	Verified bool `json:"verified"`
}

func (VerifyResponse) Message() string {
	return "OTP verified successfully"
}

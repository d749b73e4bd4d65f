package entity

import "time"

const (
	EndpointSend   = "/api/otp/send"
	EndpointVerify = "/api/otp/verify"
)

type UsageStatus string

const (
	UsageStatusSuccess UsageStatus = "success"
	UsageStatusFailed  UsageStatus = "failed"
)

func (s UsageStatus) String() string {
	return string(s)
}

type UsageLog struct {
	ID             int64
	UserID         int64
	Endpoint       string
	Status         UsageStatus
	ResponseTimeMS float64
	Timestamp      time.Time
}

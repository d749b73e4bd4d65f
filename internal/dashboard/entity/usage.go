package entity

import "time"

// ChartDays is the width of the activity chart, today included.
const ChartDays = 7

// Summary aggregates one user's usage logs.
type Summary struct {
	Total         int64
	Success       int64
	AvgResponseMS float64
}

// DayCount is the number of logs on a UTC calendar day.
type DayCount struct {
	Day   time.Time
	Count int64
}

type LogEntry struct {
	ID             int64
	Endpoint       string
	Status         string
	ResponseTimeMS float64
	Timestamp      time.Time
	UserEmail      string
}

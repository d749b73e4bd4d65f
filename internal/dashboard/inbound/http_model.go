package inbound

type ChartPoint struct {
	Name  string `json:"name"`
	Value int64  `json:"value"`
}

type StatsResponse struct {
	TotalRequests int64        `json:"total_requests"`
	SuccessRate   string       `json:"success_rate"`
	AvgResponse   string       `json:"avg_response"`
	ActiveUsers   int64        `json:"active_users"`
	ChartData     []ChartPoint `json:"chart_data"`
}

type LogResponse struct {
	ID             int64   `json:"id,string"`
	Endpoint       string  `json:"endpoint"`
	Status         string  `json:"status"`
	ResponseTimeMS float64 `json:"response_time_ms"`
	Timestamp      int64   `json:"timestamp"`
	Email          string  `json:"email"`
}

type LogsResponse []LogResponse

func (r LogsResponse) Meta() map[string]any {
	return map[string]any{"count": len(r)}
}

type ExportResponse struct {
	URL       string `json:"url"`
	ExpiresAt int64  `json:"expires_at"`
	Rows      int    `json:"rows"`
}

func (ExportResponse) Message() string {
	return "Export is ready"
}

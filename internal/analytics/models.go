package analytics

// CallMetrics are the headline counters for a date range.
type CallMetrics struct {
	TotalCalls     int     `json:"total_calls"`
	InboundCalls   int     `json:"inbound_calls"`
	OutboundCalls  int     `json:"outbound_calls"`
	CompletedCalls int     `json:"completed_calls"`
	FailedCalls    int     `json:"failed_calls"`
	AvgDuration    float64 `json:"average_duration"`
}

// IntentSummary is one row of the intent distribution, sorted by count
// descending in CallAnalytics.
type IntentSummary struct {
	Intent     string  `json:"intent"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// CallAnalytics is the full analytics payload for a date range.
type CallAnalytics struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`

	Metrics CallMetrics     `json:"metrics"`
	Intents []IntentSummary `json:"intents"`

	CallVolumeByDay      map[string]int     `json:"call_volume_by_day"`
	CallDurationByIntent map[string]float64 `json:"call_duration_by_intent"`
}

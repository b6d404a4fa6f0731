package types

// AvailabilityResponse is the cached backend health verdict.
type AvailabilityResponse struct {
	// Backend kind.
	// example: openrouter
	Backend string `json:"backend" example:"openrouter"`
	// Configured model.
	// example: anthropic/claude-3.5-haiku
	Model string `json:"model" example:"anthropic/claude-3.5-haiku"`
	// False until the first probe.
	Checked   bool `json:"checked"`
	Available bool `json:"available"`
	// Why the backend is unavailable.
	// example: quota exceeded
	Reason string `json:"reason,omitempty" example:"quota exceeded"`
	// Time of the last probe in unix milliseconds (0 when unchecked).
	// example: 1700000000000
	CheckedAtUnixMs int64 `json:"checked_at_unix_ms" example:"1700000000000"`
	// example: 60000
	TTLMs int64 `json:"ttl_ms" example:"60000"`
}

// LoadResponse is the scheduler occupancy.
type LoadResponse struct {
	// example: 3
	Pending int `json:"pending" example:"3"`
	// Items waiting out a retry backoff.
	// example: 1
	Retrying int `json:"retrying" example:"1"`
	// example: 4
	InFlight int `json:"in_flight" example:"4"`
	// example: 4
	ConcurrencyLimit int `json:"concurrency_limit" example:"4"`
}

// StatsResponse is returned by GET /stats.
type StatsResponse struct {
	// example: 120
	TotalCompleted uint64 `json:"total_completed" example:"120"`
	// example: 117
	TotalSucceeded uint64 `json:"total_succeeded" example:"117"`
	// example: 3
	TotalFailed uint64 `json:"total_failed" example:"3"`
	// example: 9
	TotalRetries uint64 `json:"total_retries" example:"9"`
	// Exponential moving average of admission-to-outcome latency.
	// example: 1432.5
	AverageLatencyMs float64 `json:"average_latency_ms" example:"1432.5"`
	// example: 0.025
	FailureRate float64 `json:"failure_rate" example:"0.025"`
}

package types

// PolicyOptions carries the per-request scheduling policy. Zero fields fall
// back to the server defaults.
type PolicyOptions struct {
	// Dispatch priority; higher runs first. Any integer is valid.
	// example: 10
	Priority *int `json:"priority,omitempty" example:"10"`
	// Per-attempt timeout in milliseconds.
	// example: 30000
	TimeoutMs int `json:"timeout_ms,omitempty" example:"30000"`
	// Total attempts allowed, first try included.
	// example: 3
	MaxAttempts int `json:"max_attempts,omitempty" example:"3"`
}

// NarrativeRequest is the payload of POST /narrate and POST /closing.
type NarrativeRequest struct {
	// Current scene description.
	// example: The library, just after midnight. The fire has burned low.
	Scene string `json:"scene" example:"The library, just after midnight. The fire has burned low."`
	// Players present in the scene.
	// example: ["Colonel Mustard","Miss Scarlet"]
	Players []string `json:"players,omitempty" example:"[\"Colonel Mustard\",\"Miss Scarlet\"]"`
	// Clues discovered so far.
	// example: ["a torn letter","muddy boots"]
	Clues []string `json:"clues,omitempty" example:"[\"a torn letter\",\"muddy boots\"]"`
	// Recent game events, oldest first.
	Events []string `json:"events,omitempty"`
	// Extra guidance for this beat.
	// example: Introduce the butler.
	Instructions string `json:"instructions,omitempty" example:"Introduce the butler."`
	// Generation cap in tokens; 0 uses the backend default.
	// example: 256
	MaxTokens int `json:"max_tokens,omitempty" example:"256"`
	PolicyOptions
}

// SummarizeRequest is the payload of POST /summarize. Exactly one of Text
// or Texts must be set.
type SummarizeRequest struct {
	// A single transcript to condense.
	Text string `json:"text,omitempty"`
	// Several transcripts condensed concurrently; results keep input order.
	Texts []string `json:"texts,omitempty"`
	PolicyOptions
}

// GenerationResponse is returned by POST /narrate and POST /closing.
type GenerationResponse struct {
	// Generated text.
	Text string `json:"text"`
	// Model that produced the text.
	// example: llama3.1:8b
	Model string `json:"model" example:"llama3.1:8b"`
	// Backend kind.
	// example: ollama
	Backend string `json:"backend" example:"ollama"`
	// Generated tokens as reported by the backend (0 when unknown).
	// example: 87
	TokenCount int `json:"token_count" example:"87"`
	// Wall-clock time from admission to result, including retries.
	// example: 1240
	ElapsedMs int64 `json:"elapsed_ms" example:"1240"`
}

// SummarizeResponse is returned by POST /summarize.
type SummarizeResponse struct {
	Summary   string   `json:"summary,omitempty"`
	Summaries []string `json:"summaries,omitempty"`
	// example: 800
	ElapsedMs int64 `json:"elapsed_ms" example:"800"`
}

// DrainResponse is returned by POST /drain.
type DrainResponse struct {
	// Number of queued items rejected.
	// example: 4
	Rejected int `json:"rejected" example:"4"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: backend ollama/llama3 unavailable: model "llama3" not pulled
	Error string `json:"error" example:"backend ollama/llama3 unavailable: model \"llama3\" not pulled"`
	// HTTP status code.
	// example: 503
	Code int `json:"code" example:"503"`
	// Failure class when the error came from a backend attempt: transient, permanent, timeout.
	// example: transient
	Class string `json:"class,omitempty" example:"transient"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Overall state: ready, unavailable, unchecked or closed.
	// example: ready
	State        string               `json:"state" example:"ready"`
	Availability AvailabilityResponse `json:"availability"`
	Load         LoadResponse         `json:"load"`
	Stats        StatsResponse        `json:"stats"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}

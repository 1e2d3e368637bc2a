package types

type SuccessEnvelope struct {
	Data    any      `json:"data"`
	Notices []Notice `json:"notices,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Notices []Notice `json:"notices,omitempty"`
}

// Notice is a transient user-facing message attached to a response.
type Notice struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	DurationMS  int64  `json:"durationMs,omitempty"`
	Severity    string `json:"severity"`
}

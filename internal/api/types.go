package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// SubmitRequest is the body of POST /api/submit.
type SubmitRequest struct {
	URL string `json:"url"`
}

// SubmitResponse carries a finished (or cached) fact-check.
type SubmitResponse struct {
	Transcript string `json:"transcript"`
	Analysis   string `json:"analysis"`
	ShortCode  string `json:"short_code"`
	ShareURL   string `json:"share_url,omitempty"`
	Cached     bool   `json:"cached"`
}

// StatusResponse is the poll view of the caller's current job.
type StatusResponse struct {
	Stage    string `json:"stage"`
	Progress int    `json:"progress"`
	Message  string `json:"message"`
}

// TokenResponse hands the anti-forgery token to a client.
type TokenResponse struct {
	Token string `json:"token"`
}

// Result describes a cached result in a transport-friendly format.
type Result struct {
	ShortCode  string `json:"short_code"`
	SourceURL  string `json:"source_url"`
	Transcript string `json:"transcript,omitempty"`
	Analysis   string `json:"analysis,omitempty"`
	ShareURL   string `json:"share_url,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ResultResponse wraps a single result.
type ResultResponse struct {
	Result Result `json:"result"`
}

// ResultListResponse wraps a collection of results, newest first.
type ResultListResponse struct {
	Results []Result `json:"results"`
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
	Hint   string `json:"hint,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// HealthResponse aggregates server runtime information.
type HealthResponse struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	CacheDriver  string             `json:"cache_driver"`
	LockFilePath string             `json:"lock_file_path"`
	Dependencies []DependencyStatus `json:"dependencies"`
}

package cache

import "time"

// Result is one cached pipeline outcome. Rows are insert-only.
type Result struct {
	ID          int64     `json:"id"`
	SourceURL   string    `json:"source_url"`
	Fingerprint string    `json:"url_fingerprint"`
	ShortCode   string    `json:"short_code"`
	Transcript  string    `json:"transcript"`
	Analysis    string    `json:"analysis"`
	CreatedAt   time.Time `json:"created_at"`
}

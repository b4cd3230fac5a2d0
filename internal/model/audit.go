package model

import "time"

type AuditEntry struct {
	ID          string    `json:"id"`
	OccurredAt  time.Time `json:"occurred_at"`
	UserID      string    `json:"user_id,omitempty"`
	Username    string    `json:"username,omitempty"`
	HTTPMethod  string    `json:"http_method"`
	RequestURI  string    `json:"request_uri"`
	QueryString string    `json:"query_string,omitempty"`
	Action      string    `json:"action,omitempty"`
	StatusCode  int       `json:"status_code"`
	IPAddress   string    `json:"ip_address,omitempty"`
	UserAgent   string    `json:"user_agent,omitempty"`
	ErrorCode   int       `json:"error_code,omitempty"`
	DurationMS  int64     `json:"duration_ms"`
	Success     bool      `json:"is_success"`
}

type AuditQuery struct {
	UserID     string
	Action     string
	StatusCode int
	From       string
	To         string
	Page       int
	Limit      int
}

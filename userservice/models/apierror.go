package models

import "time"

// APIError is the error body returned by every failing endpoint.
type APIError struct {
	Path      string    `json:"path"`
	Message   string    `json:"message"`
	Status    int       `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// internal/models/query.go
package models

// Query is a ranking request as received from a calling surface.
type Query struct {
	RawText  string   `json:"query"`
	Language Language `json:"language,omitempty"`
	Category string   `json:"category,omitempty"`
	Limit    int      `json:"limit,omitempty"`
	Offset   int      `json:"offset,omitempty"`
}

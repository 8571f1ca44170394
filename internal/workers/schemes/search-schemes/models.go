// internal/workers/schemes/search-schemes/models.go
package searchschemes

import "scheme-workers/internal/models"

type Input struct {
	Query    string              `json:"query"`
	Language string              `json:"language,omitempty"`
	Category string              `json:"category,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
	Offset   int                 `json:"offset,omitempty"`
	UserID   string              `json:"userId,omitempty"`
	Profile  *models.UserProfile `json:"profile,omitempty"`
}

type Output struct {
	Results          []models.ScoredResult `json:"results"`
	Suggestions      []string              `json:"suggestions"`
	TotalCandidates  int                   `json:"totalCandidates"`
	DetectedCategory string                `json:"detectedCategory,omitempty"`
	Degraded         bool                  `json:"degraded"`
	DegradedReason   string                `json:"degradedReason,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "query":    {"type": "string", "maxLength": 500},
    "language": {"type": "string", "enum": ["default", "localized", ""]},
    "category": {"type": "string"},
    "limit":    {"type": "integer", "minimum": 0, "maximum": 100},
    "offset":   {"type": "integer", "minimum": 0},
    "userId":   {"type": "string"},
    "profile":  {"type": ["object", "null"]}
  },
  "anyOf": [
    {"required": ["query"]},
    {"required": ["category"]},
    {"required": ["profile"]},
    {"required": ["userId"]}
  ]
}`

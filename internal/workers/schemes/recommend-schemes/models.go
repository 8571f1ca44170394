// internal/workers/schemes/recommend-schemes/models.go
package recommendschemes

import "scheme-workers/internal/models"

type Input struct {
	UserID   string              `json:"userId,omitempty"`
	Profile  *models.UserProfile `json:"profile,omitempty"`
	Category string              `json:"category,omitempty"`
	Language string              `json:"language,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
	Offset   int                 `json:"offset,omitempty"`
}

type Output struct {
	Recommendations []models.ScoredResult `json:"recommendations"`
	TotalCandidates int                   `json:"totalCandidates"`
	Personalized    bool                  `json:"personalized"`
	Degraded        bool                  `json:"degraded"`
	DegradedReason  string                `json:"degradedReason,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "userId":   {"type": "string"},
    "profile":  {"type": ["object", "null"]},
    "category": {"type": "string"},
    "language": {"type": "string", "enum": ["default", "localized", ""]},
    "limit":    {"type": "integer", "minimum": 0, "maximum": 100},
    "offset":   {"type": "integer", "minimum": 0}
  }
}`

// internal/workers/schemes/generate-smart-notifications/models.go
package generatesmartnotifications

import "scheme-workers/internal/models"

type Input struct {
	UserID   string              `json:"userId"`
	Profile  *models.UserProfile `json:"profile,omitempty"`
	Language string              `json:"language,omitempty"`
	Limit    int                 `json:"limit,omitempty"`
	// Dispatch overrides the configured dispatch switch for this job.
	Dispatch *bool `json:"dispatch,omitempty"`
}

type Output struct {
	Notifications []models.SchemeNotification `json:"notifications"`
	HighCount     int                         `json:"highCount"`
	Dispatched    int                         `json:"dispatched"`
	Degraded      bool                        `json:"degraded"`
}

const inputSchema = `{
  "type": "object",
  "required": ["userId"],
  "properties": {
    "userId":   {"type": "string", "minLength": 1},
    "profile":  {"type": ["object", "null"]},
    "language": {"type": "string", "enum": ["default", "localized", ""]},
    "limit":    {"type": "integer", "minimum": 0, "maximum": 50},
    "dispatch": {"type": "boolean"}
  }
}`

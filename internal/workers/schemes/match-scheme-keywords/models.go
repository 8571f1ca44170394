// internal/workers/schemes/match-scheme-keywords/models.go
package matchschemekeywords

const (
	ChannelChat  = "chat"
	ChannelVoice = "voice"
)

type Input struct {
	Message  string `json:"message"`
	Channel  string `json:"channel,omitempty"`
	Language string `json:"language,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

type Match struct {
	SchemeID string  `json:"schemeId"`
	Title    string  `json:"title"`
	Category string  `json:"category"`
	Benefits string  `json:"benefits,omitempty"`
	Score    float64 `json:"score"`
}

type Output struct {
	Matched bool    `json:"matched"`
	Channel string  `json:"channel"`
	Matches []Match `json:"matches"`
	// Reply is a short sentence a chat or voice channel can read back.
	Reply string `json:"reply"`
}

const inputSchema = `{
  "type": "object",
  "required": ["message"],
  "properties": {
    "message":  {"type": "string", "minLength": 1, "maxLength": 1000},
    "channel":  {"type": "string", "enum": ["chat", "voice", ""]},
    "language": {"type": "string", "enum": ["default", "localized", ""]},
    "limit":    {"type": "integer", "minimum": 0, "maximum": 10}
  }
}`

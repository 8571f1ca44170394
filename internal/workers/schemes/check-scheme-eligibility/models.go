// internal/workers/schemes/check-scheme-eligibility/models.go
package checkschemeeligibility

import (
	"scheme-workers/internal/models"
	"scheme-workers/internal/ranking/eligibility"
)

type Input struct {
	SchemeID string              `json:"schemeId"`
	UserID   string              `json:"userId,omitempty"`
	Profile  *models.UserProfile `json:"profile,omitempty"`
	// Fields is the field-to-value map extracted from the applicant's documents.
	Fields     map[string]string `json:"fields,omitempty"`
	LoanAmount *float64          `json:"loanAmount,omitempty"`
}

type Output struct {
	SchemeID         string                        `json:"schemeId"`
	SchemeTitle      string                        `json:"schemeTitle"`
	Eligible         bool                          `json:"eligible"`
	Results          []eligibility.CriterionResult `json:"results"`
	Missing          []string                      `json:"missing"`
	Failed           []string                      `json:"failed"`
	UnreadableFields []string                      `json:"unreadableFields,omitempty"`
	// FitScore is the soft eligibility score of the same data, for display next to the verdict.
	FitScore float64 `json:"fitScore"`
}

const inputSchema = `{
  "type": "object",
  "required": ["schemeId"],
  "properties": {
    "schemeId":   {"type": "string", "minLength": 1},
    "userId":     {"type": "string"},
    "profile":    {"type": ["object", "null"]},
    "fields":     {"type": ["object", "null"], "additionalProperties": {"type": "string"}},
    "loanAmount": {"type": ["number", "null"], "minimum": 0}
  }
}`

package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const querySchema = `{
  "type": "object",
  "required": ["query"],
  "properties": {
    "query": {"type": "string", "maxLength": 20},
    "limit": {"type": "integer", "minimum": 1}
  }
}`

func TestSchema_ValidateJSON(t *testing.T) {
	s := MustCompile(querySchema)

	tests := []struct {
		name      string
		doc       string
		valid     bool
		wantField string
	}{
		{name: "valid", doc: `{"query":"farmer","limit":5}`, valid: true},
		{name: "missing query", doc: `{"limit":5}`, valid: false, wantField: "(root)"},
		{name: "bad limit", doc: `{"query":"farmer","limit":0}`, valid: false, wantField: "limit"},
		{name: "query too long", doc: `{"query":"pradhan mantri kisan samman nidhi"}`, valid: false, wantField: "query"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.ValidateJSON(tt.doc)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid)
			if !tt.valid {
				require.NotEmpty(t, result.Errors)
				assert.Equal(t, tt.wantField, result.Errors[0].Field)
				assert.Contains(t, result.Summary(), tt.wantField)
			}
		})
	}
}

func TestSchema_ValidateInput(t *testing.T) {
	s := MustCompile(querySchema)

	result, err := s.ValidateInput(map[string]interface{}{"query": 42})
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Equal(t, "INVALID_TYPE", result.Errors[0].Code)
}

func TestCompileRejectsBrokenSchema(t *testing.T) {
	_, err := Compile(`{"type": 12}`)
	assert.Error(t, err)
}

func TestSchema_MalformedDocument(t *testing.T) {
	s := MustCompile(querySchema)
	_, err := s.ValidateJSON(`{"query":`)
	assert.Error(t, err)
}

package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["name", "count"],
  "properties": {
    "name": {"type": "string", "minLength": 1},
    "count": {"type": "integer", "minimum": 0},
    "tags": {"type": "array", "items": {"type": "string"}, "uniqueItems": true}
  }
}`

func TestValidateYAML(t *testing.T) {
	s := New("test.schema.json", []byte(testSchema))

	tests := []struct {
		name  string
		doc   string
		valid bool
		path  string
	}{
		{"valid", "name: a\ncount: 2\ntags: [x, y]\n", true, ""},
		{"missing count", "name: a\n", false, ""},
		{"empty name", "name: \"\"\ncount: 1\n", false, "/name"},
		{"negative count", "name: a\ncount: -1\n", false, "/count"},
		{"duplicate tags", "name: a\ncount: 1\ntags: [x, x]\n", false, "/tags"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := s.ValidateYAML([]byte(tt.doc))
			require.NoError(t, err)
			assert.Equal(t, tt.valid, result.Valid, result.Summary())
			if tt.valid {
				return
			}
			require.NotEmpty(t, result.Issues)
			assert.NotEmpty(t, result.Issues[0].Message)
			if tt.path != "" {
				assert.Equal(t, tt.path, result.Issues[0].Path)
			}
		})
	}
}

func TestValidateJSON(t *testing.T) {
	s := New("test.schema.json", []byte(testSchema))

	result, err := s.ValidateJSON([]byte(`{"name":"a","count":3}`))
	require.NoError(t, err)
	assert.True(t, result.Valid)

	result, err = s.ValidateJSON([]byte(`{"name":7,"count":3}`))
	require.NoError(t, err)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Summary(), "/name")
}

func TestValidateMalformedInput(t *testing.T) {
	s := New("test.schema.json", []byte(testSchema))

	_, err := s.ValidateYAML([]byte("name: [unterminated"))
	assert.Error(t, err)

	_, err = s.ValidateJSON([]byte("{not json"))
	assert.Error(t, err)
}

func TestBrokenSchemaReportsCompileError(t *testing.T) {
	s := New("broken.schema.json", []byte(`{"type": 12}`))

	_, err := s.ValidateJSON([]byte(`{}`))
	assert.Error(t, err)
}

package gemini

import (
	"encoding/json"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToGeminiSchemaConvertsNestedObject(t *testing.T) {
	raw := json.RawMessage(`{
		"type": "object",
		"properties": {
			"url": {"type": "string", "description": "The URL to check"},
			"depth": {"type": "integer"},
			"tags": {
				"type": "array",
				"items": {"type": "string"}
			}
		},
		"required": ["url"]
	}`)

	schema, err := toGeminiSchema(raw)
	require.NoError(t, err)

	assert.Equal(t, genai.TypeObject, schema.Type)
	assert.Equal(t, []string{"url"}, schema.Required)
	require.Contains(t, schema.Properties, "url")
	assert.Equal(t, genai.TypeString, schema.Properties["url"].Type)
	assert.Equal(t, "The URL to check", schema.Properties["url"].Description)
	assert.Equal(t, genai.TypeInteger, schema.Properties["depth"].Type)

	tags := schema.Properties["tags"]
	assert.Equal(t, genai.TypeArray, tags.Type)
	require.NotNil(t, tags.Items)
	assert.Equal(t, genai.TypeString, tags.Items.Type)
}

func TestToGeminiSchemaRejectsUnsupportedType(t *testing.T) {
	_, err := toGeminiSchema(json.RawMessage(`{"type": "null"}`))
	assert.Error(t, err)
}

func TestToGeminiSchemaRejectsArrayWithoutItems(t *testing.T) {
	_, err := toGeminiSchema(json.RawMessage(`{"type": "array"}`))
	assert.Error(t, err)
}

func TestToGeminiSchemaRejectsInvalidJSON(t *testing.T) {
	_, err := toGeminiSchema(json.RawMessage(`{`))
	assert.Error(t, err)
}

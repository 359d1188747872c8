package gemini

import (
	"encoding/json"
	"fmt"

	"github.com/google/generative-ai-go/genai"
)

// rawSchema is the subset of JSON Schema the tool schemas use. Gemini wants
// its own schema representation, so derived schemas are converted node by
// node.
type rawSchema struct {
	Type        string               `json:"type"`
	Description string               `json:"description"`
	Properties  map[string]rawSchema `json:"properties"`
	Required    []string             `json:"required"`
	Items       *rawSchema           `json:"items"`
	Enum        []string             `json:"enum"`
}

// toGeminiSchema converts a derived JSON schema into a genai schema
func toGeminiSchema(data json.RawMessage) (*genai.Schema, error) {
	var raw rawSchema
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse tool schema: %w", err)
	}
	return convertSchema(&raw)
}

func convertSchema(raw *rawSchema) (*genai.Schema, error) {
	out := &genai.Schema{
		Description: raw.Description,
		Required:    raw.Required,
		Enum:        raw.Enum,
	}

	switch raw.Type {
	case "object":
		out.Type = genai.TypeObject
		if len(raw.Properties) > 0 {
			out.Properties = make(map[string]*genai.Schema, len(raw.Properties))
			for name, prop := range raw.Properties {
				prop := prop
				converted, err := convertSchema(&prop)
				if err != nil {
					return nil, err
				}
				out.Properties[name] = converted
			}
		}
	case "array":
		out.Type = genai.TypeArray
		if raw.Items == nil {
			return nil, fmt.Errorf("array schema is missing items")
		}
		items, err := convertSchema(raw.Items)
		if err != nil {
			return nil, err
		}
		out.Items = items
	case "string":
		out.Type = genai.TypeString
	case "number":
		out.Type = genai.TypeNumber
	case "integer":
		out.Type = genai.TypeInteger
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", raw.Type)
	}
	return out, nil
}

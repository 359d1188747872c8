// Package schema derives machine-checkable JSON schemas from Go shapes and
// validates model output against them. Schemas are derived once at startup;
// derivation is deterministic and the package holds no mutable state
// afterwards.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	jsonschemavalidator "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/ScottHolden/FlyPhishing/internal/core"
)

// Generate derives the JSON schema for T. strict disallows undeclared
// fields on every object and is required for structured-output result
// formats; tool argument schemas are generated permissively.
func Generate[T any](strict bool) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: !strict,
	}
	s := r.Reflect(new(T))
	s.Version = ""

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// Compile builds a validator for a derived schema
func Compile(raw json.RawMessage) (*jsonschemavalidator.Schema, error) {
	doc, err := jsonschemavalidator.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse schema document: %w", err)
	}
	compiler := jsonschemavalidator.NewCompiler()
	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("failed to add schema resource: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return compiled, nil
}

// VerdictCodec implements core.VerdictCodec: it advertises the strict
// detection verdict schema to the model and validates terminal answers
// against the compiled form of the same schema.
type VerdictCodec struct {
	format   core.ResultFormat
	compiled *jsonschemavalidator.Schema
}

// ResultFormatName is the identifier the model sees for the verdict schema
const ResultFormatName = "phishing_detection_result"

// NewVerdictCodec derives and compiles the detection verdict schema
func NewVerdictCodec() (*VerdictCodec, error) {
	raw, err := Generate[core.DetectionVerdict](true)
	if err != nil {
		return nil, fmt.Errorf("failed to derive verdict schema: %w", err)
	}
	compiled, err := Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to compile verdict schema: %w", err)
	}
	return &VerdictCodec{
		format:   core.ResultFormat{Name: ResultFormatName, Schema: raw},
		compiled: compiled,
	}, nil
}

// Format returns the strict result format advertised to the model
func (c *VerdictCodec) Format() core.ResultFormat {
	return c.format
}

// Decode parses and validates a terminal answer. It either succeeds fully
// or fails; undeclared fields and missing declared fields are both
// rejections.
func (c *VerdictCodec) Decode(data []byte) (*core.DetectionVerdict, error) {
	instance, err := jsonschemavalidator.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("result is not valid JSON: %w", err)
	}
	if err := c.compiled.Validate(instance); err != nil {
		return nil, fmt.Errorf("result violates verdict schema: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var verdict core.DetectionVerdict
	if err := dec.Decode(&verdict); err != nil {
		return nil, fmt.Errorf("failed to decode verdict: %w", err)
	}
	return &verdict, nil
}

package llm

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema checks the shape of an extracted value.
type Schema struct {
	s *gojsonschema.Schema
}

// MustSchema compiles a JSON Schema document and panics on error.
func MustSchema(doc string) *Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(doc))
	if err != nil {
		panic(fmt.Sprintf("llm: invalid schema: %v", err))
	}
	return &Schema{s: s}
}

// Validate reports the first violations of v, or nil.
func (s *Schema) Validate(v any) error {
	res, err := s.s.Validate(gojsonschema.NewGoLoader(v))
	if err != nil {
		return err
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("schema: %s", strings.Join(msgs, "; "))
}

// Check downgrades a parsed result that fails the schema to Unparseable.
func (s *Schema) Check(r Result) Result {
	if !r.OK() {
		return r
	}
	if err := s.Validate(r.Value); err != nil {
		return Result{Outcome: Unparseable, Raw: r.Raw}
	}
	return r
}

// Shared reply shapes.
var (
	FilesSchema = MustSchema(`{
		"type": "object",
		"required": ["files"],
		"properties": {"files": {"type": "object", "additionalProperties": {"type": "string"}}}
	}`)
	// ChangesSchema accepts a change-set whose files may be absent.
	ChangesSchema = MustSchema(`{
		"type": "object",
		"properties": {"files": {"type": "object", "additionalProperties": {"type": "string"}}}
	}`)
	ArraySchema   = MustSchema(`{"type": "array"}`)
	FeatureSchema = MustSchema(`{
		"type": "object",
		"properties": {
			"newFiles": {"type": "object", "additionalProperties": {"type": "string"}},
			"updatedFiles": {"type": "object", "additionalProperties": {"type": "string"}}
		}
	}`)
	IntentSchema = MustSchema(`{
		"type": "object",
		"required": ["understanding", "selectedEndpoints", "workflow"],
		"properties": {
			"understanding": {"type": "string"},
			"selectedEndpoints": {"type": "array"},
			"workflow": {
				"type": "object",
				"required": ["name", "steps"],
				"properties": {"name": {"type": "string"}, "steps": {"type": "array"}}
			}
		}
	}`)
	WorkflowSchema = MustSchema(`{
		"type": "object",
		"required": ["steps"],
		"properties": {"workflowName": {"type": "string"}, "steps": {"type": "array"}}
	}`)
	RemixSchema = MustSchema(`{
		"type": "object",
		"properties": {"remixName": {"type": "string"}, "endpointsUsed": {"type": "array"}}
	}`)
	InsightSchema = MustSchema(`{"type": "object"}`)
)

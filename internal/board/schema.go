package board

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// boardSchema guards collaborator-supplied payloads at the HTTP edge.
// File decode stays deliberately looser: external editors may carry
// unknown fields, and the schema tolerates those too, but it rejects
// structurally broken boards before they reach the engine.
const boardSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["nodes", "edges"],
	"properties": {
		"nodes": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "x", "y", "width", "height", "text"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"x": {"type": "number"},
					"y": {"type": "number"},
					"width": {"type": "number"},
					"height": {"type": "number"},
					"text": {"type": "string"},
					"nodeType": {"type": "string"},
					"color": {"type": "string"},
					"tags": {"type": "array", "items": {"type": "string"}},
					"status": {"type": "string"},
					"group": {"type": "string"},
					"priority": {"type": "integer", "minimum": 0, "maximum": 255}
				}
			}
		},
		"edges": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["id", "fromNode", "toNode"],
				"properties": {
					"id": {"type": "string", "minLength": 1},
					"fromNode": {"type": "string", "minLength": 1},
					"toNode": {"type": "string", "minLength": 1}
				}
			}
		}
	}
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func compileBoardSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(boardSchema))
		if err != nil {
			schemaErr = err
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("board.schema.json", doc); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("board.schema.json")
	})
	return compiledSchema, schemaErr
}

// ValidateDocument checks raw JSON against the board schema.
func ValidateDocument(data []byte) error {
	schema, err := compileBoardSchema()
	if err != nil {
		return fmt.Errorf("compile board schema: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &DecodeError{Path: "request", Err: err}
	}
	if err := schema.Validate(instance); err != nil {
		return &DecodeError{Path: "request", Err: err}
	}
	return nil
}

package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// extractRequestSchema describes the JSON body of POST /v1/invoices/extract.
// Exactly one of data or text must be present.
var extractRequestSchema = map[string]any{
	"$schema":              "https://json-schema.org/draft/2020-12/schema",
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"data":      map[string]any{"type": "string", "minLength": 1},
		"text":      map[string]any{"type": "string", "minLength": 1},
		"filename":  map[string]any{"type": "string", "maxLength": 255},
		"mimeType":  map[string]any{"type": "string", "maxLength": 127},
		"fileSize":  map[string]any{"type": "integer", "minimum": 0},
		"vendorKey": map[string]any{"type": "string", "pattern": "^[a-z0-9_]*$", "maxLength": 64},
	},
	"oneOf": []any{
		map[string]any{"required": []any{"data"}},
		map[string]any{"required": []any{"text"}},
	},
}

var (
	compileOnce    sync.Once
	compiledSchema *jsonschema.Schema
	compileErr     error
)

func requestSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		b, err := json.Marshal(extractRequestSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("extract_request.json", bytes.NewReader(b)); err != nil {
			compileErr = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileErr = compiler.Compile("extract_request.json")
	})
	return compiledSchema, compileErr
}

// validateExtractRequest checks raw JSON against the request schema.
func validateExtractRequest(data []byte) error {
	schema, err := requestSchema()
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal body: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("request does not match schema: %w", err)
	}
	return nil
}

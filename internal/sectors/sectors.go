// Package sectors parses and validates sector files, which restrict a
// fetch pass to parts of the canvas.
package sectors

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/eliegoudout/zlevels/internal/canvas"
	"github.com/eliegoudout/zlevels/internal/utils"
)

// Schema is the JSON Schema a sector file must satisfy. Bounds beyond
// the canvas are checked separately against the configured dimensions.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "title": "zlevels sector file",
  "type": "object",
  "required": ["sectors"],
  "additionalProperties": false,
  "properties": {
    "sectors": {
      "type": "array",
      "minItems": 1,
      "items": {
        "type": "object",
        "required": ["x1", "y1", "x2", "y2"],
        "additionalProperties": false,
        "properties": {
          "x1": {"type": "integer", "minimum": 0},
          "y1": {"type": "integer", "minimum": 0},
          "x2": {"type": "integer", "minimum": 1},
          "y2": {"type": "integer", "minimum": 1}
        }
      }
    }
  }
}`

const schemaName = "sectors.schema.json"

// File is the parsed sector file.
type File struct {
	Sectors []canvas.Sector `json:"sectors"`
}

// ValidationError is a schema violation with its location in the file.
type ValidationError struct {
	Path string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult aggregates schema and bounds errors.
type ValidationResult struct {
	Valid  bool
	Errors []error
}

// Load reads and parses a sector file without validating it.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sector file: %w", err)
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse sector file %s: %w", path, err)
	}
	return &f, nil
}

// Validate checks the file against the embedded schema and the canvas
// bounds.
func (f *File) Validate(width, height int) *ValidationResult {
	result := &ValidationResult{Valid: true}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(schemaName, strings.NewReader(Schema)); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Errorf("load embedded schema: %w", err))
		return result
	}
	schema, err := compiler.Compile(schemaName)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Errorf("compile embedded schema: %w", err))
		return result
	}

	// Marshal back to a generic value for schema validation.
	data, err := json.Marshal(f)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err)
		return result
	}
	var generic interface{}
	if err := json.Unmarshal(data, &generic); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err)
		return result
	}

	if err := schema.Validate(generic); err != nil {
		result.Valid = false
		collectSchemaErrors(result, err)
	}

	for i, s := range f.Sectors {
		if err := s.Valid(width, height); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: fmt.Sprintf("sectors[%d]", i),
				Err:  err,
			})
		}
	}

	return result
}

// Coordinates returns the deduplicated work set covered by the file.
func (f *File) Coordinates() []canvas.Coordinate {
	return canvas.UnionCoordinates(f.Sectors)
}

func collectSchemaErrors(result *ValidationResult, err error) {
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}
	flattenSchemaError(result, ve)
}

func flattenSchemaError(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}
	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: utils.JSONPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}
	for _, cause := range err.Causes {
		flattenSchemaError(result, cause)
	}
}

package importer

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"estate/server/internal/estate"
)

//go:embed schema/import.json
var schemaFS embed.FS

const schemaPath = "schema/import.json"

// ValidationError lists the schema violations of an import payload
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid import payload: " + strings.Join(e.Problems, "; ")
}

type payload struct {
	Properties []estate.PropertyInput `json:"properties"`
}

// Validator checks bulk import payloads against the embedded JSON schema
type Validator struct {
	schema *jsonschema.Schema
}

func NewValidator() (*Validator, error) {
	raw, err := schemaFS.ReadFile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read import schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if err := compiler.AddResource(schemaPath, bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("failed to add import schema: %w", err)
	}
	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile import schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate checks body against the schema. Schema violations are returned as *ValidationError.
func (v *Validator) Validate(body []byte) error {
	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		return &ValidationError{Problems: []string{"body is not valid JSON: " + err.Error()}}
	}

	err := v.schema.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return &ValidationError{Problems: problems(verr)}
	}
	return fmt.Errorf("failed to validate import payload: %w", err)
}

// Parse validates body and decodes the properties it contains
func (v *Validator) Parse(body []byte) ([]estate.PropertyInput, error) {
	if err := v.Validate(body); err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &ValidationError{Problems: []string{err.Error()}}
	}
	return p.Properties, nil
}

// problems flattens the validation error tree to its leaves
func problems(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		location := verr.InstanceLocation
		if location == "" {
			location = "/"
		}
		return []string{fmt.Sprintf("%s: %s", location, verr.Message)}
	}
	var out []string
	for _, cause := range verr.Causes {
		out = append(out, problems(cause)...)
	}
	return out
}

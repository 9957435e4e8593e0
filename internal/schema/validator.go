package schema

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed config.schema.yaml
var configSchemaYAML []byte

// Validator handles JSON schema validation of configuration documents.
type Validator struct {
	configSchema *jsonschema.Schema
}

// NewValidator compiles the embedded configuration schema.
func NewValidator() (*Validator, error) {
	s, err := compile(configSchemaYAML)
	if err != nil {
		return nil, fmt.Errorf("failed to load config schema: %w", err)
	}
	return &Validator{configSchema: s}, nil
}

// ValidateConfig validates a YAML configuration document.
func (v *Validator) ValidateConfig(data []byte) error {
	if v.configSchema == nil {
		return fmt.Errorf("config schema not loaded")
	}
	doc, err := toJSONValue(data)
	if err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	if doc == nil {
		doc = map[string]interface{}{}
	}
	return v.configSchema.Validate(doc)
}

// compile loads and compiles a schema given as YAML or JSON.
func compile(data []byte) (*jsonschema.Schema, error) {
	var schemaData interface{}
	if err := yaml.Unmarshal(data, &schemaData); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}

	jsonData, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}

	schema, err := jsonschema.CompileString("config.schema.json", string(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return schema, nil
}

// toJSONValue converts a YAML document into the value shapes produced by
// encoding/json, which the schema validator expects.
func toJSONValue(data []byte) (interface{}, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}

	jsonData, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

package llm

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled holds compiled schemas by Schema.Name. Names are unique per
// structured output, so a name is compiled once per process.
var compiled sync.Map // string -> *jsonschema.Schema

// ValidateJSON checks raw against schema. A nil schema accepts anything.
// Errors name the schema so a rejected advisory analysis can be told apart
// from other structured outputs in the log.
func ValidateJSON(schema *Schema, raw []byte) error {
	if schema == nil {
		return nil
	}

	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%s: invalid JSON: %w", schema.Name, err)
	}

	s, err := compile(schema)
	if err != nil {
		return fmt.Errorf("%s: %w", schema.Name, err)
	}
	if err := s.Validate(doc); err != nil {
		return fmt.Errorf("%s: %w", schema.Name, err)
	}
	return nil
}

// validateResponse is ValidateJSON for provider output. Failures are
// *ErrInvalidResponse so the retry layer asks the model again.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if err := ValidateJSON(schema, raw); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	return nil
}

func compile(schema *Schema) (*jsonschema.Schema, error) {
	if s, ok := compiled.Load(schema.Name); ok {
		return s.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go maps with typed slices.
	def, err := json.Marshal(schema.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	var doc any
	if err := json.Unmarshal(def, &doc); err != nil {
		return nil, fmt.Errorf("parse schema: %w", err)
	}

	c := jsonschema.NewCompiler()
	url := "schema://" + schema.Name + ".json"
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	actual, _ := compiled.LoadOrStore(schema.Name, s)
	return actual.(*jsonschema.Schema), nil
}

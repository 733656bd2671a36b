// Package scenario loads scenario definitions and checks recorded runs
// against their expectations.
package scenario

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/segmentio/encoding/json"
)

//go:embed scenario.schema.json
var schemaJSON []byte

// Scenario describes one evaluation task: the prompt handed to the agent,
// the tools it is expected to reach for, and the evidence of success to look
// for in the recorded responses.
type Scenario struct {
	Name            string   `json:"name"`
	Description     string   `json:"description,omitempty"`
	UserIntent      string   `json:"user_intent"`
	ExpectedTools   []string `json:"expected_tools,omitempty"`
	SuccessCriteria []string `json:"success_criteria,omitempty"`
	MaxTurns        int      `json:"max_turns,omitempty"`
}

// Load reads and schema-validates a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}

	var s Scenario
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return &s, nil
}

func validateSchema(data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("scenario.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("scenario.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse scenario JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

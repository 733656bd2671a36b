// Package config holds the injectable configuration bundle for the
// comparison engine. A Config is immutable after construction: tests and
// callers vary behavior by building a new bundle, never by mutating a
// shared one.
package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/segmentio/encoding/json"
)

//go:embed config.schema.json
var schemaJSON []byte

// Config is the full configuration bundle consumed by the engine.
type Config struct {
	// CriticalOperationKeywords are matched case-insensitively against the
	// operation field of failed calls to detect blocking failures.
	CriticalOperationKeywords []string `json:"critical_operation_keywords"`
	// MaxNumericDiff is the absolute difference at which numeric argument
	// similarity reaches zero.
	MaxNumericDiff float64 `json:"max_numeric_diff"`
	// PassThreshold converts an overall score into PASS/FAIL.
	PassThreshold float64 `json:"pass_threshold"`
	// DomainToolPrefix selects the tool calls that count toward scoring.
	DomainToolPrefix string `json:"domain_tool_prefix"`
}

// Default returns the standard configuration.
func Default() *Config {
	return &Config{
		CriticalOperationKeywords: []string{"create", "add", "initialize", "connect", "setup", "install"},
		MaxNumericDiff:            1000,
		PassThreshold:             0.8,
		DomainToolPrefix:          "mcp__",
	}
}

// Load reads a JSON config file, validates it against the embedded schema,
// and applies it over the defaults. Fields absent from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := validateSchema(data); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// FromEnv returns a copy of base with MCPEVAL_* environment overrides
// applied. Unset or malformed variables leave the base value untouched.
func FromEnv(base *Config) *Config {
	cfg := base.Clone()
	cfg.PassThreshold = envFloat("MCPEVAL_PASS_THRESHOLD", cfg.PassThreshold)
	cfg.MaxNumericDiff = envFloat("MCPEVAL_MAX_NUMERIC_DIFF", cfg.MaxNumericDiff)
	if prefix := os.Getenv("MCPEVAL_DOMAIN_TOOL_PREFIX"); prefix != "" {
		cfg.DomainToolPrefix = prefix
	}
	if kw := os.Getenv("MCPEVAL_CRITICAL_OPERATIONS"); kw != "" {
		var keywords []string
		for _, k := range strings.Split(kw, ",") {
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		}
		if len(keywords) > 0 {
			cfg.CriticalOperationKeywords = keywords
		}
	}
	return cfg
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	out := *c
	out.CriticalOperationKeywords = append([]string(nil), c.CriticalOperationKeywords...)
	return &out
}

// Validate checks field ranges.
func (c *Config) Validate() error {
	if len(c.CriticalOperationKeywords) == 0 {
		return fmt.Errorf("critical_operation_keywords must not be empty")
	}
	if c.MaxNumericDiff <= 0 {
		return fmt.Errorf("max_numeric_diff must be > 0, got %v", c.MaxNumericDiff)
	}
	if c.PassThreshold < 0 || c.PassThreshold > 1 {
		return fmt.Errorf("pass_threshold must be in [0, 1], got %v", c.PassThreshold)
	}
	if c.DomainToolPrefix == "" {
		return fmt.Errorf("domain_tool_prefix must not be empty")
	}
	return nil
}

func validateSchema(data []byte) error {
	schemaDoc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", schemaDoc); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse config JSON: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}
	return nil
}

func envFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

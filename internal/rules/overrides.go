package rules

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"

	"github.com/noah-isme/gema-grader/internal/models"
)

const overridesSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "required": ["rules"],
  "properties": {
    "rules": {
      "type": "object",
      "additionalProperties": {
        "type": "object",
        "additionalProperties": false,
        "properties": {
          "max_score": {"type": "number", "exclusiveMinimum": 0},
          "mandatory": {"type": "boolean"},
          "category": {"enum": ["functional", "boundary", "exception"]},
          "enabled": {"type": "boolean"}
        }
      }
    }
  }
}`

// ErrUnknownRule is returned when an override names a rule not in the catalog.
var ErrUnknownRule = errors.New("unknown rule")

// RuleOverride adjusts the weighting of one catalog rule.
type RuleOverride struct {
	MaxScore  *float64 `json:"max_score" yaml:"max_score"`
	Mandatory *bool    `json:"mandatory" yaml:"mandatory"`
	Category  *string  `json:"category" yaml:"category"`
	Enabled   *bool    `json:"enabled" yaml:"enabled"`
}

// Overrides maps rule names to their adjustments.
type Overrides struct {
	Rules map[string]RuleOverride `json:"rules" yaml:"rules"`
}

// LoadOverrides reads and validates a YAML overrides file.
func LoadOverrides(path string) (Overrides, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Overrides{}, fmt.Errorf("read rule overrides: %w", err)
	}
	return ParseOverrides(raw)
}

// ParseOverrides decodes YAML overrides and checks them against the schema.
func ParseOverrides(raw []byte) (Overrides, error) {
	var document interface{}
	if err := yaml.Unmarshal(raw, &document); err != nil {
		return Overrides{}, fmt.Errorf("decode rule overrides: %w", err)
	}

	encoded, err := json.Marshal(document)
	if err != nil {
		return Overrides{}, fmt.Errorf("encode rule overrides: %w", err)
	}

	var instance interface{}
	if err := json.Unmarshal(encoded, &instance); err != nil {
		return Overrides{}, fmt.Errorf("decode rule overrides: %w", err)
	}

	schema, err := compileOverridesSchema()
	if err != nil {
		return Overrides{}, err
	}
	if err := schema.Validate(instance); err != nil {
		return Overrides{}, fmt.Errorf("invalid rule overrides: %w", err)
	}

	var overrides Overrides
	if err := json.Unmarshal(encoded, &overrides); err != nil {
		return Overrides{}, fmt.Errorf("decode rule overrides: %w", err)
	}
	return overrides, nil
}

func compileOverridesSchema() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("rule-overrides.json", strings.NewReader(overridesSchema)); err != nil {
		return nil, fmt.Errorf("load rule overrides schema: %w", err)
	}
	schema, err := compiler.Compile("rule-overrides.json")
	if err != nil {
		return nil, fmt.Errorf("compile rule overrides schema: %w", err)
	}
	return schema, nil
}

// Apply returns a copy of catalog with the overrides applied. Disabled rules
// are dropped.
func (o Overrides) Apply(catalog []Rule) ([]Rule, error) {
	known := make(map[string]struct{}, len(catalog))
	for _, rule := range catalog {
		known[rule.Name] = struct{}{}
	}
	for name := range o.Rules {
		if _, ok := known[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownRule, name)
		}
	}

	result := make([]Rule, 0, len(catalog))
	for _, rule := range catalog {
		override, ok := o.Rules[rule.Name]
		if !ok {
			result = append(result, rule)
			continue
		}
		if override.Enabled != nil && !*override.Enabled {
			continue
		}
		if override.MaxScore != nil {
			rule.MaxScore = *override.MaxScore
		}
		if override.Mandatory != nil {
			rule.Mandatory = *override.Mandatory
		}
		if override.Category != nil {
			rule.Category = models.Category(*override.Category)
		}
		result = append(result, rule)
	}
	return result, nil
}

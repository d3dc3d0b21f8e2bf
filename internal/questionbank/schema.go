package questionbank

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// BankSchema describes the on-disk question bank document. It checks shape
// only; semantic problems are reported by Validate per question.
var BankSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"version": map[string]any{
			"type":    "integer",
			"minimum": 1,
		},
		"questions": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":              map[string]any{"type": "string", "minLength": 1},
					"prompt":          map[string]any{"type": "string", "minLength": 1},
					"options":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"correctAnswer":   map[string]any{"type": "string"},
					"level":           map[string]any{"type": "string"},
					"grammarCategory": map[string]any{"type": "string"},
					"grammarTopic":    map[string]any{"type": "string"},
					"explanation":     map[string]any{"type": "string"},
				},
				"required":             []any{"id", "prompt"},
				"additionalProperties": false,
			},
		},
	},
	"required":             []any{"questions"},
	"additionalProperties": false,
}

const bankSchemaURL = "schema://question-bank.json"

var (
	compiledOnce sync.Once
	compiled     *jsonschema.Schema
	compileErr   error
)

func bankSchema() (*jsonschema.Schema, error) {
	compiledOnce.Do(func() {
		// The compiler wants a decoded JSON value, not Go maps with typed slices.
		raw, err := json.Marshal(BankSchema)
		if err != nil {
			compileErr = fmt.Errorf("marshal schema definition: %w", err)
			return
		}
		var def any
		if err := json.Unmarshal(raw, &def); err != nil {
			compileErr = fmt.Errorf("parse schema definition: %w", err)
			return
		}

		c := jsonschema.NewCompiler()
		if err := c.AddResource(bankSchemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(bankSchemaURL)
		if compileErr != nil {
			compileErr = fmt.Errorf("compile: %w", compileErr)
		}
	})
	return compiled, compileErr
}

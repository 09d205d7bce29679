package todo

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/nibzard/todo-go/internal/utils"
)

//go:embed tasks.schema.json
var embeddedSchema []byte

const embeddedSchemaURL = "mem://todo/tasks.schema.json"

var (
	builtinOnce   sync.Once
	builtinSchema *jsonschema.Schema
	builtinErr    error
)

// EmbeddedSchema returns the built-in task file schema.
func EmbeddedSchema() []byte {
	return embeddedSchema
}

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
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

// ValidationOptions controls validation behavior.
type ValidationOptions struct {
	// SchemaPath is the path to a JSON Schema file overriding the embedded one.
	SchemaPath string
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid      bool
	Errors     []error
	Warnings   []string
	UsedSchema bool // true if JSON Schema validation was performed
}

// Validate checks a decoded task file (the result of json.Unmarshal into any).
func Validate(doc any, opts ValidationOptions) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	schema, warning := compileSchema(opts.SchemaPath)
	if warning != "" {
		result.Warnings = append(result.Warnings, warning)
	}
	if schema == nil {
		result.Warnings = append(result.Warnings, "JSON Schema validation not available, using minimal checks")
		validateMinimal(doc, result)
		return result
	}

	result.UsedSchema = true
	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
		return result
	}
	validateDueDates(doc, result)
	return result
}

// validateDueDates rejects due dates that have the right shape but are not
// calendar dates, such as 2025-02-30.
func validateDueDates(doc any, result *ValidationResult) {
	items, ok := doc.([]any)
	if !ok {
		return
	}
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		due, ok := obj["due_date"].(string)
		if !ok {
			continue
		}
		if _, err := NormalizeStoredDate(due); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, &ValidationError{
				Path: fmt.Sprintf("[%d].due_date", i),
				Err:  err,
			})
		}
	}
}

func compileSchema(schemaPath string) (*jsonschema.Schema, string) {
	if schemaPath == "" {
		builtinOnce.Do(func() {
			compiler := newCompiler()
			if err := compiler.AddResource(embeddedSchemaURL, bytes.NewReader(embeddedSchema)); err != nil {
				builtinErr = err
				return
			}
			builtinSchema, builtinErr = compiler.Compile(embeddedSchemaURL)
		})
		if builtinErr != nil {
			return nil, fmt.Sprintf("invalid embedded schema: %v", builtinErr)
		}
		return builtinSchema, ""
	}

	absPath, err := filepath.Abs(schemaPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema path: %v", err)
	}
	if _, err := os.Stat(absPath); err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Sprintf("schema file not found: %s", absPath)
		}
		return nil, fmt.Sprintf("failed to read schema file: %v", err)
	}

	schema, err := newCompiler().Compile(absPath)
	if err != nil {
		return nil, fmt.Sprintf("invalid schema file: %v", err)
	}
	return schema, ""
}

func newCompiler() *jsonschema.Compiler {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	return compiler
}

// validateMinimal performs structural validation without JSON Schema.
func validateMinimal(doc any, result *ValidationResult) {
	items, ok := doc.([]any)
	if !ok {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("expected an array of tasks"),
		})
		return
	}

	for i, item := range items {
		path := fmt.Sprintf("[%d]", i)
		if err := validateTaskMinimal(item, path); err != nil {
			result.Valid = false
			result.Errors = append(result.Errors, err)
		}
	}
}

func validateTaskMinimal(item any, path string) *ValidationError {
	obj, ok := item.(map[string]any)
	if !ok {
		return &ValidationError{Path: path, Err: fmt.Errorf("expected an object")}
	}

	if _, ok := obj["description"].(string); !ok {
		return &ValidationError{
			Path: path + ".description",
			Err:  fmt.Errorf("missing required field"),
		}
	}

	due, present := obj["due_date"]
	if !present {
		return &ValidationError{
			Path: path + ".due_date",
			Err:  fmt.Errorf("missing required field"),
		}
	}
	if due != nil {
		s, ok := due.(string)
		if !ok {
			return &ValidationError{
				Path: path + ".due_date",
				Err:  fmt.Errorf("must be a string or null"),
			}
		}
		if _, err := NormalizeStoredDate(s); err != nil {
			return &ValidationError{Path: path + ".due_date", Err: err}
		}
	}

	status, _ := obj["status"].(string)
	if !Status(status).Valid() {
		return &ValidationError{
			Path: path + ".status",
			Err:  fmt.Errorf("invalid status %q, must be one of: Pending, Completed", status),
		}
	}

	return nil
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
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
		collectSchemaErrors(result, cause)
	}
}

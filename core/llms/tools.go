package llms

import (
	"reflect"

	"github.com/invopop/jsonschema"
)

// Tool is a function declaration exposed to model calls.
type Tool struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

type ToolFunction struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Parameters  *jsonschema.Schema `json:"parameters"`
}

// NewTool declares a tool whose parameter schema is reflected from the
// args struct. Fields without an omitempty json tag become required, which
// is how mutating tools pin their provider-target selector.
func NewTool[T any](name, description string) Tool {
	reflector := jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: false,
	}
	schema := reflector.ReflectFromType(reflect.TypeFor[T]())
	schema.Version = ""
	return Tool{
		Type: "function",
		Function: ToolFunction{
			Name:        name,
			Description: description,
			Parameters:  schema,
		},
	}
}

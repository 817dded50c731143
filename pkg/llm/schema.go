package llm

import (
	"encoding/json"
	"sort"
)

// SchemaType is a JSON Schema primitive type name.
type SchemaType string

// Supported schema types.
const (
	TypeObject  SchemaType = "object"
	TypeString  SchemaType = "string"
	TypeBoolean SchemaType = "boolean"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeArray   SchemaType = "array"
)

// Schema is the provider-neutral description of a structured response.
//
// It covers the subset of JSON Schema that every supported provider accepts
// natively. Providers translate it into their own representation.
type Schema struct {
	// Name identifies the schema where a provider requires one (OpenAI).
	Name string

	Type        SchemaType
	Description string
	Enum        []string

	// Properties and Required apply to TypeObject.
	Properties map[string]*Schema
	Required   []string

	// Items applies to TypeArray.
	Items *Schema
}

// PropertyNames returns the object's property names in sorted order.
func (s *Schema) PropertyNames() []string {
	names := make([]string, 0, len(s.Properties))
	for name := range s.Properties {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// JSONSchema renders s as a JSON Schema document. Objects are closed with
// additionalProperties=false.
func (s *Schema) JSONSchema() map[string]interface{} {
	out := map[string]interface{}{"type": string(s.Type)}
	if s.Description != "" {
		out["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		out["enum"] = s.Enum
	}
	if s.Type == TypeObject {
		props := make(map[string]interface{}, len(s.Properties))
		for name, p := range s.Properties {
			props[name] = p.JSONSchema()
		}
		out["properties"] = props
		if len(s.Required) > 0 {
			out["required"] = s.Required
		}
		out["additionalProperties"] = false
	}
	if s.Items != nil {
		out["items"] = s.Items.JSONSchema()
	}
	return out
}

// MarshalJSON renders the JSON Schema form.
func (s *Schema) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.JSONSchema())
}

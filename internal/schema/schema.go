// Package schema infers JSON schemas for action input and output types so
// they can be published in action metadata.
package schema

import (
	"github.com/google/jsonschema-go/jsonschema"
)

// For returns the inferred JSON schema for T, or nil when T cannot be
// expressed as a schema (interface types such as any, channels, funcs).
// Actions defined with such types simply carry no schema metadata.
func For[T any]() *jsonschema.Schema {
	s, err := jsonschema.For[T](&jsonschema.ForOptions{})
	if err != nil {
		return nil
	}
	return s
}

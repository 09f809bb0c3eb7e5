// Package schema reflects Go types into JSON Schema strings, used to tell a
// language model exactly what shape a structured response must take.
package schema

import (
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"
)

// Config controls how a schema is reflected from a Go type.
type Config struct {
	Anonymous                 bool
	ExpandedStruct            bool
	DoNotReference            bool
	AllowAdditionalProperties bool
	IncludeSchemaVersion      bool
}

// DefaultConfig mirrors the shape a prompt-embedded schema wants: inlined,
// anonymous, no extra properties, no $schema noise.
func DefaultConfig() Config {
	return Config{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: false,
		IncludeSchemaVersion:      false,
	}
}

// StringOf generates a JSON Schema document string for v using the default
// configuration.
func StringOf(v any) (string, error) {
	return StringOfWithConfig(v, DefaultConfig())
}

// StringOfWithConfig generates a JSON Schema document string for v.
func StringOfWithConfig(v any, cfg Config) (string, error) {
	s, err := reflectSchema(v, cfg)
	if err != nil {
		return "", fmt.Errorf("schema: generate: %w", err)
	}
	raw, err := s.MarshalJSON()
	if err != nil {
		return "", fmt.Errorf("schema: marshal: %w", err)
	}
	return string(raw), nil
}

func reflectSchema(v any, cfg Config) (*jsonschema.Schema, error) {
	if v == nil {
		return nil, fmt.Errorf("schema: cannot reflect nil value")
	}

	r := &jsonschema.Reflector{
		Anonymous:                 cfg.Anonymous,
		ExpandedStruct:            cfg.ExpandedStruct,
		DoNotReference:            cfg.DoNotReference,
		AllowAdditionalProperties: cfg.AllowAdditionalProperties,
	}

	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() == reflect.Struct {
		r.ExpandedStruct = true
	}

	s := r.Reflect(v)
	if s == nil {
		return nil, fmt.Errorf("schema: reflect returned nil for %T", v)
	}
	if !cfg.IncludeSchemaVersion {
		s.Version = ""
	}
	return s, nil
}

// MustStringOf panics if schema generation fails. Only use it for types
// whose shape is known at compile time to reflect cleanly.
func MustStringOf(v any) string {
	s, err := StringOf(v)
	if err != nil {
		panic(err)
	}
	return s
}

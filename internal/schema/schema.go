package schema

import (
	"fmt"
	"time"

	"github.com/FACorreiaa/go-lms-sdk/internal/api"
	"github.com/FACorreiaa/go-lms-sdk/internal/types"
)

// FieldType is the closed set of declarable field types. Values arriving from
// the wire are generic JSON, so the check is dynamic, done once at the
// validation boundary.
type FieldType string

const (
	TypeString  FieldType = "string"
	TypeNumber  FieldType = "number"
	TypeBoolean FieldType = "boolean"
	TypeDate    FieldType = "date"
	TypeArray   FieldType = "array"
	TypeObject  FieldType = "object"
)

// Definition describes one collection: which fields must be present, what
// type each declared field carries, and the value filled in when the caller
// omits a field.
type Definition struct {
	RequiredFields []string
	FieldTypes     map[string]FieldType
	Defaults       map[string]any
}

// Registry holds the per-collection definitions. It is built once at startup
// and injected wherever validation is needed; nothing mutates it afterwards,
// so concurrent reads need no locking.
type Registry struct {
	definitions map[string]Definition
}

// NewRegistry returns a registry preloaded with the given definitions.
func NewRegistry(definitions map[string]Definition) *Registry {
	r := &Registry{definitions: make(map[string]Definition, len(definitions))}
	for name, def := range definitions {
		r.Register(name, def)
	}
	return r
}

// Register stores a schema under name. Re-registering the same name replaces
// the previous definition.
func (r *Registry) Register(name string, def Definition) {
	r.definitions[name] = def
}

// Definition returns the schema for name.
func (r *Registry) Definition(name string) (Definition, error) {
	def, ok := r.definitions[name]
	if !ok {
		return Definition{}, fmt.Errorf("collection %q: %w", name, api.ErrSchemaNotFound)
	}
	return def, nil
}

// Collections returns the names of every registered collection.
func (r *Registry) Collections() []string {
	names := make([]string, 0, len(r.definitions))
	for name := range r.definitions {
		names = append(names, name)
	}
	return names
}

// Has reports whether a schema is registered for name.
func (r *Registry) Has(name string) bool {
	_, ok := r.definitions[name]
	return ok
}

// Validate checks candidate against the collection's schema. Every missing
// required field and every wrongly typed declared field is reported in a
// single *api.ValidationError so the caller can fix the payload in one pass.
func (r *Registry) Validate(name string, candidate types.Record) error {
	def, err := r.Definition(name)
	if err != nil {
		return err
	}

	ve := &api.ValidationError{Collection: name}
	for _, field := range def.RequiredFields {
		if v, ok := candidate[field]; !ok || v == nil {
			ve.MissingFields = append(ve.MissingFields, field)
		}
	}
	for field, want := range def.FieldTypes {
		v, ok := candidate[field]
		if !ok || v == nil {
			continue // absence is the required-fields check's concern
		}
		if !matchesType(v, want) {
			if ve.WrongTypes == nil {
				ve.WrongTypes = make(map[string]string)
			}
			ve.WrongTypes[field] = string(want)
		}
	}

	if len(ve.MissingFields) > 0 || len(ve.WrongTypes) > 0 {
		return ve
	}
	return nil
}

// ApplyDefaults returns a copy of partial with every absent field filled from
// the schema's defaults. Caller-supplied values are never overwritten, even
// falsy ones (0, "", false): only a genuinely missing key takes the default.
func (r *Registry) ApplyDefaults(name string, partial types.Record) (types.Record, error) {
	def, err := r.Definition(name)
	if err != nil {
		return nil, err
	}

	out := partial.Clone()
	if out == nil {
		out = types.Record{}
	}
	for field, value := range def.Defaults {
		if _, present := out[field]; !present {
			out[field] = value
		}
	}
	return out, nil
}

// matchesType checks a generic JSON value against a declared field type.
// Numeric values may arrive as float64 (JSON decode) or as native Go ints
// from in-process callers; dates as RFC3339 strings or time.Time.
func matchesType(v any, want FieldType) bool {
	switch want {
	case TypeString:
		_, ok := v.(string)
		return ok
	case TypeNumber:
		switch v.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case TypeBoolean:
		_, ok := v.(bool)
		return ok
	case TypeDate:
		switch d := v.(type) {
		case time.Time:
			return true
		case string:
			_, err := time.Parse(time.RFC3339, d)
			return err == nil
		}
		return false
	case TypeArray:
		switch v.(type) {
		case []any, []string, []types.Record:
			return true
		}
		return false
	case TypeObject:
		switch v.(type) {
		case map[string]any, types.Record:
			return true
		}
		return false
	}
	return false
}

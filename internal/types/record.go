package types

import "time"

// Reserved field names stamped by the record store. They are assigned once
// and never overwritten by caller input.
const (
	FieldID        = "id"
	FieldUID       = "uid"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// TimestampFormat is the wire format for createdAt/updatedAt. The remote
// object API stores plain JSON, so timestamps travel as RFC3339 strings.
const TimestampFormat = time.RFC3339

// Record is a single schema-validated document inside a named collection.
// Field values hold what encoding/json produces for a generic document:
// string, float64, bool, []any, map[string]any or nil.
type Record map[string]any

// ID returns the record's identifier, or "" if the record was never stored.
func (r Record) ID() string {
	id, _ := r[FieldID].(string)
	return id
}

// UID returns the record's secondary unique identifier.
func (r Record) UID() string {
	uid, _ := r[FieldUID].(string)
	return uid
}

// String returns the named field as a string, or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Clone returns a shallow copy. Nested values are shared; callers that need
// to mutate nested structures must copy them first.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Merge shallow-merges partial over r into a new record. Reserved identity
// fields in partial are ignored so an update can never rewrite id, uid or
// createdAt.
func (r Record) Merge(partial Record) Record {
	out := r.Clone()
	for k, v := range partial {
		switch k {
		case FieldID, FieldUID, FieldCreatedAt:
			continue
		}
		out[k] = v
	}
	return out
}

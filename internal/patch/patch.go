// Package patch models partial-update payloads where an omitted field means
// "unchanged" and an explicit JSON null means "cleared". The distinction is
// load-bearing for nullable columns such as a document's due date or parent.
package patch

import "encoding/json"

// Field is an optional, nullable JSON field. The zero value is "absent".
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a present field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Null returns a present field carrying an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the field appeared in the payload at all.
func (f Field[T]) Present() bool { return f.present }

// IsNull reports whether the field was an explicit null.
func (f Field[T]) IsNull() bool { return f.present && f.null }

// Value returns the field's value and whether a non-null value is present.
func (f Field[T]) Value() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if string(data) == "null" {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.value)
}

func (f Field[T]) MarshalJSON() ([]byte, error) {
	if !f.present || f.null {
		return []byte("null"), nil
	}
	return json.Marshal(f.value)
}

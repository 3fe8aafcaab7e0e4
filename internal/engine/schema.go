package engine

import (
	"errors"
	"fmt"
)

// Kind is the storage type of a column.
type Kind int

const (
	Categorical Kind = iota
	Integer
	Numeric
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Integer:
		return "integer"
	case Numeric:
		return "numeric"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// MarshalText renders the kind by name in JSON payloads.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// IsNumeric reports whether the column can feed a sum or mean.
func (k Kind) IsNumeric() bool {
	return k == Integer || k == Numeric
}

// Field names a column and its kind.
type Field struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// ErrInvalidSpec is returned for aggregation specs whose shape is not
// supported (no group-by column, pivot without exactly two keys, ...).
var ErrInvalidSpec = errors.New("invalid aggregation spec")

// SchemaError reports a column that does not exist in the table.
type SchemaError struct {
	Column string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: column %q does not exist", e.Column)
}

// TypeError reports a numeric operation requested on a non-numeric column.
type TypeError struct {
	Column string
	Kind   Kind
	Op     string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type: %s requires a numeric column, %q is %s", e.Op, e.Column, e.Kind)
}

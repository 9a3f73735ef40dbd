// Package schema has models, constants and sentinel errors for all parts of motionwin.
package schema

import (
	"fmt"
	"strings"
)

// AttributeType is the declared type of a column.
type AttributeType string

// All attribute types supported. The string values are what gets written
// to the @attribute lines of an export.
const (
	IntegerType AttributeType = "int"
	RealType    AttributeType = "real"
	StringType  AttributeType = "string"
)

// MissingMarker is the literal written in place of a value that is not available.
const MissingMarker = "?"

// ValidAttributeTypes lists all valid attribute types.
var ValidAttributeTypes = map[AttributeType]struct{}{
	IntegerType: {},
	RealType:    {},
	StringType:  {},
}

// ParseAttributeType maps a declared type token to an AttributeType.
// The ARFF spellings "integer" and "numeric" are accepted as aliases.
func ParseAttributeType(s string) (AttributeType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "int", "integer":
		return IntegerType, nil
	case "real", "numeric":
		return RealType, nil
	case "string":
		return StringType, nil
	default:
		return "", fmt.Errorf("unsupported attribute type %q. must be int, real or string", s)
	}
}

// IsNumeric reports whether values of this type are numbers.
func (t AttributeType) IsNumeric() bool {
	return t == IntegerType || t == RealType
}

// Attribute is a named, typed column shared by every record of a collection.
type Attribute struct {
	Name string        `json:"name"`
	Type AttributeType `json:"type"`
}

// Schema is the ordered list of attributes that defines a valid record.
// The zero value is an empty schema.
type Schema struct {
	attrs []Attribute
	index map[string]int
}

// NewSchema builds a Schema from attributes in column order.
// Names must be unique and types must be valid.
func NewSchema(attrs ...Attribute) (Schema, error) {
	s := Schema{
		attrs: make([]Attribute, 0, len(attrs)),
		index: make(map[string]int, len(attrs)),
	}
	for _, a := range attrs {
		if a.Name == "" {
			return Schema{}, fmt.Errorf("attribute at position %d has no name", len(s.attrs))
		}
		if _, ok := ValidAttributeTypes[a.Type]; !ok {
			return Schema{}, fmt.Errorf("attribute %q: invalid type %q", a.Name, a.Type)
		}
		if _, dup := s.index[a.Name]; dup {
			return Schema{}, fmt.Errorf("%w: %q", ErrDuplicateAttribute, a.Name)
		}
		s.index[a.Name] = len(s.attrs)
		s.attrs = append(s.attrs, a)
	}
	return s, nil
}

// MustSchema is like NewSchema but panics on error. Meant for tests and literals.
func MustSchema(attrs ...Attribute) Schema {
	s, err := NewSchema(attrs...)
	if err != nil {
		panic(err)
	}
	return s
}

// FromPairs builds a Schema from parallel name and type slices.
func FromPairs(names []string, types []AttributeType) (Schema, error) {
	if len(names) != len(types) {
		return Schema{}, fmt.Errorf("%w: %d attribute names but %d types", ErrSchemaMismatch, len(names), len(types))
	}
	attrs := make([]Attribute, len(names))
	for i := range names {
		attrs[i] = Attribute{Name: names[i], Type: types[i]}
	}
	return NewSchema(attrs...)
}

// Len returns the number of attributes.
func (s Schema) Len() int { return len(s.attrs) }

// Attributes returns a copy of the attributes in column order.
func (s Schema) Attributes() []Attribute {
	out := make([]Attribute, len(s.attrs))
	copy(out, s.attrs)
	return out
}

// At returns the attribute at column i.
func (s Schema) At(i int) Attribute { return s.attrs[i] }

// Index returns the column of the named attribute.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Names returns the attribute names in column order.
func (s Schema) Names() []string {
	out := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.Name
	}
	return out
}

// Types returns the attribute types in column order.
func (s Schema) Types() []AttributeType {
	out := make([]AttributeType, len(s.attrs))
	for i, a := range s.attrs {
		out[i] = a.Type
	}
	return out
}

// Equal reports whether both schemas declare the same attributes in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.attrs) != len(other.attrs) {
		return false
	}
	for i := range s.attrs {
		if s.attrs[i] != other.attrs[i] {
			return false
		}
	}
	return true
}

// String renders the schema as name(type) pairs.
func (s Schema) String() string {
	parts := make([]string, len(s.attrs))
	for i, a := range s.attrs {
		parts[i] = fmt.Sprintf("%s(%s)", a.Name, a.Type)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

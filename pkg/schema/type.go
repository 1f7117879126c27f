// Package schema defines the recursive column type model used by the
// series builder: a closed set of column kinds, a Type that describes a
// column (including list element types, ordered record fields, and
// enumeration labels), and the mapping from Types to Arrow data types.
//
// Types are immutable value types. Metadata (a display name plus
// key/value attributes) is carried alongside the structural description
// and never participates in type comparison or conflict resolution.
package schema

import (
	"fmt"
	"strings"
)

// Kind identifies the shape of a column. Conflict columns are an
// implementation detail of the series builder and have no Kind here;
// they always report KindString.
type Kind uint8

const (
	// KindNull is the kind of a column that has only ever seen nulls.
	KindNull Kind = iota
	// KindBool is a boolean column.
	KindBool
	// KindInt64 is a signed 64-bit integer column.
	KindInt64
	// KindUint64 is an unsigned 64-bit integer column.
	KindUint64
	// KindDouble is a 64-bit floating point column.
	KindDouble
	// KindDuration is a nanosecond-resolution duration column.
	KindDuration
	// KindTime is a nanosecond-resolution UTC timestamp column.
	KindTime
	// KindString is a UTF-8 string column.
	KindString
	// KindIP is an IP address column, stored in canonical string form.
	KindIP
	// KindSubnet is an IP prefix column, stored in canonical string form.
	KindSubnet
	// KindEnum is an enumeration column storing label indices. Its label
	// set is fixed at construction and can only come from a declared type.
	KindEnum
	// KindList is a variable-length list column.
	KindList
	// KindRecord is a struct column with named fields.
	KindRecord
)

var kindNames = [...]string{
	KindNull:     "null",
	KindBool:     "bool",
	KindInt64:    "int64",
	KindUint64:   "uint64",
	KindDouble:   "double",
	KindDuration: "duration",
	KindTime:     "time",
	KindString:   "string",
	KindIP:       "ip",
	KindSubnet:   "subnet",
	KindEnum:     "enumeration",
	KindList:     "list",
	KindRecord:   "record",
}

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// IsAtom reports whether the kind is a scalar column kind.
func (k Kind) IsAtom() bool {
	return k != KindList && k != KindRecord
}

// Attribute is a single key/value metadata entry on a type.
type Attribute struct {
	Key   string
	Value string
}

// Field is a named field of a record type. Names are non-empty and
// unique within their record.
type Field struct {
	Name string
	Type Type
}

// Type describes a column: a kind plus kind-specific structure and
// optional metadata. The zero value is the null type.
type Type struct {
	kind   Kind
	name   string
	attrs  []Attribute
	elem   *Type
	fields []Field
	labels []string
}

// Null returns the null type.
func Null() Type { return Type{kind: KindNull} }

// Bool returns the bool type.
func Bool() Type { return Type{kind: KindBool} }

// Int64 returns the int64 type.
func Int64() Type { return Type{kind: KindInt64} }

// Uint64 returns the uint64 type.
func Uint64() Type { return Type{kind: KindUint64} }

// Double returns the double type.
func Double() Type { return Type{kind: KindDouble} }

// Duration returns the duration type.
func Duration() Type { return Type{kind: KindDuration} }

// Time returns the timestamp type.
func Time() Type { return Type{kind: KindTime} }

// String_ returns the string type. The trailing underscore avoids
// clashing with the Stringer method.
func String_() Type { return Type{kind: KindString} }

// IP returns the IP address type.
func IP() Type { return Type{kind: KindIP} }

// Subnet returns the subnet type.
func Subnet() Type { return Type{kind: KindSubnet} }

// Enum returns an enumeration type over the given labels.
func Enum(labels ...string) Type {
	return Type{kind: KindEnum, labels: append([]string(nil), labels...)}
}

// List returns a list type with the given element type.
func List(elem Type) Type {
	return Type{kind: KindList, elem: &elem}
}

// Record returns a record type with the given fields, in order.
func Record(fields ...Field) Type {
	return Type{kind: KindRecord, fields: append([]Field(nil), fields...)}
}

// Kind returns the type's kind.
func (t Type) Kind() Kind { return t.kind }

// Name returns the type's display name, if any.
func (t Type) Name() string { return t.name }

// Attrs returns the type's attributes.
func (t Type) Attrs() []Attribute { return t.attrs }

// Attr looks up an attribute by key.
func (t Type) Attr(key string) (string, bool) {
	for _, a := range t.attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return "", false
}

// Elem returns the element type of a list type. It panics for other
// kinds.
func (t Type) Elem() Type {
	if t.kind != KindList {
		panic("schema: Elem on non-list type " + t.kind.String())
	}
	return *t.elem
}

// Fields returns the fields of a record type, in declaration order. It
// panics for other kinds.
func (t Type) Fields() []Field {
	if t.kind != KindRecord {
		panic("schema: Fields on non-record type " + t.kind.String())
	}
	return t.fields
}

// Labels returns the labels of an enumeration type.
func (t Type) Labels() []string {
	if t.kind != KindEnum {
		panic("schema: Labels on non-enumeration type " + t.kind.String())
	}
	return t.labels
}

// WithName returns a copy of the type with the given display name.
func (t Type) WithName(name string) Type {
	t.name = name
	return t
}

// WithAttrs returns a copy of the type with the given attributes
// appended.
func (t Type) WithAttrs(attrs ...Attribute) Type {
	t.attrs = append(append([]Attribute(nil), t.attrs...), attrs...)
	return t
}

// WithMetadataFrom returns a copy of the type carrying the name and
// attributes of src. Structural information is unchanged. The name is
// replaced only when src has one; src's attributes are appended after
// the existing ones, so Attr still finds an existing key first.
func (t Type) WithMetadataFrom(src Type) Type {
	if src.name != "" {
		t.name = src.name
	}
	if len(src.attrs) > 0 {
		t.attrs = append(append([]Attribute(nil), t.attrs...), src.attrs...)
	}
	return t
}

// String renders the type structurally, e.g.
// "record{a: int64, xs: list<string>}".
func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	switch t.kind {
	case KindList:
		sb.WriteString("list<")
		t.elem.write(sb)
		sb.WriteByte('>')
	case KindRecord:
		sb.WriteString("record{")
		for i, f := range t.fields {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(f.Name)
			sb.WriteString(": ")
			f.Type.write(sb)
		}
		sb.WriteByte('}')
	case KindEnum:
		sb.WriteString("enum<")
		sb.WriteString(strings.Join(t.labels, "|"))
		sb.WriteByte('>')
	default:
		sb.WriteString(t.kind.String())
	}
}

// Equal reports structural equality, ignoring metadata.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindList:
		return t.elem.Equal(*other.elem)
	case KindRecord:
		if len(t.fields) != len(other.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != other.fields[i].Name {
				return false
			}
			if !t.fields[i].Type.Equal(other.fields[i].Type) {
				return false
			}
		}
		return true
	case KindEnum:
		if len(t.labels) != len(other.labels) {
			return false
		}
		for i := range t.labels {
			if t.labels[i] != other.labels[i] {
				return false
			}
		}
		return true
	default:
		return true
	}
}

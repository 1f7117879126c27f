package schema

import (
	"github.com/apache/arrow-go/v18/arrow"
)

// TypeAttrKey is the field metadata key under which the logical kind of
// a column is recorded when the Arrow storage type alone does not
// identify it (ip, subnet, enumeration).
const TypeAttrKey = "seriate.type"

// LabelsAttrKey is the field metadata key under which enumeration
// labels are recorded, joined with commas.
const LabelsAttrKey = "seriate.labels"

// Arrow returns the Arrow storage type for the type.
func (t Type) Arrow() arrow.DataType {
	switch t.kind {
	case KindNull:
		return arrow.Null
	case KindBool:
		return arrow.FixedWidthTypes.Boolean
	case KindInt64:
		return arrow.PrimitiveTypes.Int64
	case KindUint64:
		return arrow.PrimitiveTypes.Uint64
	case KindDouble:
		return arrow.PrimitiveTypes.Float64
	case KindDuration:
		return arrow.FixedWidthTypes.Duration_ns
	case KindTime:
		return &arrow.TimestampType{Unit: arrow.Nanosecond, TimeZone: "UTC"}
	case KindString, KindIP, KindSubnet:
		return arrow.BinaryTypes.String
	case KindEnum:
		return arrow.PrimitiveTypes.Uint8
	case KindList:
		return arrow.ListOf(t.elem.Arrow())
	case KindRecord:
		fields := make([]arrow.Field, 0, len(t.fields))
		for _, f := range t.fields {
			fields = append(fields, f.Type.ArrowField(f.Name))
		}
		return arrow.StructOf(fields...)
	}
	panic("schema: no arrow type for " + t.kind.String())
}

// ArrowField returns an Arrow field for the type, carrying the type's
// attributes and, for kinds whose storage type is ambiguous, the
// logical kind as field metadata.
func (t Type) ArrowField(name string) arrow.Field {
	var keys, vals []string
	switch t.kind {
	case KindIP, KindSubnet:
		keys = append(keys, TypeAttrKey)
		vals = append(vals, t.kind.String())
	case KindEnum:
		keys = append(keys, TypeAttrKey, LabelsAttrKey)
		vals = append(vals, t.kind.String(), joinLabels(t.labels))
	}
	for _, a := range t.attrs {
		keys = append(keys, a.Key)
		vals = append(vals, a.Value)
	}
	field := arrow.Field{Name: name, Type: t.Arrow(), Nullable: true}
	if len(keys) > 0 {
		field.Metadata = arrow.NewMetadata(keys, vals)
	}
	return field
}

// ArrowSchema returns an Arrow schema for a record type. It panics for
// other kinds.
func (t Type) ArrowSchema(name string) *arrow.Schema {
	fields := make([]arrow.Field, 0, len(t.Fields()))
	for _, f := range t.fields {
		fields = append(fields, f.Type.ArrowField(f.Name))
	}
	var md arrow.Metadata
	if name != "" {
		md = arrow.NewMetadata([]string{"name"}, []string{name})
	}
	return arrow.NewSchema(fields, &md)
}

func joinLabels(labels []string) string {
	out := ""
	for i, l := range labels {
		if i > 0 {
			out += ","
		}
		out += l
	}
	return out
}

package schema

import (
	"testing"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	ty := Record(
		Field{Name: "a", Type: Int64()},
		Field{Name: "xs", Type: List(String_())},
		Field{Name: "proto", Type: Enum("tcp", "udp")},
	)
	assert.Equal(t, "record{a: int64, xs: list<string>, proto: enum<tcp|udp>}", ty.String())
}

func TestTypeEqualIgnoresMetadata(t *testing.T) {
	a := Int64()
	b := Int64().WithName("count").WithAttrs(Attribute{Key: "unit", Value: "s"})
	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(String_()))
	assert.False(t, List(Int64()).Equal(List(String_())))
	assert.False(t,
		Record(Field{Name: "a", Type: Int64()}).Equal(
			Record(Field{Name: "b", Type: Int64()})))
}

func TestArrowMapping(t *testing.T) {
	assert.Equal(t, arrow.PrimitiveTypes.Int64, Int64().Arrow())
	assert.Equal(t, arrow.BinaryTypes.String, String_().Arrow())
	assert.Equal(t, arrow.BinaryTypes.String, IP().Arrow())
	assert.Equal(t, arrow.PrimitiveTypes.Uint8, Enum("a").Arrow())
	assert.Equal(t, arrow.FixedWidthTypes.Duration_ns, Duration().Arrow())

	lt, ok := List(Bool()).Arrow().(*arrow.ListType)
	require.True(t, ok)
	assert.Equal(t, arrow.FixedWidthTypes.Boolean, lt.Elem())

	st, ok := Record(Field{Name: "x", Type: Double()}).Arrow().(*arrow.StructType)
	require.True(t, ok)
	require.Equal(t, 1, st.NumFields())
	assert.Equal(t, "x", st.Field(0).Name)
}

func TestArrowFieldMetadata(t *testing.T) {
	metaValue := func(f arrow.Field, key string) string {
		idx := f.Metadata.FindKey(key)
		require.GreaterOrEqual(t, idx, 0, "metadata key %q missing", key)
		return f.Metadata.Values()[idx]
	}

	assert.Equal(t, "ip", metaValue(IP().ArrowField("src"), TypeAttrKey))
	assert.Equal(t, "tcp,udp", metaValue(Enum("tcp", "udp").ArrowField("proto"), LabelsAttrKey))

	elapsed := Duration().WithAttrs(Attribute{Key: "unit", Value: "ms"}).ArrowField("elapsed")
	assert.Equal(t, "ms", metaValue(elapsed, "unit"))
}

func TestParse(t *testing.T) {
	decl := `
name: flow
fields:
  - name: ts
    type: duration
    attributes:
      unit: s
  - name: src
    type: ip
  - name: proto
    type: enum
    labels: [tcp, udp]
  - name: tags
    type: list
    elem:
      type: string
  - name: meta
    type: record
    fields:
      - name: depth
        type: uint64
`
	ty, err := Parse([]byte(decl))
	require.NoError(t, err)
	assert.Equal(t, "flow", ty.Name())
	require.Equal(t, KindRecord, ty.Kind())
	fields := ty.Fields()
	require.Len(t, fields, 5)

	assert.Equal(t, KindDuration, fields[0].Type.Kind())
	unit, ok := fields[0].Type.Attr("unit")
	require.True(t, ok)
	assert.Equal(t, "s", unit)

	assert.Equal(t, KindIP, fields[1].Type.Kind())
	assert.Equal(t, []string{"tcp", "udp"}, fields[2].Type.Labels())
	assert.Equal(t, KindString, fields[3].Type.Elem().Kind())
	assert.Equal(t, KindUint64, fields[4].Type.Fields()[0].Type.Kind())
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		`type: list`,                                    // list without elem
		`type: enum`,                                    // enum without labels
		`type: banana`,                                  // unknown type
		"fields:\n  - name: a\n    type: int64\n  - name: a\n    type: string", // duplicate field
		"fields:\n  - type: int64",                      // unnamed field
	}
	for _, c := range cases {
		_, err := Parse([]byte(c))
		assert.Error(t, err, c)
	}
}

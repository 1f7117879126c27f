package series

import (
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/seriate-io/seriate/pkg/json"
	"github.com/seriate-io/seriate/pkg/schema"
)

// conflictColumn absorbs heterogeneous values inside a single event: it
// keeps one child column per distinct observed kind plus a byte vector
// of discriminants, one per row. At finish time every row is rendered
// as a string: textual values keep their raw content and all others
// become one-line JSON, so the emitted type is always string.
// Its reported type is string even while it stores heterogeneous data;
// downstream code never observes the conflict kind.
type conflictColumn struct {
	mem      memory.Allocator
	discr    []uint8
	variants []column
}

// newConflictColumn wraps an existing column whose rows become variant
// zero.
func newConflictColumn(mem memory.Allocator, wrapped column) *conflictColumn {
	c := &conflictColumn{mem: mem}
	for i := 0; i < wrapped.length(); i++ {
		c.discr = append(c.discr, 0)
	}
	c.variants = append(c.variants, wrapped)
	return c
}

func (c *conflictColumn) length() int       { return len(c.discr) }
func (c *conflictColumn) kind() schema.Kind { return schema.KindString }
func (c *conflictColumn) typ() schema.Type  { return schema.String_() }

func (c *conflictColumn) onlyNull() bool {
	for _, v := range c.variants {
		if !v.onlyNull() {
			return false
		}
	}
	return true
}

// prepare returns the variant for the requested kind, creating it on
// demand, and records the discriminant for the new row.
func (c *conflictColumn) prepare(want schema.Kind, make func() column) column {
	for i, v := range c.variants {
		if v.kind() == want {
			c.discr = append(c.discr, uint8(i))
			return v
		}
	}
	assertf(len(c.variants) < 256, "conflict column variant overflow")
	v := make()
	c.discr = append(c.discr, uint8(len(c.variants)))
	c.variants = append(c.variants, v)
	return v
}

func (c *conflictColumn) resize(n int) {
	cur := len(c.discr)
	switch {
	case n > cur:
		// Nulls land in variant zero.
		nulls := n - cur
		c.variants[0].resize(c.variants[0].length() + nulls)
		for i := 0; i < nulls; i++ {
			c.discr = append(c.discr, 0)
		}
	case n < cur:
		counts := make([]int, len(c.variants))
		for _, dsc := range c.discr[n:] {
			counts[dsc]++
		}
		c.discr = c.discr[:n]
		for i, v := range c.variants {
			v.resize(v.length() - counts[i])
		}
	}
}

func (c *conflictColumn) finishAndLeave(leave int) Series {
	total := len(c.discr)
	emit := total - leave
	assertf(emit >= 0, "conflict column cannot leave %d of %d rows", leave, total)

	// Finish each variant, leaving the rows assigned to it among the
	// retained tail.
	leaveCounts := make([]int, len(c.variants))
	for _, dsc := range c.discr[emit:] {
		leaveCounts[dsc]++
	}
	finished := make([]Series, len(c.variants))
	for i, v := range c.variants {
		finished[i] = v.finishAndLeave(leaveCounts[i])
	}

	sb := array.NewStringBuilder(c.mem)
	offsets := make([]int, len(c.variants))
	for i := 0; i < emit; i++ {
		dsc := c.discr[i]
		s := finished[dsc]
		assertf(offsets[dsc] < s.Len(), "conflict variant %d ran out of rows", dsc)
		val := valueAt(s.Type, s.Array, offsets[dsc])
		offsets[dsc]++
		switch {
		case val == nil:
			sb.Append("null")
		case textualKind(s.Type.Kind()):
			// Already-textual values keep their raw content; JSON
			// encoding would double-quote them.
			sb.Append(val.(string))
		default:
			rendered, err := json.MarshalOneLine(val)
			assertf(err == nil, "conflict rendering failed: %v", err)
			sb.Append(rendered)
		}
	}
	c.discr = append([]uint8(nil), c.discr[emit:]...)
	return Series{Type: schema.String_(), Array: sb.NewArray()}
}

// textualKind reports whether values of the kind read back as raw
// strings that need no JSON encoding.
func textualKind(k schema.Kind) bool {
	switch k {
	case schema.KindString, schema.KindIP, schema.KindSubnet, schema.KindEnum:
		return true
	}
	return false
}

// valueAt reads row i of a typed array back as a Go value suitable for
// JSON rendering. Durations render in their string form, timestamps as
// RFC 3339, enumerations as their label.
func valueAt(ty schema.Type, arr arrow.Array, i int) interface{} {
	if arr.IsNull(i) {
		return nil
	}
	switch ty.Kind() {
	case schema.KindNull:
		return nil
	case schema.KindBool:
		return arr.(*array.Boolean).Value(i)
	case schema.KindInt64:
		return arr.(*array.Int64).Value(i)
	case schema.KindUint64:
		return arr.(*array.Uint64).Value(i)
	case schema.KindDouble:
		return arr.(*array.Float64).Value(i)
	case schema.KindDuration:
		return time.Duration(arr.(*array.Duration).Value(i)).String()
	case schema.KindTime:
		ns := int64(arr.(*array.Timestamp).Value(i))
		return time.Unix(0, ns).UTC().Format(time.RFC3339Nano)
	case schema.KindString, schema.KindIP, schema.KindSubnet:
		return arr.(*array.String).Value(i)
	case schema.KindEnum:
		idx := int(arr.(*array.Uint8).Value(i))
		labels := ty.Labels()
		assertf(idx < len(labels), "enumeration index %d out of range", idx)
		return labels[idx]
	case schema.KindList:
		la := arr.(*array.List)
		start, end := la.ValueOffsets(i)
		child := la.ListValues()
		out := make([]interface{}, 0, end-start)
		for j := start; j < end; j++ {
			out = append(out, valueAt(ty.Elem(), child, int(j)))
		}
		return out
	case schema.KindRecord:
		sa := arr.(*array.Struct)
		out := make(map[string]interface{}, len(ty.Fields()))
		for fi, f := range ty.Fields() {
			out[f.Name] = valueAt(f.Type, sa.Field(fi), i)
		}
		return out
	}
	panic("series: no value extraction for " + ty.Kind().String())
}

// Package series implements a dynamic columnar series builder. It
// ingests a stream of schema-less, possibly heterogeneous records and
// produces strongly typed Arrow arrays, inferring types on the fly,
// unifying conflicting types across events where possible, and cutting
// batch boundaries when unification would lose information.
//
// The implementation consists of the following pieces:
//
//   - Typed atom columns wrap one Arrow builder per scalar kind.
//   - listColumn keeps an int32 offsets builder plus a child dynamic
//     builder for the elements.
//   - recordColumn keeps an insertion-ordered field map, a validity
//     vector whose missing entries mean "non-null", and a length.
//   - dynamicBuilder owns exactly one inner column and replaces it when
//     the observed type changes, preserving the current length.
//   - conflictColumn is the last resort for heterogeneity inside a
//     single event; it renders its contents as JSON strings at finish.
//   - Builder is the user-facing series root: it owns the top-level
//     dynamic builder, the queue of already finished series, and the
//     conflict-pending flag.
//
// Because a conflict with previous events can be resolved by emitting
// those events as a finished batch, the builder first asks the root to
// finish everything except the event currently being assembled. Only
// when data remains afterwards — a conflict within the in-flight event,
// e.g. a list whose items disagree — does the column upgrade to a
// conflict column.
package series

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/seriate-io/seriate/pkg/schema"
)

// column is the contract shared by every inner builder of a dynamic
// builder. A column accumulates rows, reports its current type, and can
// emit all but its last `leave` rows as a typed Arrow array.
type column interface {
	length() int
	kind() schema.Kind
	typ() schema.Type
	onlyNull() bool
	// resize extends the column with nulls, or drops rows from the tail.
	// Dropping can be expensive; it only happens on row rollback and
	// conflict bookkeeping.
	resize(n int)
	// finishAndLeave emits rows [0, length-leave) and retains the last
	// `leave` rows at the head of a fresh accumulator of the same type.
	finishAndLeave(leave int) Series
}

// nullColumn counts rows that have only ever been null. It is the
// initial state of every dynamic builder; the first non-null write
// replaces it with a typed column of the observed kind.
type nullColumn struct {
	n int
}

func (c *nullColumn) length() int       { return c.n }
func (c *nullColumn) kind() schema.Kind { return schema.KindNull }
func (c *nullColumn) typ() schema.Type  { return schema.Null() }
func (c *nullColumn) onlyNull() bool    { return true }
func (c *nullColumn) resize(n int)      { c.n = n }

func (c *nullColumn) finishAndLeave(leave int) Series {
	assertf(leave <= c.n, "null column cannot leave %d of %d rows", leave, c.n)
	emitted := c.n - leave
	c.n = leave
	return Series{Type: schema.Null(), Array: array.NewNull(emitted)}
}

// atomColumn wraps one typed Arrow builder for a scalar column kind.
// The enumeration variant additionally carries its label set in the
// type; it can only be constructed through protection.
type atomColumn struct {
	ty schema.Type
	b  array.Builder
}

func newAtomColumn(mem memory.Allocator, ty schema.Type) *atomColumn {
	return &atomColumn{ty: ty, b: array.NewBuilder(mem, ty.Arrow())}
}

func (c *atomColumn) length() int       { return c.b.Len() }
func (c *atomColumn) kind() schema.Kind { return c.ty.Kind() }
func (c *atomColumn) typ() schema.Type  { return c.ty }
func (c *atomColumn) onlyNull() bool    { return c.b.NullN() == c.b.Len() }

// append routes a non-null value of the column's kind into the Arrow
// builder.
func (c *atomColumn) append(v Value) {
	switch b := c.b.(type) {
	case *array.BooleanBuilder:
		b.Append(v.b)
	case *array.Int64Builder:
		b.Append(v.i)
	case *array.Uint64Builder:
		b.Append(v.u)
	case *array.Float64Builder:
		b.Append(v.f)
	case *array.DurationBuilder:
		b.Append(arrow.Duration(v.d.Nanoseconds()))
	case *array.TimestampBuilder:
		b.Append(arrow.Timestamp(v.t.UnixNano()))
	case *array.StringBuilder:
		switch v.kind {
		case schema.KindIP:
			b.Append(v.addr.String())
		case schema.KindSubnet:
			b.Append(v.pfx.String())
		default:
			b.Append(v.s)
		}
	case *array.Uint8Builder:
		assertf(v.e < uint64(len(c.ty.Labels())),
			"enumeration index %d out of range for %s", v.e, c.ty)
		b.Append(uint8(v.e))
	default:
		panic(fmt.Sprintf("series: no append path for builder %T", c.b))
	}
}

func (c *atomColumn) resize(n int) {
	cur := c.b.Len()
	switch {
	case n > cur:
		c.b.AppendNulls(n - cur)
	case n < cur:
		arr := c.b.NewArray()
		c.appendSlice(arr, 0, n)
	}
}

func (c *atomColumn) finishAndLeave(leave int) Series {
	assertf(leave <= c.b.Len(), "atom column cannot leave %d of %d rows", leave, c.b.Len())
	arr := c.b.NewArray()
	total := arr.Len()
	c.appendSlice(arr, total-leave, total)
	return Series{Type: c.ty, Array: array.NewSlice(arr, 0, int64(total-leave))}
}

// appendSlice re-appends rows [from, to) of a finished array into the
// (reset) builder, preserving nulls.
func (c *atomColumn) appendSlice(arr arrow.Array, from, to int) {
	for i := from; i < to; i++ {
		if arr.IsNull(i) {
			c.b.AppendNull()
			continue
		}
		switch b := c.b.(type) {
		case *array.BooleanBuilder:
			b.Append(arr.(*array.Boolean).Value(i))
		case *array.Int64Builder:
			b.Append(arr.(*array.Int64).Value(i))
		case *array.Uint64Builder:
			b.Append(arr.(*array.Uint64).Value(i))
		case *array.Float64Builder:
			b.Append(arr.(*array.Float64).Value(i))
		case *array.DurationBuilder:
			b.Append(arr.(*array.Duration).Value(i))
		case *array.TimestampBuilder:
			b.Append(arr.(*array.Timestamp).Value(i))
		case *array.StringBuilder:
			b.Append(arr.(*array.String).Value(i))
		case *array.Uint8Builder:
			b.Append(arr.(*array.Uint8).Value(i))
		default:
			panic(fmt.Sprintf("series: no slice path for builder %T", c.b))
		}
	}
}

// assertf guards internal invariants. Violations are programming bugs,
// not user errors.
func assertf(cond bool, format string, args ...interface{}) {
	if !cond {
		panic("series: " + fmt.Sprintf(format, args...))
	}
}

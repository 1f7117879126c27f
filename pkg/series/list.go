package series

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/seriate-io/seriate/pkg/schema"
)

// listColumn is a column of variable-length lists: an int32 offsets
// builder holding the opening offset of every list, plus one dynamic
// builder for the elements. The closing offset is only materialized
// when the column is finished.
type listColumn struct {
	mem      memory.Allocator
	offsets  *array.Int32Builder
	elements dynamicBuilder
}

func newListColumn(root *Builder) *listColumn {
	return &listColumn{
		mem:      root.mem,
		offsets:  array.NewInt32Builder(root.mem),
		elements: newDynamicBuilder(root.mem),
	}
}

func (c *listColumn) length() int       { return c.offsets.Len() }
func (c *listColumn) kind() schema.Kind { return schema.KindList }
func (c *listColumn) typ() schema.Type  { return schema.List(c.elements.typ()) }
func (c *listColumn) onlyNull() bool    { return c.offsets.NullN() == c.offsets.Len() }

// append opens a new list and returns the elements builder the caller
// writes the list's contents into.
func (c *listColumn) append() *dynamicBuilder {
	c.offsets.Append(int32(c.elements.length()))
	return &c.elements
}

func (c *listColumn) resize(n int) {
	cur := c.offsets.Len()
	switch {
	case n < cur:
		arr := c.offsets.NewInt32Array()
		vals := make([]int32, n)
		valid := make([]bool, n)
		for i := 0; i < n; i++ {
			vals[i] = arr.Value(i)
			valid[i] = arr.IsValid(i)
		}
		c.offsets.AppendValues(vals, valid)
		// Elements shrink to the ending offset of the last kept list,
		// which is the opening offset of the first dropped one.
		c.elements.resize(int(arr.Value(n)))
	case n > cur:
		// A null list still needs a monotonic offset: reuse the current
		// ending offset with the validity bit cleared.
		for i := cur; i < n; i++ {
			c.offsets.AppendValues([]int32{int32(c.elements.length())}, []bool{false})
		}
	}
}

func (c *listColumn) finishAndLeave(leave int) Series {
	finishCount := c.offsets.Len() - leave
	assertf(finishCount >= 0, "list column cannot leave %d of %d rows", leave, c.offsets.Len())
	// Close the final open list.
	c.offsets.Append(int32(c.elements.length()))
	arr := c.offsets.NewInt32Array()
	endingOffset := arr.Value(finishCount)

	offs := make([]int32, finishCount+1)
	copy(offs, arr.Int32Values()[:finishCount+1])
	validity := make([]byte, bitutil.CeilByte(finishCount)/8)
	nullCount := 0
	for i := 0; i < finishCount; i++ {
		if arr.IsValid(i) {
			bitutil.SetBit(validity, i)
		} else {
			nullCount++
		}
	}

	// Re-open the retained lists, shifted so the kept elements tail
	// begins at offset zero.
	for i := 0; i < leave; i++ {
		shifted := arr.Value(finishCount+i) - endingOffset
		if i == 0 {
			assertf(shifted == 0, "retained list offsets must restart at zero, got %d", shifted)
		}
		c.offsets.AppendValues([]int32{shifted}, []bool{arr.IsValid(finishCount + i)})
	}

	remaining := c.elements.length() - int(endingOffset)
	// This resets the element type if no elements remain.
	used := c.elements.finishAndLeave(remaining)

	var validityBuf *memory.Buffer
	if nullCount > 0 {
		validityBuf = memory.NewBufferBytes(validity)
	}
	data := array.NewData(
		arrow.ListOf(used.Array.DataType()),
		finishCount,
		[]*memory.Buffer{validityBuf, memory.NewBufferBytes(arrow.Int32Traits.CastToBytes(offs))},
		[]arrow.ArrayData{used.Array.Data()},
		nullCount,
		0,
	)
	return Series{Type: schema.List(used.Type), Array: array.NewListData(data)}
}

package series

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/bitutil"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/seriate-io/seriate/pkg/schema"
)

// recordColumn is a column of structs: an insertion-ordered map from
// field name to a child dynamic builder, a validity vector whose
// missing tail entries mean "non-null", and a row count. Child columns
// lag behind the record length until they are written or finished;
// missing tail entries are implicitly null.
type recordColumn struct {
	root   *Builder
	names  []string
	index  map[string]int
	fields []*dynamicBuilder
	// valid is the materialized prefix of the validity bitmap. Rows at
	// and past len(valid) are non-null.
	valid []bool
	n     int
	// keepAlive pins the field currently being written, so that a
	// conflict-triggered finish does not garbage-collect it.
	keepAlive *dynamicBuilder
}

func newRecordColumn(root *Builder) *recordColumn {
	return &recordColumn{root: root, index: make(map[string]int)}
}

func (c *recordColumn) length() int       { return c.n }
func (c *recordColumn) kind() schema.Kind { return schema.KindRecord }

func (c *recordColumn) typ() schema.Type {
	fields := make([]schema.Field, 0, len(c.names))
	for i, name := range c.names {
		fields = append(fields, schema.Field{Name: name, Type: c.fields[i].typ()})
	}
	return schema.Record(fields...)
}

func (c *recordColumn) onlyNull() bool {
	// Rows without a materialized validity entry are non-null.
	if len(c.valid) < c.n {
		return c.n == 0
	}
	for _, v := range c.valid[:c.n] {
		if v {
			return false
		}
	}
	return true
}

// append adds a new row. Fields not set before the next row starts are
// implicitly null for this row.
func (c *recordColumn) append() {
	c.n++
}

func (c *recordColumn) fieldBuilder(name string) *dynamicBuilder {
	if i, ok := c.index[name]; ok {
		return c.fields[i]
	}
	return nil
}

// insertNewField registers a field that does not exist yet.
func (c *recordColumn) insertNewField(name string) *dynamicBuilder {
	_, exists := c.index[name]
	assertf(!exists, "field %q already exists", name)
	d := newDynamicBuilderPtr(c.root.mem)
	c.index[name] = len(c.names)
	c.names = append(c.names, name)
	c.fields = append(c.fields, d)
	return d
}

// writeField looks up or creates the named child, backfills it with
// nulls up to the previous row, and runs the write against it. The
// child is pinned for the duration of the write: a type conflict inside
// fn finishes previous events, which garbage-collects all-null fields,
// and the active one must survive that.
func (c *recordColumn) writeField(name string, fn func(d *dynamicBuilder) error) error {
	d := c.fieldBuilder(name)
	if d == nil {
		d = c.insertNewField(name)
		d.resize(c.n - 1)
		return fn(d)
	}
	d.resize(c.n - 1)
	assertf(c.keepAlive == nil, "nested field write on record builder")
	c.keepAlive = d
	err := fn(d)
	c.keepAlive = nil
	return err
}

// writeFieldNull erases the field's value for the current row. A field
// that does not exist stays unmaterialized: a field that is always null
// never appears in the record's type.
func (c *recordColumn) writeFieldNull(name string) {
	d := c.fieldBuilder(name)
	if d == nil {
		return
	}
	assertf(d.length() <= c.n, "field %q is longer than its record", name)
	if d.length() == c.n {
		d.resize(c.n - 1)
	}
}

func (c *recordColumn) resize(n int) {
	switch {
	case n < c.n:
		if len(c.valid) > n {
			c.valid = c.valid[:n]
		}
		for _, d := range c.fields {
			if d.length() > n {
				d.resize(n)
			}
		}
	case n > c.n:
		// Materialize the implicit trues, then append the new rows as
		// null.
		for len(c.valid) < c.n {
			c.valid = append(c.valid, true)
		}
		for i := c.n; i < n; i++ {
			c.valid = append(c.valid, false)
		}
	}
	c.n = n
}

func (c *recordColumn) finishAndLeave(leave int) Series {
	assertf(leave <= c.n, "record column cannot leave %d of %d rows", leave, c.n)
	target := c.n - leave

	outFields := make([]schema.Field, 0, len(c.names))
	arrowFields := make([]arrow.Field, 0, len(c.names))
	childData := make([]arrow.ArrayData, 0, len(c.names))
	keptNames := make([]string, 0, len(c.names))
	keptFields := make([]*dynamicBuilder, 0, len(c.names))

	for i, name := range c.names {
		d := c.fields[i]
		assertf(d.length() <= c.n, "field %q is longer than its record", name)
		if d.length() < target {
			d.resize(target)
		}
		childLeave := d.length() - target
		s := d.finishAndLeave(childLeave)
		assertf(s.Len() == target, "field %q emitted %d of %d rows", name, s.Len(), target)
		outFields = append(outFields, schema.Field{Name: name, Type: s.Type})
		arrowFields = append(arrowFields, s.Type.ArrowField(name))
		childData = append(childData, s.Array.Data())
		if d.length() == 0 && !d.isProtected() && d != c.keepAlive {
			continue
		}
		keptNames = append(keptNames, name)
		keptFields = append(keptFields, d)
	}

	var validityBuf *memory.Buffer
	nullCount := 0
	if len(c.valid) > 0 {
		bm := make([]byte, bitutil.CeilByte(target)/8)
		for i := 0; i < target; i++ {
			v := true
			if i < len(c.valid) {
				v = c.valid[i]
			}
			if v {
				bitutil.SetBit(bm, i)
			} else {
				nullCount++
			}
		}
		if nullCount > 0 {
			validityBuf = memory.NewBufferBytes(bm)
		}
		// Keep validity for the retained rows, shifted to the front.
		if len(c.valid) > target {
			c.valid = append([]bool(nil), c.valid[target:]...)
		} else {
			c.valid = nil
		}
	}

	data := array.NewData(
		arrow.StructOf(arrowFields...),
		target,
		[]*memory.Buffer{validityBuf},
		childData,
		nullCount,
		0,
	)

	c.names = keptNames
	c.fields = keptFields
	c.index = make(map[string]int, len(keptNames))
	for i, name := range keptNames {
		c.index[name] = i
	}
	c.n = leave

	return Series{Type: schema.Record(outFields...), Array: array.NewStructData(data)}
}

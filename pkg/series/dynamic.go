package series

import (
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// dynamicBuilder is a slot that holds exactly one inner column and
// replaces it when the observed type changes, preserving the current
// length. It also carries the protection flag and the metadata of a
// declared type.
type dynamicBuilder struct {
	mem       memory.Allocator
	inner     column
	protected bool
	// meta carries the declared type's name and attributes; it is
	// assigned to every emitted type but never affects resolution.
	meta schema.Type
}

func newDynamicBuilder(mem memory.Allocator) dynamicBuilder {
	return dynamicBuilder{mem: mem, inner: &nullColumn{}}
}

func newDynamicBuilderPtr(mem memory.Allocator) *dynamicBuilder {
	d := newDynamicBuilder(mem)
	return &d
}

func (d *dynamicBuilder) length() int       { return d.inner.length() }
func (d *dynamicBuilder) kind() schema.Kind { return d.inner.kind() }
func (d *dynamicBuilder) onlyNull() bool    { return d.inner.onlyNull() }
func (d *dynamicBuilder) isProtected() bool { return d.protected }
func (d *dynamicBuilder) resize(n int)      { d.inner.resize(n) }

func (d *dynamicBuilder) typ() schema.Type {
	return d.inner.typ().WithMetadataFrom(d.meta)
}

// atom writes a scalar. Null extends the column; everything else is
// routed through prepare.
func (d *dynamicBuilder) atom(root *Builder, v Value) error {
	if v.IsNull() {
		d.resize(d.length() + 1)
		return nil
	}
	if v.kind == schema.KindEnum {
		if ac, ok := d.inner.(*atomColumn); ok && ac.kind() == schema.KindEnum {
			ac.append(v)
			return nil
		}
		panic("series: enumeration values require a builder protected with an enumeration type")
	}
	c, err := d.prepare(root, v.kind, func() column {
		return newAtomColumn(d.mem, kindType(v.kind))
	})
	if err != nil {
		return err
	}
	c.(*atomColumn).append(v)
	return nil
}

// record opens a new struct row and returns the record column to set
// its fields on.
func (d *dynamicBuilder) record(root *Builder) (*recordColumn, error) {
	c, err := d.prepare(root, schema.KindRecord, func() column {
		return newRecordColumn(root)
	})
	if err != nil {
		return nil, err
	}
	rc := c.(*recordColumn)
	rc.append()
	return rc, nil
}

// list opens a new list row and returns the elements builder to write
// its contents into.
func (d *dynamicBuilder) list(root *Builder) (*dynamicBuilder, error) {
	c, err := d.prepare(root, schema.KindList, func() column {
		return newListColumn(root)
	})
	if err != nil {
		return nil, err
	}
	return c.(*listColumn).append(), nil
}

// prepare returns the inner column for the requested kind, enforcing
// the type lattice:
//
//	        conflict
//	        /  |   \
//	  atom[K1] ... list  record
//	        \  |   /
//	          null
//
// A fresh builder starts at null and upgrades to the first observed
// kind. A mismatch with the current kind first asks the root to finish
// all previous events; only if data remains afterwards (the conflict is
// within the in-flight event) does the column upgrade to a conflict
// column.
func (d *dynamicBuilder) prepare(root *Builder, want schema.Kind, make func() column) (column, error) {
	if cf, ok := d.inner.(*conflictColumn); ok {
		// The current event already contains a type conflict.
		return cf.prepare(want, make), nil
	}
	if d.inner.kind() == want {
		// The common case: already building this kind.
		return d.inner, nil
	}
	if _, ok := d.inner.(*nullColumn); ok {
		// First non-null value: upgrade from the null column.
		n := d.inner.length()
		c := make()
		c.resize(n)
		d.inner = c
		return c, nil
	}
	if d.protected {
		return nil, serrors.Newf(serrors.ErrorTypeTypeMismatch,
			"expected %s but got %s", d.inner.kind(), want)
	}
	root.finishPreviousEvents(d)
	if d.length() == 0 {
		c := make()
		d.inner = c
		return c, nil
	}
	// Data from the in-flight event remains: the conflict cannot be
	// resolved by cutting, so absorb it into a conflict column.
	d.inner = newConflictColumn(d.mem, d.inner)
	root.noteConflict()
	return d.inner.(*conflictColumn).prepare(want, make), nil
}

// finishAndLeave emits all but the last `leave` rows and reduces the
// type afterwards: an unprotected all-null tail resets the inner column
// to null, as if the retained rows had been written into a fresh
// builder.
func (d *dynamicBuilder) finishAndLeave(leave int) Series {
	assertf(leave <= d.length(), "dynamic builder cannot leave %d of %d rows", leave, d.length())
	var result Series
	if leave == d.length() {
		ty := d.typ()
		b := array.NewBuilder(d.mem, ty.Arrow())
		result = Series{Type: ty, Array: b.NewArray()}
	} else {
		result = d.inner.finishAndLeave(leave)
		result.Type = result.Type.WithMetadataFrom(d.meta)
	}
	assertf(d.length() == leave, "finish left %d rows, expected %d", d.length(), leave)
	if d.inner.onlyNull() && !d.protected {
		d.inner = &nullColumn{n: leave}
	}
	return result
}

// protect fixes the builder's type. It may only be called once, on a
// freshly constructed builder, and pre-instantiates the inner column so
// that its kind matches the declared type, recursively for records and
// lists. Protected builders reject type changes.
func (d *dynamicBuilder) protect(root *Builder, ty schema.Type) {
	assertf(d.inner.kind() == schema.KindNull && d.length() == 0,
		"protect requires a fresh builder")
	d.meta = ty
	d.protected = true
	switch ty.Kind() {
	case schema.KindNull:
		// Already a null column.
	case schema.KindEnum:
		d.inner = newAtomColumn(d.mem, schema.Enum(ty.Labels()...))
	case schema.KindRecord:
		rc := newRecordColumn(root)
		d.inner = rc
		for _, f := range ty.Fields() {
			fd := rc.insertNewField(f.Name)
			fd.protect(root, f.Type)
		}
	case schema.KindList:
		lc := newListColumn(root)
		d.inner = lc
		lc.elements.protect(root, ty.Elem())
	default:
		d.inner = newAtomColumn(d.mem, kindType(ty.Kind()))
	}
}

// kindType maps a scalar kind to its bare type.
func kindType(k schema.Kind) schema.Type {
	switch k {
	case schema.KindBool:
		return schema.Bool()
	case schema.KindInt64:
		return schema.Int64()
	case schema.KindUint64:
		return schema.Uint64()
	case schema.KindDouble:
		return schema.Double()
	case schema.KindDuration:
		return schema.Duration()
	case schema.KindTime:
		return schema.Time()
	case schema.KindString:
		return schema.String_()
	case schema.KindIP:
		return schema.IP()
	case schema.KindSubnet:
		return schema.Subnet()
	}
	panic("series: no bare type for kind " + k.String())
}

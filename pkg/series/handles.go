package series

import (
	"sort"

	"github.com/seriate-io/seriate/pkg/metrics"
	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// Ref is a lightweight writer handle: the series root, the elements of
// a list, or a record field. Refs borrow into their builder for the
// duration of a write and must not outlive it.
type Ref struct {
	root   *Builder
	isRoot bool
	dyn    *dynamicBuilder
	rec    *recordColumn
	name   string
}

// RecordRef is a handle for setting the fields of one struct row.
type RecordRef struct {
	root *Builder
	rec  *recordColumn
}

// Field returns a handle for the named field of the current row.
func (r RecordRef) Field(name string) FieldRef {
	return FieldRef{Ref{root: r.root, rec: r.rec, name: name}}
}

// FieldRef is a Ref that targets a record field.
type FieldRef struct {
	Ref
}

// Atom writes a scalar. It panics if the target is protected and the
// value does not match; TryAtom is the error-returning variant.
func (r Ref) Atom(v Value) {
	must(r.atomErr(v))
}

// Record opens a struct row and returns a handle for its fields.
func (r Ref) Record() RecordRef {
	rr, err := r.recordErr()
	must(err)
	return rr
}

// List opens a list row and returns a handle for its elements.
func (r Ref) List() Ref {
	lr, err := r.listErr()
	must(err)
	return lr
}

// Data writes one value of any supported shape: map[string]interface{}
// values become records, []interface{} values become lists, scalars
// become atoms. It panics where TryData would return an error.
func (r Ref) Data(v interface{}) {
	must(r.TryData(v))
}

// Kind returns the target's current kind. A record field that has not
// materialized reports null.
func (r Ref) Kind() schema.Kind {
	switch {
	case r.isRoot:
		return r.root.dyn.kind()
	case r.rec != nil:
		if d := r.rec.fieldBuilder(r.name); d != nil {
			return d.kind()
		}
		return schema.KindNull
	default:
		return r.dyn.kind()
	}
}

// Type returns the target's current type.
func (r Ref) Type() schema.Type {
	switch {
	case r.isRoot:
		return r.root.dyn.typ()
	case r.rec != nil:
		if d := r.rec.fieldBuilder(r.name); d != nil {
			return d.typ()
		}
		return schema.Null()
	default:
		return r.dyn.typ()
	}
}

// IsProtected reports whether the target carries a declared type.
func (r Ref) IsProtected() bool {
	switch {
	case r.isRoot:
		return r.root.dyn.isProtected()
	case r.rec != nil:
		if d := r.rec.fieldBuilder(r.name); d != nil {
			return d.isProtected()
		}
		return false
	default:
		return r.dyn.isProtected()
	}
}

// TryAtom writes a scalar, casting into protected targets where
// possible (including parsing durations with the declared unit
// attribute). On failure the write is a no-op and an error is returned.
func (r Ref) TryAtom(v Value) error {
	if !r.IsProtected() {
		if v.kind == schema.KindEnum {
			// The enumeration type cannot be inferred from a value.
			return serrors.New(serrors.ErrorTypeEnumeration,
				"cannot add enumeration to an unprotected builder")
		}
		return r.atomErr(v)
	}
	if v.IsNull() {
		return r.atomErr(v)
	}
	cast, err := castValue(v, r.Type())
	if err != nil {
		metrics.CastFailures.WithLabelValues(string(serrors.TypeOf(err))).Inc()
		return err
	}
	return r.atomErr(cast)
}

// TryData writes one value of any supported shape, attempting casts
// into protected targets. Map keys are visited in sorted order.
func (r Ref) TryData(v interface{}) error {
	switch x := v.(type) {
	case nil:
		return r.TryAtom(Null())
	case map[string]interface{}:
		if r.IsProtected() && r.Kind() != schema.KindRecord {
			return serrors.Newf(serrors.ErrorTypeTypeMismatch,
				"expected %s but got record", r.Kind())
		}
		rr, err := r.recordErr()
		if err != nil {
			return err
		}
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			if err := rr.Field(k).TryData(x[k]); err != nil {
				return err
			}
		}
		return nil
	case []interface{}:
		if r.IsProtected() && r.Kind() != schema.KindList {
			return serrors.Newf(serrors.ErrorTypeTypeMismatch,
				"expected %s but got list", r.Kind())
		}
		lr, err := r.listErr()
		if err != nil {
			return err
		}
		for _, e := range x {
			if err := lr.TryData(e); err != nil {
				return err
			}
		}
		return nil
	default:
		val, err := FromAny(x)
		if err != nil {
			return err
		}
		return r.TryAtom(val)
	}
}

func (r Ref) atomErr(v Value) error {
	switch {
	case r.isRoot:
		r.root.finishIfConflict()
		if err := r.root.dyn.atom(r.root, v); err != nil {
			return err
		}
		metrics.RowsWritten.Inc()
		return nil
	case r.rec != nil:
		if v.IsNull() {
			r.rec.writeFieldNull(r.name)
			return nil
		}
		if v.kind == schema.KindEnum {
			d := r.rec.fieldBuilder(r.name)
			if d == nil {
				panic("series: enumeration write into a field without a declared type")
			}
			d.resize(r.rec.n - 1)
			return d.atom(r.root, v)
		}
		return r.rec.writeField(r.name, func(d *dynamicBuilder) error {
			return d.atom(r.root, v)
		})
	default:
		return r.dyn.atom(r.root, v)
	}
}

func (r Ref) recordErr() (RecordRef, error) {
	var rc *recordColumn
	var err error
	switch {
	case r.isRoot:
		r.root.finishIfConflict()
		rc, err = r.root.dyn.record(r.root)
		if err == nil {
			metrics.RowsWritten.Inc()
		}
	case r.rec != nil:
		err = r.rec.writeField(r.name, func(d *dynamicBuilder) error {
			var inner error
			rc, inner = d.record(r.root)
			return inner
		})
	default:
		rc, err = r.dyn.record(r.root)
	}
	if err != nil {
		return RecordRef{}, err
	}
	return RecordRef{root: r.root, rec: rc}, nil
}

func (r Ref) listErr() (Ref, error) {
	var elems *dynamicBuilder
	var err error
	switch {
	case r.isRoot:
		r.root.finishIfConflict()
		elems, err = r.root.dyn.list(r.root)
		if err == nil {
			metrics.RowsWritten.Inc()
		}
	case r.rec != nil:
		err = r.rec.writeField(r.name, func(d *dynamicBuilder) error {
			var inner error
			elems, inner = d.list(r.root)
			return inner
		})
	default:
		elems, err = r.dyn.list(r.root)
	}
	if err != nil {
		return Ref{}, err
	}
	return Ref{root: r.root, dyn: elems}, nil
}

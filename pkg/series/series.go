package series

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/seriate-io/seriate/pkg/metrics"
	"github.com/seriate-io/seriate/pkg/observability"
	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// Series is a finished contiguous column: a type plus the Arrow array
// holding its rows.
type Series struct {
	Type  schema.Type
	Array arrow.Array
}

// Len returns the number of rows in the series.
func (s Series) Len() int { return s.Array.Len() }

// Batch is a finished struct series wrapped as an Arrow record with an
// assigned schema name.
type Batch struct {
	Name   string
	Type   schema.Type
	Record arrow.Record
}

// DefaultBatchName names batches whose type carries no name of its own.
const DefaultBatchName = "seriate.json"

// Builder is the user-facing series builder. It owns the current
// column, a queue of series already finished due to type conflicts, and
// the optional protection type.
//
// A Builder is single-writer: one goroutine at a time. Handles returned
// by Record and List borrow into the builder and must not outlive it.
type Builder struct {
	mem  memory.Allocator
	log  *observability.StructuredLogger
	dyn  dynamicBuilder
	done []Series
	// conflictPending forces the next top-level write to start a new
	// batch. It is set when a conflict column was created: the column is
	// kept only for the event that needed it.
	conflictPending bool
}

// New creates a series builder. A non-nil protect type fixes the
// builder's type: writes that do not match it are rejected instead of
// triggering inference.
func New(protect *schema.Type) *Builder {
	b := &Builder{
		mem: memory.NewGoAllocator(),
		log: observability.NewStructuredLogger("series"),
	}
	b.dyn = newDynamicBuilder(b.mem)
	if protect != nil {
		b.dyn.protect(b, *protect)
	}
	return b
}

// Null appends a null row.
func (b *Builder) Null() {
	b.finishIfConflict()
	must(b.dyn.atom(b, Null()))
	metrics.RowsWritten.Inc()
}

// Atom appends a scalar row. It panics if the builder is protected and
// the value does not match the protected type; use Ref().TryAtom for an
// error-returning variant with casting.
func (b *Builder) Atom(v Value) {
	b.finishIfConflict()
	must(b.dyn.atom(b, v))
	metrics.RowsWritten.Inc()
}

// Record appends a struct row and returns a handle to set its fields.
// Unset fields are null for this row.
func (b *Builder) Record() RecordRef {
	b.finishIfConflict()
	rc, err := b.dyn.record(b)
	must(err)
	metrics.RowsWritten.Inc()
	return RecordRef{root: b, rec: rc}
}

// List appends a list row and returns a handle to write its elements.
func (b *Builder) List() Ref {
	b.finishIfConflict()
	elems, err := b.dyn.list(b)
	must(err)
	metrics.RowsWritten.Inc()
	return Ref{root: b, dyn: elems}
}

// Data appends one row of any supported Go value: map[string]interface{}
// values become records, []interface{} values become lists, scalars
// become atoms. It panics where TryData would return an error.
func (b *Builder) Data(v interface{}) {
	must(b.TryData(v))
}

// TryData appends one row, attempting casts into protected targets. A
// failed write leaves the length unchanged: a partially assembled row
// is rolled back before the error is returned.
func (b *Builder) TryData(v interface{}) error {
	before := b.Len()
	err := b.Ref().TryData(v)
	if err != nil && b.Len() > before {
		b.RemoveLast()
	}
	return err
}

// TryAtom appends a scalar row, attempting casts into protected
// targets. On failure the write is a no-op.
func (b *Builder) TryAtom(v Value) error {
	return b.Ref().TryAtom(v)
}

// Ref returns a writer handle for the builder's top-level column.
func (b *Builder) Ref() Ref {
	return Ref{root: b, isRoot: true}
}

// Len returns the total number of rows: already finished series plus
// the in-progress column.
func (b *Builder) Len() int {
	total := b.dyn.length()
	for _, s := range b.done {
		total += s.Len()
	}
	return total
}

// Type returns the current column's type.
func (b *Builder) Type() schema.Type { return b.dyn.typ() }

// Kind returns the current column's kind.
func (b *Builder) Kind() schema.Kind { return b.dyn.kind() }

// IsProtected reports whether the builder was constructed with a type.
func (b *Builder) IsProtected() bool { return b.dyn.isProtected() }

// RemoveLast discards the most recent row of the in-progress column.
// Already finished series are unaffected.
func (b *Builder) RemoveLast() {
	b.conflictPending = false
	if b.dyn.length() > 0 {
		b.dyn.resize(b.dyn.length() - 1)
	}
}

// Finish emits all rows as a sequence of typed series. The
// concatenation of the result covers every write since the last finish,
// in write order; a new series starts wherever a type conflict forced a
// cut.
func (b *Builder) Finish() []Series {
	b.conflictPending = false
	if b.dyn.length() > 0 {
		s := b.dyn.finishAndLeave(0)
		b.done = append(b.done, s)
		metrics.BatchesEmitted.WithLabelValues("finish").Inc()
		metrics.BatchRows.Observe(float64(s.Len()))
	}
	out := b.done
	b.done = nil
	return out
}

// FinishRecordBatches finishes the builder and wraps every series in an
// Arrow record. The schema name is `name` when non-empty, then the
// type's own name, then DefaultBatchName. Series that are not records
// are rejected.
func (b *Builder) FinishRecordBatches(name string) ([]Batch, error) {
	out := make([]Batch, 0)
	for _, s := range b.Finish() {
		if s.Type.Kind() != schema.KindRecord {
			return nil, serrors.Newf(serrors.ErrorTypeData,
				"cannot wrap %s series as a record batch", s.Type.Kind())
		}
		resolved := name
		if resolved == "" {
			resolved = s.Type.Name()
		}
		if resolved == "" {
			resolved = DefaultBatchName
		}
		st := s.Array.(*array.Struct)
		cols := make([]arrow.Array, st.NumField())
		for i := range cols {
			cols[i] = st.Field(i)
		}
		rec := array.NewRecord(s.Type.ArrowSchema(resolved), cols, int64(st.Len()))
		out = append(out, Batch{Name: resolved, Type: s.Type.WithName(resolved), Record: rec})
	}
	return out, nil
}

// finishPreviousEvents cuts a batch so that a type conflict below the
// requester can be resolved. When the requester is the root builder the
// current write has not been applied yet, so nothing is kept; a nested
// requester keeps the one in-progress event.
func (b *Builder) finishPreviousEvents(requester *dynamicBuilder) {
	if b.dyn.length() == 0 {
		return
	}
	keepLast := requester != &b.dyn
	if b.dyn.length() == 1 && keepLast {
		return
	}
	leave := 0
	if keepLast {
		leave = 1
	}
	s := b.dyn.finishAndLeave(leave)
	assertf(b.dyn.length() == leave, "conflict cut left %d rows, expected %d", b.dyn.length(), leave)
	assertf(s.Len() > 0, "conflict cut emitted an empty series")
	b.log.Debug("finished previous events due to type conflict",
		zap.Int("rows", s.Len()),
		zap.Stringer("type", s.Type))
	b.done = append(b.done, s)
	metrics.BatchesEmitted.WithLabelValues("conflict").Inc()
	metrics.BatchRows.Observe(float64(s.Len()))
}

// noteConflict records that a conflict column was created somewhere in
// the current event. The next top-level write finishes the column
// first, so the conflict column does not outlive the event that needed
// it.
func (b *Builder) noteConflict() {
	b.conflictPending = true
	metrics.ConflictColumns.Inc()
}

func (b *Builder) finishIfConflict() {
	if !b.conflictPending {
		return
	}
	if b.dyn.length() > 0 {
		s := b.dyn.finishAndLeave(0)
		b.done = append(b.done, s)
		metrics.BatchesEmitted.WithLabelValues("conflict").Inc()
		metrics.BatchRows.Observe(float64(s.Len()))
	}
	b.conflictPending = false
}

func must(err error) {
	if err != nil {
		panic("series: " + err.Error())
	}
}

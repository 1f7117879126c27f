// Package seriate provides a dynamic columnar series builder: it
// ingests streams of schema-less, possibly heterogeneous records and
// produces strongly typed, Arrow-compatible columnar batches.
//
// The builder infers types on the fly, unifies conflicting types across
// records when possible, cuts batch boundaries when unification would
// lose information, and can be protected by a caller-supplied target
// schema that rejects non-conforming writes.
//
// # Architecture
//
// The repository is organized around a small set of packages:
//
//   - pkg/schema: the recursive column type model and its Arrow mapping.
//   - pkg/series: the series builder core — typed atom columns, list and
//     record columns, the dynamic builder with its conflict lattice, and
//     the user-facing Builder with its writer handles.
//   - pkg/ingest: NDJSON event ingestion into a series builder.
//   - pkg/formats/columnar: Arrow IPC output, one file per schema.
//   - pkg/compression: zstd and lz4 output compression.
//
// # Quick start
//
// Build a column from heterogeneous events and finish it into batches:
//
//	b := series.New(nil)
//	b.Data(map[string]interface{}{"x": int64(1)})
//	b.Data(map[string]interface{}{"x": "hi"})
//	batches, err := b.FinishRecordBatches("demo")
//	// two batches: x:int64 then x:string
//
// Or convert a file from the command line:
//
//	seriate convert --in events.ndjson --out events.arrow
package seriate

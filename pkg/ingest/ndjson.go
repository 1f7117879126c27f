// Package ingest streams newline-delimited JSON events into a series
// builder. Each line decodes into a row map and is written with
// TryData; a failed write (a protected-type rejection) rolls back the
// partial row and skips the event instead of aborting the run.
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/seriate-io/seriate/pkg/json"
	"github.com/seriate-io/seriate/pkg/metrics"
	"github.com/seriate-io/seriate/pkg/observability"
	"github.com/seriate-io/seriate/pkg/pool"
	"github.com/seriate-io/seriate/pkg/schema"
	"github.com/seriate-io/seriate/pkg/series"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// Lines longer than this abort the run; a single event of this size is
// almost certainly corrupt input.
const maxLineBytes = 16 * 1024 * 1024

// Options configures an ingest run.
type Options struct {
	// Protect fixes the builder's type; writes that do not cast into it
	// are skipped.
	Protect *schema.Type
	// SchemaName names emitted batches. Empty falls back to the type's
	// own name, then to the default.
	SchemaName string
	// BatchRows cuts a batch whenever this many rows accumulate. Zero
	// batches only at conflicts and at the end of input.
	BatchRows int
	// Strict aborts the run on the first undecodable line or rejected
	// event instead of skipping it.
	Strict bool
}

// Result summarizes an ingest run.
type Result struct {
	Batches []series.Batch
	Events  int64
	Skipped int64
}

// Run reads NDJSON from r until EOF or context cancellation and returns
// the emitted batches.
func Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	slog := observability.NewStructuredLogger("ingest")
	op := slog.WithOperation("run")
	result, err := run(ctx, r, opts, slog.WithContext(ctx))
	if err != nil {
		op.Fail(err,
			zap.Int64("events", result.Events),
			zap.Int64("skipped", result.Skipped))
		return result, err
	}
	op.Complete(
		zap.Int64("events", result.Events),
		zap.Int64("skipped", result.Skipped),
		zap.Int("batches", len(result.Batches)))
	return result, nil
}

func run(ctx context.Context, r io.Reader, opts Options, log *zap.Logger) (*Result, error) {
	builder := series.New(opts.Protect)
	result := &Result{}

	flush := func() error {
		batches, err := builder.FinishRecordBatches(opts.SchemaName)
		if err != nil {
			return err
		}
		result.Batches = append(result.Batches, batches...)
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line := int64(0)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		line++
		raw := bytes.TrimSpace(scanner.Bytes())
		if len(raw) == 0 {
			continue
		}
		row, err := decodeLine(raw)
		if err != nil {
			if opts.Strict {
				return result, serrors.Wrap(err, serrors.ErrorTypeData, "invalid JSON").
					WithDetail("line", line)
			}
			result.Skipped++
			metrics.IngestedEvents.WithLabelValues("skipped").Inc()
			log.Warn("skipping undecodable line", zap.Int64("line", line), zap.Error(err))
			continue
		}
		err = builder.TryData(row)
		pool.PutMap(row)
		if err != nil {
			if opts.Strict {
				return result, err
			}
			result.Skipped++
			metrics.IngestedEvents.WithLabelValues("skipped").Inc()
			log.Warn("skipping rejected event", zap.Int64("line", line), zap.Error(err))
			continue
		}
		result.Events++
		metrics.IngestedEvents.WithLabelValues("ok").Inc()
		if opts.BatchRows > 0 && builder.Len() >= opts.BatchRows {
			if err := flush(); err != nil {
				return result, err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return result, serrors.Wrap(err, serrors.ErrorTypeFile, "failed to read input")
	}
	if err := flush(); err != nil {
		return result, err
	}
	return result, nil
}

// decodeLine parses one event into a pooled row map, keeping number
// literals intact so integers stay integers.
func decodeLine(raw []byte) (map[string]interface{}, error) {
	dec := json.GetDecoder(bytes.NewReader(raw))
	defer json.PutDecoder(dec)
	dec.UseNumber()
	row := pool.GetMap()
	if err := dec.Decode(&row); err != nil {
		pool.PutMap(row)
		return nil, err
	}
	return row, nil
}

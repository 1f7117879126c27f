package ingest

import (
	"context"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriate-io/seriate/pkg/schema"
)

func TestRunHomogeneous(t *testing.T) {
	input := strings.Join([]string{
		`{"x": 1, "name": "a"}`,
		`{"x": 2}`,
		`{"x": 3, "name": "c"}`,
	}, "\n")

	result, err := Run(context.Background(), strings.NewReader(input), Options{SchemaName: "events"})
	require.NoError(t, err)
	assert.Equal(t, int64(3), result.Events)
	assert.Equal(t, int64(0), result.Skipped)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, "events", result.Batches[0].Name)
	assert.Equal(t, int64(3), result.Batches[0].Record.NumRows())
}

func TestRunConflictSplitsBatches(t *testing.T) {
	input := `{"x": 1}` + "\n" + `{"x": "hi"}`

	result, err := Run(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	require.Len(t, result.Batches, 2)
	assert.Equal(t, int64(1), result.Batches[0].Record.NumRows())
	assert.Equal(t, int64(1), result.Batches[1].Record.NumRows())
}

func TestRunIntegersStayIntegers(t *testing.T) {
	result, err := Run(context.Background(), strings.NewReader(`{"n": 42}`), Options{})
	require.NoError(t, err)
	require.Len(t, result.Batches, 1)
	col := result.Batches[0].Record.Column(0)
	iv, ok := col.(*array.Int64)
	require.True(t, ok, "expected int64 column, got %T", col)
	assert.Equal(t, int64(42), iv.Value(0))
}

func TestRunSkipsBadLines(t *testing.T) {
	input := strings.Join([]string{
		`{"x": 1}`,
		`{not json`,
		``,
		`{"x": 2}`,
	}, "\n")

	result, err := Run(context.Background(), strings.NewReader(input), Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Events)
	assert.Equal(t, int64(1), result.Skipped)
}

func TestRunStrictAbortsOnBadLine(t *testing.T) {
	input := `{"x": 1}` + "\n" + `{not json`
	_, err := Run(context.Background(), strings.NewReader(input), Options{Strict: true})
	require.Error(t, err)
}

func TestRunProtectedSkipsRejectedEvents(t *testing.T) {
	ty := schema.Record(schema.Field{
		Name: "ts",
		Type: schema.Duration().WithAttrs(schema.Attribute{Key: "unit", Value: "s"}),
	})
	input := strings.Join([]string{
		`{"ts": 3}`,
		`{"ts": "nope"}`,
		`{"ts": "90s"}`,
	}, "\n")

	result, err := Run(context.Background(), strings.NewReader(input), Options{Protect: &ty})
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.Events)
	assert.Equal(t, int64(1), result.Skipped)
	require.Len(t, result.Batches, 1)
	assert.Equal(t, int64(2), result.Batches[0].Record.NumRows())
}

func TestRunBatchRows(t *testing.T) {
	lines := make([]string, 10)
	for i := range lines {
		lines[i] = `{"x": 1}`
	}
	result, err := Run(context.Background(), strings.NewReader(strings.Join(lines, "\n")), Options{BatchRows: 4})
	require.NoError(t, err)
	require.Len(t, result.Batches, 3)
	assert.Equal(t, int64(4), result.Batches[0].Record.NumRows())
	assert.Equal(t, int64(4), result.Batches[1].Record.NumRows())
	assert.Equal(t, int64(2), result.Batches[2].Record.NumRows())
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, strings.NewReader(`{"x": 1}`), Options{})
	require.ErrorIs(t, err, context.Canceled)
}

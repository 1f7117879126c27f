package columnar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seriate-io/seriate/pkg/compression"
	"github.com/seriate-io/seriate/pkg/series"
)

func buildBatches(t *testing.T, rows ...map[string]interface{}) []series.Batch {
	t.Helper()
	b := series.New(nil)
	for _, r := range rows {
		b.Data(r)
	}
	batches, err := b.FinishRecordBatches("test")
	require.NoError(t, err)
	return batches
}

func readRows(t *testing.T, path string, algo compression.Algorithm) int64 {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	cr, err := compression.NewReader(f, algo)
	require.NoError(t, err)
	defer cr.Close()

	data, err := os.CreateTemp(t.TempDir(), "plain")
	require.NoError(t, err)
	defer data.Close()
	_, err = data.ReadFrom(cr)
	require.NoError(t, err)
	_, err = data.Seek(0, 0)
	require.NoError(t, err)

	rd, err := ipc.NewFileReader(data, ipc.WithAllocator(memory.NewGoAllocator()))
	require.NoError(t, err)
	defer rd.Close()

	total := int64(0)
	for i := 0; i < rd.NumRecords(); i++ {
		rec, err := rd.Record(i)
		require.NoError(t, err)
		total += rec.NumRows()
	}
	return total
}

func TestFileSetSingleSchema(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.arrow")

	fs := NewFileSet(path, compression.None)
	for _, b := range buildBatches(t,
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": 2},
	) {
		require.NoError(t, fs.Write(b))
	}
	require.NoError(t, fs.Close())

	require.Equal(t, []string{path}, fs.Paths())
	assert.Equal(t, int64(2), readRows(t, path, compression.None))
}

func TestFileSetSplitsSchemas(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.arrow")

	// A type conflict produces two schemas, which land in two files.
	fs := NewFileSet(path, compression.None)
	for _, b := range buildBatches(t,
		map[string]interface{}{"x": 1},
		map[string]interface{}{"x": "hi"},
	) {
		require.NoError(t, fs.Write(b))
	}
	require.NoError(t, fs.Close())

	paths := fs.Paths()
	require.Len(t, paths, 2)
	assert.Equal(t, path, paths[0])
	assert.Equal(t, filepath.Join(dir, "out.1.arrow"), paths[1])
	assert.Equal(t, int64(1), readRows(t, paths[0], compression.None))
	assert.Equal(t, int64(1), readRows(t, paths[1], compression.None))
}

func TestWriterCompressed(t *testing.T) {
	for _, algo := range []compression.Algorithm{compression.Zstd, compression.LZ4} {
		t.Run(string(algo), func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "out.arrow")
			fs := NewFileSet(path, algo)
			for _, b := range buildBatches(t, map[string]interface{}{"x": 1}) {
				require.NoError(t, fs.Write(b))
			}
			require.NoError(t, fs.Close())
			assert.Equal(t, int64(1), readRows(t, path, algo))
		})
	}
}

func TestWriterRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.arrow")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	a := buildBatches(t, map[string]interface{}{"x": 1})
	b := buildBatches(t, map[string]interface{}{"y": "hi"})

	w, err := NewWriter(f, a[0].Record.Schema(), compression.None)
	require.NoError(t, err)
	require.NoError(t, w.WriteBatch(a[0].Record))
	require.Error(t, w.WriteBatch(b[0].Record))
	require.NoError(t, w.Close())
	assert.Equal(t, int64(1), w.BatchesWritten())
}

// Package columnar writes finished series batches as Arrow IPC files.
// A Writer is bound to one schema; a FileSet fans batches out over one
// file per distinct schema, which heterogeneous inputs produce when
// type conflicts force batch cuts.
package columnar

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"go.uber.org/zap"

	"github.com/seriate-io/seriate/pkg/compression"
	"github.com/seriate-io/seriate/pkg/observability"
	"github.com/seriate-io/seriate/pkg/series"
	"github.com/seriate-io/seriate/pkg/serrors"
)

// Writer writes record batches of a single schema as an Arrow IPC file,
// optionally compressed as a whole.
type Writer struct {
	cw             io.WriteCloser
	fileWriter     *ipc.FileWriter
	schema         *arrow.Schema
	batchesWritten int64
	rowsWritten    int64
}

// NewWriter creates a writer bound to the given schema.
func NewWriter(w io.Writer, sch *arrow.Schema, algo compression.Algorithm) (*Writer, error) {
	cw, err := compression.NewWriter(w, algo)
	if err != nil {
		return nil, err
	}
	fw, err := ipc.NewFileWriter(cw, ipc.WithSchema(sch), ipc.WithAllocator(memory.NewGoAllocator()))
	if err != nil {
		return nil, serrors.Wrap(err, serrors.ErrorTypeFile, "failed to create Arrow writer")
	}
	return &Writer{cw: cw, fileWriter: fw, schema: sch}, nil
}

// WriteBatch appends one record batch. The batch's schema must match
// the writer's.
func (w *Writer) WriteBatch(rec arrow.Record) error {
	if !w.schema.Equal(rec.Schema()) {
		return serrors.Newf(serrors.ErrorTypeData,
			"schema mismatch: writer has %v, batch has %v", w.schema, rec.Schema())
	}
	if err := w.fileWriter.Write(rec); err != nil {
		return serrors.Wrap(err, serrors.ErrorTypeFile, "failed to write record batch")
	}
	w.batchesWritten++
	w.rowsWritten += rec.NumRows()
	return nil
}

// BatchesWritten returns the number of batches written so far.
func (w *Writer) BatchesWritten() int64 { return w.batchesWritten }

// RowsWritten returns the number of rows written so far.
func (w *Writer) RowsWritten() int64 { return w.rowsWritten }

// Close finalizes the IPC footer and flushes the compression frame.
func (w *Writer) Close() error {
	if err := w.fileWriter.Close(); err != nil {
		return serrors.Wrap(err, serrors.ErrorTypeFile, "failed to close Arrow writer")
	}
	return w.cw.Close()
}

// FileSet writes batches to one Arrow IPC file per distinct schema. The
// first schema claims the base path; later schemas get a numeric suffix
// inserted before the extension.
type FileSet struct {
	basePath string
	algo     compression.Algorithm
	writers  map[string]*Writer
	files    []*os.File
	paths    []string
	log      *observability.StructuredLogger
}

// NewFileSet creates a file set rooted at path.
func NewFileSet(path string, algo compression.Algorithm) *FileSet {
	return &FileSet{
		basePath: path,
		algo:     algo,
		writers:  make(map[string]*Writer),
		log:      observability.NewStructuredLogger("columnar"),
	}
}

// Write routes one batch to the writer for its schema, creating the
// output file on first sight.
func (fs *FileSet) Write(b series.Batch) error {
	key := b.Record.Schema().String()
	w, ok := fs.writers[key]
	if !ok {
		path := fs.nextPath()
		f, err := os.Create(path)
		if err != nil {
			return serrors.Wrap(err, serrors.ErrorTypeFile, "failed to create output file").
				WithDetail("path", path)
		}
		w, err = NewWriter(f, b.Record.Schema(), fs.algo)
		if err != nil {
			f.Close()
			return err
		}
		fs.writers[key] = w
		fs.files = append(fs.files, f)
		fs.paths = append(fs.paths, path)
		fs.log.Info("opened output file",
			zap.String("path", path),
			zap.String("schema", b.Name))
	}
	return w.WriteBatch(b.Record)
}

// Paths returns the output files created so far, in creation order.
func (fs *FileSet) Paths() []string {
	return fs.paths
}

// Close closes every writer and file, returning the first error.
func (fs *FileSet) Close() error {
	var firstErr error
	for _, w := range fs.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, f := range fs.files {
		if err := f.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (fs *FileSet) nextPath() string {
	if len(fs.paths) == 0 {
		return fs.basePath
	}
	ext := filepath.Ext(fs.basePath)
	base := strings.TrimSuffix(fs.basePath, ext)
	return fmt.Sprintf("%s.%d%s", base, len(fs.paths), ext)
}

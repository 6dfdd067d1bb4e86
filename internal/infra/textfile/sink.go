package textfile

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/viscloud/labeler/internal/domain/entity"
	"github.com/viscloud/labeler/internal/domain/port"
)

// Sink writes the export as one "(start, end) - Kind index" line per record.
type Sink struct {
	path string
	echo io.Writer
}

var _ port.ExportSink = (*Sink)(nil)

// NewSink writes to path and, when echo is not nil, repeats the export there.
func NewSink(path string, echo io.Writer) *Sink {
	return &Sink{path: path, echo: echo}
}

func (s *Sink) Name() string { return "textfile" }

// WriteExport replaces the file atomically so readers never see a partial
// export.
func (s *Sink) WriteExport(_ context.Context, _ *entity.Session, records []entity.Record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	f, err := os.CreateTemp(dir, ".labels-*")
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer os.Remove(f.Name())

	if err := WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close export file: %w", err)
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		return fmt.Errorf("chmod export file: %w", err)
	}
	if err := os.Rename(f.Name(), s.path); err != nil {
		return fmt.Errorf("rename export file: %w", err)
	}

	if s.echo != nil {
		if err := WriteRecords(s.echo, records); err != nil {
			return err
		}
	}
	return nil
}

func WriteRecords(w io.Writer, records []entity.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		if _, err := fmt.Fprintln(bw, r.String()); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush records: %w", err)
	}
	return nil
}

// DirSink writes each session's export to <dir>/<session-id>.dat.
type DirSink struct {
	dir string
}

var _ port.ExportSink = (*DirSink)(nil)

func NewDirSink(dir string) *DirSink {
	return &DirSink{dir: dir}
}

func (s *DirSink) Name() string { return "textdir" }

func (s *DirSink) WriteExport(ctx context.Context, session *entity.Session, records []entity.Record) error {
	path := filepath.Join(s.dir, session.ID.String()+ExportExtension)
	return NewSink(path, nil).WriteExport(ctx, session, records)
}

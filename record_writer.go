package recordcsv

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
)

// Writer serializes a Source of records of type T as CSV text.
//
// Column resolution happens when an output operation starts: depending on
// the configuration's AutoGenerate policy, columns synthesized from T's
// exported fields come first, then Columns, and only writable columns are
// kept. The configuration is snapshotted at that moment too.
type Writer[T any] struct {
	// Columns holds the explicit columns in output order.
	Columns *ColumnCollection[T]

	cfg *Configuration
	src Source[T]
}

// NewWriter returns a Writer for src. A nil cfg means NewConfiguration().
// The configuration is shared: AddColumn may change it.
func NewWriter[T any](src Source[T], cfg *Configuration) *Writer[T] {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	return &Writer[T]{
		Columns: NewColumnCollection[T](),
		cfg:     cfg,
		src:     src,
	}
}

// ToCSV returns a Writer over records.
func ToCSV[T any](records []T, cfg *Configuration) *Writer[T] {
	return NewWriter(FromSlice(records), cfg)
}

// Configuration returns the configuration used by the next operation.
func (w *Writer[T]) Configuration() *Configuration { return w.cfg }

// SetConfiguration replaces the configuration.
func (w *Writer[T]) SetConfiguration(cfg *Configuration) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil configuration", ErrInvalidArgument)
	}
	w.cfg = cfg
	return nil
}

// Source returns the record source.
func (w *Writer[T]) Source() Source[T] { return w.src }

// SetSource replaces the record source.
func (w *Writer[T]) SetSource(src Source[T]) { w.src = src }

// AddColumn appends a writable column. A column identified by index turns
// headers off, since it cannot name itself on a header line.
func (w *Writer[T]) AddColumn(col Column[T]) error {
	if col.isZero() {
		return fmt.Errorf("%w: zero column", ErrInvalidArgument)
	}
	if !col.Writable() {
		return fmt.Errorf("%w: column %s is not writable", ErrInvalidArgument, col)
	}
	w.Columns.Add(col)
	if _, ok := col.Index(); ok {
		w.cfg.SetHasHeaders(false)
	}
	return nil
}

// AddFunc appends a column at the next position whose text is get(rec), and
// turns headers off.
func (w *Writer[T]) AddFunc(get func(T) any) {
	w.Columns.Add(WriteIndex(w.Columns.Len(), get))
	w.cfg.SetHasHeaders(false)
}

// ToWriter writes the CSV text to dst, which is flushed but never closed.
func (w *Writer[T]) ToWriter(ctx context.Context, dst io.Writer) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrInvalidArgument)
	}
	p, err := w.plan()
	if err != nil {
		return err
	}
	return p.write(ctx, dst, w.src)
}

// ToFile creates or truncates the file at path and writes the CSV text to it.
func (w *Writer[T]) ToFile(ctx context.Context, path string) (err error) {
	p, err := w.plan()
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close csv file: %w", cerr)
		}
	}()
	return p.write(ctx, f, w.src)
}

// ToBuffer writes the CSV text to a new in-memory buffer.
func (w *Writer[T]) ToBuffer(ctx context.Context) (*bytes.Buffer, error) {
	var buf bytes.Buffer
	if err := w.ToWriter(ctx, &buf); err != nil {
		return nil, err
	}
	return &buf, nil
}

type writePlan[T any] struct {
	cfg     *Configuration
	cv      *Converter
	columns []Column[T]
}

// plan snapshots the configuration and resolves the columns. It fails
// before any output is produced.
func (w *Writer[T]) plan() (*writePlan[T], error) {
	if w.src.IsZero() {
		return nil, ErrSourceNotSet
	}
	cfg := w.cfg.Clone()
	cols := effectiveColumns(w.Columns.snapshot(), cfg.AutoGenerate(), Column[T].Writable)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	if cfg.HasHeaders() {
		for _, col := range cols {
			if _, ok := col.Header(); !ok {
				return nil, fmt.Errorf("%w: column %s has no header for the header line", ErrHeaderRequired, col)
			}
		}
	}
	return &writePlan[T]{cfg: cfg, cv: cfg.Converter(), columns: cols}, nil
}

func (p *writePlan[T]) write(ctx context.Context, dst io.Writer, src Source[T]) error {
	log := p.cfg.Logger()
	enc := p.cfg.Encoding()
	log.DebugContext(ctx, "csv write started",
		"columns", len(p.columns),
		"headers", p.cfg.HasHeaders(),
		"separator", p.cfg.Separator(),
		"locale", p.cfg.Locale().String(),
		"encoding", enc.Name())

	if p.cfg.AddBOM() {
		if bom := enc.BOM(); len(bom) > 0 {
			if _, err := dst.Write(bom); err != nil {
				return fmt.Errorf("write byte-order-mark: %w", err)
			}
		}
	}

	out := enc.NewEncoder(dst)
	rw := NewRowWriter(out)
	rw.Separator = p.cfg.Separator()
	rw.UseCRLF = p.cfg.CRLF()

	row := make([]string, len(p.columns))
	if p.cfg.HasHeaders() {
		for i, col := range p.columns {
			row[i], _ = col.Header()
		}
		if err := rw.Write(row); err != nil {
			return fmt.Errorf("write header line: %w", err)
		}
	}

	n := 0
	err := src.each(ctx, func(rec T) error {
		for i, col := range p.columns {
			row[i] = col.Produce(rec, p.cv)
		}
		n++
		if err := rw.Write(row); err != nil {
			return fmt.Errorf("write record %d: %w", n, err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	if err := rw.Flush(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("flush csv encoder: %w", err)
	}
	log.DebugContext(ctx, "csv write finished", "records", n)
	return nil
}

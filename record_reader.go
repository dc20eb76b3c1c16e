package recordcsv

import (
	"context"
	"fmt"
	"io"
	"iter"
	"reflect"
)

// Reader parses CSV text into records of type T.
//
// With headers, each physical position maps to the first readable column
// whose index equals the position or whose header equals the header text
// there. Without headers, positions map by index only, resolved against the
// first row. Unmapped positions are ignored.
type Reader[T any] struct {
	// Columns holds the explicit columns. Earlier columns win ties.
	Columns *ColumnCollection[T]

	cfg      *Configuration
	src      io.Reader
	consumed bool
	closed   bool
}

// NewReader returns a Reader parsing src. A nil cfg means NewConfiguration().
// The configuration is shared: AddColumn may change it.
func NewReader[T any](src io.Reader, cfg *Configuration) (*Reader[T], error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidArgument)
	}
	if cfg == nil {
		cfg = NewConfiguration()
	}
	return &Reader[T]{
		Columns: NewColumnCollection[T](),
		cfg:     cfg,
		src:     src,
	}, nil
}

// Configuration returns the configuration used when reading starts.
func (r *Reader[T]) Configuration() *Configuration { return r.cfg }

// AddColumn appends a readable column. A column identified by header turns
// headers on.
func (r *Reader[T]) AddColumn(col Column[T]) error {
	if col.isZero() {
		return fmt.Errorf("%w: zero column", ErrInvalidArgument)
	}
	if !col.Readable() {
		return fmt.Errorf("%w: column %s is not readable", ErrInvalidArgument, col)
	}
	r.Columns.Add(col)
	if _, ok := col.Header(); ok {
		r.cfg.SetHasHeaders(true)
	}
	return nil
}

// Records returns a single-pass sequence of the records in the source.
// Setup errors and the first malformed row end the sequence with a non-nil
// error; rows yielded before stay valid. Conversion failures leave the field
// unset, unless the configuration is strict.
func (r *Reader[T]) Records(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		p, err := r.plan()
		if err != nil {
			yield(zero, err)
			return
		}
		r.consumed = true
		p.read(ctx, yield)
	}
}

// ReadAll returns every record in the source.
func (r *Reader[T]) ReadAll(ctx context.Context) ([]T, error) {
	var out []T
	for rec, err := range r.Records(ctx) {
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Close releases the reader. The source is closed only when the
// configuration does not keep the stream open and the source is an
// io.Closer. Closing twice is a no-op.
func (r *Reader[T]) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	if r.cfg.KeepStreamOpen() {
		return nil
	}
	if c, ok := r.src.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close csv source: %w", err)
		}
	}
	return nil
}

type readPlan[T any] struct {
	r         *Reader[T]
	cfg       *Configuration
	cv        *Converter
	columns   []Column[T]
	newRecord func() T
}

func (r *Reader[T]) plan() (*readPlan[T], error) {
	switch {
	case r.closed:
		return nil, ErrClosed
	case r.consumed:
		return nil, ErrAlreadyRead
	}
	cfg := r.cfg.Clone()
	cols := effectiveColumns(r.Columns.snapshot(), cfg.AutoGenerate(), Column[T].Readable)
	if len(cols) == 0 {
		return nil, ErrNoColumns
	}
	if !cfg.HasHeaders() {
		for _, col := range cols {
			if _, ok := col.Index(); !ok {
				return nil, fmt.Errorf("%w: column %s needs a header line", ErrHeaderRequired, col)
			}
		}
	}
	return &readPlan[T]{r: r, cfg: cfg, cv: cfg.Converter(), columns: cols, newRecord: recordFactory[T]()}, nil
}

func (p *readPlan[T]) read(ctx context.Context, yield func(T, error) bool) {
	var zero T
	log := p.cfg.Logger()
	log.DebugContext(ctx, "csv read started",
		"columns", len(p.columns),
		"headers", p.cfg.HasHeaders(),
		"separator", p.cfg.Separator(),
		"locale", p.cfg.Locale().String(),
		"encoding", p.cfg.Encoding().Name())

	rows := NewRowReaderWith(p.r.src, p.cfg)

	var byPos []Column[T]
	var headers []string
	if p.cfg.HasHeaders() {
		if err := ctx.Err(); err != nil {
			yield(zero, err)
			return
		}
		h, err := rows.Read()
		if err == io.EOF {
			return
		}
		if err != nil {
			yield(zero, err)
			return
		}
		headers = h
		byPos = resolveByHeader(p.columns, headers)
	}

	n := 0
	for {
		if p.r.closed {
			yield(zero, ErrClosed)
			return
		}
		if err := ctx.Err(); err != nil {
			yield(zero, err)
			return
		}
		fields, err := rows.Read()
		if err == io.EOF {
			log.DebugContext(ctx, "csv read finished", "records", n, "lines", rows.Line())
			return
		}
		if err != nil {
			yield(zero, err)
			return
		}
		if byPos == nil {
			byPos = resolveByIndex(p.columns, len(fields))
		}

		rec := p.newRecord()
		for i, col := range byPos {
			if col.isZero() {
				continue
			}
			err := col.Populate(&rec, p.cv, fields[i])
			if err == nil {
				continue
			}
			name := col.String()
			if i < len(headers) {
				name = fmt.Sprintf("%q", headers[i])
			}
			if p.cfg.Strict() {
				yield(zero, &FieldError{Line: rows.Line(), Column: name, Text: fields[i], Err: err})
				return
			}
			log.DebugContext(ctx, "csv field skipped",
				"line", rows.Line(),
				"column", name,
				"text", fields[i],
				"err", err)
		}
		n++
		if !yield(rec, nil) {
			return
		}
	}
}

// resolveByHeader maps each header position to the first column whose index
// is the position or whose header is the header text.
func resolveByHeader[T any](cols []Column[T], headers []string) []Column[T] {
	byPos := make([]Column[T], len(headers))
	for i, h := range headers {
		for _, col := range cols {
			idx, hasIndex := col.Index()
			name, hasHeader := col.Header()
			if (hasIndex && idx == i) || (hasHeader && name == h) {
				byPos[i] = col
				break
			}
		}
	}
	return byPos
}

// resolveByIndex maps each of width positions to the first column with that index.
func resolveByIndex[T any](cols []Column[T], width int) []Column[T] {
	byPos := make([]Column[T], width)
	for i := range byPos {
		for _, col := range cols {
			if idx, ok := col.Index(); ok && idx == i {
				byPos[i] = col
				break
			}
		}
	}
	return byPos
}

// recordFactory returns a constructor of empty records. Pointer record types
// get a freshly allocated element.
func recordFactory[T any]() func() T {
	t := reflect.TypeFor[T]()
	if t.Kind() != reflect.Pointer {
		return func() T {
			var rec T
			return rec
		}
	}
	elem := t.Elem()
	return func() T {
		var rec T
		reflect.ValueOf(&rec).Elem().Set(reflect.New(elem))
		return rec
	}
}

package recordcsv

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

var (
	errNilWriter      = errors.New("recordcsv: row writer is nil")
	errWriterNoTarget = errors.New("recordcsv: row writer destination cannot be nil")
)

// RowWriter emits rows of raw fields. A field is quoted when it contains the
// separator, '"', '\n' or '\r'; quotes inside it are doubled.
type RowWriter struct {
	dst *bufio.Writer

	// Separator is the field separator. Default is ",".
	Separator string
	// UseCRLF writes rows terminated with \r\n when set.
	UseCRLF bool
	// AlwaysQuote forces quoting for all fields when enabled.
	AlwaysQuote bool

	err error
}

// NewRowWriter creates a RowWriter buffering its output to w.
func NewRowWriter(w io.Writer) *RowWriter {
	if w == nil {
		panic(errWriterNoTarget.Error())
	}
	return &RowWriter{
		dst:       bufio.NewWriterSize(w, defaultBufferSize),
		Separator: ",",
	}
}

// Reset updates the underlying writer while preserving the configuration fields.
func (w *RowWriter) Reset(dst io.Writer) {
	if w == nil {
		panic(errNilWriter.Error())
	}
	if dst == nil {
		panic(errWriterNoTarget.Error())
	}
	if w.dst == nil {
		w.dst = bufio.NewWriterSize(dst, defaultBufferSize)
	} else {
		w.dst.Reset(dst)
	}
	w.err = nil
}

// Write emits a single row terminated with the configured line terminator.
func (w *RowWriter) Write(record []string) error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}

	sep := w.Separator
	if sep == "" {
		sep = ","
	}

	for i := range record {
		if i > 0 {
			if _, err := w.dst.WriteString(sep); err != nil {
				w.err = err
				return err
			}
		}
		if err := w.writeField(record[i], sep); err != nil {
			w.err = err
			return err
		}
	}

	terminator := "\n"
	if w.UseCRLF {
		terminator = "\r\n"
	}
	if _, err := w.dst.WriteString(terminator); err != nil {
		w.err = err
		return err
	}
	return nil
}

// WriteAll writes multiple rows, stopping at the first error.
func (w *RowWriter) WriteAll(records [][]string) error {
	if w == nil {
		return errNilWriter
	}
	for _, record := range records {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

// Flush flushes pending buffered data to the underlying writer.
func (w *RowWriter) Flush() error {
	if w == nil {
		return errNilWriter
	}
	if w.dst == nil {
		return errWriterNoTarget
	}
	if w.err != nil {
		return w.err
	}
	if err := w.dst.Flush(); err != nil {
		w.err = err
		return err
	}
	return nil
}

// Error reports the first error encountered by the writer.
func (w *RowWriter) Error() error {
	if w == nil {
		return errNilWriter
	}
	return w.err
}

func (w *RowWriter) writeField(field, sep string) error {
	if !w.AlwaysQuote && !fieldNeedsQuote(field, sep) {
		_, err := w.dst.WriteString(field)
		return err
	}
	if err := w.dst.WriteByte('"'); err != nil {
		return err
	}
	for {
		i := strings.IndexByte(field, '"')
		if i < 0 {
			break
		}
		if _, err := w.dst.WriteString(field[:i+1]); err != nil {
			return err
		}
		if err := w.dst.WriteByte('"'); err != nil {
			return err
		}
		field = field[i+1:]
	}
	if _, err := w.dst.WriteString(field); err != nil {
		return err
	}
	return w.dst.WriteByte('"')
}

// EscapeField returns field as it appears in a row using sep.
func EscapeField(field, sep string) string {
	if !fieldNeedsQuote(field, sep) {
		return field
	}
	return `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
}

func fieldNeedsQuote(field, sep string) bool {
	return strings.ContainsAny(field, "\"\n\r") || (sep != "" && strings.Contains(field, sep))
}

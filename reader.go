package recordcsv

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"unicode/utf8"
)

const defaultBufferSize = 4 << 10 // 4096 bytes

// RowReader splits text into rows of raw fields.
//
// Physical lines end with "\n", "\r\n" or a lone "\r". A field that starts
// with '"' is quoted: it runs until the next lone '"', "\"\"" stands for one
// quote and line breaks inside it are kept as they appear in the source. A
// quote inside an unquoted field, or any character between a closing quote
// and the next separator, is a *FormatError. An empty line is a row with
// one empty field.
type RowReader struct {
	src *bufio.Reader

	// Separator is the field separator. Default is ",".
	Separator string
	// FieldsPerRecord expects each row to contain this many fields. Zero
	// captures the width of the first row, a negative value disables the check.
	FieldsPerRecord int

	lineBuf  []byte
	field    strings.Builder
	record   []string
	line     int
	finished bool
}

// NewRowReader creates a RowReader that consumes text from r, panicking if r is nil.
func NewRowReader(r io.Reader) *RowReader {
	if r == nil {
		panic("recordcsv: row reader source cannot be nil")
	}
	return &RowReader{
		src:       bufio.NewReaderSize(r, defaultBufferSize),
		Separator: ",",
		lineBuf:   make([]byte, 0, 256),
	}
}

// NewRowReaderWith creates a RowReader that decodes r with cfg's encoding,
// dropping any leading byte-order-mark, and splits fields on cfg's separator.
func NewRowReaderWith(r io.Reader, cfg *Configuration) *RowReader {
	if cfg == nil {
		cfg = NewConfiguration()
	}
	if r == nil {
		panic("recordcsv: row reader source cannot be nil")
	}
	rr := NewRowReader(cfg.Encoding().NewDecoder(r))
	rr.Separator = cfg.Separator()
	return rr
}

// Line returns the number of physical lines consumed so far, which is the
// line of the last character of the row returned by Read.
func (r *RowReader) Line() int {
	if r == nil {
		return 0
	}
	return r.line
}

// Read parses the next row. io.EOF signals that no more rows remain. On a
// column count mismatch the row is returned along with the error.
func (r *RowReader) Read() ([]string, error) {
	if r == nil || r.src == nil || r.finished {
		return nil, io.EOF
	}
	sep := r.Separator
	if sep == "" {
		sep = ","
	}
	sepChars := utf8.RuneCountInString(sep)

	text, term, err := r.readLine()
	if err != nil {
		if err == io.EOF {
			r.finished = true
		}
		return nil, err
	}

	r.record = make([]string, 0, max(r.FieldsPerRecord, 4))
	r.field.Reset()
	inQuotes := false
	closed := false
	char := 1
	for i := 0; ; {
		if i >= len(text) {
			if !inQuotes {
				break
			}
			// The quoted field spans the line break.
			next, nextTerm, err := r.readLine()
			if err != nil {
				if err == io.EOF {
					r.finished = true
					return nil, r.wrapError(0, ErrUnterminatedQuote)
				}
				return nil, err
			}
			r.field.WriteString(term)
			text, term, i, char = next, nextTerm, 0, 1
			continue
		}

		c, size := utf8.DecodeRuneInString(text[i:])
		switch {
		case c == '"' && !inQuotes:
			if r.field.Len() > 0 {
				return nil, r.wrapError(char, ErrBareQuote)
			}
			inQuotes = true
		case c == '"':
			if i+1 < len(text) && text[i+1] == '"' {
				r.field.WriteByte('"')
				size++
				char++
			} else {
				inQuotes = false
				closed = true
			}
		case !inQuotes && strings.HasPrefix(text[i:], sep):
			r.record = append(r.record, r.field.String())
			r.field.Reset()
			closed = false
			size = len(sep)
			char += sepChars - 1
		default:
			if closed {
				return nil, r.wrapError(char, ErrUnexpectedCharacter)
			}
			r.field.WriteString(text[i : i+size])
		}
		i += size
		char++
	}
	r.record = append(r.record, r.field.String())
	return r.record, r.checkFieldCount()
}

// ReadAll exhausts the reader, returning the rows read until io.EOF and the
// first other error encountered.
func (r *RowReader) ReadAll() (records [][]string, err error) {
	for {
		record, err := r.Read()
		if err == io.EOF {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func (r *RowReader) checkFieldCount() error {
	switch {
	case r.FieldsPerRecord < 0:
		return nil
	case r.FieldsPerRecord == 0:
		r.FieldsPerRecord = len(r.record)
		return nil
	case len(r.record) > r.FieldsPerRecord:
		return r.wrapError(0, ErrTooManyFields)
	case len(r.record) < r.FieldsPerRecord:
		return r.wrapError(0, ErrTooFewFields)
	}
	return nil
}

// wrapError attaches the current line and supplied character to err,
// producing a *FormatError. A zero character means the error has none.
func (r *RowReader) wrapError(char int, err error) error {
	return &FormatError{Line: r.line, Character: char, Err: err}
}

// readLine returns the next physical line and the terminator that ended it:
// "\n", "\r\n", "\r", or "" for a last line without one.
func (r *RowReader) readLine() (string, string, error) {
	r.lineBuf = r.lineBuf[:0]
	for {
		if r.src.Buffered() == 0 {
			if _, err := r.src.Peek(1); err != nil {
				if err == io.EOF && len(r.lineBuf) > 0 {
					r.line++
					return string(r.lineBuf), "", nil
				}
				return "", "", err
			}
		}

		// Scan the buffered bytes for the closest line terminator.
		data, _ := r.src.Peek(r.src.Buffered())
		i := bytes.IndexAny(data, "\r\n")
		if i < 0 {
			r.lineBuf = append(r.lineBuf, data...)
			_, _ = r.src.Discard(len(data))
			continue
		}
		r.lineBuf = append(r.lineBuf, data[:i]...)
		term := "\n"
		if data[i] == '\r' {
			term = "\r"
		}
		_, _ = r.src.Discard(i + 1)
		if term == "\r" {
			// Support CRLF by peeking ahead for '\n' and consuming it together.
			next, err := r.src.Peek(1)
			if err == nil && next[0] == '\n' {
				_, _ = r.src.Discard(1)
				term = "\r\n"
			} else if err != nil && err != io.EOF {
				return "", "", err
			}
		}
		r.line++
		return string(r.lineBuf), term, nil
	}
}

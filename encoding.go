package recordcsv

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Encoding is a text encoding together with the byte-order-mark it defines.
type Encoding struct {
	name string
	enc  encoding.Encoding
	bom  []byte
}

// Predefined encodings.
var (
	UTF8        = Encoding{name: "utf-8", enc: unicode.UTF8, bom: []byte{0xEF, 0xBB, 0xBF}}
	UTF16LE     = Encoding{name: "utf-16le", enc: unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM), bom: []byte{0xFF, 0xFE}}
	UTF16BE     = Encoding{name: "utf-16be", enc: unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM), bom: []byte{0xFE, 0xFF}}
	Latin1      = Encoding{name: "iso-8859-1", enc: charmap.ISO8859_1}
	Windows1252 = Encoding{name: "windows-1252", enc: charmap.Windows1252}
)

// LookupEncoding returns the encoding registered under an IANA name such as
// "UTF-8", "UTF-16LE" or "ISO-8859-15".
func LookupEncoding(name string) (Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "utf-8", "utf8":
		return UTF8, nil
	case "utf-16le", "utf-16", "unicode":
		return UTF16LE, nil
	case "utf-16be":
		return UTF16BE, nil
	case "iso-8859-1", "latin1":
		return Latin1, nil
	case "windows-1252", "cp1252":
		return Windows1252, nil
	}
	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return Encoding{}, fmt.Errorf("%w: unknown encoding %q", ErrInvalidArgument, name)
	}
	canonical, err := ianaindex.IANA.Name(enc)
	if err != nil {
		canonical = name
	}
	return Encoding{name: strings.ToLower(canonical), enc: enc}, nil
}

// Name returns the lower-case IANA name of the encoding.
func (e Encoding) Name() string { return e.name }

// BOM returns the byte-order-mark of the encoding, or nil when it has none.
func (e Encoding) BOM() []byte {
	if len(e.bom) == 0 {
		return nil
	}
	return append([]byte(nil), e.bom...)
}

// IsZero reports whether e is the zero Encoding.
func (e Encoding) IsZero() bool { return e.enc == nil }

func (e Encoding) String() string { return e.name }

// NewDecoder wraps r so that it yields UTF-8. A leading Unicode BOM is
// honored and stripped whatever the configured encoding.
func (e Encoding) NewDecoder(r io.Reader) io.Reader {
	return transform.NewReader(r, unicode.BOMOverride(e.enc.NewDecoder()))
}

// NewEncoder wraps w so that UTF-8 text written to it is transcoded, with
// unsupported runes replaced by the encoding's substitute. The returned
// writer must be closed to flush, which does not close w.
func (e Encoding) NewEncoder(w io.Writer) io.WriteCloser {
	if e.enc == unicode.UTF8 {
		return nopWriteCloser{w}
	}
	return transform.NewWriter(w, encoding.ReplaceUnsupported(e.enc.NewEncoder()))
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

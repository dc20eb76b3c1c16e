package recordcsv

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

type textValue struct {
	Text  string
	Value float64
}

type entry struct {
	ID    int       `csv:"id"`
	Name  string    `csv:"name"`
	Score *float64  `csv:"score"`
	When  time.Time `csv:"when"`
}

type closeCounter struct {
	*strings.Reader
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

func ptr[V any](v V) *V { return &v }

func TestReaderIndexColumns(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "fr-FR")
	cfg.SetHasHeaders(false)
	r, err := NewReader[textValue](strings.NewReader("Hello World;Ignore;10,3\n"), cfg)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if err := r.AddColumn(ReadIndex(0, func(tv *textValue, v string) { tv.Text = v })); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if err := r.AddColumn(ReadIndex(2, func(tv *textValue, v float64) { tv.Value = v })); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}

	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := []textValue{{Text: "Hello World", Value: 10.3}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderQuotedSeparator(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "fr-FR")
	cfg.SetHasHeaders(false)
	r, err := NewReader[textValue](strings.NewReader("\"Hello;World\"\n"), cfg)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if err := r.AddColumn(ReadIndex(0, func(tv *textValue, v string) { tv.Text = v })); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "Hello;World" {
		t.Fatalf("records = %+v", got)
	}
}

func TestReaderHeaderMapping(t *testing.T) {
	t.Parallel()

	input := "unknown;when;score;name;id\n" +
		"x;2024-03-01T09:30:00Z;1,5;Ann;1\n" +
		"y;;;\"Bo;b\";2\n"
	r, err := NewReader[entry](strings.NewReader(input), testConfig(t, "fr-FR"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	want := []entry{
		{ID: 1, Name: "Ann", Score: ptr(1.5), When: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 2, Name: "Bo;b"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("records mismatch (-want +got):\n%s", diff)
	}
}

func TestReaderColumnPrecedence(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "en-US")
	r, err := NewReader[textValue](strings.NewReader("a,b\nfirst,second\n"), cfg)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	// The index column claims position 1 before the header column for "b".
	cols := []Column[textValue]{
		ReadIndex(1, func(tv *textValue, v string) { tv.Text += "index:" + v }),
		ReadHeader("b", func(tv *textValue, v string) { tv.Text = "header:" + v }),
		ReadHeader("a", func(tv *textValue, v string) { tv.Text += "|a:" + v }),
	}
	for _, c := range cols {
		if err := r.AddColumn(c); err != nil {
			t.Fatalf("AddColumn() error = %v", err)
		}
	}
	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 1 || got[0].Text != "|a:firstindex:second" {
		t.Fatalf("records = %+v", got)
	}
}

func TestReaderConversionFailures(t *testing.T) {
	t.Parallel()

	input := "id,name\nabc,Ann\n2,Bob\n"

	t.Run("lenient", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		cfg := testConfig(t, "en-US")
		cfg.SetLogger(slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug})))
		r, err := NewReader[entry](strings.NewReader(input), cfg)
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		got, err := r.ReadAll(context.Background())
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		want := []entry{{Name: "Ann"}, {ID: 2, Name: "Bob"}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("records mismatch (-want +got):\n%s", diff)
		}
		if !strings.Contains(logs.String(), `msg="csv field skipped"`) {
			t.Fatalf("expected a skipped field log, got:\n%s", logs.String())
		}
	})

	t.Run("strict", func(t *testing.T) {
		t.Parallel()
		cfg := testConfig(t, "en-US")
		cfg.SetStrict(true)
		r, err := NewReader[entry](strings.NewReader(input), cfg)
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		_, err = r.ReadAll(context.Background())
		var ferr *FieldError
		if !errors.As(err, &ferr) {
			t.Fatalf("expected *FieldError, got %T (%v)", err, err)
		}
		if ferr.Line != 2 || ferr.Column != `"id"` || ferr.Text != "abc" {
			t.Fatalf("FieldError = %+v", ferr)
		}
		if !errors.Is(err, ErrConversion) {
			t.Fatalf("FieldError should wrap ErrConversion: %v", err)
		}
	})
}

func TestReaderFormatError(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t, "fr-FR")
	input := "name;id\nAnn;1\nHello\" World;2\nCid;3\n"
	r, err := NewReader[entry](strings.NewReader(input), cfg)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}

	var names []string
	var last error
	for rec, err := range r.Records(context.Background()) {
		if err != nil {
			last = err
			break
		}
		names = append(names, rec.Name)
	}
	if diff := cmp.Diff([]string{"Ann"}, names); diff != "" {
		t.Fatalf("records before the error (-want +got):\n%s", diff)
	}
	var ferr *FormatError
	if !errors.As(last, &ferr) {
		t.Fatalf("expected *FormatError, got %v", last)
	}
	if ferr.Line != 3 || ferr.Character != 6 || !errors.Is(last, ErrBareQuote) {
		t.Fatalf("FormatError = %+v", ferr)
	}

	r, err = NewReader[entry](strings.NewReader("name;id\nAnn;1;extra\n"), testConfig(t, "fr-FR"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := r.ReadAll(context.Background()); !IsFieldCount(err) {
		t.Fatalf("expected a column count error, got %v", err)
	}
}

func TestReaderSetupErrors(t *testing.T) {
	t.Parallel()

	if _, err := NewReader[entry](nil, nil); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("nil source error = %v", err)
	}

	r, err := NewReader[int](strings.NewReader("1\n"), testConfig(t, "en-US"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := r.ReadAll(context.Background()); !errors.Is(err, ErrNoColumns) {
		t.Fatalf("expected ErrNoColumns, got %v", err)
	}

	cfg := testConfig(t, "en-US")
	cfg.SetHasHeaders(false)
	re, err := NewReader[entry](strings.NewReader("1,Ann\n"), cfg)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	if _, err := re.ReadAll(context.Background()); !errors.Is(err, ErrHeaderRequired) {
		t.Fatalf("expected ErrHeaderRequired, got %v", err)
	}

	if err := re.AddColumn(WriteIndex(0, func(e entry) int { return e.ID })); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("non-readable column error = %v", err)
	}
	if err := re.AddColumn(ReadHeader("name", func(e *entry, v string) { e.Name = v })); err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if !re.Configuration().HasHeaders() {
		t.Fatalf("a header column should turn headers on")
	}
}

func TestReaderSinglePass(t *testing.T) {
	t.Parallel()

	r, err := NewReader[entry](strings.NewReader("id\n1\n2\n"), testConfig(t, "en-US"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	got, err := r.ReadAll(context.Background())
	if err != nil || len(got) != 2 {
		t.Fatalf("ReadAll() = %v, %v", got, err)
	}
	if _, err := r.ReadAll(context.Background()); !errors.Is(err, ErrAlreadyRead) {
		t.Fatalf("second read error = %v, want ErrAlreadyRead", err)
	}
}

func TestReaderClose(t *testing.T) {
	t.Parallel()

	t.Run("keepOpen", func(t *testing.T) {
		t.Parallel()
		src := &closeCounter{Reader: strings.NewReader("id\n1\n")}
		r, err := NewReader[entry](src, testConfig(t, "en-US"))
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		if err := r.Close(); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
		if src.closed != 0 {
			t.Fatalf("source closed with keepStreamOpen set")
		}
		if _, err := r.ReadAll(context.Background()); !errors.Is(err, ErrClosed) {
			t.Fatalf("read after Close error = %v", err)
		}
	})

	t.Run("closeSource", func(t *testing.T) {
		t.Parallel()
		src := &closeCounter{Reader: strings.NewReader("id\n1\n")}
		cfg := testConfig(t, "en-US")
		cfg.SetKeepStreamOpen(false)
		r, err := NewReader[entry](src, cfg)
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		for range 2 {
			if err := r.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
		}
		if src.closed != 1 {
			t.Fatalf("source closed %d times, want 1", src.closed)
		}
	})

	t.Run("duringIteration", func(t *testing.T) {
		t.Parallel()
		r, err := NewReader[entry](strings.NewReader("id\n1\n2\n3\n"), testConfig(t, "en-US"))
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		n := 0
		var last error
		for _, err := range r.Records(context.Background()) {
			if err != nil {
				last = err
				break
			}
			n++
			if err := r.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
		}
		if n != 1 || !errors.Is(last, ErrClosed) {
			t.Fatalf("records=%d err=%v, want 1 record then ErrClosed", n, last)
		}
	})
}

func TestReaderCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r, err := NewReader[entry](strings.NewReader("id\n1\n2\n3\n"), testConfig(t, "en-US"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	n := 0
	var last error
	for _, err := range r.Records(ctx) {
		if err != nil {
			last = err
			break
		}
		n++
		cancel()
	}
	if n != 1 || !errors.Is(last, context.Canceled) {
		t.Fatalf("records=%d err=%v, want 1 record then context.Canceled", n, last)
	}
}

func TestReaderEmptyInput(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "id,name\n"} {
		r, err := NewReader[entry](strings.NewReader(input), testConfig(t, "en-US"))
		if err != nil {
			t.Fatalf("NewReader() error = %v", err)
		}
		got, err := r.ReadAll(context.Background())
		if err != nil || len(got) != 0 {
			t.Fatalf("ReadAll(%q) = %v, %v", input, got, err)
		}
	}
}

func TestReaderPointerRecords(t *testing.T) {
	t.Parallel()

	r, err := NewReader[*entry](strings.NewReader("id,name\n1,Ann\n2,Bob\n"), testConfig(t, "en-US"))
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	got, err := r.ReadAll(context.Background())
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if len(got) != 2 || got[0] == got[1] {
		t.Fatalf("each record needs its own allocation: %v", got)
	}
	if got[0].Name != "Ann" || got[1].ID != 2 {
		t.Fatalf("records = %+v %+v", *got[0], *got[1])
	}
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		locale string
		sep    string
		enc    Encoding
		crlf   bool
	}{
		{name: "french", locale: "fr-FR", enc: UTF8},
		{name: "englishCRLF", locale: "en-US", enc: UTF8, crlf: true},
		{name: "japaneseTab", locale: "ja-JP", sep: "\t", enc: UTF8},
		{name: "multiCharSeparator", locale: "de-DE", sep: "||", enc: UTF8},
		{name: "utf16", locale: "fr-FR", enc: UTF16BE},
	}

	records := []entry{
		{ID: 1, Name: "Hello;World", Score: ptr(10.3), When: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)},
		{ID: 2, Name: "say \"hi\"\nthen leave", Score: ptr(-0.001)},
		{ID: 3, Name: "tab\tand||pipes, commas"},
		{ID: 4, Name: "carriage\rreturn"},
		{ID: 5, Name: "windows\r\nbreak\nand unix"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := testConfig(t, tc.locale)
			cfg.SetAddBOM(true)
			cfg.SetCRLF(tc.crlf)
			if tc.sep != "" {
				if err := cfg.SetSeparator(tc.sep); err != nil {
					t.Fatalf("SetSeparator() error = %v", err)
				}
			}
			if err := cfg.SetEncoding(tc.enc); err != nil {
				t.Fatalf("SetEncoding() error = %v", err)
			}

			buf, err := ToCSV(records, cfg).ToBuffer(context.Background())
			if err != nil {
				t.Fatalf("ToBuffer() error = %v", err)
			}
			r, err := NewReader[entry](buf, cfg)
			if err != nil {
				t.Fatalf("NewReader() error = %v", err)
			}
			got, err := r.ReadAll(context.Background())
			if err != nil {
				t.Fatalf("ReadAll() error = %v", err)
			}
			if diff := cmp.Diff(records, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

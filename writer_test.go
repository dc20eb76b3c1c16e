package recordcsv

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRowWriterWrite(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		records [][]string
		config  func(*RowWriter)
		want    string
	}{
		{
			name:    "basic",
			records: [][]string{{"a", "b", "c"}},
			want:    "a,b,c\n",
		},
		{
			name: "multipleRecords",
			records: [][]string{
				{"Chair", "49.5"},
				{"Desk", "189.99"},
			},
			want: "Chair,49.5\nDesk,189.99\n",
		},
		{
			name:    "emptyField",
			records: [][]string{{"", "b"}},
			want:    ",b\n",
		},
		{
			name:    "commaForcesQuote",
			records: [][]string{{"Chair,oak"}},
			want:    "\"Chair,oak\"\n",
		},
		{
			name: "quoteEscaping",
			records: [][]string{
				{"5\" screws", "plain"},
			},
			want: "\"5\"\" screws\",plain\n",
		},
		{
			name: "newlineForcesQuote",
			records: [][]string{
				{"multi\nline", "z"},
			},
			want: "\"multi\nline\",z\n",
		},
		{
			name: "alwaysQuote",
			records: [][]string{
				{"Chair", "49.5"},
			},
			config: func(w *RowWriter) {
				w.AlwaysQuote = true
			},
			want: "\"Chair\",\"49.5\"\n",
		},
		{
			name: "customSeparator",
			records: [][]string{
				{"a;b", "c"},
			},
			config: func(w *RowWriter) {
				w.Separator = ";"
			},
			want: "\"a;b\";c\n",
		},
		{
			name: "commaNotQuotedWithOtherSeparator",
			records: [][]string{
				{"10,3", "x"},
			},
			config: func(w *RowWriter) {
				w.Separator = ";"
			},
			want: "10,3;x\n",
		},
		{
			name: "multiCharSeparator",
			records: [][]string{
				{"a|b", "c||d", "e"},
			},
			config: func(w *RowWriter) {
				w.Separator = "||"
			},
			want: "a|b||\"c||d\"||e\n",
		},
		{
			name: "doubledQuotes",
			records: [][]string{
				{"Hello\"World"},
			},
			want: "\"Hello\"\"World\"\n",
		},
		{
			name: "carriageReturnForcesQuote",
			records: [][]string{
				{"a\rb"},
			},
			want: "\"a\rb\"\n",
		},
		{
			name: "useCRLF",
			records: [][]string{
				{"a"},
				{"b"},
			},
			config: func(w *RowWriter) {
				w.UseCRLF = true
			},
			want: "a\r\nb\r\n",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			w := NewRowWriter(&buf)
			if tc.config != nil {
				tc.config(w)
			}
			for _, rec := range tc.records {
				if err := w.Write(rec); err != nil {
					t.Fatalf("Write() error = %v", err)
				}
			}
			if err := w.Flush(); err != nil {
				t.Fatalf("Flush() error = %v", err)
			}
			if got := buf.String(); got != tc.want {
				t.Fatalf("unexpected output:\n got: %q\nwant: %q", got, tc.want)
			}
		})
	}
}

func TestRowWriterWriteAll(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	w := NewRowWriter(&buf)

	records := [][]string{
		{"Chair", "49.5"},
		{"Desk", "189.99"},
	}

	if err := w.WriteAll(records); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	want := "Chair,49.5\nDesk,189.99\n"
	if got := buf.String(); got != want {
		t.Fatalf("unexpected output got %q want %q", got, want)
	}
}

func TestRowWriterReset(t *testing.T) {
	t.Parallel()

	var first bytes.Buffer
	var second bytes.Buffer

	var w RowWriter
	w.Reset(&first)

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := first.String(); got != "a\n" {
		t.Fatalf("unexpected first contents %q", got)
	}

	w.Separator = ";"
	w.UseCRLF = true
	w.Reset(&second)
	if err := w.Write([]string{"x", "y"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := second.String(); got != "x;y\r\n" {
		t.Fatalf("unexpected second contents %q", got)
	}
}

type flushFailWriter struct {
	fail error
}

func (f *flushFailWriter) Write([]byte) (int, error) {
	return 0, f.fail
}

func TestRowWriterFlushError(t *testing.T) {
	t.Parallel()

	exp := errors.New("flush failed")
	w := NewRowWriter(&flushFailWriter{fail: exp})

	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Write([]string{"b"}); !errors.Is(err, exp) {
		t.Fatalf("Write() should return stored error %v, got %v", exp, err)
	}
}

func TestRowWriterErrorMethod(t *testing.T) {
	t.Parallel()

	w := NewRowWriter(&strings.Builder{})
	if err := w.Error(); err != nil {
		t.Fatalf("expected nil error from fresh writer, got %v", err)
	}

	exp := errors.New("flush failed")
	w.Reset(&flushFailWriter{fail: exp})
	if err := w.Write([]string{"a"}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if err := w.Flush(); !errors.Is(err, exp) {
		t.Fatalf("expected flush error %v, got %v", exp, err)
	}
	if err := w.Error(); !errors.Is(err, exp) {
		t.Fatalf("Error() should return %v, got %v", exp, err)
	}
}

func TestNewRowWriterNilPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for nil writer")
		}
	}()

	_ = NewRowWriter(nil)
}

func TestEscapeField(t *testing.T) {
	t.Parallel()

	tests := []struct {
		field string
		sep   string
		want  string
	}{
		{field: "plain", sep: ",", want: "plain"},
		{field: "", sep: ",", want: ""},
		{field: "Hello\"World", sep: ",", want: "\"Hello\"\"World\""},
		{field: "Hello;World", sep: ";", want: "\"Hello;World\""},
		{field: "Hello;World", sep: ",", want: "Hello;World"},
		{field: "two\nlines", sep: ",", want: "\"two\nlines\""},
		{field: "a::b", sep: "::", want: "\"a::b\""},
		{field: "a:b", sep: "::", want: "a:b"},
	}

	for _, tc := range tests {
		if got := EscapeField(tc.field, tc.sep); got != tc.want {
			t.Errorf("EscapeField(%q, %q) = %q, want %q", tc.field, tc.sep, got, tc.want)
		}
	}
}

func TestRowWriterReaderRoundTrip(t *testing.T) {
	t.Parallel()

	rows := [][]string{
		{"id", "text", "note"},
		{"1", "Hello;World", "say \"hi\""},
		{"2", "multi\nline", ""},
		{"3", "", "trailing;"},
	}

	var buf bytes.Buffer
	w := NewRowWriter(&buf)
	w.Separator = ";"
	w.UseCRLF = true
	if err := w.WriteAll(rows); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	r := NewRowReader(&buf)
	r.Separator = ";"
	got, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if diff := cmp.Diff(rows, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

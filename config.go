package recordcsv

import (
	"fmt"
	"log/slog"
	"strings"
)

// AutoGenerate controls when columns are synthesized from the record type.
type AutoGenerate int

const (
	// AutoDefault synthesizes columns only when no explicit column was added.
	AutoDefault AutoGenerate = iota
	// AutoAlways synthesizes columns and appends the explicit ones after them.
	AutoAlways
	// AutoNever uses the explicit columns only.
	AutoNever
)

func (a AutoGenerate) String() string {
	switch a {
	case AutoDefault:
		return "default"
	case AutoAlways:
		return "always"
	case AutoNever:
		return "never"
	default:
		return fmt.Sprintf("AutoGenerate(%d)", int(a))
	}
}

// Configuration holds the settings shared by readers and writers.
// Operations snapshot it when they start.
type Configuration struct {
	separator    string
	separatorSet bool
	locale       Locale
	fallback     Fallback
	encoding     Encoding

	hasHeaders     bool
	autoGenerate   AutoGenerate
	addBOM         bool
	keepStreamOpen bool
	strict         bool
	crlf           bool

	logger   *slog.Logger
	registry *Registry
}

// NewConfiguration returns the default configuration: current locale and its
// list separator, UTF-8, headers on, BOM on, caller keeps the stream open.
func NewConfiguration() *Configuration {
	loc := CurrentLocale()
	return &Configuration{
		separator:      loc.List,
		locale:         loc,
		encoding:       UTF8,
		hasHeaders:     true,
		addBOM:         true,
		keepStreamOpen: true,
		logger:         discardLogger(),
		registry:       NewRegistry(),
	}
}

// Separator returns the field separator.
func (c *Configuration) Separator() string { return c.separator }

// SetSeparator sets the field separator. It must be non-empty and must not
// contain '"', '\n' or '\r'. Once set, locale changes no longer affect it.
func (c *Configuration) SetSeparator(sep string) error {
	if err := validSeparator(sep); err != nil {
		return err
	}
	c.separator = sep
	c.separatorSet = true
	return nil
}

func validSeparator(sep string) error {
	switch {
	case sep == "":
		return fmt.Errorf("%w: the separator can't be empty", ErrInvalidArgument)
	case strings.ContainsRune(sep, '"'):
		return fmt.Errorf("%w: the separator can't contain '\"'", ErrInvalidArgument)
	case strings.ContainsAny(sep, "\r\n"):
		return fmt.Errorf("%w: the separator can't contain a new line character", ErrInvalidArgument)
	}
	return nil
}

// Locale returns the locale used for conversions.
func (c *Configuration) Locale() Locale { return c.locale }

// SetLocale sets the locale. The separator follows the locale's list
// separator until SetSeparator is called.
func (c *Configuration) SetLocale(loc Locale) {
	c.locale = loc
	if !c.separatorSet && loc.List != "" {
		c.separator = loc.List
	}
}

// SetLocaleName parses name as a BCP 47 tag and sets the locale.
func (c *Configuration) SetLocaleName(name string) error {
	loc, err := ParseLocale(name)
	if err != nil {
		return err
	}
	c.SetLocale(loc)
	return nil
}

// Fallback returns the locale policy used when parsing under Locale fails.
func (c *Configuration) Fallback() Fallback { return c.fallback }

// SetFallback sets the fallback locale policy.
func (c *Configuration) SetFallback(f Fallback) { c.fallback = f }

// Encoding returns the text encoding.
func (c *Configuration) Encoding() Encoding { return c.encoding }

// SetEncoding sets the text encoding.
func (c *Configuration) SetEncoding(e Encoding) error {
	if e.IsZero() {
		return fmt.Errorf("%w: zero encoding", ErrInvalidArgument)
	}
	c.encoding = e
	return nil
}

// HasHeaders reports whether the first line holds headers.
func (c *Configuration) HasHeaders() bool { return c.hasHeaders }

// SetHasHeaders sets whether the first line holds headers.
func (c *Configuration) SetHasHeaders(v bool) { c.hasHeaders = v }

// AutoGenerate returns the column synthesis policy.
func (c *Configuration) AutoGenerate() AutoGenerate { return c.autoGenerate }

// SetAutoGenerate sets the column synthesis policy.
func (c *Configuration) SetAutoGenerate(a AutoGenerate) error {
	if a < AutoDefault || a > AutoNever {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, a)
	}
	c.autoGenerate = a
	return nil
}

// AddBOM reports whether writers emit the encoding's byte-order-mark.
func (c *Configuration) AddBOM() bool { return c.addBOM }

// SetAddBOM sets whether writers emit the encoding's byte-order-mark.
func (c *Configuration) SetAddBOM(v bool) { c.addBOM = v }

// KeepStreamOpen reports whether Reader.Close leaves the source open.
func (c *Configuration) KeepStreamOpen() bool { return c.keepStreamOpen }

// SetKeepStreamOpen sets whether Reader.Close leaves the source open.
func (c *Configuration) SetKeepStreamOpen(v bool) { c.keepStreamOpen = v }

// Strict reports whether conversion failures end a read with an error
// instead of leaving the field unset.
func (c *Configuration) Strict() bool { return c.strict }

// SetStrict sets the conversion failure policy.
func (c *Configuration) SetStrict(v bool) { c.strict = v }

// CRLF reports whether written lines end with "\r\n" instead of "\n".
func (c *Configuration) CRLF() bool { return c.crlf }

// SetCRLF sets the line terminator of written lines.
func (c *Configuration) SetCRLF(v bool) { c.crlf = v }

// Logger returns the logger operations report to.
func (c *Configuration) Logger() *slog.Logger { return c.logger }

// SetLogger sets the logger; nil discards logs.
func (c *Configuration) SetLogger(l *slog.Logger) {
	if l == nil {
		l = discardLogger()
	}
	c.logger = l
}

// Registry returns the custom converters.
func (c *Configuration) Registry() *Registry { return c.registry }

// SetRegistry sets the custom converters; nil installs an empty registry.
func (c *Configuration) SetRegistry(r *Registry) {
	if r == nil {
		r = NewRegistry()
	}
	c.registry = r
}

// Converter returns a converter bound to the configured locale, fallback and registry.
func (c *Configuration) Converter() *Converter {
	return NewConverter(c.locale, c.fallback, c.registry)
}

// Clone returns a copy of c. The logger and registry are shared.
func (c *Configuration) Clone() *Configuration {
	cp := *c
	return &cp
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

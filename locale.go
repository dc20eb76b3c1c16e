package recordcsv

import (
	"fmt"
	"os"
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale holds the formatting rules used to convert values to and from text.
type Locale struct {
	Tag language.Tag
	// Decimal separates the integer and fractional parts of numbers.
	Decimal string
	// List is the default field separator for the locale.
	List string
	// DateLayouts are accepted, in order, when parsing times that are not RFC 3339.
	DateLayouts []string
}

// Invariant is the culture-neutral locale: '.' decimals, ',' lists, ISO dates.
var Invariant = Locale{
	Tag:         language.Und,
	Decimal:     ".",
	List:        ",",
	DateLayouts: []string{"2006-01-02 15:04:05", "2006-01-02"},
}

var dateLayouts = map[string][]string{
	"en-US": {"1/2/2006 3:04:05 PM", "1/2/2006 15:04:05", "1/2/2006"},
	"en":    {"02/01/2006 15:04:05", "02/01/2006"},
	"fr":    {"02/01/2006 15:04:05", "02/01/2006"},
	"es":    {"02/01/2006 15:04:05", "02/01/2006"},
	"it":    {"02/01/2006 15:04:05", "02/01/2006"},
	"pt":    {"02/01/2006 15:04:05", "02/01/2006"},
	"de":    {"02.01.2006 15:04:05", "02.01.2006"},
	"ru":    {"02.01.2006 15:04:05", "02.01.2006"},
	"pl":    {"02.01.2006 15:04:05", "02.01.2006"},
	"nl":    {"02-01-2006 15:04:05", "02-01-2006"},
	"ja":    {"2006/01/02 15:04:05", "2006/01/02"},
	"zh":    {"2006/1/2 15:04:05", "2006/1/2"},
	"ko":    {"2006. 1. 2. 15:04:05", "2006. 1. 2."},
}

// NewLocale derives a Locale from a language tag. The decimal separator comes
// from CLDR data; the list separator is ';' for comma-decimal locales and ','
// otherwise.
func NewLocale(tag language.Tag) Locale {
	if tag == language.Und {
		return Invariant
	}
	loc := Locale{Tag: tag, Decimal: decimalSeparator(tag)}
	loc.List = ","
	if loc.Decimal == "," {
		loc.List = ";"
	}
	loc.DateLayouts = layoutsFor(tag)
	return loc
}

// ParseLocale parses a BCP 47 tag such as "fr-FR". POSIX names like
// "fr_FR.UTF-8" are accepted too.
func ParseLocale(name string) (Locale, error) {
	name = posixToBCP47(name)
	if name == "" {
		return Invariant, nil
	}
	tag, err := language.Parse(name)
	if err != nil {
		return Locale{}, fmt.Errorf("%w: locale %q: %v", ErrInvalidArgument, name, err)
	}
	return NewLocale(tag), nil
}

// MustLocale is like ParseLocale but panics on error.
func MustLocale(name string) Locale {
	loc, err := ParseLocale(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// CurrentLocale returns the locale named by LC_ALL, LC_NUMERIC or LANG, or
// Invariant when none is set or parseable.
func CurrentLocale() Locale {
	for _, key := range []string{"LC_ALL", "LC_NUMERIC", "LANG"} {
		v := os.Getenv(key)
		if v == "" {
			continue
		}
		loc, err := ParseLocale(v)
		if err != nil {
			continue
		}
		return loc
	}
	return Invariant
}

// Name returns the BCP 47 name of the locale, or "" for Invariant.
func (l Locale) Name() string {
	if l.Tag == language.Und {
		return ""
	}
	return l.Tag.String()
}

func (l Locale) String() string {
	if n := l.Name(); n != "" {
		return n
	}
	return "invariant"
}

func (l Locale) decimal() string {
	if l.Decimal == "" {
		return "."
	}
	return l.Decimal
}

func (l Locale) sameFormat(o Locale) bool {
	return l.decimal() == o.decimal() && l.Tag == o.Tag
}

func decimalSeparator(tag language.Tag) string {
	s := message.NewPrinter(tag).Sprintf("%.1f", 1.5)
	var sep strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			continue
		}
		sep.WriteRune(r)
	}
	if sep.Len() == 0 {
		return "."
	}
	return sep.String()
}

func layoutsFor(tag language.Tag) []string {
	if l, ok := dateLayouts[tag.String()]; ok {
		return l
	}
	base, _ := tag.Base()
	if l, ok := dateLayouts[base.String()]; ok {
		return l
	}
	return Invariant.DateLayouts
}

func posixToBCP47(name string) string {
	if i := strings.IndexAny(name, ".@"); i >= 0 {
		name = name[:i]
	}
	switch name {
	case "C", "POSIX":
		return ""
	}
	return strings.ReplaceAll(name, "_", "-")
}

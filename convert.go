package recordcsv

import (
	"encoding"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	timeType      = reflect.TypeFor[time.Time]()
	durationType  = reflect.TypeFor[time.Duration]()
	uuidType      = reflect.TypeFor[uuid.UUID]()
	unmarshalerTy = reflect.TypeFor[encoding.TextUnmarshaler]()
	marshalerTy   = reflect.TypeFor[encoding.TextMarshaler]()
	stringerType  = reflect.TypeFor[fmt.Stringer]()
)

var (
	structLiteralRe = regexp.MustCompile(`^\{\w+=[\w.+-]+(,\w+=[\w.+-]+)*\}$`)
	structPairRe    = regexp.MustCompile(`(\w+)=([\w.+-]+)`)
)

// Fallback is the locale policy applied when parsing under the primary locale fails.
type Fallback struct {
	locale *Locale
}

// NoFallback disables the second parsing attempt.
var NoFallback = Fallback{}

// FallbackTo retries failed parses under loc.
func FallbackTo(loc Locale) Fallback {
	return Fallback{locale: &loc}
}

// Locale returns the fallback locale, if any.
func (f Fallback) Locale() (Locale, bool) {
	if f.locale == nil {
		return Locale{}, false
	}
	return *f.locale, true
}

// Converter parses and formats scalar values under a locale. The zero value
// converts under the invariant locale with no custom converters.
type Converter struct {
	Locale   Locale
	Fallback Fallback
	Registry *Registry
}

// NewConverter returns a Converter for loc using the converters in reg, which may be nil.
func NewConverter(loc Locale, fallback Fallback, reg *Registry) *Converter {
	return &Converter{Locale: loc, Fallback: fallback, Registry: reg}
}

// TryParse converts text to a value of type typ. An empty text is absent: it
// converts to "" for strings, to nil for pointers and fails for other types.
func (c *Converter) TryParse(text string, typ reflect.Type) (reflect.Value, bool) {
	if c == nil {
		return ParseValue(text, typ, Invariant, NoFallback, nil)
	}
	return ParseValue(text, typ, c.Locale, c.Fallback, c.Registry)
}

// Format converts v to text. Nil values format as "".
func (c *Converter) Format(v any) string {
	if v == nil {
		return ""
	}
	if c == nil {
		return formatValue(reflect.ValueOf(v), Invariant, nil)
	}
	return formatValue(reflect.ValueOf(v), c.Locale, c.Registry)
}

// Parse converts text to a V with the converter c.
func Parse[V any](c *Converter, text string) (V, bool) {
	var zero V
	rv, ok := c.TryParse(text, reflect.TypeFor[V]())
	if !ok {
		return zero, false
	}
	return valueAs[V](rv), true
}

func valueAs[V any](rv reflect.Value) V {
	var out V
	reflect.ValueOf(&out).Elem().Set(rv)
	return out
}

// ParseValue is the single parsing entry point: it tries loc, then the
// fallback locale when one is set and differs from loc.
func ParseValue(text string, typ reflect.Type, loc Locale, fallback Fallback, reg *Registry) (reflect.Value, bool) {
	if rv, ok := parseValue(text, typ, loc, reg); ok {
		return rv, true
	}
	if fb, ok := fallback.Locale(); ok && !fb.sameFormat(loc) {
		return parseValue(text, typ, fb, reg)
	}
	return reflect.Value{}, false
}

func parseValue(text string, typ reflect.Type, loc Locale, reg *Registry) (reflect.Value, bool) {
	if conv, ok := reg.lookup(typ); ok && conv.parse != nil {
		v, err := conv.parse(text, loc)
		if err != nil {
			return reflect.Value{}, false
		}
		return v, true
	}
	if typ.Kind() == reflect.String && !typ.Implements(unmarshalerTy) && !reflect.PointerTo(typ).Implements(unmarshalerTy) {
		return reflect.ValueOf(text).Convert(typ), true
	}
	if text == "" {
		if typ.Kind() == reflect.Pointer || typ.Kind() == reflect.Interface {
			return reflect.Zero(typ), true
		}
		return reflect.Value{}, false
	}
	if typ.Kind() == reflect.Pointer {
		elem, ok := parseValue(text, typ.Elem(), loc, reg)
		if !ok {
			return reflect.Value{}, false
		}
		p := reflect.New(typ.Elem())
		p.Elem().Set(elem)
		return p, true
	}

	switch typ {
	case timeType:
		t, ok := parseTime(text, loc)
		return reflect.ValueOf(t), ok
	case durationType:
		d, err := time.ParseDuration(strings.TrimSpace(text))
		return reflect.ValueOf(d), err == nil
	case uuidType:
		id, err := uuid.Parse(strings.TrimSpace(text))
		return reflect.ValueOf(id), err == nil
	}

	if reflect.PointerTo(typ).Implements(unmarshalerTy) {
		p := reflect.New(typ)
		if err := p.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(text)); err != nil {
			return reflect.Value{}, false
		}
		return p.Elem(), true
	}

	v := reflect.New(typ).Elem()
	switch typ.Kind() {
	case reflect.Bool:
		b, ok := parseBool(text)
		if !ok {
			return reflect.Value{}, false
		}
		v.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(strings.TrimSpace(text), 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		v.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(strings.TrimPrefix(strings.TrimSpace(text), "+"), 10, typ.Bits())
		if err != nil {
			return reflect.Value{}, false
		}
		v.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, ok := parseFloat(text, loc, typ.Bits())
		if !ok {
			return reflect.Value{}, false
		}
		v.SetFloat(f)
	case reflect.Struct:
		if !parseStructLiteral(text, v, reg) {
			return reflect.Value{}, false
		}
	case reflect.Interface:
		if typ.NumMethod() != 0 {
			return reflect.Value{}, false
		}
		v.Set(reflect.ValueOf(text))
	default:
		return reflect.Value{}, false
	}
	return v, true
}

func parseBool(text string) (bool, bool) {
	s := strings.TrimSpace(text)
	switch {
	case strings.EqualFold(s, "true"), s == "1", strings.EqualFold(s, "yes"):
		return true, true
	case strings.EqualFold(s, "false"), s == "0", strings.EqualFold(s, "no"):
		return false, true
	}
	return false, false
}

// parseFloat accepts an optional sign, digits, the locale decimal separator
// and an exponent. Group separators are rejected.
func parseFloat(text string, loc Locale, bits int) (float64, bool) {
	s := strings.TrimSpace(text)
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "nan", "inf", "infinity":
		f, err := strconv.ParseFloat(s, bits)
		return f, err == nil
	}
	dec := loc.decimal()
	if dec != "." && strings.Contains(s, ".") {
		return 0, false
	}
	s = strings.Replace(s, dec, ".", 1)
	if !isPlainFloat(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, bits)
	return f, err == nil
}

func isPlainFloat(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digits := 0
	for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for ; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func parseTime(text string, loc Locale) (time.Time, bool) {
	s := strings.TrimSpace(text)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	for _, layouts := range [][]string{loc.DateLayouts, Invariant.DateLayouts} {
		for _, layout := range layouts {
			if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
				return t, true
			}
		}
	}
	if t, err := time.Parse("20060102T150405.000 MST", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseStructLiteral fills v from "{Field=value,Other=value}". Field names
// match exported fields case-insensitively and values are parsed under the
// invariant locale.
func parseStructLiteral(text string, v reflect.Value, reg *Registry) bool {
	if !structLiteralRe.MatchString(text) {
		return false
	}
	typ := v.Type()
	for _, m := range structPairRe.FindAllStringSubmatch(text, -1) {
		f, ok := typ.FieldByNameFunc(func(name string) bool { return strings.EqualFold(name, m[1]) })
		if !ok || !f.IsExported() || len(f.Index) != 1 {
			return false
		}
		fv, ok := parseValue(m[2], f.Type, Invariant, reg)
		if !ok {
			return false
		}
		v.Field(f.Index[0]).Set(fv)
	}
	return true
}

func formatValue(v reflect.Value, loc Locale, reg *Registry) string {
	if !v.IsValid() {
		return ""
	}
	if conv, ok := reg.lookup(v.Type()); ok && conv.format != nil {
		return conv.format(v, loc)
	}
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return ""
		}
		return formatValue(v.Elem(), loc, reg)
	}

	switch v.Type() {
	case timeType:
		return v.Interface().(time.Time).Format(time.RFC3339Nano)
	case durationType:
		return v.Interface().(time.Duration).String()
	case uuidType:
		return v.Interface().(uuid.UUID).String()
	}

	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Bool:
		return strconv.FormatBool(v.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return formatFloat(v.Float(), v.Type().Bits(), loc)
	}

	if v.Type().Implements(marshalerTy) {
		if b, err := v.Interface().(encoding.TextMarshaler).MarshalText(); err == nil {
			return string(b)
		}
	}
	if v.Type().Implements(stringerType) {
		return v.Interface().(fmt.Stringer).String()
	}
	if v.Kind() == reflect.Struct {
		return formatStructLiteral(v, reg)
	}
	return fmt.Sprint(v.Interface())
}

func formatFloat(f float64, bits int, loc Locale) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'f', -1, bits)
	}
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	s := strconv.FormatFloat(f, format, -1, bits)
	if dec := loc.decimal(); dec != "." {
		s = strings.Replace(s, ".", dec, 1)
	}
	return s
}

func formatStructLiteral(v reflect.Value, reg *Registry) string {
	var sb strings.Builder
	sb.WriteByte('{')
	n := 0
	for i := 0; i < v.NumField(); i++ {
		f := v.Type().Field(i)
		if !f.IsExported() {
			continue
		}
		if n > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(f.Name)
		sb.WriteByte('=')
		sb.WriteString(formatValue(v.Field(i), Invariant, reg))
		n++
	}
	sb.WriteByte('}')
	return sb.String()
}

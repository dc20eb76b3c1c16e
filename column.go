package recordcsv

import (
	"fmt"
	"reflect"
	"sync/atomic"
)

// ReadFunc populates rec from the text of one field.
type ReadFunc[T any] func(rec *T, cv *Converter, text string) error

// WriteFunc produces the text of one field from rec.
type WriteFunc[T any] func(rec T, cv *Converter) string

var columnIDs atomic.Uint64

// Column binds one CSV column, identified by a zero-based index or by a
// header (never both), to accessors on records of type T.
//
// A writable column produces CSV text from a record; a readable column
// populates a record from CSV text.
type Column[T any] struct {
	id       uint64
	index    int
	header   string
	produce  WriteFunc[T]
	populate ReadFunc[T]
}

func newColumn[T any](index int, header string, produce WriteFunc[T], populate ReadFunc[T]) Column[T] {
	if produce == nil && populate == nil {
		panic("recordcsv: column needs an accessor")
	}
	return Column[T]{id: columnIDs.Add(1), index: index, header: header, produce: produce, populate: populate}
}

func byIndex(index int) int {
	if index < 0 {
		panic(fmt.Sprintf("recordcsv: negative column index %d", index))
	}
	return index
}

// Index returns the column position, if the column is identified by one.
func (c Column[T]) Index() (int, bool) {
	return c.index, c.index >= 0
}

// Header returns the column header, if the column is identified by one.
func (c Column[T]) Header() (string, bool) {
	return c.header, c.index < 0
}

// Writable reports whether the column can produce CSV text.
func (c Column[T]) Writable() bool { return c.produce != nil }

// Readable reports whether the column can populate a record.
func (c Column[T]) Readable() bool { return c.populate != nil }

// Produce returns the text of the column for rec. It returns "" for
// columns that are not writable.
func (c Column[T]) Produce(rec T, cv *Converter) string {
	if c.produce == nil {
		return ""
	}
	return c.produce(rec, cv)
}

// Populate sets the field of rec bound to the column from text. A failed
// conversion leaves the field untouched and returns an error wrapping
// ErrConversion.
func (c Column[T]) Populate(rec *T, cv *Converter, text string) error {
	if c.populate == nil {
		return fmt.Errorf("%w: column %s is not readable", ErrInvalidState, c)
	}
	return c.populate(rec, cv, text)
}

// String names the column by header or by position.
func (c Column[T]) String() string {
	if c.index >= 0 {
		return fmt.Sprintf("#%d", c.index)
	}
	return fmt.Sprintf("%q", c.header)
}

func (c Column[T]) isZero() bool { return c.id == 0 }

// WriteHeader returns a writable column named header whose text is get(rec).
func WriteHeader[T, V any](header string, get func(T) V) Column[T] {
	return newColumn(-1, header, writer(get), nil)
}

// WriteIndex returns a writable column at index whose text is get(rec).
func WriteIndex[T, V any](index int, get func(T) V) Column[T] {
	return newColumn(byIndex(index), "", writer(get), nil)
}

// ReadHeader returns a readable column named header. The field text is
// converted to V and passed to set; empty text, and text that does not
// convert, leave the record untouched.
func ReadHeader[T, V any](header string, set func(*T, V)) Column[T] {
	return newColumn(-1, header, nil, reader(set))
}

// ReadIndex returns a readable column at index. See ReadHeader.
func ReadIndex[T, V any](index int, set func(*T, V)) Column[T] {
	return newColumn(byIndex(index), "", nil, reader(set))
}

// ReadFuncHeader returns a readable column named header handing the raw text to fn.
func ReadFuncHeader[T any](header string, fn ReadFunc[T]) Column[T] {
	if fn == nil {
		panic("recordcsv: nil ReadFunc")
	}
	return newColumn(-1, header, nil, fn)
}

// ReadFuncIndex returns a readable column at index handing the raw text to fn.
func ReadFuncIndex[T any](index int, fn ReadFunc[T]) Column[T] {
	if fn == nil {
		panic("recordcsv: nil ReadFunc")
	}
	return newColumn(byIndex(index), "", nil, fn)
}

// ReadWriteHeader returns a column named header that is both readable and writable.
func ReadWriteHeader[T, V any](header string, get func(T) V, set func(*T, V)) Column[T] {
	return newColumn(-1, header, writer(get), reader(set))
}

// ReadWriteIndex returns a column at index that is both readable and writable.
func ReadWriteIndex[T, V any](index int, get func(T) V, set func(*T, V)) Column[T] {
	return newColumn(byIndex(index), "", writer(get), reader(set))
}

// MemberHeader returns a read-write column named header bound to the field
// that member selects, e.g. func(p *Person) *string { return &p.Name }.
func MemberHeader[T, V any](header string, member func(*T) *V) Column[T] {
	get, set := memberAccessors(member)
	return ReadWriteHeader(header, get, set)
}

// MemberIndex returns a read-write column at index bound to a member. See MemberHeader.
func MemberIndex[T, V any](index int, member func(*T) *V) Column[T] {
	get, set := memberAccessors(member)
	return ReadWriteIndex(index, get, set)
}

func memberAccessors[T, V any](member func(*T) *V) (func(T) V, func(*T, V)) {
	if member == nil {
		panic("recordcsv: nil member accessor")
	}
	get := func(rec T) V { return *member(&rec) }
	set := func(rec *T, v V) { *member(rec) = v }
	return get, set
}

func writer[T, V any](get func(T) V) WriteFunc[T] {
	if get == nil {
		panic("recordcsv: nil accessor")
	}
	return func(rec T, cv *Converter) string {
		return cv.Format(any(get(rec)))
	}
}

func reader[T, V any](set func(*T, V)) ReadFunc[T] {
	if set == nil {
		panic("recordcsv: nil setter")
	}
	typ := reflect.TypeFor[V]()
	return func(rec *T, cv *Converter, text string) error {
		rv, ok := cv.TryParse(text, typ)
		if !ok {
			if text == "" {
				return nil
			}
			return fmt.Errorf("%w: %q to %v", ErrConversion, text, typ)
		}
		set(rec, valueAs[V](rv))
		return nil
	}
}

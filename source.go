package recordcsv

import (
	"context"
	"fmt"
	"iter"
)

type sourceKind uint8

const (
	sourceNone sourceKind = iota
	sourceSlice
	sourceSeq
	sourceStream
	sourceChannel
)

// Source is the record sequence a Writer serializes. The zero Source is not
// initialized. Build one with FromSlice, FromSeq, FromStream or FromChannel.
type Source[T any] struct {
	kind   sourceKind
	slice  []T
	seq    iter.Seq[T]
	stream iter.Seq2[T, error]
	ch     <-chan T
}

// FromSlice returns a Source over records. A nil slice is an empty source.
func FromSlice[T any](records []T) Source[T] {
	return Source[T]{kind: sourceSlice, slice: records}
}

// FromSeq returns a Source over a synchronous sequence.
func FromSeq[T any](seq iter.Seq[T]) Source[T] {
	if seq == nil {
		return Source[T]{}
	}
	return Source[T]{kind: sourceSeq, seq: seq}
}

// FromStream returns a Source over a sequence that may fail. The first
// error ends the write and is returned by it.
func FromStream[T any](stream iter.Seq2[T, error]) Source[T] {
	if stream == nil {
		return Source[T]{}
	}
	return Source[T]{kind: sourceStream, stream: stream}
}

// FromChannel returns a Source receiving records from ch until it is closed.
func FromChannel[T any](ch <-chan T) Source[T] {
	if ch == nil {
		return Source[T]{}
	}
	return Source[T]{kind: sourceChannel, ch: ch}
}

// IsZero reports whether s is not initialized.
func (s Source[T]) IsZero() bool { return s.kind == sourceNone }

// each calls fn for every record in order. It stops at the first error
// returned by fn, by the source, or by ctx.
func (s Source[T]) each(ctx context.Context, fn func(T) error) error {
	switch s.kind {
	case sourceSlice:
		for _, rec := range s.slice {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(rec); err != nil {
				return err
			}
		}
	case sourceSeq:
		var err error
		for rec := range s.seq {
			if err = ctx.Err(); err != nil {
				break
			}
			if err = fn(rec); err != nil {
				break
			}
		}
		return err
	case sourceStream:
		var err error
		for rec, srcErr := range s.stream {
			if srcErr != nil {
				err = fmt.Errorf("record source: %w", srcErr)
				break
			}
			if err = ctx.Err(); err != nil {
				break
			}
			if err = fn(rec); err != nil {
				break
			}
		}
		return err
	case sourceChannel:
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rec, ok := <-s.ch:
				if !ok {
					return nil
				}
				if err := fn(rec); err != nil {
					return err
				}
			}
		}
	default:
		return ErrSourceNotSet
	}
	return nil
}

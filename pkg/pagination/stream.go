package pagination

import (
	"context"
	"errors"
	"iter"
)

// Iterator pulls elements from a Paginator one at a time. Only the current
// page is buffered; the next page is requested when the consumer asks for an
// element past the end of it, never earlier.
//
//	it := pagination.NewIterator(p, decode)
//	defer it.Close()
//	for it.Next(ctx) {
//		use(it.Item())
//	}
//	if err := it.Err(); err != nil { ... }
type Iterator[T any] struct {
	p      *Paginator
	decode DecodeFunc[T]

	page *Page
	buf  []T
	pos  int
	item T

	err  error
	done bool
}

// NewIterator returns an Iterator over p.
func NewIterator[T any](p *Paginator, decode DecodeFunc[T]) *Iterator[T] {
	return &Iterator[T]{p: p, decode: decode}
}

// Next advances to the next element, fetching a page if the buffered one is
// used up. It returns false when the collection is exhausted or on error;
// check Err to tell the two apart.
func (it *Iterator[T]) Next(ctx context.Context) bool {
	if it.done {
		return false
	}

	for it.pos >= len(it.buf) {
		if err := ctx.Err(); err != nil {
			it.fail(err, outcomeCanceled)
			return false
		}

		page, err := it.p.Advance(ctx)
		if errors.Is(err, ErrExhausted) {
			it.done = true
			it.buf = nil
			return false
		}
		if err != nil {
			it.fail(err, outcomeError)
			return false
		}

		items, err := decodePage(page, it.decode)
		if err != nil {
			it.fail(err, outcomeError)
			return false
		}
		it.page, it.buf, it.pos = page, items, 0
	}

	if err := ctx.Err(); err != nil {
		it.fail(err, outcomeCanceled)
		return false
	}

	it.item = it.buf[it.pos]
	it.pos++
	return true
}

// Item returns the element Next moved to.
func (it *Iterator[T]) Item() T {
	return it.item
}

// Page returns the page the current element came from.
func (it *Iterator[T]) Page() *Page {
	return it.page
}

// Err returns the error that stopped iteration, if any.
func (it *Iterator[T]) Err() error {
	return it.err
}

// Close stops the iterator and its Paginator. No further requests are made.
func (it *Iterator[T]) Close() {
	it.done = true
	it.buf = nil
	it.p.Stop()
}

func (it *Iterator[T]) fail(err error, outcome string) {
	it.err = err
	it.done = true
	it.buf = nil
	it.p.abort(outcome)
}

// Stream returns a range-over-func sequence of p's elements. Elements already
// yielded stay valid if a later page fails; the failure is yielded once, with
// a zero element, as the final pair. Breaking out of the loop stops the run
// before any further request. The sequence cannot be restarted.
func Stream[T any](ctx context.Context, p *Paginator, decode DecodeFunc[T]) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		it := NewIterator(p, decode)
		defer it.Close()

		for it.Next(ctx) {
			if !yield(it.Item(), nil) {
				return
			}
		}
		if err := it.Err(); err != nil {
			var zero T
			yield(zero, err)
		}
	}
}

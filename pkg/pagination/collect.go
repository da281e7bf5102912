package pagination

import (
	"context"
	"errors"
)

// Collect drives p to exhaustion and returns every element of every page, in
// order. It is all-or-nothing: on any transport or decode error it returns
// nil and the error. Memory grows with the total result size.
func Collect[T any](ctx context.Context, p *Paginator, decode DecodeFunc[T]) ([]T, error) {
	all := make([]T, 0)
	for {
		page, err := p.Advance(ctx)
		if errors.Is(err, ErrExhausted) {
			return all, nil
		}
		if err != nil {
			return nil, err
		}

		items, err := decodePage(page, decode)
		if err != nil {
			p.abort(outcomeError)
			return nil, err
		}
		all = append(all, items...)
	}
}

package client

import (
	"context"
	"iter"
	"net/http"

	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/Sternrassler/canvas-client/pkg/transport"
)

// Paginate issues the first GET of a collection and returns a Paginator
// positioned on it. A non-2xx first page is returned as a *transport.Error
// before any Paginator exists.
func (c *Client) Paginate(ctx context.Context, path string, params *query.Params, opts ...pagination.Option) (*pagination.Paginator, error) {
	first := c.URL(path, params)
	resp, err := c.Issue(ctx, http.MethodGet, first, nil)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, transport.StatusError(http.MethodGet, resp)
	}
	return pagination.New(c, resp.URL, resp, append([]pagination.Option{pagination.WithLogger(c.logger)}, opts...)...), nil
}

// List fetches every page of a collection and returns all elements, or the
// first error and no elements.
func List[T any](ctx context.Context, c *Client, path string, params *query.Params, env pagination.Envelope, opts ...pagination.Option) ([]T, error) {
	p, err := c.Paginate(ctx, path, params, opts...)
	if err != nil {
		return nil, err
	}
	return pagination.Collect(ctx, p, pagination.JSON[T](env))
}

// Stream returns the elements of a collection lazily. No request is made
// until the sequence is ranged over; each page is fetched only when the
// previous page's elements have been consumed.
func Stream[T any](ctx context.Context, c *Client, path string, params *query.Params, env pagination.Envelope, opts ...pagination.Option) iter.Seq2[T, error] {
	p := pagination.FromURL(c, c.URL(path, params), append([]pagination.Option{pagination.WithLogger(c.logger)}, opts...)...)
	return pagination.Stream(ctx, p, pagination.JSON[T](env))
}

// Package canvas contains typed call sites for a handful of Canvas endpoints.
//
// Each call site picks an encoding mode, an envelope and a consumption mode:
//
//	svc := canvas.New(c)
//	courses, err := svc.ListCourses(ctx, &canvas.ListCoursesOptions{Include: []string{"term"}})
//
//	for e, err := range svc.StreamEnrollments(ctx, courseID, nil) {
//		...
//	}
//
// The acting-as identity follows the client: set it per call with
// query.WithActingAs or for a whole client copy with Client.Masquerade.
package canvas

import (
	"encoding/json"
	"fmt"
	"iter"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/query"
	"github.com/Sternrassler/canvas-client/pkg/transport"
)

// DefaultPerPage is the page size requested from collection endpoints.
const DefaultPerPage = 100

// Service groups the call sites over one client.
type Service struct {
	client  *client.Client
	perPage int
}

// New returns a Service using c.
func New(c *client.Client) *Service {
	return &Service{client: c, perPage: DefaultPerPage}
}

// WithPerPage returns a copy of the service requesting n elements per page.
// Values below 1 leave the page size to Canvas.
func (s *Service) WithPerPage(n int) *Service {
	cp := *s
	cp.perPage = n
	return &cp
}

// Client returns the underlying client.
func (s *Service) Client() *client.Client {
	return s.client
}

// listParams encodes opts and appends per_page.
func (s *Service) listParams(mode query.Mode, opts any) (*query.Params, error) {
	params, err := query.FromStruct(mode, opts)
	if err != nil {
		return nil, err
	}
	if s.perPage > 0 {
		params.Add("per_page", s.perPage)
	}
	return params, nil
}

func decodeObject[T any](resp *transport.Response) (*T, error) {
	var v T
	if err := json.Unmarshal(resp.Body, &v); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resp.URL, err)
	}
	return &v, nil
}

// errSeq yields err once.
func errSeq[T any](err error) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T
		yield(zero, err)
	}
}

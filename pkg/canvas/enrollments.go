package canvas

import (
	"context"
	"fmt"
	"iter"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
)

// ListEnrollmentsOptions filters a course's enrollments.
type ListEnrollmentsOptions struct {
	Type   []string `url:"type[],omitempty"`
	State  []string `url:"state[],omitempty"`
	UserID string   `url:"user_id,omitempty"`
}

// StreamEnrollments yields the enrollments of a course page by page.
func (s *Service) StreamEnrollments(ctx context.Context, courseID int64, opts *ListEnrollmentsOptions) iter.Seq2[Enrollment, error] {
	params, err := s.listParams(query.DuplicateKeys, opts)
	if err != nil {
		return errSeq[Enrollment](err)
	}
	path := fmt.Sprintf("/api/v1/courses/%d/enrollments", courseID)
	return client.Stream[Enrollment](ctx, s.client, path, params, pagination.BareArray)
}

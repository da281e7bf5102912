package canvas

import (
	"context"
	"fmt"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
)

// ListUsersOptions filters a course's users.
type ListUsersOptions struct {
	SearchTerm     string   `url:"search_term,omitempty"`
	EnrollmentType []string `url:"enrollment_type[],omitempty"`
	Include        []string `url:"include[],omitempty"`
	UserIDs        []int64  `url:"user_ids[],omitempty"`
}

// ListCourseUsers returns the users of a course as seen by the acting user.
// Use query.WithActingAs on ctx to list them on someone else's behalf.
func (s *Service) ListCourseUsers(ctx context.Context, courseID int64, opts *ListUsersOptions) ([]User, error) {
	params, err := s.listParams(query.DuplicateKeys, opts)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/v1/courses/%d/users", courseID)
	users, err := client.List[User](ctx, s.client, path, params, pagination.BareArray)
	if err != nil {
		return nil, fmt.Errorf("list users of course %d: %w", courseID, err)
	}
	return users, nil
}

// Self returns the acting user.
func (s *Service) Self(ctx context.Context) (*User, error) {
	resp, err := s.client.Get(ctx, "/api/v1/users/self", nil)
	if err != nil {
		return nil, fmt.Errorf("get self: %w", err)
	}
	return decodeObject[User](resp)
}

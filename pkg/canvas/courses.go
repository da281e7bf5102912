package canvas

import (
	"context"
	"fmt"
	"iter"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
)

// ListCoursesOptions filters the current user's courses.
type ListCoursesOptions struct {
	EnrollmentType  string   `url:"enrollment_type,omitempty"`
	EnrollmentState string   `url:"enrollment_state,omitempty"`
	Include         []string `url:"include[],omitempty"`
	State           []string `url:"state[],omitempty"`
}

// ListCourses returns every course visible to the acting user.
func (s *Service) ListCourses(ctx context.Context, opts *ListCoursesOptions) ([]Course, error) {
	params, err := s.listParams(query.DuplicateKeys, opts)
	if err != nil {
		return nil, err
	}
	courses, err := client.List[Course](ctx, s.client, "/api/v1/courses", params, pagination.BareArray)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// StreamCourses yields the acting user's courses page by page.
func (s *Service) StreamCourses(ctx context.Context, opts *ListCoursesOptions) iter.Seq2[Course, error] {
	params, err := s.listParams(query.DuplicateKeys, opts)
	if err != nil {
		return errSeq[Course](err)
	}
	return client.Stream[Course](ctx, s.client, "/api/v1/courses", params, pagination.BareArray)
}

// GetCourse returns a single course.
func (s *Service) GetCourse(ctx context.Context, courseID int64, include ...string) (*Course, error) {
	params := query.New(query.DuplicateKeys).AddStrings("include[]", include...)
	resp, err := s.client.Get(ctx, fmt.Sprintf("/api/v1/courses/%d", courseID), params)
	if err != nil {
		return nil, fmt.Errorf("get course %d: %w", courseID, err)
	}
	return decodeObject[Course](resp)
}

// UpdateCourse renames a course.
func (s *Service) UpdateCourse(ctx context.Context, courseID int64, name string) (*Course, error) {
	params := query.New(query.Standard).Add("course[name]", name)
	resp, err := s.client.Put(ctx, fmt.Sprintf("/api/v1/courses/%d", courseID), params)
	if err != nil {
		return nil, fmt.Errorf("update course %d: %w", courseID, err)
	}
	return decodeObject[Course](resp)
}

// DeleteCourse concludes a course, or deletes it when permanent is set.
func (s *Service) DeleteCourse(ctx context.Context, courseID int64, permanent bool) error {
	event := "conclude"
	if permanent {
		event = "delete"
	}
	params := query.New(query.Standard).Add("event", event)
	if _, err := s.client.Delete(ctx, fmt.Sprintf("/api/v1/courses/%d", courseID), params); err != nil {
		return fmt.Errorf("%s course %d: %w", event, courseID, err)
	}
	return nil
}

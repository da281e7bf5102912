package canvas

import (
	"context"
	"fmt"
	"strconv"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
)

// AllStudents selects every student in ListSubmissionsForStudents.
const AllStudents = "all"

// SubmissionsQuery selects submissions across students and assignments.
// The two id lists are independent filters.
type SubmissionsQuery struct {
	StudentIDs    []string
	AssignmentIDs []int64
	Include       []string
}

// ListSubmissionsForStudents returns the matching submissions of a course.
func (s *Service) ListSubmissionsForStudents(ctx context.Context, courseID int64, q SubmissionsQuery) ([]Submission, error) {
	if len(q.StudentIDs) == 0 {
		q.StudentIDs = []string{AllStudents}
	}

	params := query.New(query.DuplicateKeys).
		AddStrings("student_ids[]", q.StudentIDs...).
		AddInts("assignment_ids[]", q.AssignmentIDs...).
		AddStrings("include[]", q.Include...)
	if s.perPage > 0 {
		params.Add("per_page", s.perPage)
	}

	path := fmt.Sprintf("/api/v1/courses/%d/students/submissions", courseID)
	subs, err := client.List[Submission](ctx, s.client, path, params, pagination.BareArray)
	if err != nil {
		return nil, fmt.Errorf("list submissions of course %d: %w", courseID, err)
	}
	return subs, nil
}

// GradeUpdate is one student's grade in UpdateGrades. An empty Comment sends
// no comment.
type GradeUpdate struct {
	StudentID   int64
	PostedGrade string
	Comment     string
}

// UpdateGrades posts grades for several students of an assignment in one
// request. Canvas reads each student's fields as a group, so the pairs are
// sent in input order.
func (s *Service) UpdateGrades(ctx context.Context, courseID, assignmentID int64, grades []GradeUpdate) (*Progress, error) {
	if len(grades) == 0 {
		return nil, fmt.Errorf("update grades: no grades given")
	}

	params := query.New(query.DuplicateKeys)
	for _, g := range grades {
		prefix := "grade_data[" + strconv.FormatInt(g.StudentID, 10) + "]"
		params.Add(prefix+"[posted_grade]", g.PostedGrade)
		if g.Comment != "" {
			params.Add(prefix+"[text_comment]", g.Comment)
		}
	}

	path := fmt.Sprintf("/api/v1/courses/%d/assignments/%d/submissions/update_grades", courseID, assignmentID)
	resp, err := s.client.Post(ctx, path, params)
	if err != nil {
		return nil, fmt.Errorf("update grades of assignment %d: %w", assignmentID, err)
	}
	return decodeObject[Progress](resp)
}

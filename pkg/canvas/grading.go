package canvas

import (
	"context"
	"fmt"

	"github.com/Sternrassler/canvas-client/pkg/client"
	"github.com/Sternrassler/canvas-client/pkg/pagination"
	"github.com/Sternrassler/canvas-client/pkg/query"
)

// ListGradingPeriods returns a course's grading periods. Canvas wraps them in
// a "grading_periods" object.
func (s *Service) ListGradingPeriods(ctx context.Context, courseID int64) ([]GradingPeriod, error) {
	params, err := s.listParams(query.Standard, nil)
	if err != nil {
		return nil, err
	}
	path := fmt.Sprintf("/api/v1/courses/%d/grading_periods", courseID)
	periods, err := client.List[GradingPeriod](ctx, s.client, path, params, pagination.SingleKey("grading_periods"))
	if err != nil {
		return nil, fmt.Errorf("list grading periods of course %d: %w", courseID, err)
	}
	return periods, nil
}

// ListQuizSubmissions returns every submission of a quiz. Canvas wraps them in
// a "quiz_submissions" object.
func (s *Service) ListQuizSubmissions(ctx context.Context, courseID, quizID int64, include ...string) ([]QuizSubmission, error) {
	params, err := s.listParams(query.DuplicateKeys, nil)
	if err != nil {
		return nil, err
	}
	params.AddStrings("include[]", include...)

	path := fmt.Sprintf("/api/v1/courses/%d/quizzes/%d/submissions", courseID, quizID)
	subs, err := client.List[QuizSubmission](ctx, s.client, path, params, pagination.SingleKey("quiz_submissions"))
	if err != nil {
		return nil, fmt.Errorf("list submissions of quiz %d: %w", quizID, err)
	}
	return subs, nil
}

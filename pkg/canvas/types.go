package canvas

// Course is a Canvas course.
type Course struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CourseCode string `json:"course_code,omitempty"`
}

// Enrollment links a user to a course section.
type Enrollment struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	CourseID int64  `json:"course_id"`
	Type     string `json:"type"`
}

// GradingPeriod is a grading period of a course.
type GradingPeriod struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// QuizSubmission is one attempt record of a quiz.
type QuizSubmission struct {
	ID     int64 `json:"id"`
	QuizID int64 `json:"quiz_id"`
	UserID int64 `json:"user_id"`
}

// Submission is a student's submission for an assignment.
type Submission struct {
	ID           int64 `json:"id"`
	AssignmentID int64 `json:"assignment_id"`
	UserID       int64 `json:"user_id"`
}

// User is a Canvas user.
type User struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SortableName string `json:"sortable_name,omitempty"`
}

// Progress tracks an asynchronous Canvas job.
type Progress struct {
	ID            int64  `json:"id"`
	WorkflowState string `json:"workflow_state"`
	URL           string `json:"url,omitempty"`
}

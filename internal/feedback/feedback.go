package feedback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	feedbackDatamodel "github.com/frahmantamala/feedback-management/internal/core/datamodel/feedback"
	"github.com/frahmantamala/feedback-management/internal/employee"
)

const (
	MinRating = 1
	MaxRating = 5
)

type Answer struct {
	QuestionID int64  `json:"question_id"`
	Question   string `json:"question"`
	Rating     int    `json:"rating"`
	Comment    string `json:"comment"`
}

// Submission is the read view of a feedback submission. SubmittedBy is the
// submitting employee's id and SubmittedByEmployee its display name.
type Submission struct {
	ID                  int64     `json:"id"`
	SubmittedBy         int64     `json:"submitted_by"`
	SubmittedByEmployee string    `json:"submitted_by_employee"`
	TargetEmployeeID    *int64    `json:"target_employee_id"`
	CreatedAt           time.Time `json:"created_at"`
	Answers             []Answer  `json:"answers"`
}

type AnswerDTO struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Comment    string `json:"comment" validate:"max=2000"`
}

// SubmitFeedbackDTO is the submit request body. The submitter is always the
// caller, so the body carries no identity of its own.
type SubmitFeedbackDTO struct {
	TargetEmployeeID int64       `json:"target_employee_id" validate:"required,gt=0"`
	Answers          []AnswerDTO `json:"answers" validate:"required,min=1,max=100,dive"`
}

// FilterValue accepts either a JSON number or a JSON string, so the admin
// filter body may send {"designation": 3} or {"designation": "engineer"}.
type FilterValue string

func (v *FilterValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*v = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = FilterValue(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("designation must be a number or a string")
	}
	*v = FilterValue(n.String())
	return nil
}

type AdminFilterDTO struct {
	Designation FilterValue `json:"designation"`
	Department  string      `json:"department"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
}

func (d *AdminFilterDTO) Normalize() {
	d.Designation = FilterValue(strings.TrimSpace(string(d.Designation)))
	d.Department = strings.TrimSpace(d.Department)
	d.StartDate = strings.TrimSpace(d.StartDate)
	d.EndDate = strings.TrimSpace(d.EndDate)
}

// Filter is the resolved admin filter handed to the repository. Every field is
// optional; Until is exclusive.
type Filter struct {
	DesignationID   *int64
	DesignationName string
	Department      string
	From            *time.Time
	Until           *time.Time
}

// DesignationFilter splits a raw designation value into an id match when it is
// made only of ASCII digits and a case-insensitive name match otherwise. Signs
// are not digits, so "+3" and "-3" match by name.
func DesignationFilter(raw string) (*int64, string) {
	if raw == "" {
		return nil, ""
	}
	if allDigits(raw) {
		if id, err := strconv.ParseInt(raw, 10, 64); err == nil {
			return &id, ""
		}
	}
	return nil, raw
}

func allDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type ListResponse struct {
	Submissions []*Submission `json:"submissions"`
}

func FromDataModel(s *feedbackDatamodel.Submission) *Submission {
	out := &Submission{
		ID:                  s.ID,
		SubmittedBy:         s.SubmittedByID,
		SubmittedByEmployee: employee.DisplayName(&s.SubmittedBy),
		TargetEmployeeID:    s.TargetEmployeeID,
		CreatedAt:           s.CreatedAt.UTC(),
		Answers:             make([]Answer, 0, len(s.Answers)),
	}
	for _, a := range s.Answers {
		out.Answers = append(out.Answers, Answer{
			QuestionID: a.QuestionID,
			Question:   a.Question.Text,
			Rating:     int(a.Rating),
			Comment:    a.Comment,
		})
	}
	return out
}

// InvalidQuestionError reports an answer whose question is missing or
// inactive at the time the submission is written.
type InvalidQuestionError struct {
	Index      int
	QuestionID int64
}

func (e *InvalidQuestionError) Error() string {
	return fmt.Sprintf("answers[%d]: question %d is not an active question", e.Index, e.QuestionID)
}

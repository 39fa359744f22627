package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeEmployeeRegistered = "employee.registered"
	EventTypeFeedbackSubmitted  = "feedback.submitted"
)

type EmployeeRegisteredEvent struct {
	BaseEvent
	UserID       int64  `json:"user_id"`
	EmployeeID   int64  `json:"employee_id"`
	Username     string `json:"username"`
	EmployeeCode string `json:"employee_code"`
}

func NewEmployeeRegisteredEvent(userID, employeeID int64, username, employeeCode string) *EmployeeRegisteredEvent {
	return &EmployeeRegisteredEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeEmployeeRegistered,
			Timestamp: time.Now().UTC(),
			Data: map[string]interface{}{
				"user_id":       userID,
				"employee_id":   employeeID,
				"username":      username,
				"employee_code": employeeCode,
			},
		},
		UserID:       userID,
		EmployeeID:   employeeID,
		Username:     username,
		EmployeeCode: employeeCode,
	}
}

type FeedbackSubmittedEvent struct {
	BaseEvent
	SubmissionID     int64  `json:"submission_id"`
	SubmittedByID    int64  `json:"submitted_by_id"`
	TargetEmployeeID *int64 `json:"target_employee_id,omitempty"`
	AnswerCount      int    `json:"answer_count"`
}

func NewFeedbackSubmittedEvent(submissionID, submittedByID int64, targetEmployeeID *int64, answerCount int) *FeedbackSubmittedEvent {
	data := map[string]interface{}{
		"submission_id":   submissionID,
		"submitted_by_id": submittedByID,
		"answer_count":    answerCount,
	}
	if targetEmployeeID != nil {
		data["target_employee_id"] = *targetEmployeeID
	}
	return &FeedbackSubmittedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.NewString(),
			Type:      EventTypeFeedbackSubmitted,
			Timestamp: time.Now().UTC(),
			Data:      data,
		},
		SubmissionID:     submissionID,
		SubmittedByID:    submittedByID,
		TargetEmployeeID: targetEmployeeID,
		AnswerCount:      answerCount,
	}
}

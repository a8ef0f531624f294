// Package application defines the job application entity, its status
// lifecycle, and the stores that persist applications and applicant
// profiles.
package application

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle state of a job application.
type Status string

const (
	StatusPending            Status = "pending"
	StatusInProgress         Status = "in_progress"
	StatusNeedsInfo          Status = "needs_info"
	StatusApplied            Status = "applied"
	StatusFailed             Status = "failed"
	StatusRejected           Status = "rejected"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusOfferReceived      Status = "offer_received"
	StatusWithdrawn          Status = "withdrawn"
)

// IsValid checks whether s is a known status.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusNeedsInfo, StatusApplied,
		StatusFailed, StatusRejected, StatusInterviewScheduled,
		StatusOfferReceived, StatusWithdrawn:
		return true
	}
	return false
}

// statusTransitions maps each status to the statuses it may move to.
// Statuses with no entry are terminal.
var statusTransitions = map[Status][]Status{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusApplied, StatusNeedsInfo, StatusFailed},
	StatusNeedsInfo:  {StatusPending},
	StatusApplied: {
		StatusRejected, StatusInterviewScheduled,
		StatusOfferReceived, StatusWithdrawn,
	},
	StatusInterviewScheduled: {StatusOfferReceived, StatusRejected, StatusWithdrawn},
	StatusOfferReceived:      {StatusWithdrawn},
}

// CanTransition reports whether an application may move from one
// status to another.
func CanTransition(from, to Status) bool {
	for _, allowed := range statusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// PendingQuestion is a form field the automation could not answer from
// the applicant's profile. It blocks the run until a human answers it.
type PendingQuestion struct {
	// Field is the label the question was keyed by on the form
	Field string `json:"field"`

	// Question is what the applicant is being asked
	Question string `json:"question"`

	// Answer is the human-supplied response (empty until answered)
	Answer string `json:"answer,omitempty"`

	// AskedAt is when the automation raised the question
	AskedAt time.Time `json:"asked_at"`
}

// Application represents one job application tracked by applyflow.
// Applications are stored in the APPLYFLOW_APPLICATIONS KV bucket.
type Application struct {
	// ID uniquely identifies this application (format: app-{uuid})
	ID string `json:"id"`

	// UserID identifies the applicant this application belongs to
	UserID string `json:"user_id"`

	// JobTitle and Company describe the posting
	JobTitle string `json:"job_title"`
	Company  string `json:"company"`

	// ApplyURL is the address of the application form
	ApplyURL string `json:"apply_url"`

	// Status is the current lifecycle state
	Status Status `json:"status"`

	// StatusReason explains terminal or blocked states (failure cause,
	// stall note)
	StatusReason string `json:"status_reason,omitempty"`

	// PendingQuestions are unanswered fields raised during the run,
	// unique by field label. Append-only within a run.
	PendingQuestions []PendingQuestion `json:"pending_questions,omitempty"`

	// UserAnswers caches previously-supplied answers keyed by field
	// label. Lookups are case-insensitive; keys are stored lowercased.
	UserAnswers map[string]string `json:"user_answers,omitempty"`

	// StepsTaken counts orchestrator cycles across the latest run
	StepsTaken int `json:"steps_taken,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// SubmittedAt is when the form was confirmed submitted
	SubmittedAt *time.Time `json:"submitted_at,omitempty"`
}

// New creates a pending application with a generated ID.
func New(userID, jobTitle, company, applyURL string) *Application {
	now := time.Now().UTC()
	return &Application{
		ID:        fmt.Sprintf("app-%s", uuid.New().String()[:8]),
		UserID:    userID,
		JobTitle:  jobTitle,
		Company:   company,
		ApplyURL:  applyURL,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetStatus moves the application to a new status, enforcing the
// transition table. The reason annotates blocked or terminal states.
func (a *Application) SetStatus(to Status, reason string) error {
	if !to.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, to)
	}
	if !CanTransition(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, a.Status, to)
	}
	a.Status = to
	a.StatusReason = reason
	a.UpdatedAt = time.Now().UTC()
	if to == StatusApplied && a.SubmittedAt == nil {
		now := time.Now().UTC()
		a.SubmittedAt = &now
	}
	return nil
}

// AddQuestion records a pending question unless one with the same
// field label (case-insensitive) already exists. Returns true if the
// question was added.
func (a *Application) AddQuestion(field, question string) bool {
	for _, q := range a.PendingQuestions {
		if strings.EqualFold(q.Field, field) {
			return false
		}
	}
	a.PendingQuestions = append(a.PendingQuestions, PendingQuestion{
		Field:    field,
		Question: question,
		AskedAt:  time.Now().UTC(),
	})
	a.UpdatedAt = time.Now().UTC()
	return true
}

// AnswerQuestions records human answers keyed by field label and folds
// them into the user answer cache. Fields with no matching pending
// question are cached anyway so future runs can use them.
func (a *Application) AnswerQuestions(answers map[string]string) {
	if len(answers) == 0 {
		return
	}
	if a.UserAnswers == nil {
		a.UserAnswers = make(map[string]string, len(answers))
	}
	for field, answer := range answers {
		if answer == "" {
			continue
		}
		for i := range a.PendingQuestions {
			if strings.EqualFold(a.PendingQuestions[i].Field, field) {
				a.PendingQuestions[i].Answer = answer
			}
		}
		a.UserAnswers[strings.ToLower(field)] = answer
	}
	a.UpdatedAt = time.Now().UTC()
}

// AnsweredValues returns the cached answers keyed by lowercased field
// label, including answers recorded on pending questions.
func (a *Application) AnsweredValues() map[string]string {
	values := make(map[string]string, len(a.UserAnswers)+len(a.PendingQuestions))
	for field, answer := range a.UserAnswers {
		values[strings.ToLower(field)] = answer
	}
	for _, q := range a.PendingQuestions {
		if q.Answer != "" {
			values[strings.ToLower(q.Field)] = q.Answer
		}
	}
	return values
}

// UnansweredQuestions returns pending questions that still lack an
// answer.
func (a *Application) UnansweredQuestions() []PendingQuestion {
	var out []PendingQuestion
	for _, q := range a.PendingQuestions {
		if q.Answer == "" {
			out = append(out, q)
		}
	}
	return out
}

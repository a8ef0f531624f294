package application

import (
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	app := New("user-1", "Backend Engineer", "Acme", "https://acme.example/apply")

	if !strings.HasPrefix(app.ID, "app-") {
		t.Errorf("expected app- prefixed ID, got %s", app.ID)
	}
	if app.Status != StatusPending {
		t.Errorf("expected pending status, got %s", app.Status)
	}
	if app.CreatedAt.IsZero() || app.UpdatedAt.IsZero() {
		t.Error("expected timestamps to be set")
	}
}

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to Status
		want     bool
	}{
		{StatusPending, StatusInProgress, true},
		{StatusInProgress, StatusApplied, true},
		{StatusInProgress, StatusNeedsInfo, true},
		{StatusInProgress, StatusFailed, true},
		{StatusNeedsInfo, StatusPending, true},
		{StatusApplied, StatusInterviewScheduled, true},
		{StatusApplied, StatusRejected, true},
		{StatusInterviewScheduled, StatusOfferReceived, true},
		{StatusOfferReceived, StatusWithdrawn, true},

		{StatusPending, StatusApplied, false},
		{StatusNeedsInfo, StatusApplied, false},
		{StatusApplied, StatusInProgress, false},
		{StatusFailed, StatusInProgress, false},
		{StatusWithdrawn, StatusPending, false},
		{StatusRejected, StatusApplied, false},
	}

	for _, tt := range tests {
		if got := CanTransition(tt.from, tt.to); got != tt.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestSetStatus(t *testing.T) {
	app := New("user-1", "Backend Engineer", "Acme", "https://acme.example/apply")

	if err := app.SetStatus(StatusInProgress, ""); err != nil {
		t.Fatalf("SetStatus(in_progress) error = %v", err)
	}
	if err := app.SetStatus(StatusApplied, ""); err != nil {
		t.Fatalf("SetStatus(applied) error = %v", err)
	}
	if app.SubmittedAt == nil {
		t.Error("expected submitted_at set when applied")
	}

	if err := app.SetStatus(StatusInProgress, ""); err == nil {
		t.Error("expected error for applied -> in_progress")
	}
	if err := app.SetStatus("bogus", ""); err == nil {
		t.Error("expected error for unknown status")
	}
}

func TestAddQuestionDedupe(t *testing.T) {
	app := New("user-1", "Backend Engineer", "Acme", "https://acme.example/apply")

	if !app.AddQuestion("Desired Salary", "What salary are you targeting?") {
		t.Error("expected first question to be added")
	}
	if app.AddQuestion("desired salary", "duplicate with different casing") {
		t.Error("expected case-insensitive duplicate to be rejected")
	}
	if !app.AddQuestion("Visa Status", "Do you require sponsorship?") {
		t.Error("expected distinct question to be added")
	}
	if len(app.PendingQuestions) != 2 {
		t.Errorf("expected 2 pending questions, got %d", len(app.PendingQuestions))
	}
}

func TestAnswerQuestions(t *testing.T) {
	app := New("user-1", "Backend Engineer", "Acme", "https://acme.example/apply")
	app.AddQuestion("Desired Salary", "What salary are you targeting?")
	app.AddQuestion("Visa Status", "Do you require sponsorship?")

	app.AnswerQuestions(map[string]string{
		"desired salary": "95000",
		"Start Date":     "Two weeks from offer", // no matching question
		"Empty":          "",
	})

	if app.PendingQuestions[0].Answer != "95000" {
		t.Errorf("expected pending question answered, got %q", app.PendingQuestions[0].Answer)
	}

	values := app.AnsweredValues()
	if values["desired salary"] != "95000" {
		t.Errorf("expected cached answer, got %q", values["desired salary"])
	}
	if values["start date"] != "Two weeks from offer" {
		t.Error("expected unmatched answer cached for future runs")
	}
	if _, ok := values["empty"]; ok {
		t.Error("empty answers should not be cached")
	}

	unanswered := app.UnansweredQuestions()
	if len(unanswered) != 1 || unanswered[0].Field != "Visa Status" {
		t.Errorf("expected Visa Status to remain unanswered, got %v", unanswered)
	}
}

func TestProfileSummary(t *testing.T) {
	p := &Profile{
		UserID:            "user-1",
		FullName:          "Jordan Lee",
		Email:             "jordan@example.com",
		Domain:            "backend",
		Skills:            []string{"Go", "Postgres"},
		Projects:          []string{"URL shortener", "Chat server"},
		TargetRoles:       []string{"Backend Engineer"},
		WorkAuthorization: "US citizen",
	}
	summary := p.Summary()

	if !strings.Contains(summary, "Name: Jordan Lee") {
		t.Errorf("summary missing name: %q", summary)
	}
	if !strings.Contains(summary, "Domain: backend") {
		t.Errorf("summary missing domain: %q", summary)
	}
	if !strings.Contains(summary, "Skills: Go, Postgres") {
		t.Errorf("summary missing skills: %q", summary)
	}
	if !strings.Contains(summary, "Projects: URL shortener; Chat server") {
		t.Errorf("summary missing projects: %q", summary)
	}
	if !strings.Contains(summary, "Target roles: Backend Engineer") {
		t.Errorf("summary missing target roles: %q", summary)
	}
	if !strings.Contains(summary, "Work authorization: US citizen") {
		t.Errorf("summary missing work authorization: %q", summary)
	}
	if strings.Contains(summary, "Phone") {
		t.Errorf("summary should omit empty fields: %q", summary)
	}
}

func TestResumeExcerpt(t *testing.T) {
	p := &Profile{ResumeText: strings.Repeat("a", 2000)}

	if got := p.ResumeExcerpt(1500); len(got) != 1500 {
		t.Errorf("expected 1500 chars, got %d", len(got))
	}
	if got := p.ResumeExcerpt(0); len(got) != 2000 {
		t.Errorf("expected full text with zero limit, got %d", len(got))
	}

	short := &Profile{ResumeText: "short résumé"}
	if got := short.ResumeExcerpt(1500); got != "short résumé" {
		t.Errorf("expected full short text, got %q", got)
	}
}

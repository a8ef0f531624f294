package apply

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/c360studio/applyflow/application"
	"github.com/c360studio/applyflow/llm"
	"github.com/c360studio/applyflow/model"
)

// Action is what the decision engine wants done with a control.
type Action string

const (
	// ActionFill supplies a value for the control
	ActionFill Action = "fill"

	// ActionSkip leaves the control untouched
	ActionSkip Action = "skip"

	// ActionNeedsInfo asks the applicant for the answer
	ActionNeedsInfo Action = "needs_info"
)

// Decision is the engine's verdict for one control.
type Decision struct {
	Action Action `json:"action"`

	// Value is required when Action is fill
	Value string `json:"value,omitempty"`

	// Question is the human-facing question when Action is needs_info
	Question string `json:"question,omitempty"`
}

// Completer produces model completions. *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Engine decides how to handle each form control: cached answers
// short-circuit, everything else goes to the model.
type Engine struct {
	completer     Completer
	temperature   float64
	resumeExcerpt int
}

// NewEngine creates a decision engine.
func NewEngine(completer Completer, temperature float64, resumeExcerpt int) *Engine {
	if resumeExcerpt <= 0 {
		resumeExcerpt = 1500
	}
	return &Engine{
		completer:     completer,
		temperature:   temperature,
		resumeExcerpt: resumeExcerpt,
	}
}

const decisionSystemPrompt = `You fill out job application forms on behalf of an applicant.
For the form field described, respond with ONLY a JSON object, no other text:

{"action": "fill", "value": "<text to enter>"}
  when the applicant's profile or résumé clearly provides the answer.

{"action": "skip"}
  when the field is optional and irrelevant, or filling it could hurt
  the application.

{"action": "needs_info", "question": "<question for the applicant>"}
  ONLY when the field is required and truly unanswerable from the
  profile, such as exact salary figures, secrets, or visa details.
  An optional field you cannot answer is a skip, never needs_info.

Never invent facts. For select fields, the value must be one of the
listed options, verbatim. For checkbox fields, the value must be "true"
or "false"; agree-to-terms and consent checkboxes are filled "true".
Derive years of experience from the experience level in the profile
(fresher means 0, entry-level 1, mid-level 3).`

// Decide returns the action for one candidate control. A cached answer
// for the candidate's label (case-insensitive) wins without a model
// call. A response the model returns in any shape other than the
// documented JSON is an error, not a skip.
func (e *Engine) Decide(ctx context.Context, cand Candidate, profile *application.Profile, answers map[string]string) (*Decision, error) {
	if answer, ok := answers[strings.ToLower(cand.Label)]; ok {
		return &Decision{Action: ActionFill, Value: answer}, nil
	}

	resp, err := e.completer.Complete(ctx, llm.Request{
		Capability:  string(model.CapabilityDecision),
		Temperature: &e.temperature,
		Messages: []llm.Message{
			{Role: "system", Content: decisionSystemPrompt},
			{Role: "user", Content: e.buildPrompt(cand, profile, answers)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("decision completion for %q: %w", cand.Label, err)
	}

	return parseDecision(resp.Content, cand.Label)
}

// buildPrompt assembles the per-field prompt: profile summary, résumé
// excerpt, previously supplied answers, and the control description.
func (e *Engine) buildPrompt(cand Candidate, profile *application.Profile, answers map[string]string) string {
	var b strings.Builder

	b.WriteString("## Applicant profile\n")
	b.WriteString(profile.Summary())
	b.WriteString("\n")

	if excerpt := profile.ResumeExcerpt(e.resumeExcerpt); excerpt != "" {
		b.WriteString("\n## Résumé excerpt\n")
		b.WriteString(excerpt)
		b.WriteString("\n")
	}

	if len(answers) > 0 {
		b.WriteString("\n## Answers the applicant already gave\n")
		for field, answer := range answers {
			fmt.Fprintf(&b, "- %s: %s\n", field, answer)
		}
	}

	b.WriteString("\n## Form field\n")
	fmt.Fprintf(&b, "Label: %s\n", cand.Label)
	fmt.Fprintf(&b, "Type: %s\n", cand.Control.Kind)
	if cand.Control.Required {
		b.WriteString("Required: yes\n")
	}
	if len(cand.Control.Options) > 0 {
		fmt.Fprintf(&b, "Options: %s\n", strings.Join(cand.Control.Options, " | "))
	}

	return b.String()
}

// parseDecision extracts and validates the model's JSON verdict.
func parseDecision(content, label string) (*Decision, error) {
	raw := llm.ExtractJSON(content)
	if raw == "" {
		return nil, fmt.Errorf("decision for %q contains no JSON object", label)
	}

	var d Decision
	if err := json.Unmarshal([]byte(raw), &d); err != nil {
		return nil, fmt.Errorf("decode decision for %q: %w", label, err)
	}

	switch d.Action {
	case ActionFill:
		if d.Value == "" {
			return nil, fmt.Errorf("decision for %q: fill action without a value", label)
		}
	case ActionSkip:
	case ActionNeedsInfo:
		if d.Question == "" {
			d.Question = fmt.Sprintf("What should I enter for %q?", label)
		}
	default:
		return nil, fmt.Errorf("decision for %q: unknown action %q", label, d.Action)
	}
	return &d, nil
}

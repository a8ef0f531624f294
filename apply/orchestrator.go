// Package apply implements the autonomous form-filling run: inspect
// the page's controls, decide each one, act, and advance until the
// form is submitted, the run is blocked on the applicant, or it fails.
package apply

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/c360studio/applyflow/application"
	"github.com/c360studio/applyflow/browser"
	"github.com/c360studio/applyflow/notify"
)

// State is the orchestrator's position in a run.
type State string

const (
	// StateNavigating covers loading the application form
	StateNavigating State = "navigating"

	// StateStepping covers the inspect/decide/act cycles
	StateStepping State = "stepping"

	// StateSubmitted means a confirmation page was detected
	StateSubmitted State = "submitted_success"

	// StateHalted means the run is blocked on applicant answers
	StateHalted State = "halted_needs_info"

	// StateStalled means the form left nothing to act on
	StateStalled State = "stalled_complete"

	// StateFailed means the run hit an unrecoverable error
	StateFailed State = "failed"
)

// stateTransitions maps each state to its legal successors. Terminal
// states have no entry.
var stateTransitions = map[State][]State{
	StateNavigating: {StateStepping, StateFailed},
	StateStepping:   {StateSubmitted, StateHalted, StateStalled, StateFailed},
}

// machine tracks the run's state and enforces the transition table.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateNavigating}
}

// transition moves to the next state or panics; an illegal transition
// is a programming error, not a runtime condition.
func (m *machine) transition(to State) {
	for _, allowed := range stateTransitions[m.state] {
		if allowed == to {
			m.state = to
			return
		}
	}
	panic(fmt.Sprintf("illegal run state transition: %s -> %s", m.state, to))
}

// Notifier publishes run events. *notify.Registry satisfies it.
type Notifier interface {
	Publish(ctx context.Context, event notify.Event)
}

// Options tunes a Runner.
type Options struct {
	// MaxSteps bounds inspect/decide/act cycles per run
	MaxSteps int

	// SubmitLabels and NextLabels are the button texts tried at the
	// end of each cycle, in that order
	SubmitLabels []string
	NextLabels   []string

	// FillSettle is the pause after each fill; ClickSettle is the
	// pause after submit/next clicks
	FillSettle  time.Duration
	ClickSettle time.Duration
}

func (o *Options) applyDefaults() {
	if o.MaxSteps <= 0 {
		o.MaxSteps = 10
	}
	if len(o.SubmitLabels) == 0 {
		o.SubmitLabels = []string{"Submit", "Apply", "Send Application"}
	}
	if len(o.NextLabels) == 0 {
		o.NextLabels = []string{"Next", "Continue"}
	}
	if o.FillSettle <= 0 {
		o.FillSettle = 300 * time.Millisecond
	}
	if o.ClickSettle <= 0 {
		o.ClickSettle = 3 * time.Second
	}
}

// Runner drives one application run end to end.
type Runner struct {
	store    application.Store
	profiles application.ProfileStore
	browser  browser.Browser
	inspect  *Inspector
	engine   *Engine
	detector *Detector
	events   Notifier
	logger   *slog.Logger
	opts     Options
}

// NewRunner wires a runner from its collaborators.
func NewRunner(
	store application.Store,
	profiles application.ProfileStore,
	b browser.Browser,
	inspect *Inspector,
	engine *Engine,
	detector *Detector,
	events Notifier,
	logger *slog.Logger,
	opts Options,
) *Runner {
	opts.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		store:    store,
		profiles: profiles,
		browser:  b,
		inspect:  inspect,
		engine:   engine,
		detector: detector,
		events:   events,
		logger:   logger,
		opts:     opts,
	}
}

// Run executes the application identified by appID. The application
// must be pending; resumed runs are reset to pending by the answers
// endpoint before being queued again. The browser page is released on
// every exit path.
func (r *Runner) Run(ctx context.Context, appID string) error {
	app, err := r.store.Get(ctx, appID)
	if err != nil {
		return fmt.Errorf("load application: %w", err)
	}
	if app.Status != application.StatusPending {
		return fmt.Errorf("application %s is %s, not pending", appID, app.Status)
	}

	logger := r.logger.With("application_id", app.ID, "user_id", app.UserID)

	if err := app.SetStatus(application.StatusInProgress, ""); err != nil {
		return err
	}
	app.StepsTaken = 0
	if err := r.store.Put(ctx, app); err != nil {
		return fmt.Errorf("persist application: %w", err)
	}

	profile, err := r.profiles.Get(ctx, app.UserID)
	if err != nil {
		return r.fail(ctx, app, fmt.Sprintf("load profile: %v", err))
	}

	// Answers the applicant gave on earlier runs short-circuit the
	// decision engine this run.
	answers := app.AnsweredValues()

	page, err := r.browser.NewPage(ctx)
	if err != nil {
		return r.fail(ctx, app, fmt.Sprintf("open browser page: %v", err))
	}
	defer func() {
		if err := page.Close(); err != nil {
			logger.Warn("closing browser page", "error", err)
		}
	}()

	m := newMachine()
	logger.Info("starting application run", "url", app.ApplyURL)

	if err := page.Navigate(ctx, app.ApplyURL); err != nil {
		m.transition(StateFailed)
		return r.fail(ctx, app, fmt.Sprintf("navigate to form: %v", err))
	}
	formURL, err := page.Location(ctx)
	if err != nil {
		formURL = app.ApplyURL
	}
	m.transition(StateStepping)

	for step := 1; step <= r.opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			m.transition(StateFailed)
			return r.fail(ctx, app, fmt.Sprintf("run cancelled: %v", err))
		}
		app.StepsTaken = step

		candidates, err := r.inspect.Inspect(ctx, page)
		if err != nil {
			m.transition(StateFailed)
			return r.fail(ctx, app, fmt.Sprintf("inspect form: %v", err))
		}

		asked, filled, err := r.actOnCandidates(ctx, logger, page, app, profile, answers, candidates)
		if err != nil {
			m.transition(StateFailed)
			return r.fail(ctx, app, err.Error())
		}
		if asked {
			m.transition(StateHalted)
			return r.halt(ctx, app)
		}

		r.publish(ctx, app, notify.Event{
			Kind:    notify.KindProgress,
			Message: fmt.Sprintf("completed step %d of %s form", step, app.Company),
		})

		outcome, err := r.advance(ctx, logger, page, formURL, filled)
		if err != nil {
			m.transition(StateFailed)
			return r.fail(ctx, app, fmt.Sprintf("advance form: %v", err))
		}
		switch outcome {
		case advanceSubmitted:
			m.transition(StateSubmitted)
			return r.succeed(ctx, app, "")
		case advanceStalled:
			m.transition(StateStalled)
			return r.succeed(ctx, app, "form offered no further action; treating as complete")
		case advanceContinued:
			// next cycle
		}
	}

	m.transition(StateFailed)
	return r.fail(ctx, app, "max steps exceeded")
}

// actOnCandidates decides and acts on each candidate. It reports
// whether any new question was raised and how many controls were acted
// on. Decision errors abort the run; per-control action errors are
// logged and skipped.
func (r *Runner) actOnCandidates(
	ctx context.Context,
	logger *slog.Logger,
	page browser.Page,
	app *application.Application,
	profile *application.Profile,
	answers map[string]string,
	candidates []Candidate,
) (asked bool, filled int, err error) {
	for _, cand := range candidates {
		if cand.Control.Kind == browser.KindFile {
			if profile.ResumePath == "" {
				logger.Debug("skipping file control, no résumé on profile",
					"label", cand.Label)
				continue
			}
			if err := page.AttachFile(ctx, cand.Control.ID, profile.ResumePath); err != nil {
				logger.Warn("attach résumé failed", "label", cand.Label, "error", err)
				continue
			}
			filled++
			continue
		}

		decision, err := r.engine.Decide(ctx, cand, profile, answers)
		if err != nil {
			return asked, filled, err
		}

		switch decision.Action {
		case ActionSkip:
			logger.Debug("skipping field", "label", cand.Label)

		case ActionNeedsInfo:
			if app.AddQuestion(cand.Label, decision.Question) {
				r.publish(ctx, app, notify.Event{
					Kind:     notify.KindNeedsInfo,
					Field:    cand.Label,
					Question: decision.Question,
					Message:  fmt.Sprintf("need your answer for %q", cand.Label),
				})
			}
			asked = true

		case ActionFill:
			if err := r.act(ctx, page, cand, decision.Value); err != nil {
				logger.Warn("acting on field failed",
					"label", cand.Label,
					"kind", string(cand.Control.Kind),
					"error", err)
				continue
			}
			filled++
			settle(ctx, r.opts.FillSettle)
		}
	}
	return asked, filled, nil
}

// act applies a fill decision with the control-kind-appropriate page
// action.
func (r *Runner) act(ctx context.Context, page browser.Page, cand Candidate, value string) error {
	switch cand.Control.Kind {
	case browser.KindCheckbox:
		return page.SetChecked(ctx, cand.Control.ID, truthy(value))
	case browser.KindSelect:
		return page.SelectOption(ctx, cand.Control.ID, value)
	default:
		return page.Fill(ctx, cand.Control.ID, value)
	}
}

type advanceOutcome int

const (
	advanceContinued advanceOutcome = iota
	advanceSubmitted
	advanceStalled
)

// advance tries submit, then next, then calls the step a stall if it
// also filled nothing; a step that filled fields gets another cycle,
// which will skip them as prefilled and stall then. A submit click
// whose result page shows no confirmation falls through to the
// next/stall checks rather than re-clicking submit every cycle.
func (r *Runner) advance(ctx context.Context, logger *slog.Logger, page browser.Page, formURL string, filled int) (advanceOutcome, error) {
	err := page.ClickButton(ctx, r.opts.SubmitLabels)
	switch {
	case err == nil:
		settle(ctx, r.opts.ClickSettle)
		submitted, derr := r.checkSubmitted(ctx, page, formURL)
		if derr != nil {
			return 0, derr
		}
		if submitted {
			return advanceSubmitted, nil
		}
		logger.Info("submit click produced no confirmation")
	case errors.Is(err, browser.ErrNoButton):
	default:
		return 0, err
	}

	err = page.ClickButton(ctx, r.opts.NextLabels)
	switch {
	case err == nil:
		settle(ctx, r.opts.ClickSettle)
		return advanceContinued, nil
	case errors.Is(err, browser.ErrNoButton):
	default:
		return 0, err
	}

	// Nothing left to click. Check for an in-place confirmation
	// before deciding between a re-inspection and a stall.
	if submitted, derr := r.checkSubmitted(ctx, page, formURL); derr == nil && submitted {
		return advanceSubmitted, nil
	}
	if filled > 0 {
		logger.Info("no way forward after fills, re-inspecting")
		return advanceContinued, nil
	}
	logger.Info("no submit or next control found")
	return advanceStalled, nil
}

// checkSubmitted runs success detection against the current page.
func (r *Runner) checkSubmitted(ctx context.Context, page browser.Page, formURL string) (bool, error) {
	loc, err := page.Location(ctx)
	if err != nil {
		return false, fmt.Errorf("read location: %w", err)
	}
	content, err := page.Content(ctx)
	if err != nil {
		return false, fmt.Errorf("read page content: %w", err)
	}
	return r.detector.Submitted(formURL, loc, content), nil
}

// succeed marks the application applied and announces it.
func (r *Runner) succeed(ctx context.Context, app *application.Application, reason string) error {
	if err := app.SetStatus(application.StatusApplied, reason); err != nil {
		return err
	}
	if err := r.store.Put(ctx, app); err != nil {
		return fmt.Errorf("persist application: %w", err)
	}
	r.publish(ctx, app, notify.Event{
		Kind:    notify.KindApplied,
		Message: fmt.Sprintf("applied to %s at %s", app.JobTitle, app.Company),
	})
	return nil
}

// halt marks the application blocked on applicant answers. Fills made
// before the block stay on the page for the resumed run's
// re-inspection to skip.
func (r *Runner) halt(ctx context.Context, app *application.Application) error {
	if err := app.SetStatus(application.StatusNeedsInfo, "waiting on applicant answers"); err != nil {
		return err
	}
	if err := r.store.Put(ctx, app); err != nil {
		return fmt.Errorf("persist application: %w", err)
	}
	return nil
}

// fail marks the application failed, announces it, and returns the
// failure as an error.
func (r *Runner) fail(ctx context.Context, app *application.Application, reason string) error {
	if err := app.SetStatus(application.StatusFailed, reason); err != nil {
		r.logger.Error("recording failure", "application_id", app.ID, "error", err)
	} else if err := r.store.Put(ctx, app); err != nil {
		r.logger.Error("persisting failure", "application_id", app.ID, "error", err)
	}
	r.publish(ctx, app, notify.Event{
		Kind:   notify.KindFailed,
		Reason: reason,
	})
	return fmt.Errorf("application %s failed: %s", app.ID, reason)
}

func (r *Runner) publish(ctx context.Context, app *application.Application, event notify.Event) {
	if r.events == nil {
		return
	}
	event.UserID = app.UserID
	event.ApplicationID = app.ID
	event.JobTitle = app.JobTitle
	event.Company = app.Company
	r.events.Publish(ctx, event)
}

// settle pauses for d, returning early if the context ends.
func settle(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// truthy interprets a decision value as a checkbox state.
func truthy(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "checked", "on":
		return true
	}
	return false
}

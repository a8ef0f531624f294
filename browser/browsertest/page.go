// Package browsertest provides scripted fakes of the browser
// interfaces for exercising the apply orchestrator without Chrome.
package browsertest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/c360studio/applyflow/browser"
)

// Screen describes one page of a scripted application form: the
// controls the page exposes, and which screen clicking submit or next
// leads to.
type Screen struct {
	// URL is the address reported while on this screen
	URL string

	// HTML is the rendered content reported while on this screen
	HTML string

	// Controls are the form controls snapshotted on this screen
	Controls []browser.Control

	// SubmitTo and NextTo are indexes into the page's screens; -1
	// means the matching button does not exist on this screen
	SubmitTo int
	NextTo   int
}

// Page is a scripted browser.Page. Tests define a sequence of screens
// and assert on the actions recorded against them.
type Page struct {
	mu      sync.Mutex
	screens []Screen
	current int
	closed  bool

	// Filled records Fill calls keyed by control ID
	Filled map[string]string

	// Checked records SetChecked calls keyed by control ID
	Checked map[string]bool

	// Selected records SelectOption calls keyed by control ID
	Selected map[string]string

	// Attached records AttachFile calls keyed by control ID
	Attached map[string]string

	// Clicks records every ClickButton label set that matched
	Clicks []string

	// CloseCount counts Close calls
	CloseCount int

	// FailFill makes Fill return an error for the given control IDs
	FailFill map[string]error
}

// NewPage creates a scripted page starting on screens[0].
func NewPage(screens ...Screen) *Page {
	return &Page{
		screens:  screens,
		Filled:   make(map[string]string),
		Checked:  make(map[string]bool),
		Selected: make(map[string]string),
		Attached: make(map[string]string),
		FailFill: make(map[string]error),
	}
}

func (p *Page) screen() Screen {
	return p.screens[p.current]
}

// Navigate moves to the first screen regardless of URL.
func (p *Page) Navigate(_ context.Context, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.current = 0
	return nil
}

// Location returns the current screen's URL.
func (p *Page) Location(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen().URL, nil
}

// Content returns the current screen's HTML.
func (p *Page) Content(_ context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.screen().HTML, nil
}

// Controls returns at most limit of the current screen's controls.
func (p *Page) Controls(_ context.Context, limit int) ([]browser.Control, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	controls := p.screen().Controls
	if limit > 0 && len(controls) > limit {
		controls = controls[:limit]
	}
	out := make([]browser.Control, len(controls))
	copy(out, controls)
	return out, nil
}

// setValue updates the control's snapshot value on the current screen
// so later Controls calls see it as populated, like a real page would.
func (p *Page) setValue(controlID, value string) {
	controls := p.screens[p.current].Controls
	for i := range controls {
		if controls[i].ID == controlID {
			controls[i].Value = value
			return
		}
	}
}

// Fill records the value, honoring any scripted failure.
func (p *Page) Fill(_ context.Context, controlID, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err, ok := p.FailFill[controlID]; ok {
		return err
	}
	p.Filled[controlID] = value
	p.setValue(controlID, value)
	return nil
}

// SetChecked records the checkbox state.
func (p *Page) SetChecked(_ context.Context, controlID string, checked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Checked[controlID] = checked
	p.setValue(controlID, fmt.Sprintf("%t", checked))
	return nil
}

// SelectOption records the chosen label. Like a real select, the label
// must match one of the control's option labels.
func (p *Page) SelectOption(_ context.Context, controlID, label string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.screens[p.current].Controls {
		if c.ID != controlID {
			continue
		}
		for _, opt := range c.Options {
			if strings.EqualFold(strings.TrimSpace(opt), strings.TrimSpace(label)) {
				p.Selected[controlID] = opt
				p.setValue(controlID, opt)
				return nil
			}
		}
		return fmt.Errorf("no option labeled %q on %s", label, controlID)
	}
	return browser.ErrControlNotFound
}

// AttachFile records the uploaded path.
func (p *Page) AttachFile(_ context.Context, controlID, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Attached[controlID] = path
	return nil
}

// ClickButton advances to the screen scripted for the matched label
// kind. Submit-type labels follow SubmitTo; anything else follows
// NextTo.
func (p *Page) ClickButton(_ context.Context, labels []string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	screen := p.screen()
	target := screen.NextTo
	for _, l := range labels {
		lower := strings.ToLower(l)
		if strings.Contains(lower, "submit") || strings.Contains(lower, "apply") || strings.Contains(lower, "send") {
			target = screen.SubmitTo
			break
		}
	}

	if target < 0 {
		return browser.ErrNoButton
	}
	if target >= len(p.screens) {
		return fmt.Errorf("scripted screen %d out of range", target)
	}

	p.Clicks = append(p.Clicks, strings.Join(labels, "|"))
	p.current = target
	return nil
}

// Close marks the page closed. Safe to call more than once.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.CloseCount++
	return nil
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Browser is a browser.Browser handing out a single scripted page.
type Browser struct {
	Page *Page

	// NewPageErr, when set, makes NewPage fail
	NewPageErr error
}

// NewPage returns the scripted page.
func (b *Browser) NewPage(_ context.Context) (browser.Page, error) {
	if b.NewPageErr != nil {
		return nil, b.NewPageErr
	}
	return b.Page, nil
}

// Close is a no-op.
func (b *Browser) Close() error { return nil }

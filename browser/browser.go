// Package browser abstracts the automated browser session used to
// drive job application forms. The chromedp implementation lives in
// this package; browsertest provides a scripted fake.
package browser

import "context"

// ControlKind classifies a form control for the decision engine.
type ControlKind string

const (
	KindText     ControlKind = "text"
	KindTextarea ControlKind = "textarea"
	KindSelect   ControlKind = "select"
	KindCheckbox ControlKind = "checkbox"
	KindRadio    ControlKind = "radio"
	KindFile     ControlKind = "file"
)

// Control is a snapshot of one fillable form control. IDs are assigned
// per snapshot and are only valid until the next navigation.
type Control struct {
	// ID references the control in later action calls
	ID string `json:"id"`

	// Kind classifies the control
	Kind ControlKind `json:"kind"`

	// Name is the control's name attribute
	Name string `json:"name,omitempty"`

	// Placeholder and AriaLabel carry the visible labeling hints
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`

	// Options lists the choices of a select control
	Options []string `json:"options,omitempty"`

	// Value is the control's current value
	Value string `json:"value,omitempty"`

	// Required mirrors the control's required attribute
	Required bool `json:"required,omitempty"`
}

// Label returns the best human-readable label for the control:
// placeholder first, then aria-label, then name. Controls with none of
// the three report "unknown_field".
func (c Control) Label() string {
	if c.Placeholder != "" {
		return c.Placeholder
	}
	if c.AriaLabel != "" {
		return c.AriaLabel
	}
	if c.Name != "" {
		return c.Name
	}
	return "unknown_field"
}

// Page is one browser tab navigated through an application form.
// Implementations must be safe to Close more than once.
type Page interface {
	// Navigate loads a URL and waits for the page to settle.
	Navigate(ctx context.Context, url string) error

	// Location returns the page's current address.
	Location(ctx context.Context) (string, error)

	// Content returns the page's rendered HTML.
	Content(ctx context.Context) (string, error)

	// Controls snapshots the visible, enabled form controls on the
	// page, at most limit of them.
	Controls(ctx context.Context, limit int) ([]Control, error)

	// Fill types a value into a text-like control.
	Fill(ctx context.Context, controlID, value string) error

	// SetChecked checks or unchecks a checkbox control.
	SetChecked(ctx context.Context, controlID string, checked bool) error

	// SelectOption picks a select control's option by visible label.
	SelectOption(ctx context.Context, controlID, label string) error

	// AttachFile uploads a local file into a file control.
	AttachFile(ctx context.Context, controlID, path string) error

	// ClickButton clicks the first visible button whose text matches
	// one of the given labels (case-insensitive substring). Returns
	// ErrNoButton when none matches.
	ClickButton(ctx context.Context, labels []string) error

	// Close releases the tab and its resources.
	Close() error
}

// Browser opens pages.
type Browser interface {
	// NewPage opens a fresh tab.
	NewPage(ctx context.Context) (Page, error)

	// Close shuts the browser down.
	Close() error
}

package apply

import (
	"context"
	"fmt"

	"github.com/c360studio/applyflow/browser"
)

// Candidate pairs a form control with the label the decision engine
// keys on.
type Candidate struct {
	Control browser.Control
	Label   string
}

// Inspector snapshots a page's form controls and selects the ones
// worth acting on.
type Inspector struct {
	// maxControls bounds how many controls are snapshotted per cycle
	maxControls int

	// maxActed bounds how many candidates are returned per cycle
	maxActed int
}

// NewInspector creates an inspector with the given per-cycle caps.
func NewInspector(maxControls, maxActed int) *Inspector {
	if maxControls <= 0 {
		maxControls = 30
	}
	if maxActed <= 0 {
		maxActed = 20
	}
	return &Inspector{maxControls: maxControls, maxActed: maxActed}
}

// Inspect snapshots the page and returns the candidates to act on,
// in document order. Controls that already hold a value are skipped
// so re-inspection after a resume never overwrites earlier fills.
// Checkbox and file controls pass through even when "prefilled" since
// their value attribute does not reflect user intent the same way.
func (i *Inspector) Inspect(ctx context.Context, page browser.Page) ([]Candidate, error) {
	controls, err := page.Controls(ctx, i.maxControls)
	if err != nil {
		return nil, fmt.Errorf("snapshot page controls: %w", err)
	}

	var candidates []Candidate
	for _, ctl := range controls {
		if len(candidates) >= i.maxActed {
			break
		}
		switch ctl.Kind {
		case browser.KindText, browser.KindTextarea, browser.KindSelect, browser.KindRadio:
			// A radio input's value attribute is its option value, so
			// radios read as satisfied here and are left alone.
			if ctl.Value != "" {
				continue
			}
		case browser.KindCheckbox:
			if ctl.Value == "true" {
				continue
			}
		case browser.KindFile:
			// Always a candidate: the snapshot cannot see prior uploads.
		}
		candidates = append(candidates, Candidate{
			Control: ctl,
			Label:   ctl.Label(),
		})
	}
	return candidates, nil
}

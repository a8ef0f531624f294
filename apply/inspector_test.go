package apply

import (
	"context"
	"fmt"
	"testing"

	"github.com/c360studio/applyflow/browser"
	"github.com/c360studio/applyflow/browser/browsertest"
)

func TestInspectSkipsPrefilled(t *testing.T) {
	page := browsertest.NewPage(browsertest.Screen{
		URL: "https://jobs.example/apply",
		Controls: []browser.Control{
			{ID: "ctl-0", Kind: browser.KindText, Name: "full_name", Value: "Jordan Lee"},
			{ID: "ctl-1", Kind: browser.KindText, Name: "email"},
			{ID: "ctl-2", Kind: browser.KindCheckbox, Name: "relocate", Value: "true"},
			{ID: "ctl-3", Kind: browser.KindCheckbox, Name: "remote"},
			{ID: "ctl-4", Kind: browser.KindFile, Name: "resume", Value: "old.pdf"},
		},
		SubmitTo: -1,
		NextTo:   -1,
	})

	inspector := NewInspector(30, 20)
	candidates, err := inspector.Inspect(context.Background(), page)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	got := make(map[string]bool)
	for _, c := range candidates {
		got[c.Control.ID] = true
	}
	if got["ctl-0"] {
		t.Error("prefilled text control should be skipped")
	}
	if !got["ctl-1"] {
		t.Error("empty text control should be a candidate")
	}
	if got["ctl-2"] {
		t.Error("checked checkbox should be skipped")
	}
	if !got["ctl-3"] {
		t.Error("unchecked checkbox should be a candidate")
	}
	if !got["ctl-4"] {
		t.Error("file control should always be a candidate")
	}
}

func TestInspectLeavesRadiosAlone(t *testing.T) {
	// Radio inputs report their option value, so they look satisfied.
	page := browsertest.NewPage(browsertest.Screen{
		URL: "https://jobs.example/apply",
		Controls: []browser.Control{
			{ID: "ctl-0", Kind: browser.KindRadio, Name: "work_mode", Value: "remote"},
			{ID: "ctl-1", Kind: browser.KindRadio, Name: "work_mode", Value: "onsite"},
			{ID: "ctl-2", Kind: browser.KindText, Name: "email"},
		},
		SubmitTo: -1,
		NextTo:   -1,
	})

	inspector := NewInspector(30, 20)
	candidates, err := inspector.Inspect(context.Background(), page)
	if err != nil {
		t.Fatalf("Inspect() error = %v", err)
	}

	if len(candidates) != 1 || candidates[0].Control.ID != "ctl-2" {
		t.Errorf("expected only the text control as a candidate, got %v", candidates)
	}
}

func TestInspectCapsActed(t *testing.T) {
	var controls []browser.Control
	for i := 0; i < 12; i++ {
		controls = append(controls, browser.Control{
			ID:   fmt.Sprintf("ctl-%d", i),
			Kind: browser.KindText,
			Name: fmt.Sprintf("field_%d", i),
		})
	}
	page := browsertest.NewPage(browsertest.Screen{
		URL: "https://jobs.example/apply", Controls: controls,
		SubmitTo: -1, NextTo: -1,
	})

	inspector := NewInspector(30, 5)
	candidates, err := inspector.Inspect(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}
	if len(candidates) != 5 {
		t.Errorf("expected 5 candidates, got %d", len(candidates))
	}
	// Document order is preserved
	if candidates[0].Control.ID != "ctl-0" || candidates[4].Control.ID != "ctl-4" {
		t.Error("expected candidates in document order")
	}
}

func TestInspectLabels(t *testing.T) {
	page := browsertest.NewPage(browsertest.Screen{
		URL: "https://jobs.example/apply",
		Controls: []browser.Control{
			{ID: "ctl-0", Kind: browser.KindText, Placeholder: "Email address", Name: "email"},
			{ID: "ctl-1", Kind: browser.KindText, AriaLabel: "Phone number"},
			{ID: "ctl-2", Kind: browser.KindText, Name: "github_url"},
			{ID: "ctl-3", Kind: browser.KindText},
		},
		SubmitTo: -1, NextTo: -1,
	})

	inspector := NewInspector(30, 20)
	candidates, err := inspector.Inspect(context.Background(), page)
	if err != nil {
		t.Fatal(err)
	}

	want := []string{"Email address", "Phone number", "github_url", "unknown_field"}
	for i, w := range want {
		if candidates[i].Label != w {
			t.Errorf("candidate %d label = %q, want %q", i, candidates[i].Label, w)
		}
	}
}

package apply

import "testing"

var (
	testURLKeywords = []string{"success", "thank", "confirm", "submitted"}
	testPhrases     = []string{
		"application submitted",
		"thank you for applying",
		"we've received your application",
		"application received",
		"successfully applied",
		"application complete",
	}
)

func TestSubmittedByURL(t *testing.T) {
	d := NewDetector(testURLKeywords, testPhrases)

	tests := []struct {
		name       string
		formURL    string
		currentURL string
		want       bool
	}{
		{
			name:       "changed URL with keyword",
			formURL:    "https://jobs.example/apply/42",
			currentURL: "https://jobs.example/apply/42/thank-you",
			want:       true,
		},
		{
			name:       "changed URL without keyword",
			formURL:    "https://jobs.example/apply/42",
			currentURL: "https://jobs.example/apply/42/step-2",
			want:       false,
		},
		{
			// The form URL itself containing a keyword must not count
			name:       "unchanged URL with keyword",
			formURL:    "https://jobs.example/confirm-details",
			currentURL: "https://jobs.example/confirm-details",
			want:       false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Submitted(tt.formURL, tt.currentURL, ""); got != tt.want {
				t.Errorf("Submitted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubmittedByPhrase(t *testing.T) {
	d := NewDetector(testURLKeywords, testPhrases)
	formURL := "https://jobs.example/apply/42"

	tests := []struct {
		name string
		html string
		want bool
	}{
		{
			name: "confirmation heading",
			html: `<html><body><h1>Application Submitted</h1><p>Good luck!</p></body></html>`,
			want: true,
		},
		{
			name: "phrase in paragraph",
			html: `<html><body><p>We've received your application and will be in touch.</p></body></html>`,
			want: true,
		},
		{
			name: "phrase buried in script is ignored",
			html: `<html><body><script>track("application submitted")</script><p>Step 2 of 3</p></body></html>`,
			want: false,
		},
		{
			name: "ordinary form page",
			html: `<html><body><form><input name="email"></form></body></html>`,
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.Submitted(formURL, formURL, tt.html); got != tt.want {
				t.Errorf("Submitted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSubmittedCustomSignals(t *testing.T) {
	d := NewDetector([]string{"danke"}, []string{"bewerbung eingegangen"})

	if !d.Submitted("https://jobs.example/a", "https://jobs.example/danke", "") {
		t.Error("expected custom URL keyword to match")
	}
	if !d.Submitted("https://jobs.example/a", "https://jobs.example/a",
		"<html><body>Ihre Bewerbung eingegangen.</body></html>") {
		t.Error("expected custom phrase to match")
	}
	if d.Submitted("https://jobs.example/a", "https://jobs.example/a/thank-you", "") {
		t.Error("default keywords should not apply once overridden")
	}
}

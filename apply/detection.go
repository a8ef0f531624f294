package apply

import "strings"

// Detector decides whether a page indicates the application form was
// submitted successfully. Both signal lists are configurable; the
// defaults live in config.DefaultConfig.
type Detector struct {
	urlKeywords []string
	phrases     []string
	text        *PageText
}

// NewDetector creates a success detector with the given signal lists.
// Keyword and phrase matching is case-insensitive.
func NewDetector(urlKeywords, phrases []string) *Detector {
	lowered := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = strings.ToLower(s)
		}
		return out
	}
	return &Detector{
		urlKeywords: lowered(urlKeywords),
		phrases:     lowered(phrases),
		text:        NewPageText(),
	}
}

// Submitted reports whether the page at currentURL with the given HTML
// is a confirmation page. A URL keyword only counts when the address
// actually changed from the original form URL; confirmation phrases in
// the page text count regardless.
func (d *Detector) Submitted(formURL, currentURL, htmlContent string) bool {
	if currentURL != "" && currentURL != formURL {
		lower := strings.ToLower(currentURL)
		for _, kw := range d.urlKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}

	if htmlContent == "" || len(d.phrases) == 0 {
		return false
	}
	text := d.text.Extract(htmlContent)
	for _, phrase := range d.phrases {
		if strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

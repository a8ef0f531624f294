package application

import (
	"fmt"
	"strings"
)

// Profile holds the applicant data the decision engine draws on when
// filling forms. Profiles are stored in the APPLYFLOW_PROFILES KV
// bucket keyed by user ID.
type Profile struct {
	UserID string `json:"user_id"`

	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Location string `json:"location,omitempty"`

	// Domain is the field the applicant targets, such as
	// "backend" or "data_science"
	Domain string `json:"domain,omitempty"`

	// ExperienceLevel is one of "fresher", "entry_level", or
	// "mid_level"; the decision engine derives years-of-experience
	// answers from it
	ExperienceLevel string `json:"experience_level,omitempty"`

	Skills      []string `json:"skills,omitempty"`
	Projects    []string `json:"projects,omitempty"`
	TargetRoles []string `json:"target_roles,omitempty"`

	// LinkedIn, GitHub, and Portfolio are profile links pasted into
	// matching form fields
	LinkedIn  string `json:"linkedin,omitempty"`
	GitHub    string `json:"github,omitempty"`
	Portfolio string `json:"portfolio,omitempty"`

	// ResumeText is the plain-text résumé content excerpted into
	// decision prompts
	ResumeText string `json:"resume_text,omitempty"`

	// ResumePath is the local path of the résumé file attached to
	// file-upload controls
	ResumePath string `json:"resume_path,omitempty"`

	// WorkAuthorization, SalaryExpectation, and NoticePeriod answer
	// the questions nearly every application form asks
	WorkAuthorization string `json:"work_authorization,omitempty"`
	SalaryExpectation string `json:"salary_expectation,omitempty"`
	NoticePeriod      string `json:"notice_period,omitempty"`
}

// Validate checks the profile carries the minimum data needed to
// attempt an application.
func (p *Profile) Validate() error {
	if p.UserID == "" {
		return fmt.Errorf("user_id is required")
	}
	if p.FullName == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.Email == "" {
		return fmt.Errorf("email is required")
	}
	return nil
}

// Summary renders the profile as the compact block embedded in
// decision prompts. Empty fields are omitted.
func (p *Profile) Summary() string {
	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	write("Name", p.FullName)
	write("Email", p.Email)
	write("Phone", p.Phone)
	write("Location", p.Location)
	write("Domain", p.Domain)
	write("Experience level", p.ExperienceLevel)
	write("Skills", strings.Join(p.Skills, ", "))
	write("Projects", strings.Join(p.Projects, "; "))
	write("Target roles", strings.Join(p.TargetRoles, ", "))
	write("LinkedIn", p.LinkedIn)
	write("GitHub", p.GitHub)
	write("Portfolio", p.Portfolio)
	write("Work authorization", p.WorkAuthorization)
	write("Salary expectation", p.SalaryExpectation)
	write("Notice period", p.NoticePeriod)
	return strings.TrimRight(b.String(), "\n")
}

// ResumeExcerpt returns at most limit characters of the résumé text.
func (p *Profile) ResumeExcerpt(limit int) string {
	if limit <= 0 || len(p.ResumeText) <= limit {
		return p.ResumeText
	}
	return p.ResumeText[:limit]
}

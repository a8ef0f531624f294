package browser

import "testing"

func TestControlLabel(t *testing.T) {
	tests := []struct {
		name    string
		control Control
		want    string
	}{
		{
			name: "placeholder wins",
			control: Control{
				Placeholder: "Full Name",
				AriaLabel:   "name field",
				Name:        "full_name",
			},
			want: "Full Name",
		},
		{
			name: "aria-label second",
			control: Control{
				AriaLabel: "Email address",
				Name:      "email",
			},
			want: "Email address",
		},
		{
			name:    "name attribute third",
			control: Control{Name: "phone"},
			want:    "phone",
		},
		{
			name:    "nothing labeled",
			control: Control{Kind: KindText},
			want:    "unknown_field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.control.Label(); got != tt.want {
				t.Errorf("Label() = %q, want %q", got, tt.want)
			}
		})
	}
}

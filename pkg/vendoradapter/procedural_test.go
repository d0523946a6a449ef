package vendoradapter

import "testing"

func TestIsProcedural(t *testing.T) {
	cases := map[string]bool{
		"Roll Call":                     true,
		"  roll   call  ":               true,
		"Approval of Minutes":           true,
		"Approval of the Minutes":       true,
		"Pledge of Allegiance":          true,
		"Invocation":                    true,
		"Adjournment":                   true,
		"Call to Order":                 true,
		"Moment of Silence":             true,
		"Public Comment":                true,
		"Public Comments":               true,
		"Announcements":                 true,
		"Closed Session":                true,
		"Recess":                        true,
		"Approve budget amendment":      false,
		"Adopt water rate ordinance":    false,
		"Rezoning of 123 Main Street":   false,
		"":                              false,
	}
	for title, want := range cases {
		if got := IsProcedural(title); got != want {
			t.Errorf("IsProcedural(%q) = %v, want %v", title, got, want)
		}
	}
}

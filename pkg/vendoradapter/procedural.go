package vendoradapter

import "regexp"

// proceduralPatterns matches agenda items that carry no substantive content
// and are excluded from LLM submission. Items are still stored for
// completeness — only IsProcedural's callers decide to skip LLM work,
// never the store.
var proceduralPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^\s*roll\s*call\s*$`),
	regexp.MustCompile(`(?i)^\s*approval\s+of\s+(the\s+)?minutes\b`),
	regexp.MustCompile(`(?i)^\s*pledge\s+of\s+allegiance\s*$`),
	regexp.MustCompile(`(?i)^\s*invocation\s*$`),
	regexp.MustCompile(`(?i)^\s*adjournment\s*$`),
	// Vendor-specific variants observed across Legistar/Granicus/PrimeGov
	// agendas.
	regexp.MustCompile(`(?i)^\s*call\s+to\s+order\s*$`),
	regexp.MustCompile(`(?i)^\s*moment\s+of\s+silence\s*$`),
	regexp.MustCompile(`(?i)^\s*public\s+comment(s)?\s*$`),
	regexp.MustCompile(`(?i)^\s*announcements?\s*$`),
	regexp.MustCompile(`(?i)^\s*closed\s+session\s*$`),
	regexp.MustCompile(`(?i)^\s*recess\s*$`),
}

// IsProcedural reports whether title names a procedural agenda item with no
// substantive content.
func IsProcedural(title string) bool {
	for _, p := range proceduralPatterns {
		if p.MatchString(title) {
			return true
		}
	}
	return false
}

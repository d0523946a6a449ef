package processor

import (
	"regexp"
	"strconv"

	"github.com/engagic/core/pkg/models"
)

// versionSuffix matches a trailing "VerN" revision marker on an attachment
// name, e.g. "Staff Report Ver2".
var versionSuffix = regexp.MustCompile(`(?i)^(.*?)\s*Ver(\d+)\b`)

// FilterVersions keeps only the highest-numbered attachment per base name
// within a single item's attachment list. Vendors republish Ver1/Ver2/Ver3
// of the same document; only the latest is authoritative. Attachments with
// no VerN suffix are left untouched and always kept.
func FilterVersions(attachments []models.Attachment) []models.Attachment {
	type candidate struct {
		attachment models.Attachment
		version    int
	}
	best := make(map[string]candidate)
	var order []string
	var unversioned []models.Attachment

	for _, a := range attachments {
		m := versionSuffix.FindStringSubmatch(a.Name)
		if m == nil {
			unversioned = append(unversioned, a)
			continue
		}
		base := m[1]
		n, err := strconv.Atoi(m[2])
		if err != nil {
			unversioned = append(unversioned, a)
			continue
		}
		if existing, ok := best[base]; !ok || n > existing.version {
			if !ok {
				order = append(order, base)
			}
			best[base] = candidate{attachment: a, version: n}
		}
	}

	out := make([]models.Attachment, 0, len(order)+len(unversioned))
	for _, base := range order {
		out = append(out, best[base].attachment)
	}
	out = append(out, unversioned...)
	return out
}

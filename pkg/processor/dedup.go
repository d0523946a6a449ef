package processor

import "github.com/engagic/core/pkg/models"

// Partition is the result of classifying a meeting's attachment URLs as
// shared (referenced by 2+ items) or item-specific.
type Partition struct {
	// SharedURLs appear in 2 or more items; their text belongs in the
	// meeting-level context, not repeated per item.
	SharedURLs []string
	// ItemURLs maps item id to the URLs specific to it (referenced by
	// exactly one item).
	ItemURLs map[string][]string
}

// PartitionAttachments computes which attachment URLs are shared across
// items in a meeting versus specific to one item. Items should already have
// had FilterVersions applied to their attachment lists.
func PartitionAttachments(items []models.AgendaItem) Partition {
	counts := make(map[string]int)
	order := []string{}
	for _, item := range items {
		seenInItem := make(map[string]bool)
		for _, a := range item.Attachments {
			if seenInItem[a.URL] {
				continue
			}
			seenInItem[a.URL] = true
			if counts[a.URL] == 0 {
				order = append(order, a.URL)
			}
			counts[a.URL]++
		}
	}

	p := Partition{ItemURLs: make(map[string][]string, len(items))}
	sharedSet := make(map[string]bool)
	for _, url := range order {
		if counts[url] >= 2 {
			p.SharedURLs = append(p.SharedURLs, url)
			sharedSet[url] = true
		}
	}

	for _, item := range items {
		seen := make(map[string]bool)
		for _, a := range item.Attachments {
			if sharedSet[a.URL] || seen[a.URL] {
				continue
			}
			seen[a.URL] = true
			p.ItemURLs[item.ID] = append(p.ItemURLs[item.ID], a.URL)
		}
	}
	return p
}

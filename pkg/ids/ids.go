// Package ids computes the deterministic identifiers used across engagic's
// data model so that re-syncing a city is an idempotent upsert rather than a
// source of duplicate rows.
package ids

import (
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// Banana returns the vendor-agnostic city key: lowercase city name plus the
// two-letter state code, e.g. "paloaltoCA".
func Banana(cityName, state string) string {
	clean := strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(cityName), ""))
	return clean + strings.ToUpper(strings.TrimSpace(state))
}

// MeetingID builds the meeting identifier:
// {banana}_{first 8 hex chars of MD5(banana:vendor_id:date:title)}.
//
// date should already be normalized to a stable string form (e.g. RFC3339)
// by the caller so the hash is stable across re-syncs of the same meeting.
func MeetingID(banana, vendorMeetingID, date, title string) string {
	sum := md5.Sum([]byte(banana + ":" + vendorMeetingID + ":" + date + ":" + title))
	return banana + "_" + hex.EncodeToString(sum[:])[:8]
}

// AgendaItemID builds the item identifier: {meeting_id}_{suffix}. suffix is
// either the vendor-supplied item id or a sequence-derived fallback
// ("item-<n>") chosen by the caller when the vendor has no stable item id.
func AgendaItemID(meetingID, suffix string) string {
	return meetingID + "_" + suffix
}

// SequenceSuffix produces the fallback item-id suffix for vendors with no
// stable per-item identifier.
func SequenceSuffix(sequence int) string {
	return fmt.Sprintf("item-%d", sequence)
}

// MatterIdentity chooses the identity string used to compute a Matter's id,
// following a fallback hierarchy: matter_file dominates, then the vendor
// matter_id, then a normalized title for vendors lacking any stable
// identifier.
func MatterIdentity(matterFile, matterID, title string) string {
	switch {
	case matterFile != "":
		return "file:" + matterFile
	case matterID != "":
		return "id:" + matterID
	default:
		return "title:" + NormalizeTitle(title)
	}
}

// NormalizeTitle lowercases and collapses whitespace so that titles that
// differ only in casing or spacing still converge on the same identity.
func NormalizeTitle(title string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), " ")
}

// MatterID builds the matter identifier: {banana}_{16 hex of SHA256(banana:identity)}.
func MatterID(banana, identity string) string {
	sum := sha256.Sum256([]byte(banana + ":" + identity))
	return banana + "_" + hex.EncodeToString(sum[:])[:16]
}

// AttachmentHash computes the SHA-256 digest over an agenda item's ordered
// attachment URLs, used to detect when an item's attachment set changed
// between syncs without re-downloading anything.
func AttachmentHash(urls []string) string {
	h := sha256.New()
	for _, u := range urls {
		h.Write([]byte(u))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

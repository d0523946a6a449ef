package models

import "time"

// ProcessingStatus tracks where a meeting is in the LLM pipeline.
type ProcessingStatus string

const (
	ProcessingPending    ProcessingStatus = "pending"
	ProcessingInProgress ProcessingStatus = "processing"
	ProcessingCompleted  ProcessingStatus = "completed"
	ProcessingFailed     ProcessingStatus = "failed"
)

// VendorMeetingStatus is the vendor-reported lifecycle status of a meeting,
// distinct from ProcessingStatus which tracks engagic's own pipeline.
type VendorMeetingStatus string

const (
	VendorStatusCancelled   VendorMeetingStatus = "cancelled"
	VendorStatusPostponed   VendorMeetingStatus = "postponed"
	VendorStatusRevised     VendorMeetingStatus = "revised"
	VendorStatusRescheduled VendorMeetingStatus = "rescheduled"
)

// Participation captures how the public may participate in a meeting
// (call-in numbers, webinar links, public-comment windows). Shape is
// vendor-dependent, so it is stored as a free-form blob rather than a rigid
// struct.
type Participation map[string]any

// Meeting is one occurrence of a legislative body convening. Its Summary and
// Topics fields are LLM output and are preserved across re-syncs — adapters
// always write nil for these fields and the store must not let that clobber
// prior LLM work.
type Meeting struct {
	ID                string
	Banana            string
	Title             string
	Date              time.Time
	AgendaURL         *string
	PacketURL         *string
	Summary           *string
	Topics            []string
	Participation     Participation
	VendorStatus      *VendorMeetingStatus
	ProcessingStatus  ProcessingStatus
	ProcessingMethod  *string
	ProcessingSeconds *float64
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// AttachmentType is mandatory on every attachment; adapters default unknown
// types to "pdf" so the processor never silently skips an attachment for
// lack of a type tag.
type AttachmentType string

const DefaultAttachmentType AttachmentType = "pdf"

// Attachment is a single document linked from an agenda item.
type Attachment struct {
	URL   string
	Name  string
	Type  AttachmentType
	Pages *int
}

// AgendaItem is one line of a meeting's agenda.
type AgendaItem struct {
	ID             string
	MeetingID      string
	Title          string
	Sequence       int
	Attachments    []Attachment
	AttachmentHash string
	MatterID       *string
	MatterFile     *string
	Sponsors       []string
	Summary        *string
	Topics         []string
	Procedural     bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

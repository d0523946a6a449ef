package models

import "time"

// MatterStatus is the lifecycle stage of a legislative matter.
type MatterStatus string

const (
	MatterStatusActive    MatterStatus = "active"
	MatterStatusPassed    MatterStatus = "passed"
	MatterStatusFailed    MatterStatus = "failed"
	MatterStatusTabled    MatterStatus = "tabled"
	MatterStatusWithdrawn MatterStatus = "withdrawn"
	MatterStatusReferred  MatterStatus = "referred"
	MatterStatusAmended   MatterStatus = "amended"
	MatterStatusVetoed    MatterStatus = "vetoed"
	MatterStatusEnacted   MatterStatus = "enacted"
)

// TerminalMatterStatuses are statuses after which last_seen stops advancing
// automatically.
var TerminalMatterStatuses = map[MatterStatus]bool{
	MatterStatusPassed:    true,
	MatterStatusFailed:    true,
	MatterStatusTabled:    true,
	MatterStatusWithdrawn: true,
	MatterStatusVetoed:    true,
	MatterStatusEnacted:   true,
}

// Matter is a legislative object (bill, ordinance, resolution) tracked
// across the meetings it appears on. Exactly one of MatterFile/MatterID may
// be empty, but never both.
type Matter struct {
	ID               string
	Banana           string
	MatterFile       string
	MatterID         string
	Type             string
	Title            string
	Sponsors         []string
	CanonicalSummary *string
	CanonicalTopics  []string
	Attachments      []Attachment
	FirstSeen        time.Time
	LastSeen         time.Time
	AppearanceCount  int
	Status           MatterStatus
	FinalVoteDate    *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// VoteOutcome is the recorded result of a matter's appearance at a meeting.
type VoteOutcome string

const (
	VoteOutcomePassed    VoteOutcome = "passed"
	VoteOutcomeFailed    VoteOutcome = "failed"
	VoteOutcomeTabled    VoteOutcome = "tabled"
	VoteOutcomeWithdrawn VoteOutcome = "withdrawn"
	VoteOutcomeReferred  VoteOutcome = "referred"
	VoteOutcomeAmended   VoteOutcome = "amended"
	VoteOutcomeUnknown   VoteOutcome = "unknown"
	VoteOutcomeNoVote    VoteOutcome = "no_vote"
)

// VoteTally is the optional roll-call breakdown of a vote.
type VoteTally struct {
	Yes     int `json:"yes"`
	No      int `json:"no"`
	Abstain int `json:"abstain"`
	Absent  int `json:"absent"`
}

// MatterAppearance is a single occurrence of a Matter on a meeting's agenda.
// Unique on (MatterID, MeetingID, ItemID).
type MatterAppearance struct {
	ID          int64
	MatterID    string
	MeetingID   string
	ItemID      string
	AppearedAt  time.Time
	Committee   *string
	VoteOutcome *VoteOutcome
	VoteTally   *VoteTally
	Sequence    int
}

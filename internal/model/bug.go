// Package model defines the canonical bug record and its derived states.
package model

import (
	"strconv"
	"time"
)

// Team is one of the three fixed assignment codes.
type Team string

const (
	TeamGL Team = "GL"
	TeamNT Team = "NT"
	TeamPP Team = "PP"
)

// Teams lists the assignment codes in canonical sheet order.
var Teams = []Team{TeamGL, TeamNT, TeamPP}

// Valid reports whether t is one of the three known team codes.
func (t Team) Valid() bool {
	return t == TeamGL || t == TeamNT || t == TeamPP
}

// FailureMode is the failure category inferred from the reported title.
type FailureMode string

const (
	FailureThermal     FailureMode = "Thermal"
	FailurePower       FailureMode = "Power"
	FailureSRAM        FailureMode = "SRAM Memory"
	FailureHBM         FailureMode = "HBM Memory"
	FailureGeneralMem  FailureMode = "General Memory (SRAM or HBM)"
	FailureCustomerXID FailureMode = "Customer ID Specific Issue"
	FailureFallingOff  FailureMode = "GPU Falling Off Bus"
	FailurePCIe        FailureMode = "Potential Memory or NVSpec Issues"
	FailureUnknown     FailureMode = "Unknown Cause Issue"
)

// BugRecord is one normalized row of the daily extract.
type BugRecord struct {
	BugID        string      `json:"bug_id"`
	Priority     int         `json:"priority"`
	PriorityRaw  string      `json:"-"` // source value before gap-fill; blank or non-numeric means Priority was synthesized
	Title        string      `json:"title"`
	FailureMode  FailureMode `json:"failure_mode"`
	CreatedDate  string      `json:"created_date"` // opaque pass-through
	Completed    string      `json:"completed"`    // opaque pass-through
	SerialNumber string      `json:"sn_associated"`
	Product      string      `json:"product"`
	Assignment   Team        `json:"assignment"`
	Excluded     bool        `json:"excluded"`
}

// Columns is the canonical column order for every emitted sheet and table.
var Columns = []string{
	"Assignment", "Bug ID", "Priority", "Title", "Failure Mode",
	"Created Date", "COMPLETED", "SN Associated", "Product",
}

// Cells returns the record's values in canonical column order.
func (b BugRecord) Cells() []string {
	return []string{
		string(b.Assignment),
		b.BugID,
		strconv.Itoa(b.Priority),
		b.Title,
		string(b.FailureMode),
		b.CreatedDate,
		b.Completed,
		b.SerialNumber,
		b.Product,
	}
}

// BugStatus is the manual workflow state of a persisted bug.
type BugStatus string

const (
	StatusActive        BugStatus = "active"
	StatusInProgress    BugStatus = "in_progress"
	StatusDeprioritized BugStatus = "deprioritized"
	StatusCompleted     BugStatus = "completed"
)

// Valid reports whether s is a known workflow state.
func (s BugStatus) Valid() bool {
	switch s {
	case StatusActive, StatusInProgress, StatusDeprioritized, StatusCompleted:
		return true
	}
	return false
}

// BugAge is the derived freshness/engagement state shown on the dashboard.
type BugAge string

const (
	AgeBrandNew         BugAge = "brand_new"
	AgeUntouched        BugAge = "existing_untouched"
	AgeOneComment       BugAge = "existing_one_comment"
	AgeMultipleComments BugAge = "existing_multiple_comments"
)

// EngagementSignals maps bug id to the number of team comments observed by
// an external collaborator. The pipeline never computes these itself.
type EngagementSignals map[string]int

// AgeForExisting returns the freshness state for a re-imported bug given its
// observed comment count.
func AgeForExisting(comments int) BugAge {
	switch {
	case comments >= 2:
		return AgeMultipleComments
	case comments == 1:
		return AgeOneComment
	default:
		return AgeUntouched
	}
}

// PersistedBug is the store's view of a bug: the normalized record plus
// workflow and freshness state accumulated across imports.
type PersistedBug struct {
	ID           int64     `json:"id"`
	BugRecord
	Status       BugStatus `json:"status"`
	ImportDate   string    `json:"import_date"`
	BugAge       BugAge    `json:"bug_age"`
	CommentCount int       `json:"comment_count"`
	LastUpdated  time.Time `json:"last_updated"`
}

package model

import "time"

// ImportRun is the immutable audit record of one pipeline invocation.
type ImportRun struct {
	ID          string    `json:"id"`
	ImportDate  string    `json:"import_date"`
	TotalBugs   int       `json:"total_bugs"`
	NewBugs     int       `json:"new_bugs"`
	UpdatedBugs int       `json:"updated_bugs"`
	ReportPath  string    `json:"report_path,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

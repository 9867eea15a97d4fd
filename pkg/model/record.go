// Package model holds the records produced by a branch comparison.
package model

import "time"

// Status is the outcome of comparing one branch pair.
type Status string

const (
	StatusSuccess  Status = "success"
	StatusConflict Status = "conflict"
	StatusError    Status = "error"
)

// Summary holds line statistics for a single file.
type Summary struct {
	Additions    int `json:"additions"`
	Deletions    int `json:"deletions"`
	TotalChanges int `json:"total_changes"`
}

// ConflictFragment is one conflict region between git conflict markers.
type ConflictFragment struct {
	Ours           string  `json:"ours"`
	Theirs         string  `json:"theirs"`
	Base           string  `json:"base,omitempty"`
	StartLine      int     `json:"start_line"`
	EndLine        int     `json:"end_line"`
	WhitespaceOnly bool    `json:"whitespace_only"`
	Similarity     float64 `json:"similarity"`
}

// DetailedAnalysis carries the format-independent findings for a file.
type DetailedAnalysis struct {
	// WhitespaceOnly is nil when the whitespace stage did not run.
	WhitespaceOnly *bool              `json:"whitespace_only,omitempty"`
	Conflicts      []ConflictFragment `json:"conflicts,omitempty"`
	// MalformedConflicts counts conflict regions that were opened but never closed.
	MalformedConflicts int `json:"malformed_conflicts,omitempty"`
	// MaskedByWhitespace is set when the format stage found real differences
	// that whitespace collapsing had hidden.
	MaskedByWhitespace bool `json:"masked_by_whitespace,omitempty"`
}

// IsEmpty reports whether nothing was recorded.
func (d DetailedAnalysis) IsEmpty() bool {
	return d.WhitespaceOnly == nil && len(d.Conflicts) == 0 &&
		d.MalformedConflicts == 0 && !d.MaskedByWhitespace
}

// ChangeRecord describes one file touched by a simulated merge.
type ChangeRecord struct {
	FilePath          string           `json:"file_path"`
	FileType          string           `json:"file_type"`
	Differencer       string           `json:"differencer_used"`
	HasSemanticChange bool             `json:"has_semantic_change"`
	HasConflict       bool             `json:"has_conflict"`
	Summary           *Summary         `json:"summary,omitempty"`
	Detailed          DetailedAnalysis `json:"detailed_analysis"`
	FormatSpecific    map[string]any   `json:"format_specific"`
	ContentBefore     *string          `json:"content_before"`
	ContentAfter      *string          `json:"content_after"`
	ConflictContent   string           `json:"conflict_content,omitempty"`
	ErrorMessage      string           `json:"error_message,omitempty"`
}

// NewChangeRecord returns a record with the conservative defaults: the change
// is assumed semantic until a differencer proves otherwise.
func NewChangeRecord(path, fileType, differencer string, conflicted bool) *ChangeRecord {
	return &ChangeRecord{
		FilePath:          path,
		FileType:          fileType,
		Differencer:       differencer,
		HasSemanticChange: true,
		HasConflict:       conflicted,
		FormatSpecific:    make(map[string]any),
	}
}

// Before returns the before content or "" when it is unavailable.
func (c *ChangeRecord) Before() string {
	if c.ContentBefore == nil {
		return ""
	}
	return *c.ContentBefore
}

// After returns the after content or "" when it is unavailable.
func (c *ChangeRecord) After() string {
	if c.ContentAfter == nil {
		return ""
	}
	return *c.ContentAfter
}

// ComparisonRecord aggregates the outcome for one branch pair.
type ComparisonRecord struct {
	FromBranch   string          `json:"from_branch"`
	ToBranch     string          `json:"to_branch"`
	TempBranch   string          `json:"temp_branch"`
	Status       Status          `json:"status"`
	Changes      []*ChangeRecord `json:"changes"`
	ErrorMessage string          `json:"error_message,omitempty"`
	StartedAt    time.Time       `json:"started_at"`
	Duration     time.Duration   `json:"duration_ns"`
}

// TempBranchName is the disposable branch name for a pair.
func TempBranchName(from, to string) string {
	return from + "-to-" + to
}

// NewComparisonRecord creates a record that starts out successful.
func NewComparisonRecord(from, to string) *ComparisonRecord {
	return &ComparisonRecord{
		FromBranch: from,
		ToBranch:   to,
		TempBranch: TempBranchName(from, to),
		Status:     StatusSuccess,
		Changes:    make([]*ChangeRecord, 0),
	}
}

// Fail marks the comparison as errored.
func (r *ComparisonRecord) Fail(msg string) {
	r.Status = StatusError
	r.ErrorMessage = msg
}

// SemanticCount returns how many files carry a semantic change.
func (r *ComparisonRecord) SemanticCount() int {
	n := 0
	for _, c := range r.Changes {
		if c.HasSemanticChange {
			n++
		}
	}
	return n
}

// CosmeticCount returns how many files changed only cosmetically.
func (r *ComparisonRecord) CosmeticCount() int {
	return len(r.Changes) - r.SemanticCount()
}

// ConflictCount returns how many files are conflicted.
func (r *ComparisonRecord) ConflictCount() int {
	n := 0
	for _, c := range r.Changes {
		if c.HasConflict {
			n++
		}
	}
	return n
}

package git

import (
	"strings"
)

// StatusEntry is one path from `git status --porcelain=v1 -z`.
type StatusEntry struct {
	// Index and Worktree are the X and Y state columns.
	Index    byte
	Worktree byte
	Path     string
	// OrigPath is the source path of a rename or copy.
	OrigPath string
}

// Code returns the two-letter state code, e.g. "UU" or "M ".
func (e StatusEntry) Code() string {
	return string([]byte{e.Index, e.Worktree})
}

var unmergedCodes = map[string]bool{
	"UU": true, // both modified
	"AA": true, // both added
	"DD": true, // both deleted
	"AU": true, // added by us
	"UA": true, // added by them
	"DU": true, // deleted by us
	"UD": true, // deleted by them
}

// IsUnmerged reports whether the entry is in one of the seven conflict states.
func (e StatusEntry) IsUnmerged() bool {
	return unmergedCodes[e.Code()]
}

// IsChanged reports whether the entry was added, modified, deleted, renamed
// or copied relative to HEAD. Untracked and ignored entries are not changes.
func (e StatusEntry) IsChanged() bool {
	if e.IsUnmerged() || e.Index == '?' || e.Index == '!' {
		return false
	}
	switch e.Index {
	case 'M', 'A', 'D', 'R', 'C', 'T':
		return true
	}
	switch e.Worktree {
	case 'M', 'D', 'T':
		return true
	}
	return false
}

// ParseStatus parses NUL-separated porcelain v1 output.
func ParseStatus(out []byte) []StatusEntry {
	fields := strings.Split(string(out), "\x00")
	var entries []StatusEntry
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if len(f) < 4 {
			continue
		}
		entry := StatusEntry{Index: f[0], Worktree: f[1], Path: f[3:]}
		if entry.Index == 'R' || entry.Index == 'C' {
			// the source path follows as its own field
			if i+1 < len(fields) {
				entry.OrigPath = fields[i+1]
				i++
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

package differ

import (
	"strings"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

const (
	markerOurs   = "<<<<<<<"
	markerBase   = "|||||||"
	markerSep    = "======="
	markerTheirs = ">>>>>>>"
)

type conflictState int

const (
	outside conflictState = iota
	inOurs
	inBase
	inTheirs
)

// ExtractConflicts parses git conflict markers into ordered fragments. Each
// fragment holds the literal text between the markers. Regions that are
// opened but never closed are dropped; their number is returned as
// malformed.
func ExtractConflicts(content string) (fragments []model.ConflictFragment, malformed int) {
	var (
		state              = outside
		start              int
		ours, base, theirs []string
	)

	for i, raw := range strings.Split(content, "\n") {
		line := strings.TrimSuffix(raw, "\r")
		lineNo := i + 1

		if strings.HasPrefix(line, markerOurs) {
			if state != outside {
				malformed++
			}
			state, start = inOurs, lineNo
			ours, base, theirs = nil, nil, nil
			continue
		}

		switch state {
		case inOurs:
			switch {
			case strings.HasPrefix(line, markerBase):
				state = inBase
			case line == markerSep:
				state = inTheirs
			default:
				ours = append(ours, raw)
			}
		case inBase:
			if line == markerSep {
				state = inTheirs
			} else {
				base = append(base, raw)
			}
		case inTheirs:
			if strings.HasPrefix(line, markerTheirs) {
				fragments = append(fragments, newFragment(ours, base, theirs, start, lineNo))
				state = outside
			} else {
				theirs = append(theirs, raw)
			}
		}
	}

	if state != outside {
		malformed++
	}
	return fragments, malformed
}

func newFragment(ours, base, theirs []string, start, end int) model.ConflictFragment {
	f := model.ConflictFragment{
		Ours:      strings.Join(ours, "\n"),
		Base:      strings.Join(base, "\n"),
		Theirs:    strings.Join(theirs, "\n"),
		StartLine: start,
		EndLine:   end,
	}
	f.WhitespaceOnly = whitespaceEqual(f.Ours, f.Theirs)
	f.Similarity = calculateJaccard(tokenize(f.Ours), tokenize(f.Theirs))
	return f
}

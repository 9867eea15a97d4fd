package differ

import (
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/pmezard/go-difflib/difflib"
	"golang.org/x/text/encoding/charmap"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

// decode interprets raw bytes as UTF-8, falling back to ISO-8859-1, which
// maps every byte and therefore never fails.
func decode(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(b)
	if err != nil {
		return string(b)
	}
	return string(out)
}

func readWorkingFile(root, path string) (string, error) {
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(path)))
	if err != nil {
		return "", err
	}
	return decode(data), nil
}

// normalize collapses all whitespace to single spaces for semantic comparison
func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func whitespaceEqual(before, after string) bool {
	return normalize(before) == normalize(after)
}

// splitLines splits on any line terminator without keeping it.
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// lineSummary counts the + and - lines a unified diff of the two contents
// would contain.
func lineSummary(before, after string) *model.Summary {
	m := difflib.NewMatcher(splitLines(before), splitLines(after))
	s := &model.Summary{}
	for _, op := range m.GetOpCodes() {
		switch op.Tag {
		case 'r':
			s.Deletions += op.I2 - op.I1
			s.Additions += op.J2 - op.J1
		case 'd':
			s.Deletions += op.I2 - op.I1
		case 'i':
			s.Additions += op.J2 - op.J1
		}
	}
	s.TotalChanges = s.Additions + s.Deletions
	return s
}

// UnifiedDiff renders a unified diff with three lines of context.
func UnifiedDiff(before, after, fromFile, toFile string) (string, error) {
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: fromFile,
		ToFile:   toFile,
		Context:  3,
	})
}

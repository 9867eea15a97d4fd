// Package differ classifies the change made to a single file as semantic or
// cosmetic. One Differencer exists per recognised format plus a generic
// fallback; all of them share the content, whitespace and summary stages.
package differ

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/simonkoeck/branchdiff/pkg/git"
	"github.com/simonkoeck/branchdiff/pkg/logging"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

// Kind identifies a differencer variant.
type Kind int

const (
	KindGeneric Kind = iota
	KindXML
	KindYAML
	KindProperties
)

// String returns the name recorded in ChangeRecord.Differencer.
func (k Kind) String() string {
	switch k {
	case KindXML:
		return "XMLDiffer"
	case KindYAML:
		return "YAMLDiffer"
	case KindProperties:
		return "PropertiesDiffer"
	default:
		return "GenericDiffer"
	}
}

// ContentSource provides the two endpoints of a simulated merge: committed
// content at a revision and the working tree.
type ContentSource interface {
	Show(ctx context.Context, rev, path string) ([]byte, error)
	Root() string
}

// verdict is the outcome of a format-specific stage.
type verdict int

const (
	// undecided: the stage could not parse or does not apply.
	undecided verdict = iota
	equivalent
	different
)

// formatFunc compares before and after, recording insights into out.
type formatFunc func(before, after string, out map[string]any) verdict

// Differencer analyzes one file. The zero value is the generic differencer.
type Differencer struct {
	kind   Kind
	format formatFunc
}

// Generic returns the fallback text differencer.
func Generic() Differencer { return Differencer{kind: KindGeneric} }

// XML returns the XML differencer.
func XML() Differencer { return Differencer{kind: KindXML, format: compareXML} }

// YAML returns the YAML differencer.
func YAML() Differencer { return Differencer{kind: KindYAML, format: compareYAML} }

// Properties returns the Java-style properties differencer.
func Properties() Differencer { return Differencer{kind: KindProperties, format: compareProperties} }

// Kind returns the variant.
func (d Differencer) Kind() Kind { return d.kind }

// Name returns the variant name.
func (d Differencer) Name() string { return d.kind.String() }

// ForExtension maps a file extension (with or without the leading dot, any
// case) to its differencer.
func ForExtension(ext string) Differencer {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	switch ext {
	case ".xml":
		return XML()
	case ".yml", ".yaml":
		return YAML()
	case ".properties", ".props":
		return Properties()
	default:
		return Generic()
	}
}

// ForPath selects the differencer for a repository path.
func ForPath(path string) Differencer {
	return ForExtension(FileType(path))
}

// FileType returns the lowercase extension of path including the dot.
// Dotfiles without a further extension have no type.
func FileType(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	if ext == base || ext == "." {
		return ""
	}
	return strings.ToLower(ext)
}

// Analyze builds the ChangeRecord for path. Before content is read from HEAD
// (the merge target), after content from the working tree. Conflicted files
// are analyzed from their conflict markers instead. Failures are recorded in
// the returned record's ErrorMessage and never abort the caller.
func (d Differencer) Analyze(ctx context.Context, src ContentSource, path string, conflicted bool) (rec *model.ChangeRecord) {
	rec = model.NewChangeRecord(path, FileType(path), d.Name(), conflicted)
	defer func() {
		if r := recover(); r != nil {
			logging.Error("differencer panicked", "path", path, "differ", d.Name(), "panic", r)
			rec.ErrorMessage = fmt.Sprintf("analysis failed: %v", r)
		}
	}()

	if conflicted {
		d.analyzeConflict(src, rec)
		return rec
	}

	var errs []string
	before, err := src.Show(ctx, "HEAD", path)
	switch {
	case errors.Is(err, git.ErrPathNotFound):
		rec.ContentBefore = ptr("")
	case err != nil:
		errs = append(errs, fmt.Sprintf("read HEAD:%s: %v", path, err))
	default:
		rec.ContentBefore = ptr(decode(before))
	}

	after, err := readWorkingFile(src.Root(), path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		rec.ContentAfter = ptr("")
	case err != nil:
		errs = append(errs, fmt.Sprintf("read working tree %s: %v", path, err))
	default:
		rec.ContentAfter = ptr(after)
	}

	if len(errs) > 0 {
		rec.ErrorMessage = strings.Join(errs, "; ")
	}
	d.classify(rec)
	return rec
}

// AnalyzeContents classifies a change from in-memory content.
func (d Differencer) AnalyzeContents(path, before, after string) (rec *model.ChangeRecord) {
	rec = model.NewChangeRecord(path, FileType(path), d.Name(), false)
	defer func() {
		if r := recover(); r != nil {
			rec.ErrorMessage = fmt.Sprintf("analysis failed: %v", r)
		}
	}()
	rec.ContentBefore = ptr(before)
	rec.ContentAfter = ptr(after)
	d.classify(rec)
	return rec
}

// AnalyzeConflictContent builds the record for a conflicted file from its
// raw content.
func (d Differencer) AnalyzeConflictContent(path, content string) *model.ChangeRecord {
	rec := model.NewChangeRecord(path, FileType(path), d.Name(), true)
	recordConflicts(rec, content)
	return rec
}

func (d Differencer) analyzeConflict(src ContentSource, rec *model.ChangeRecord) {
	content, err := readWorkingFile(src.Root(), rec.FilePath)
	if errors.Is(err, fs.ErrNotExist) {
		rec.ErrorMessage = "conflicted file is not present in the working tree"
		return
	} else if err != nil {
		rec.ErrorMessage = fmt.Sprintf("read working tree %s: %v", rec.FilePath, err)
		return
	}
	recordConflicts(rec, content)
}

func recordConflicts(rec *model.ChangeRecord, content string) {
	rec.ConflictContent = content
	fragments, malformed := ExtractConflicts(content)
	rec.Detailed.Conflicts = fragments
	rec.Detailed.MalformedConflicts = malformed
}

// classify runs the shared stages and then the format-specific one.
// The format stage may lower the semantic flag when it proves equivalence;
// it never raises a flag the whitespace stage already cleared, but records
// that the whitespace comparison masked a difference.
func (d Differencer) classify(rec *model.ChangeRecord) {
	if rec.ContentBefore == nil || rec.ContentAfter == nil {
		return
	}
	before, after := *rec.ContentBefore, *rec.ContentAfter
	rec.Summary = lineSummary(before, after)

	// an added or deleted file is semantic however blank it is
	if before == "" || after == "" {
		return
	}

	wsOnly := whitespaceEqual(before, after)
	rec.Detailed.WhitespaceOnly = &wsOnly
	if wsOnly {
		rec.HasSemanticChange = false
	}
	if d.format == nil {
		return
	}

	switch d.format(before, after, rec.FormatSpecific) {
	case equivalent:
		rec.HasSemanticChange = false
	case different:
		if wsOnly {
			rec.Detailed.MaskedByWhitespace = true
		}
	}
}

func ptr(s string) *string { return &s }

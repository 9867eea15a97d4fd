// Package output provides the JSON hand-off format for comparison records.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

// RunSummary aggregates the outcome of a run over all pairs.
type RunSummary struct {
	Comparisons     int `json:"comparisons"`
	Succeeded       int `json:"succeeded"`
	Conflicted      int `json:"conflicted"`
	Failed          int `json:"failed"`
	FilesChanged    int `json:"files_changed"`
	SemanticChanges int `json:"semantic_changes"`
	CosmeticChanges int `json:"cosmetic_changes"`
}

// Summarize counts records by status and files by classification.
func Summarize(records []*model.ComparisonRecord) RunSummary {
	s := RunSummary{Comparisons: len(records)}
	for _, r := range records {
		switch r.Status {
		case model.StatusSuccess:
			s.Succeeded++
		case model.StatusConflict:
			s.Conflicted++
		case model.StatusError:
			s.Failed++
		}
		s.FilesChanged += len(r.Changes)
		s.SemanticChanges += r.SemanticCount()
		s.CosmeticChanges += r.CosmeticCount()
	}
	return s
}

// WriteJSON writes the records as an indented JSON array.
func WriteJSON(w io.Writer, records []*model.ComparisonRecord) error {
	if records == nil {
		records = []*model.ComparisonRecord{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(records)
}

// WriteJSONStdout writes the records as JSON to stdout.
func WriteJSONStdout(records []*model.ComparisonRecord) error {
	return WriteJSON(os.Stdout, records)
}

// ReadJSON decodes records written by WriteJSON.
func ReadJSON(r io.Reader) ([]*model.ComparisonRecord, error) {
	var records []*model.ComparisonRecord
	if err := json.NewDecoder(r).Decode(&records); err != nil {
		return nil, fmt.Errorf("decode comparison records: %w", err)
	}
	return records, nil
}

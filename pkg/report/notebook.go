package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// nbformat 4.5 is the first minor version with mandatory cell ids.
const (
	nbformatMajor = 4
	nbformatMinor = 5
)

type notebook struct {
	Cells         []notebookCell `json:"cells"`
	Metadata      map[string]any `json:"metadata"`
	NBFormat      int            `json:"nbformat"`
	NBFormatMinor int            `json:"nbformat_minor"`
}

type notebookCell struct {
	ID       string         `json:"id"`
	CellType string         `json:"cell_type"`
	Metadata map[string]any `json:"metadata"`
	Source   []string       `json:"source"`
}

// WriteNotebook writes d as a Jupyter notebook of Markdown cells.
func WriteNotebook(w io.Writer, d *Document) error {
	nb := notebook{
		Cells: make([]notebookCell, 0, len(d.Cells)),
		Metadata: map[string]any{
			"kernelspec": map[string]any{
				"display_name": "Python 3",
				"language":     "python",
				"name":         "python3",
			},
			"branchdiff": map[string]any{
				"run_id":       d.RunID,
				"generated_at": d.GeneratedAt.Format(timestampLayout),
			},
		},
		NBFormat:      nbformatMajor,
		NBFormatMinor: nbformatMinor,
	}
	for i, cell := range d.Cells {
		nb.Cells = append(nb.Cells, notebookCell{
			ID:       fmt.Sprintf("cell-%d", i+1),
			CellType: "markdown",
			Metadata: map[string]any{},
			Source:   sourceLines(cell),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.SetEscapeHTML(false)
	return enc.Encode(nb)
}

// sourceLines splits s the way nbformat stores multi-line strings: every
// line keeps its newline except the last.
func sourceLines(s string) []string {
	lines := strings.SplitAfter(s, "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines
}

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/simonkoeck/branchdiff/pkg/differ"
	"github.com/simonkoeck/branchdiff/pkg/model"
)

type counter struct {
	key, label string
}

var (
	xmlCounters = []counter{
		{"elements_added", "Elements added"},
		{"elements_removed", "Elements removed"},
		{"elements_reordered", "Elements reordered"},
		{"attributes_reordered", "Attributes reordered"},
		{"attribute_changes", "Attribute value changes"},
		{"text_changes", "Text content changes"},
		{"namespace_changes", "Namespace changes"},
	}
	yamlCounters = []counter{
		{"key_reordering", "Keys reordered"},
		{"semantic_differences", "Semantic differences"},
		{"style_changes", "Style changes"},
	}
	propertiesCounters = []counter{
		{"added_properties", "Properties added"},
		{"removed_properties", "Properties removed"},
		{"value_changes", "Property value changes"},
		{"reordered_properties", "Properties reordered"},
	}
)

// formatInsights lists the non-zero format-specific findings of c.
func formatInsights(c *model.ChangeRecord) string {
	fs := c.FormatSpecific
	if len(fs) == 0 {
		return ""
	}

	var lines []string
	switch c.Differencer {
	case differ.KindXML.String():
		lines = counterLines(fs, xmlCounters)
	case differ.KindYAML.String():
		if b, _ := fs["document_count_changed"].(bool); b {
			lines = append(lines, "- Document count changed")
		}
		lines = append(lines, counterLines(fs, yamlCounters)...)
		if keys := asStrings(fs["changed_keys"]); len(keys) > 0 {
			lines = append(lines, "- Changed keys: "+strings.Join(keys, ", "))
		}
	case differ.KindProperties.String():
		lines = counterLines(fs, propertiesCounters)
	default:
		keys := make([]string, 0, len(fs))
		for k := range fs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			lines = append(lines, fmt.Sprintf("- %s: %v", readableKey(k), fs[k]))
		}
	}

	if msg, ok := fs["parse_error"].(string); ok {
		lines = append(lines, "- **Parse Error:** "+msg)
	}
	return strings.Join(lines, "\n")
}

func counterLines(fs map[string]any, counters []counter) []string {
	var lines []string
	for _, c := range counters {
		if n := asInt(fs[c.key]); n > 0 {
			lines = append(lines, fmt.Sprintf("- %s: %d", c.label, n))
		}
	}
	return lines
}

// asInt accepts ints as produced by the differencers and float64 as
// produced by a JSON round trip.
func asInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	}
	return 0
}

func asStrings(v any) []string {
	switch s := v.(type) {
	case []string:
		return s
	case []any:
		out := make([]string, 0, len(s))
		for _, e := range s {
			out = append(out, fmt.Sprint(e))
		}
		return out
	}
	return nil
}

func readableKey(k string) string {
	words := strings.Split(k, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

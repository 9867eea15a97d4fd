package differ

import (
	"errors"
	"io"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlDocument is one document of a YAML stream.
type yamlDocument struct {
	value any
	// keys holds the top-level mapping keys in source order; nil when the
	// document root is not a mapping.
	keys []string
}

// parseYAMLStream decodes every document in content. Decoding into plain Go
// values never constructs application types.
func parseYAMLStream(content string) ([]yamlDocument, error) {
	dec := yaml.NewDecoder(strings.NewReader(content))
	var docs []yamlDocument
	for {
		var node yaml.Node
		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return docs, nil
		}
		if err != nil {
			return nil, err
		}

		var doc yamlDocument
		if err := node.Decode(&doc.value); err != nil {
			return nil, err
		}
		if len(node.Content) > 0 && node.Content[0].Kind == yaml.MappingNode {
			root := node.Content[0]
			for i := 0; i+1 < len(root.Content); i += 2 {
				doc.keys = append(doc.keys, root.Content[i].Value)
			}
		}
		docs = append(docs, doc)
	}
}

// yamlStructuresEqual compares decoded values: mappings ignore key order,
// sequences compare position by position, scalars must match in type and value.
func yamlStructuresEqual(a, b any) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}

	switch av := a.(type) {
	case map[string]any:
		bv := b.(map[string]any)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !yamlStructuresEqual(v, w) {
				return false
			}
		}
		return true
	case map[any]any:
		bv := b.(map[any]any)
		if len(av) != len(bv) {
			return false
		}
		for k, v := range av {
			w, ok := bv[k]
			if !ok || !yamlStructuresEqual(v, w) {
				return false
			}
		}
		return true
	case []any:
		bv := b.([]any)
		if len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !yamlStructuresEqual(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

func isMapping(v any) bool {
	switch v.(type) {
	case map[string]any, map[any]any:
		return true
	}
	return false
}

// compareYAML compares two YAML streams document by document.
func compareYAML(before, after string, out map[string]any) verdict {
	docsBefore, err := parseYAMLStream(before)
	if err == nil {
		var docsAfter []yamlDocument
		docsAfter, err = parseYAMLStream(after)
		if err == nil {
			v := compareYAMLDocuments(docsBefore, docsAfter, out)
			if v == different {
				if keys := changedTopLevelKeys([]byte(before), []byte(after)); len(keys) > 0 {
					out["changed_keys"] = keys
				}
			}
			return v
		}
	}
	out["parse_error"] = err.Error()
	return undecided
}

func compareYAMLDocuments(before, after []yamlDocument, out map[string]any) verdict {
	countChanged := len(before) != len(after)
	var reordered, differences int

	for i := 0; i < len(before) && i < len(after); i++ {
		d1, d2 := before[i], after[i]
		if !yamlStructuresEqual(d1.value, d2.value) {
			differences++
			continue
		}
		if isMapping(d1.value) && !reflect.DeepEqual(d1.keys, d2.keys) {
			reordered++
		}
	}

	out["document_count_changed"] = countChanged
	out["key_reordering"] = reordered
	out["semantic_differences"] = differences
	out["style_changes"] = 0

	if differences == 0 && !countChanged {
		return equivalent
	}
	return different
}

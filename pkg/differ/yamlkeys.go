package differ

import (
	"context"
	"sort"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	tsyaml "github.com/smacker/go-tree-sitter/yaml"
)

// yamlKey is a top-level mapping entry located in the source text.
type yamlKey struct {
	Name      string
	Body      string
	StartLine uint32
	EndLine   uint32
}

// topLevelYAMLKeys extracts the outermost mapping pairs of every document.
// The tree-sitter grammar tolerates partial input, so keys are found even in
// files yaml.v3 rejects.
func topLevelYAMLKeys(content []byte) []yamlKey {
	parser := sitter.NewParser()
	parser.SetLanguage(tsyaml.GetLanguage())

	tree, err := parser.ParseCtx(context.Background(), nil, content)
	if err != nil {
		return nil
	}

	var keys []yamlKey
	extractYAMLKeys(tree.RootNode(), content, &keys)
	return keys
}

func extractYAMLKeys(node *sitter.Node, content []byte, keys *[]yamlKey) {
	if node == nil {
		return
	}

	nodeType := node.Type()
	if nodeType == "block_mapping_pair" || nodeType == "flow_pair" {
		if node.NamedChildCount() > 0 {
			if keyNode := node.NamedChild(0); keyNode != nil {
				name := strings.Trim(keyNode.Content(content), "\"'")
				if name != "" {
					*keys = append(*keys, yamlKey{
						Name:      name,
						Body:      node.Content(content),
						StartLine: node.StartPoint().Row,
						EndLine:   node.EndPoint().Row,
					})
				}
			}
		}
		// nested keys belong to their parent
		return
	}

	for i := 0; i < int(node.NamedChildCount()); i++ {
		extractYAMLKeys(node.NamedChild(i), content, keys)
	}
}

func mapYAMLKeys(keys []yamlKey) map[string]string {
	m := make(map[string]string, len(keys))
	for _, k := range keys {
		m[k.Name] += normalize(k.Body)
	}
	return m
}

// changedTopLevelKeys lists, sorted, the top-level keys that were added,
// removed, or whose text differs beyond whitespace.
func changedTopLevelKeys(before, after []byte) []string {
	keysBefore := mapYAMLKeys(topLevelYAMLKeys(before))
	keysAfter := mapYAMLKeys(topLevelYAMLKeys(after))

	var changed []string
	for name, body := range keysBefore {
		if other, ok := keysAfter[name]; !ok || other != body {
			changed = append(changed, name)
		}
	}
	for name := range keysAfter {
		if _, ok := keysBefore[name]; !ok {
			changed = append(changed, name)
		}
	}
	sort.Strings(changed)
	return changed
}

package differ

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

// xmlElement is the part of an element the comparison looks at.
type xmlElement struct {
	tag   string
	attrs []xmlAttr
	// text is the character data before the first child element.
	text     string
	sawChild bool
}

type xmlAttr struct {
	name, value string
}

func (e *xmlElement) attr(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// signature identifies an element by tag and sorted attributes.
func (e *xmlElement) signature() string {
	pairs := make([]string, len(e.attrs))
	sorted := append([]xmlAttr(nil), e.attrs...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].name < sorted[j].name })
	for i, a := range sorted {
		pairs[i] = a.name + "=" + a.value
	}
	return fmt.Sprintf("%s[%s]", e.tag, strings.Join(pairs, ","))
}

func qualifiedName(n xml.Name) string {
	if n.Space == "" {
		return n.Local
	}
	return "{" + n.Space + "}" + n.Local
}

func isNamespaceDecl(a xml.Attr) bool {
	return a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns")
}

// parseXML returns every element of a single-rooted document in document order.
func parseXML(content string) ([]*xmlElement, error) {
	dec := xml.NewDecoder(strings.NewReader(content))
	// content is already decoded to UTF-8 whatever the prolog declares
	dec.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }

	var (
		all      []*xmlElement
		stack    []*xmlElement
		rootSeen bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) == 0 {
				if rootSeen {
					return nil, fmt.Errorf("junk after document element: line %d", lineOf(dec, content))
				}
				rootSeen = true
			} else {
				stack[len(stack)-1].sawChild = true
			}
			el := &xmlElement{tag: qualifiedName(t.Name)}
			for _, a := range t.Attr {
				if isNamespaceDecl(a) {
					continue
				}
				el.attrs = append(el.attrs, xmlAttr{name: qualifiedName(a.Name), value: a.Value})
			}
			all = append(all, el)
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) == 0 {
				if strings.TrimSpace(string(t)) != "" {
					return nil, fmt.Errorf("text outside document element: line %d", lineOf(dec, content))
				}
				continue
			}
			if top := stack[len(stack)-1]; !top.sawChild {
				top.text += string(t)
			}
		}
	}

	if !rootSeen {
		return nil, errors.New("no element found")
	}
	return all, nil
}

func lineOf(dec *xml.Decoder, content string) int {
	off := int(dec.InputOffset())
	if off > len(content) {
		off = len(content)
	}
	return strings.Count(content[:off], "\n") + 1
}

func indexBySignature(elements []*xmlElement) map[string]*xmlElement {
	m := make(map[string]*xmlElement, len(elements))
	for _, e := range elements {
		m[e.signature()] = e
	}
	return m
}

// compareXML compares the element signature sets of two documents.
func compareXML(before, after string, out map[string]any) verdict {
	elemsBefore, err := parseXML(before)
	if err == nil {
		var elemsAfter []*xmlElement
		elemsAfter, err = parseXML(after)
		if err == nil {
			return compareXMLTrees(elemsBefore, elemsAfter, out)
		}
	}
	out["parse_error"] = err.Error()
	return undecided
}

func compareXMLTrees(before, after []*xmlElement, out map[string]any) verdict {
	sigBefore := indexBySignature(before)
	sigAfter := indexBySignature(after)

	var added, removed, attrsReordered, attrChanges, textChanges int
	for sig := range sigAfter {
		if _, ok := sigBefore[sig]; !ok {
			added++
		}
	}
	for sig, e1 := range sigBefore {
		e2, ok := sigAfter[sig]
		if !ok {
			removed++
			continue
		}

		if attrOrderDiffers(e1, e2) {
			attrsReordered++
		}
		for _, a := range e1.attrs {
			if v, ok := e2.attr(a.name); !ok || v != a.value {
				attrChanges++
			}
		}
		if strings.TrimSpace(e1.text) != strings.TrimSpace(e2.text) {
			textChanges++
		}
	}

	out["elements_added"] = added
	out["elements_removed"] = removed
	out["elements_reordered"] = 0
	out["attributes_reordered"] = attrsReordered
	out["attribute_changes"] = attrChanges
	out["text_changes"] = textChanges
	out["namespace_changes"] = 0

	if added == 0 && removed == 0 && attrChanges == 0 && textChanges == 0 {
		return equivalent
	}
	return different
}

// attrOrderDiffers reports the same attribute set written in a different order.
func attrOrderDiffers(a, b *xmlElement) bool {
	if len(a.attrs) != len(b.attrs) {
		return false
	}
	sameOrder := true
	for i := range a.attrs {
		if a.attrs[i].name != b.attrs[i].name {
			sameOrder = false
		}
		if _, ok := b.attr(a.attrs[i].name); !ok {
			return false
		}
	}
	return !sameOrder
}

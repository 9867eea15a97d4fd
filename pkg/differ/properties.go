package differ

import (
	"slices"
	"strings"
)

// properties is an insertion-ordered key/value set. A repeated key keeps its
// first position and its last value.
type properties struct {
	keys   []string
	values map[string]string
}

func (p *properties) set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// parseProperties reads Java-style properties: '#' and '!' start comments,
// the first '=' or ':' separates key from value, and a trailing backslash
// joins the next line onto the current one. Lines without a separator are
// keys with an empty value.
func parseProperties(content string) *properties {
	p := &properties{values: make(map[string]string)}

	var logical strings.Builder
	continuing := false
	for _, raw := range splitLines(content) {
		line := strings.TrimSpace(raw)

		if !continuing {
			if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
				continue
			}
			logical.Reset()
		}

		if endsWithContinuation(line) {
			logical.WriteString(line[:len(line)-1])
			continuing = true
			continue
		}
		logical.WriteString(line)
		continuing = false
		p.addLine(logical.String())
	}
	if continuing {
		p.addLine(logical.String())
	}
	return p
}

// endsWithContinuation reports an odd number of trailing backslashes.
func endsWithContinuation(line string) bool {
	n := 0
	for i := len(line) - 1; i >= 0 && line[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

func (p *properties) addLine(line string) {
	idx := strings.IndexAny(line, "=:")
	if idx < 0 {
		p.set(strings.TrimSpace(line), "")
		return
	}
	p.set(strings.TrimSpace(line[:idx]), strings.TrimSpace(line[idx+1:]))
}

// compareProperties compares two properties files key by key.
func compareProperties(before, after string, out map[string]any) verdict {
	p1 := parseProperties(before)
	p2 := parseProperties(after)

	var added, removed, valueChanges int
	for _, k := range p2.keys {
		if _, ok := p1.values[k]; !ok {
			added++
		}
	}
	for _, k := range p1.keys {
		v2, ok := p2.values[k]
		if !ok {
			removed++
		} else if v2 != p1.values[k] {
			valueChanges++
		}
	}

	reordered := 0
	if added == 0 && removed == 0 && !slices.Equal(p1.keys, p2.keys) {
		reordered = len(p1.keys)
	}

	out["added_properties"] = added
	out["removed_properties"] = removed
	out["value_changes"] = valueChanges
	out["reordered_properties"] = reordered

	if added == 0 && removed == 0 && valueChanges == 0 {
		return equivalent
	}
	return different
}

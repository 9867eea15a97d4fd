package config

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/samber/lo"

	"github.com/simonkoeck/branchdiff/pkg/model"
)

// ParsePair parses "from:to".
func ParsePair(s string) (model.BranchPair, error) {
	from, to, ok := strings.Cut(s, ":")
	if !ok {
		return model.BranchPair{}, fmt.Errorf("invalid pair %q (expected 'from:to')", s)
	}
	return checkPair(s, model.BranchPair{From: strings.TrimSpace(from), To: strings.TrimSpace(to)})
}

// parsePairLine parses one pairs-file line: "from:to", or "from-to" split at
// the first hyphen when the line has no colon.
func parsePairLine(line string) (model.BranchPair, error) {
	if strings.Contains(line, ":") {
		return ParsePair(line)
	}
	from, to, ok := strings.Cut(line, "-")
	if !ok {
		return model.BranchPair{}, fmt.Errorf("invalid pair %q (expected 'from:to' or 'from-to')", line)
	}
	return checkPair(line, model.BranchPair{From: strings.TrimSpace(from), To: strings.TrimSpace(to)})
}

var pairValidator = validator.New()

func checkPair(raw string, p model.BranchPair) (model.BranchPair, error) {
	if err := pairValidator.Struct(p); err != nil {
		return model.BranchPair{}, fmt.Errorf("invalid pair %q: both branch names are required", raw)
	}
	return p, nil
}

// ReadPairs parses a pairs file: one pair per line, blank lines and lines
// starting with '#' ignored.
func ReadPairs(r io.Reader) ([]model.BranchPair, error) {
	var pairs []model.BranchPair
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		p, err := parsePairLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		pairs = append(pairs, p)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}

// Bidirectional adds the reverse of every pair right after it.
func Bidirectional(pairs []model.BranchPair) []model.BranchPair {
	return lo.FlatMap(pairs, func(p model.BranchPair, _ int) []model.BranchPair {
		return []model.BranchPair{p, p.Reverse()}
	})
}

// BranchPairs resolves the pairs to compare. A pairs file takes precedence
// over inline pairs; with neither, DefaultPairs are used.
func (c *Config) BranchPairs() ([]model.BranchPair, error) {
	var pairs []model.BranchPair
	switch {
	case c.PairsFile != "":
		f, err := os.Open(c.PairsFile)
		if err != nil {
			return nil, fmt.Errorf("open pairs file: %w", err)
		}
		defer f.Close()
		if pairs, err = ReadPairs(f); err != nil {
			return nil, fmt.Errorf("%s: %w", c.PairsFile, err)
		}
	case len(c.Pairs) > 0:
		for _, s := range c.Pairs {
			p, err := ParsePair(s)
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, p)
		}
	default:
		pairs = append(pairs, DefaultPairs...)
	}

	if c.Bidirectional {
		pairs = Bidirectional(pairs)
	}
	return pairs, nil
}

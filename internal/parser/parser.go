// Package parser turns a unified diff of a requirements listing into the
// ordered list of dependency changes the retrieval engine consumes.
package parser

import (
	"regexp"
	"strings"

	"github.com/sourcegraph/go-diff/diff"

	"github.com/quantmind-br/depdiff/internal/domain"
)

// requirementRe matches a pinned requirement line: package name, optional
// extras, a version specifier operator and the version. Only the first
// specifier of a line is considered.
var requirementRe = regexp.MustCompile(`^\s*([A-Za-z0-9][A-Za-z0-9._-]*)\s*(?:\[[^\]]*\])?\s*(?:===|==|~=|>=|<=)\s*([^\s,;#]+)`)

// Parser parses unified diff input to identify dependency changes.
type Parser struct{}

// NewParser creates a new Parser
func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts dependency changes from a unified diff of a requirements
// file. Added lines set the new version, removed lines the old version; a
// package appearing on both sides becomes a single update. Changes keep
// first-seen order. Lines that are not valid requirements are skipped.
func (p *Parser) Parse(content string) ([]domain.DependencyChange, error) {
	changes := make(map[string]*domain.DependencyChange)
	var order []string

	record := func(name, version string, added bool) {
		change, ok := changes[name]
		if !ok {
			change = &domain.DependencyChange{Name: name}
			changes[name] = change
			order = append(order, name)
		}
		if added {
			change.NewVersion = version
		} else {
			change.OldVersion = version
		}
	}

	for _, line := range diffLines(content) {
		if len(line) < 2 {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+") && !strings.HasPrefix(line, "++"):
			if name, version, ok := parseRequirement(line[1:]); ok {
				record(name, version, true)
			}
		case strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "--"):
			if name, version, ok := parseRequirement(line[1:]); ok {
				record(name, version, false)
			}
		}
	}

	result := make([]domain.DependencyChange, 0, len(order))
	for _, name := range order {
		result = append(result, *changes[name])
	}
	return result, nil
}

// diffLines extracts the +/- body lines of the input. Well-formed diffs are
// parsed structurally; input without file headers (a bare hunk, or raw
// +/- lines) falls back to a line scan.
func diffLines(content string) []string {
	fileDiffs, err := diff.ParseMultiFileDiff([]byte(content))
	if err != nil || len(fileDiffs) == 0 {
		return strings.Split(content, "\n")
	}

	var lines []string
	for _, fd := range fileDiffs {
		for _, hunk := range fd.Hunks {
			lines = append(lines, strings.Split(string(hunk.Body), "\n")...)
		}
	}
	return lines
}

// parseRequirement parses one requirement line into name and version.
func parseRequirement(line string) (string, string, bool) {
	m := requirementRe.FindStringSubmatch(line)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// Package report renders the aggregated diff results as a plain-text
// report, one section per package in retrieval order.
package report

import (
	"fmt"
	"strings"

	"github.com/quantmind-br/depdiff/internal/domain"
)

const headerWidth = 80

// Generator formats diff results into a human-readable report.
type Generator struct{}

// NewGenerator creates a new Generator
func NewGenerator() *Generator {
	return &Generator{}
}

// Generate renders one section per result, preserving result order. Failed
// changes are reported with their error reason instead of a diff.
func (g *Generator) Generate(results []domain.DiffResult) string {
	if len(results) == 0 {
		return ""
	}

	var sections []string
	for _, result := range results {
		sections = append(sections, formatHeader(result.PackageName))
		sections = append(sections, strings.TrimRight(body(result), "\n"))
		sections = append(sections, "")
	}

	// Drop the trailing blank line.
	if sections[len(sections)-1] == "" {
		sections = sections[:len(sections)-1]
	}

	return strings.Join(sections, "\n")
}

func body(result domain.DiffResult) string {
	switch result.Status {
	case domain.StatusFailed:
		return fmt.Sprintf("Error retrieving diff: %v", result.Err)
	case domain.StatusEmpty:
		return fmt.Sprintf("No source changes between releases (retrieved via %s).", result.Source)
	default:
		return result.UnifiedDiff
	}
}

// formatHeader creates the visual separator header for a package section.
func formatHeader(packageName string) string {
	separator := strings.Repeat("=", headerWidth)
	title := fmt.Sprintf(" DIFF FOR PACKAGE: %s ", strings.ToUpper(packageName))

	padding := (headerWidth - len(title)) / 2
	if padding < 0 {
		padding = 0
	}
	rest := headerWidth - padding - len(title)
	if rest < 0 {
		rest = 0
	}
	headerLine := strings.Repeat("=", padding) + title + strings.Repeat("=", rest)

	return separator + "\n" + headerLine + "\n" + separator
}

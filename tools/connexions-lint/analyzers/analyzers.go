// Package analyzers provides the custom static analyzers for connexions.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/connexions/tools/connexions-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
	}
}

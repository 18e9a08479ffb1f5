// connexions-lint flags per-row store lookups and regexp compilation in loops.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/connexions/tools/connexions-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}

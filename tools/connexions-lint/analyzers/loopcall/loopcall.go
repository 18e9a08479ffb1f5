// Package loopcall detects single-row store lookups and regexp compilation
// inside loops.
package loopcall

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/passes/inspect"
	"golang.org/x/tools/go/ast/inspector"
)

// Analyzer reports calls inside loops that should be batched or hoisted.
var Analyzer = &analysis.Analyzer{
	Name:     "loopcall",
	Doc:      "detects single-row store lookups and regexp compilation inside loops",
	Requires: []*analysis.Analyzer{inspect.Analyzer},
	Run:      run,
}

// batchable maps single-row lookups to the call that loads many at once.
var batchable = map[string]string{
	"FindUserByID":            "FindUsersByIDs",
	"GetRecord":               "SearchRecords",
	"FindRelationshipsByUser": "ListRelationships",
}

var regexpFuncs = map[string]bool{
	"Compile":          true,
	"MustCompile":      true,
	"CompilePOSIX":     true,
	"MustCompilePOSIX": true,
}

func run(pass *analysis.Pass) (interface{}, error) {
	inspect := pass.ResultOf[inspect.Analyzer].(*inspector.Inspector)

	nodeFilter := []ast.Node{
		(*ast.RangeStmt)(nil),
		(*ast.ForStmt)(nil),
	}

	inspect.Preorder(nodeFilter, func(n ast.Node) {
		var body *ast.BlockStmt
		switch stmt := n.(type) {
		case *ast.RangeStmt:
			body = stmt.Body
		case *ast.ForStmt:
			body = stmt.Body
		}
		if body == nil {
			return
		}

		ast.Inspect(body, func(n ast.Node) bool {
			// Nested loops are visited on their own.
			switch n.(type) {
			case *ast.RangeStmt, *ast.ForStmt, *ast.FuncLit:
				return false
			}

			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			sel, ok := call.Fun.(*ast.SelectorExpr)
			if !ok {
				return true
			}

			name := sel.Sel.Name
			if ident, ok := sel.X.(*ast.Ident); ok && ident.Name == "regexp" {
				if regexpFuncs[name] {
					pass.Reportf(call.Pos(), "regexp.%s called inside loop - compile once outside loop", name)
				}
				return true
			}
			if batch, ok := batchable[name]; ok {
				pass.Reportf(call.Pos(), "potential N+1: %s called inside loop - load with %s", name, batch)
			}
			return true
		})
	})

	return nil, nil
}

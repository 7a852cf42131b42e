// Package clocknow provides a linter that reports wall clock reads outside the
// clock package.
//
// Session timing and reminder scheduling take their time from clock.Clock so
// tests can drive them with a manual clock. A stray time.Now() in those paths
// makes them depend on the real wall clock again.
//
// Example violations:
//
//	deadline := time.Now().Add(d)       // Bad
//	deadline := s.clock.Now().Add(d)    // Good
//
//	t := time.NewTicker(time.Second)    // Bad
//	t := s.clock.NewTicker(time.Second) // Good
//
// Test files and the clock package itself are not checked. The linter respects
// //nolint and //nolint:clocknow comments on the same or the preceding line.
package clocknow

import (
	"go/ast"
	"go/types"
	"path"
	"strings"

	"golang.org/x/tools/go/analysis"
)

// Analyzer reports calls to wall clock functions of package time.
var Analyzer = &analysis.Analyzer{
	Name: "clocknow",
	Doc:  "checks that the wall clock is read through clock.Clock instead of package time",
	Run:  run,
}

// wallClock lists the functions of package time that read or wait on the wall clock.
var wallClock = map[string]bool{
	"Now":       true,
	"Since":     true,
	"Until":     true,
	"After":     true,
	"AfterFunc": true,
	"Sleep":     true,
	"Tick":      true,
	"NewTicker": true,
	"NewTimer":  true,
}

func run(pass *analysis.Pass) (any, error) {
	if path.Base(pass.Pkg.Path()) == "clock" {
		return nil, nil
	}

	for _, file := range pass.Files {
		if strings.HasSuffix(pass.Fset.Position(file.Pos()).Filename, "_test.go") {
			continue
		}
		ast.Inspect(file, func(n ast.Node) bool {
			call, ok := n.(*ast.CallExpr)
			if !ok {
				return true
			}
			name, ok := wallClockCall(pass, call)
			if !ok || hasNolintComment(pass, file, call) {
				return true
			}
			pass.Reportf(call.Pos(), "time.%s reads the wall clock; use clock.Clock instead", name)
			return true
		})
	}
	return nil, nil
}

// wallClockCall reports whether call is one of the wallClock functions and returns its name.
func wallClockCall(pass *analysis.Pass, call *ast.CallExpr) (string, bool) {
	sel, ok := call.Fun.(*ast.SelectorExpr)
	if !ok || !wallClock[sel.Sel.Name] {
		return "", false
	}
	fn, ok := pass.TypesInfo.Uses[sel.Sel].(*types.Func)
	if !ok || fn.Pkg() == nil || fn.Pkg().Path() != "time" {
		return "", false
	}
	if fn.Type().(*types.Signature).Recv() != nil {
		return "", false
	}
	return sel.Sel.Name, true
}

func hasNolintComment(pass *analysis.Pass, file *ast.File, call *ast.CallExpr) bool {
	line := pass.Fset.Position(call.Pos()).Line
	for _, cg := range file.Comments {
		for _, c := range cg.List {
			cl := pass.Fset.Position(c.Pos()).Line
			if cl != line && cl != line-1 {
				continue
			}
			text := strings.TrimSpace(strings.TrimPrefix(c.Text, "//"))
			directive, _, _ := strings.Cut(text, " ")
			if directive == "nolint" {
				return true
			}
			if linters, ok := strings.CutPrefix(directive, "nolint:"); ok {
				for l := range strings.SplitSeq(linters, ",") {
					if l == "clocknow" {
						return true
					}
				}
			}
		}
	}
	return false
}

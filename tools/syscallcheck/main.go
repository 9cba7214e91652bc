// Command syscallcheck is a dev-time self-check, not part of the kernel's
// build (grounded on the teacher's misc/depgraph/main.go convention of
// shipping small AST-driven tools alongside the kernel rather than inside
// it). It loads internal/kernel with golang.org/x/tools/go/packages and
// verifies that every SysXxx syscall-code constant declared in trap.go has
// a matching case in the kernel-trap dispatch switch, so a syscall added
// to the table can never silently fall through to ENOSYS.
package main

import (
	"fmt"
	"go/ast"
	"go/token"
	"os"
	"strings"

	"golang.org/x/tools/go/packages"
)

func main() {
	cfg := &packages.Config{
		Mode: packages.NeedName | packages.NeedSyntax | packages.NeedTypes |
			packages.NeedTypesInfo | packages.NeedFiles,
	}
	pkgs, err := packages.Load(cfg, "oscore/internal/kernel")
	if err != nil {
		fmt.Fprintf(os.Stderr, "syscallcheck: loading package: %v\n", err)
		os.Exit(1)
	}
	if packages.PrintErrors(pkgs) > 0 {
		os.Exit(1)
	}

	var codes []string
	var cases = map[string]bool{}
	var sawDefault bool

	for _, pkg := range pkgs {
		for _, file := range pkg.Syntax {
			for _, decl := range file.Decls {
				switch d := decl.(type) {
				case *ast.GenDecl:
					if d.Tok != token.CONST {
						continue
					}
					for _, spec := range d.Specs {
						vs, ok := spec.(*ast.ValueSpec)
						if !ok {
							continue
						}
						for _, name := range vs.Names {
							if strings.HasPrefix(name.Name, "Sys") {
								codes = append(codes, name.Name)
							}
						}
					}
				case *ast.FuncDecl:
					if d.Name.Name != "syscall" || d.Recv == nil {
						continue
					}
					ast.Inspect(d.Body, func(n ast.Node) bool {
						sw, ok := n.(*ast.SwitchStmt)
						if !ok {
							return true
						}
						for _, stmt := range sw.Body.List {
							cc, ok := stmt.(*ast.CaseClause)
							if !ok {
								continue
							}
							if cc.List == nil {
								sawDefault = true
								continue
							}
							for _, expr := range cc.List {
								if id, ok := expr.(*ast.Ident); ok {
									cases[id.Name] = true
								}
							}
						}
						return false
					})
				}
			}
		}
	}

	if !sawDefault {
		fmt.Fprintln(os.Stderr, "syscallcheck: dispatch switch has no default case")
		os.Exit(1)
	}

	missing := 0
	for _, code := range codes {
		if !cases[code] {
			fmt.Fprintf(os.Stderr, "syscallcheck: %s has no case in the dispatch switch\n", code)
			missing++
		}
	}
	if missing > 0 {
		os.Exit(1)
	}
	fmt.Printf("syscallcheck: %d syscall codes all dispatched\n", len(codes))
}

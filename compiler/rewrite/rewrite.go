package rewrite

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/tools/go/ast/astutil"
)

// File rewrites one generated Go source file in place. It reports whether
// anything changed; running it again on its own output changes nothing.
func File(filename string, plan *Plan) (bool, error) {
	src, err := os.ReadFile(filename)
	if err != nil {
		return false, err
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return false, err
	}

	imports := make(map[string]bool)
	changed := false

	ast.Inspect(f, func(n ast.Node) bool {
		spec, ok := n.(*ast.TypeSpec)
		if !ok {
			return true
		}
		st, ok := spec.Type.(*ast.StructType)
		if !ok {
			return true
		}
		for _, field := range st.Fields.List {
			for _, name := range field.Names {
				if rewriteField(spec.Name.Name, name.Name, field, plan, imports) {
					changed = true
				}
			}
		}
		return true
	})

	if !changed {
		return false, nil
	}

	for _, importPath := range sortedPaths(imports) {
		astutil.AddImport(fset, f, importPath)
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return false, err
	}
	return true, os.WriteFile(filename, buf.Bytes(), 0o644)
}

// Dir rewrites every .go file under dir (skipping tests and the alias
// package itself) and returns the number of files modified.
func Dir(dir string, plan *Plan) (int, error) {
	var files []string
	err := filepath.WalkDir(dir, func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if filepath.Ext(p) != ".go" || strings.HasSuffix(p, "_test.go") {
			return nil
		}
		files = append(files, p)
		return nil
	})
	if err != nil {
		return 0, err
	}
	sort.Strings(files)

	modified := 0
	for _, file := range files {
		changed, err := File(file, plan)
		if err != nil {
			return modified, err
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

// rewriteField applies every matching plan slot to one struct field.
func rewriteField(typeName, fieldName string, field *ast.Field, plan *Plan, imports map[string]bool) bool {
	changed := false
	for _, slot := range []Slot{SlotSelf, SlotElem, SlotKey, SlotValue} {
		ref, ok := plan.Get(Target{Type: typeName, Field: fieldName, Slot: slot})
		if !ok {
			continue
		}
		if replacement := rewriteExpr(field.Type, ref, slot, imports); replacement != nil {
			field.Type = replacement
			changed = true
		}
	}
	return changed
}

// primitives are the type idents a structural generator emits for scalar
// properties. A planned field is substituted whatever primitive the
// generator chose for it; the alias may deliberately differ, as when a
// string-typed wire field is backed by an integer alias.
var primitives = map[string]bool{
	"string":  true,
	"bool":    true,
	"int":     true,
	"int32":   true,
	"int64":   true,
	"float32": true,
	"float64": true,
}

// rewriteExpr returns the rewritten type expression, or nil when nothing
// in it matches. Already-substituted selector expressions never match, so
// a second pass is a no-op.
func rewriteExpr(expr ast.Expr, ref AliasRef, slot Slot, imports map[string]bool) ast.Expr {
	switch t := expr.(type) {
	case *ast.Ident:
		if slot == SlotSelf && primitives[t.Name] {
			return aliasExpr(ref, imports)
		}
	case *ast.StarExpr:
		if inner := rewriteExpr(t.X, ref, slot, imports); inner != nil {
			return &ast.StarExpr{X: inner}
		}
	case *ast.ArrayType:
		if t.Len == nil && (slot == SlotSelf || slot == SlotElem) {
			if inner := rewriteExpr(t.Elt, ref, SlotSelf, imports); inner != nil {
				return &ast.ArrayType{Elt: inner}
			}
		}
	case *ast.MapType:
		switch slot {
		case SlotKey:
			if key := rewriteExpr(t.Key, ref, SlotSelf, imports); key != nil {
				return &ast.MapType{Key: key, Value: t.Value}
			}
		case SlotSelf, SlotValue:
			if value := rewriteExpr(t.Value, ref, SlotSelf, imports); value != nil {
				return &ast.MapType{Key: t.Key, Value: value}
			}
		}
	}
	return nil
}

func aliasExpr(ref AliasRef, imports map[string]bool) ast.Expr {
	if ref.ImportPath == "" {
		return ast.NewIdent(ref.Name)
	}
	imports[ref.ImportPath] = true
	return &ast.SelectorExpr{
		X:   ast.NewIdent(path.Base(ref.ImportPath)),
		Sel: ast.NewIdent(ref.Name),
	}
}

func sortedPaths(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

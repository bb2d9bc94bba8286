package rewrite

import (
	"bytes"
	"go/ast"
	"go/format"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// RenameTypes rewrites type names in one generated file: the declaration,
// every use of it, and the leading doc comments. Field names and selector
// members are left alone even when they collide with a renamed type. It
// reports whether anything changed.
func RenameTypes(filename string, renames map[string]string) (bool, error) {
	if len(renames) == 0 {
		return false, nil
	}
	src, err := os.ReadFile(filename)
	if err != nil {
		return false, err
	}

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, filename, src, parser.ParseComments)
	if err != nil {
		return false, err
	}

	changed := false
	skip := make(map[*ast.Ident]bool)

	// Parents visit before children, so skip marks land before the
	// ident itself is considered.
	ast.Inspect(f, func(n ast.Node) bool {
		switch t := n.(type) {
		case *ast.Field:
			for _, name := range t.Names {
				skip[name] = true
			}
		case *ast.KeyValueExpr:
			if id, ok := t.Key.(*ast.Ident); ok {
				skip[id] = true
			}
		case *ast.SelectorExpr:
			skip[t.Sel] = true
		case *ast.Ident:
			if skip[t] {
				return true
			}
			if to, ok := renames[t.Name]; ok {
				t.Name = to
				changed = true
			}
		}
		return true
	})
	if !changed {
		return false, nil
	}

	for from, to := range renames {
		word := regexp.MustCompile(`\b` + regexp.QuoteMeta(from) + `\b`)
		for _, group := range f.Comments {
			for _, c := range group.List {
				c.Text = word.ReplaceAllString(c.Text, to)
			}
		}
	}

	var buf bytes.Buffer
	if err := format.Node(&buf, fset, f); err != nil {
		return false, err
	}
	return true, os.WriteFile(filename, buf.Bytes(), 0o644)
}

// RenameDir applies RenameTypes to every non-test .go file under dir and
// returns the number of files modified. It runs before the field rewrite
// so plan targets address the final type names.
func RenameDir(dir string, renames map[string]string) (int, error) {
	if len(renames) == 0 {
		return 0, nil
	}
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
		changed, err := RenameTypes(file, renames)
		if err != nil {
			return modified, err
		}
		if changed {
			modified++
		}
	}
	return modified, nil
}

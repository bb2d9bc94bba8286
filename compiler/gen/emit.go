package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"
)

// headerComment marks every emitted file.
const headerComment = "Code generated by lithify. DO NOT EDIT."

// EmitBundles writes one alias source file per bundle into dir, in
// parallel. Each file's bytes depend only on its bundle, so fan-out does
// not affect determinism. Returns the written paths in bundle order.
func EmitBundles(s *Session, dir, pkg string) ([]string, error) {
	bundles := s.Bundles()
	if len(bundles) == 0 {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	paths := make([]string, len(bundles))
	var g errgroup.Group
	for i, b := range bundles {
		i, b := i, b
		paths[i] = filepath.Join(dir, b.Name+".go")
		g.Go(func() error {
			f := jen.NewFile(pkg)
			f.HeaderComment(headerComment)
			for _, spec := range b.Aliases() {
				emitAlias(f, spec)
			}
			return f.Save(paths[i])
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}

func emitAlias(f *jen.File, spec *AliasSpec) {
	if spec.Description != "" {
		f.Comment(spec.Name + " " + lowerFirst(spec.Description))
	}
	f.Type().Id(spec.Name).Id(spec.Kind.GoType())

	switch {
	case spec.NsInt:
		emitNsIntMethods(f, spec)
	case len(spec.Constraints.Enum) > 0:
		emitEnum(f, spec)
	case spec.Kind == KindString:
		emitStringValidate(f, spec)
	case spec.Kind == KindInteger || spec.Kind == KindNumber:
		emitNumberValidate(f, spec)
	}
}

func emitEnum(f *jen.File, spec *AliasSpec) {
	defs := make([]jen.Code, 0, len(spec.Constraints.Enum))
	for _, value := range spec.Constraints.Enum {
		defs = append(defs, jen.Id(enumConstName(spec.Name, value)).Id(spec.Name).Op("=").Lit(value))
	}
	f.Const().Defs(defs...)

	cases := make([]jen.Code, 0, len(spec.Constraints.Enum))
	for _, value := range spec.Constraints.Enum {
		cases = append(cases, jen.Id(enumConstName(spec.Name, value)))
	}
	f.Func().Params(jen.Id("v").Id(spec.Name)).Id("Validate").Params().Error().Block(
		jen.Switch(jen.Id("v")).Block(
			jen.Case(cases...).Block(jen.Return(jen.Nil())),
		),
		jen.Return(jen.Qual("fmt", "Errorf").Call(
			jen.Lit(spec.Name+": invalid value %q"), jen.String().Parens(jen.Id("v")),
		)),
	)
}

func emitStringValidate(f *jen.File, spec *AliasSpec) {
	c := spec.Constraints
	patterns := make([]string, 0, 1+len(spec.AndPatterns))
	if c.Pattern != "" {
		patterns = append(patterns, c.Pattern)
	}
	patterns = append(patterns, spec.AndPatterns...)

	patternVars := make([]string, len(patterns))
	for i, p := range patterns {
		name := patternVarName(spec.Name, i)
		patternVars[i] = name
		f.Var().Id(name).Op("=").Qual("regexp", "MustCompile").Call(jen.Lit(p))
	}

	var body []jen.Code
	if c.MinLength != nil {
		body = append(body, jen.If(jen.Len(jen.Id("v")).Op("<").Lit(*c.MinLength)).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+": %q shorter than %d"), jen.String().Parens(jen.Id("v")), jen.Lit(*c.MinLength),
			)),
		))
	}
	if c.MaxLength != nil {
		body = append(body, jen.If(jen.Len(jen.Id("v")).Op(">").Lit(*c.MaxLength)).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+": %q longer than %d"), jen.String().Parens(jen.Id("v")), jen.Lit(*c.MaxLength),
			)),
		))
	}
	for _, name := range patternVars {
		body = append(body, jen.If(jen.Op("!").Id(name).Dot("MatchString").Call(jen.String().Parens(jen.Id("v")))).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+": %q does not match %s"), jen.String().Parens(jen.Id("v")), jen.Id(name),
			)),
		))
	}
	body = append(body, jen.Return(jen.Nil()))

	f.Func().Params(jen.Id("v").Id(spec.Name)).Id("Validate").Params().Error().Block(body...)
}

func emitNumberValidate(f *jen.File, spec *AliasSpec) {
	c := spec.Constraints
	var body []jen.Code

	bound := func(op string, limit float64, format string) jen.Code {
		return jen.If(jen.Float64().Parens(jen.Id("v")).Op(op).Lit(limit)).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+format), jen.Float64().Parens(jen.Id("v")), jen.Lit(limit),
			)),
		)
	}
	if c.Minimum != nil {
		if c.ExclusiveMinimum {
			body = append(body, bound("<=", *c.Minimum, ": %v is not greater than %v"))
		} else {
			body = append(body, bound("<", *c.Minimum, ": %v is less than %v"))
		}
	}
	if c.Maximum != nil {
		if c.ExclusiveMaximum {
			body = append(body, bound(">=", *c.Maximum, ": %v is not less than %v"))
		} else {
			body = append(body, bound(">", *c.Maximum, ": %v exceeds %v"))
		}
	}
	if c.MultipleOf != nil {
		body = append(body, jen.If(
			jen.Qual("math", "Mod").Call(jen.Float64().Parens(jen.Id("v")), jen.Lit(*c.MultipleOf)).Op("!=").Lit(0.0),
		).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+": %v is not a multiple of %v"), jen.Float64().Parens(jen.Id("v")), jen.Lit(*c.MultipleOf),
			)),
		))
	}
	body = append(body, jen.Return(jen.Nil()))

	f.Func().Params(jen.Id("v").Id(spec.Name)).Id("Validate").Params().Error().Block(body...)
}

// emitNsIntMethods emits the wire conversion for the shared nanosecond
// timestamp type: decimal string in JSON, int64 in memory, exact round
// trip either way.
func emitNsIntMethods(f *jen.File, spec *AliasSpec) {
	f.Func().Params(jen.Id("v").Id(spec.Name)).Id("Validate").Params().Error().Block(
		jen.If(jen.Id("v").Op("<").Lit(0)).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(
				jen.Lit(spec.Name+": %d is negative"), jen.Int64().Parens(jen.Id("v")),
			)),
		),
		jen.Return(jen.Nil()),
	)

	f.Func().Params(jen.Id("v").Id(spec.Name)).Id("MarshalJSON").Params().Params(jen.Index().Byte(), jen.Error()).Block(
		jen.Return(
			jen.Index().Byte().Parens(
				jen.Qual("strconv", "Quote").Call(
					jen.Qual("strconv", "FormatInt").Call(jen.Int64().Parens(jen.Id("v")), jen.Lit(10)),
				),
			),
			jen.Nil(),
		),
	)

	f.Func().Params(jen.Id("v").Op("*").Id(spec.Name)).Id("UnmarshalJSON").Params(jen.Id("data").Index().Byte()).Error().Block(
		jen.Id("s").Op(":=").String().Parens(jen.Id("data")),
		jen.If(jen.Len(jen.Id("s")).Op(">=").Lit(2).Op("&&").Id("s").Index(jen.Lit(0)).Op("==").LitRune('"')).Block(
			jen.List(jen.Id("unquoted"), jen.Err()).Op(":=").Qual("strconv", "Unquote").Call(jen.Id("s")),
			jen.If(jen.Err().Op("!=").Nil()).Block(
				jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(spec.Name+": %w"), jen.Err())),
			),
			jen.Id("s").Op("=").Id("unquoted"),
		),
		jen.List(jen.Id("n"), jen.Err()).Op(":=").Qual("strconv", "ParseInt").Call(jen.Id("s"), jen.Lit(10), jen.Lit(64)),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit(spec.Name+": %w"), jen.Err())),
		),
		jen.Op("*").Id("v").Op("=").Id(spec.Name).Parens(jen.Id("n")),
		jen.Return(jen.Nil()),
	)
}

// enumConstName builds the constant name for one enum member, e.g.
// Status + "active" -> StatusActive.
func enumConstName(typeName, value string) string {
	member := exportedName(value)
	if member == "" {
		member = "Empty"
	}
	return typeName + member
}

// patternVarName names the unexported compiled-regexp variable(s) of an
// alias.
func patternVarName(typeName string, i int) string {
	name := lowerFirst(typeName) + "Pattern"
	if i > 0 {
		name = fmt.Sprintf("%s%d", name, i+1)
	}
	return name
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

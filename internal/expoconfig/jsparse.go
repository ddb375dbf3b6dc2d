package expoconfig

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/parser"
)

// The goja parser reads scripts, not modules. Module syntax at the start of
// a line is overwritten with text of the same length so node offsets still
// index the original source.
var (
	exportDefaultPattern = regexp.MustCompile(`(?m)^[ \t]*export[ \t]+default\b`)
	exportPattern        = regexp.MustCompile(`(?m)^[ \t]*export\b`)
	importPattern        = regexp.MustCompile(`(?m)^[ \t]*import\b[^\n]*`)
)

const exportDefaultTarget = "exports.dflt ="

func maskModuleSyntax(src string) string {
	src = exportDefaultPattern.ReplaceAllStringFunc(src, func(m string) string {
		return strings.Repeat(" ", len(m)-len(exportDefaultTarget)) + exportDefaultTarget
	})
	blank := func(m string) string { return strings.Repeat(" ", len(m)) }
	src = exportPattern.ReplaceAllStringFunc(src, blank)
	return importPattern.ReplaceAllStringFunc(src, blank)
}

// configObject is the object literal returned by the config function.
type configObject struct {
	open, close int // src[open] == '{', src[close-1] == '}'
	returnAt    int // offset of the return keyword
	props       []property
}

// findConfigObject locates the first function, in source order, whose body
// returns an object literal from its top level.
func findConfigObject(src string) (configObject, error) {
	prog, err := parser.ParseFile(nil, "app.config.js", maskModuleSyntax(src), 0)
	if err != nil {
		return configObject{}, fmt.Errorf("parsing config: %w", err)
	}
	base := prog.File.Base()

	ret := returnInStatements(prog.Body)
	if ret == nil {
		return configObject{}, errNoReturnedObject
	}
	lit := ret.Argument.(*ast.ObjectLiteral)

	props, err := splitProperties(src, lit, base)
	if err != nil {
		return configObject{}, err
	}
	return configObject{
		open:     int(lit.LeftBrace) - base,
		close:    int(lit.RightBrace) - base + 1,
		returnAt: int(ret.Return) - base,
		props:    props,
	}, nil
}

func returnInStatements(list []ast.Statement) *ast.ReturnStatement {
	for _, stmt := range list {
		if ret := returnInStatement(stmt); ret != nil {
			return ret
		}
	}
	return nil
}

func returnInStatement(stmt ast.Statement) *ast.ReturnStatement {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		return returnInExpression(s.Expression)
	case *ast.VariableStatement:
		return returnInBindings(s.List)
	case *ast.LexicalDeclaration:
		return returnInBindings(s.List)
	case *ast.FunctionDeclaration:
		return returnInFunction(s.Function.Body)
	case *ast.BlockStatement:
		return returnInStatements(s.List)
	case *ast.ReturnStatement:
		return returnInExpression(s.Argument)
	}
	return nil
}

func returnInBindings(list []*ast.Binding) *ast.ReturnStatement {
	for _, b := range list {
		if ret := returnInExpression(b.Initializer); ret != nil {
			return ret
		}
	}
	return nil
}

func returnInExpression(expr ast.Expression) *ast.ReturnStatement {
	switch e := expr.(type) {
	case *ast.ArrowFunctionLiteral:
		switch body := e.Body.(type) {
		case *ast.BlockStatement:
			return returnInFunction(body)
		case *ast.ExpressionBody:
			return returnInExpression(body.Expression)
		}
	case *ast.FunctionLiteral:
		return returnInFunction(e.Body)
	case *ast.AssignExpression:
		return returnInExpression(e.Right)
	case *ast.CallExpression:
		for _, arg := range e.ArgumentList {
			if ret := returnInExpression(arg); ret != nil {
				return ret
			}
		}
	}
	return nil
}

// returnInFunction prefers a return of the function itself over returns of
// functions nested in it.
func returnInFunction(body *ast.BlockStatement) *ast.ReturnStatement {
	if body == nil {
		return nil
	}
	for _, stmt := range body.List {
		if ret, ok := stmt.(*ast.ReturnStatement); ok {
			if _, ok := ret.Argument.(*ast.ObjectLiteral); ok {
				return ret
			}
		}
	}
	return returnInStatements(body.List)
}

// property is one comma-separated entry of an object literal.
type property struct {
	lead  string // whitespace and comments before the entry
	body  string // the entry itself
	trail string // whitespace after the entry
	key   string // "" for spreads and computed keys
}

func newProperty(chunk, key string) property {
	bodyStart := skipTrivia(chunk, 0)
	bodyEnd := len(strings.TrimRight(chunk, " \t\r\n"))
	if bodyEnd < bodyStart {
		bodyEnd = bodyStart
	}
	return property{
		lead:  chunk[:bodyStart],
		body:  chunk[bodyStart:bodyEnd],
		trail: chunk[bodyEnd:],
		key:   key,
	}
}

// splitProperties cuts the source between the braces of lit at the commas
// separating its entries. A trailing comma, or an empty object, yields a
// final entry with an empty body.
func splitProperties(src string, lit *ast.ObjectLiteral, base int) ([]property, error) {
	start := int(lit.LeftBrace) - base + 1
	end := int(lit.RightBrace) - base

	props := make([]property, 0, len(lit.Value)+1)
	for i, p := range lit.Value {
		next := end
		if i+1 < len(lit.Value) {
			next = int(lit.Value[i+1].Idx0()) - base
		}
		comma := findComma(src, int(p.Idx1())-base, next)
		if comma < 0 {
			if i+1 < len(lit.Value) {
				return nil, fmt.Errorf("no comma after the property at offset %d", int(p.Idx0())-base)
			}
			props = append(props, newProperty(src[start:end], propertyKey(p)))
			return props, nil
		}
		props = append(props, newProperty(src[start:comma], propertyKey(p)))
		start = comma + 1
	}
	return append(props, newProperty(src[start:end], "")), nil
}

// findComma returns the offset of the first comma in src[from:to] outside
// comments, or -1.
func findComma(src string, from, to int) int {
	for i := from; i < to; {
		if j := skipTrivia(src, i); j != i {
			i = j
			continue
		}
		if src[i] == ',' {
			return i
		}
		i++
	}
	return -1
}

// propertyKey returns the static key of an object entry.
func propertyKey(p ast.Property) string {
	switch p := p.(type) {
	case *ast.PropertyKeyed:
		if p.Computed {
			return ""
		}
		switch k := p.Key.(type) {
		case *ast.StringLiteral:
			return k.Value.String()
		case *ast.Identifier:
			return k.Name.String()
		case *ast.NumberLiteral:
			return k.Literal
		}
	case *ast.PropertyShort:
		return p.Name.Name.String()
	}
	return ""
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9') ||
		c >= 0x80
}

// skipTrivia returns the offset of the first byte at or after i that is not
// whitespace or part of a comment.
func skipTrivia(src string, i int) int {
	for i < len(src) {
		switch {
		case isSpace(src[i]):
			i++
		case strings.HasPrefix(src[i:], "//"):
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				return len(src)
			}
			i += j + 1
		case strings.HasPrefix(src[i:], "/*"):
			j := strings.Index(src[i+2:], "*/")
			if j < 0 {
				return len(src)
			}
			i += j + 4
		default:
			return i
		}
	}
	return i
}

// lineIndent returns the leading whitespace of the line containing offset i.
func lineIndent(src string, i int) string {
	lineStart := strings.LastIndexByte(src[:i], '\n') + 1
	j := lineStart
	for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
		j++
	}
	return src[lineStart:j]
}

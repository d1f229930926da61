package extract

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// signature rebuilds a def line from the parameter list structure. Working
// from the tree rather than raw source lines keeps multi-line signatures and
// decorated definitions intact.
func signature(fn *sitter.Node, src []byte) string {
	name := fn.ChildByFieldName("name").Content(src)

	var parts []string
	if params := fn.ChildByFieldName("parameters"); params != nil {
		for i := 0; i < int(params.NamedChildCount()); i++ {
			p := params.NamedChild(i)
			switch p.Type() {
			case "identifier", "typed_parameter", "default_parameter",
				"typed_default_parameter", "list_splat_pattern",
				"dictionary_splat_pattern", "keyword_separator",
				"positional_separator", "tuple_pattern":
				parts = append(parts, collapseSpace(p.Content(src)))
			}
		}
	}

	sig := "def " + name + "(" + strings.Join(parts, ", ") + ")"
	if ret := fn.ChildByFieldName("return_type"); ret != nil {
		sig += " -> " + collapseSpace(ret.Content(src))
	}
	return sig
}

// docstring returns the leading string literal of a block, or "" when the
// first statement is anything else. Only a bare string expression statement
// qualifies.
func docstring(body *sitter.Node, src []byte) string {
	if body == nil || body.NamedChildCount() == 0 {
		return ""
	}
	first := body.NamedChild(0)
	if first.Type() != "expression_statement" || first.NamedChildCount() != 1 {
		return ""
	}
	str := first.NamedChild(0)
	if str.Type() != "string" {
		return ""
	}
	return strings.TrimSpace(unquote(str.Content(src)))
}

// unquote strips string prefixes (r, b, f, u in any case) and the surrounding
// quote characters from a Python string literal.
func unquote(s string) string {
	s = strings.TrimLeft(s, "rRbBfFuU")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// collapseSpace joins any run of whitespace into a single space so that
// source text spanning several lines renders on one.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

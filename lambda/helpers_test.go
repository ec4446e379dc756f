package lambda

// Shared AST construction helpers for the package tests. Tests build
// typed trees directly (the parser adapter is external, spec §1) and
// run them through the same Script pipeline production code uses.

import (
	"github.com/henry-luo/lambda-sub006/symbol"
)

func sym(s string) symbol.ID { return symbol.Intern(s) }

func litInt(v int64) *ASTLiteral    { return &ASTLiteral{Kind: TYPE_INT, Int: v} }
func litFloat(v float64) *ASTLiteral { return &ASTLiteral{Kind: TYPE_FLOAT, Float: v} }
func litStr(s string) *ASTLiteral   { return &ASTLiteral{Kind: TYPE_STRING, Str: s} }
func litBool(v bool) *ASTLiteral {
	n := &ASTLiteral{Kind: TYPE_BOOL}
	if v {
		n.Int = 1
	}
	return n
}

func ident(name string) *ASTIdent { return &ASTIdent{Name: sym(name)} }

func bin(op BinaryOp, l, r ASTNode) *ASTBinary { return &ASTBinary{Op: op, LHS: l, RHS: r} }

func ifExpr(c, t, e ASTNode) *ASTIfExpr { return &ASTIfExpr{Cond: c, Then: t, Else: e} }

func param(name string) *ASTParam { return &ASTParam{Name: sym(name)} }

func optParam(name string, def ASTNode) *ASTParam {
	return &ASTParam{Name: sym(name), IsOptional: true, Default: def}
}

func fnNode(name string, params []*ASTParam, body ASTNode) *ASTFn {
	return &ASTFn{FuncDef: FuncDef{Name: sym(name), Params: params, Body: body}}
}

func fnExpr(params []*ASTParam, body ASTNode) *ASTFnExpr {
	return &ASTFnExpr{FuncDef: FuncDef{Name: symbol.Invalid, IsAnonymous: true, Params: params, Body: body}}
}

func procNode(name string, params []*ASTParam, body ASTNode) *ASTProcedure {
	return &ASTProcedure{FuncDef: FuncDef{Name: sym(name), Params: params, Body: body, IsProc: true}}
}

func call(fn ASTNode, args ...ASTNode) *ASTCall { return &ASTCall{Func: fn, Args: args} }

func namedArg(name string, expr ASTNode) *ASTNamedArg {
	return &ASTNamedArg{Name: sym(name), Expr: expr}
}

func letIn(name string, expr, body ASTNode) *ASTLet {
	return &ASTLet{Name: sym(name), Expr: expr, Body: body}
}

func script(body ...ASTNode) *ASTScriptRoot { return &ASTScriptRoot{Body: body} }

// checkedScript runs the full analysis pipeline over a hand-built root.
func checkedScript(root *ASTScriptRoot) *Script {
	s := NewScript("test.ls", 0, "", nil)
	s.ASTRoot = root
	s.Check(nil)
	return s
}

// patSeq and friends build pattern ASTs.
func patLit(s string) *ASTPatternLiteral { return &ASTPatternLiteral{Value: s} }

func patSeq(items ...ASTNode) *ASTPatternSeq { return &ASTPatternSeq{Items: items} }

func patClass(c PatternCharClass) *ASTPatternCharClass {
	return &ASTPatternCharClass{Class: c}
}

func patRange(lo, hi string) *ASTPatternRange { return &ASTPatternRange{Lo: lo, Hi: hi} }

func patUnion(l, r ASTNode) *ASTBinaryPattern {
	return &ASTBinaryPattern{Op: PatternUnion, LHS: l, RHS: r}
}

func patRepeat(kind PatternRepeatKind, inner ASTNode) *ASTPatternRepeat {
	return &ASTPatternRepeat{Kind: kind, Inner: inner}
}

func patDef(name string, p ASTNode) *ASTPatternDef {
	return &ASTPatternDef{Name: sym(name), Pattern: p}
}

func diagsOfKind(d *Diagnostics, k Kind) []Diagnostic {
	var out []Diagnostic
	for _, diag := range d.List() {
		if diag.Kind == k {
			out = append(out, diag)
		}
	}
	return out
}

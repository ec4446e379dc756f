package lambda

// Bindings: let, pub, var, assignment, multi-variable decomposition (spec
// §3.3). `let` declares its name in the enclosing scope, so the binding is
// visible in its trailing expression and in later code of that scope (a
// top-level `let` is a script global); `var`/assignment are procedural.

import "github.com/henry-luo/lambda-sub006/symbol"

// ASTLet is `let name = expr` followed by a terminal expression in the
// same lexical form (`let x = 1 in x+1`, or as the leading statement of a
// block whose last statement is the body). TCO (C6) treats Body as a
// tail position iff the let itself is (spec §4.5).
type ASTLet struct {
	base
	Name symbol.ID
	Expr ASTNode
	Body ASTNode
}

func (n *ASTLet) String() string { return "let " + n.Name.Str() }

// ASTPub is a top-level `pub name = expr`: like let, but the binding is
// exported from the Script for module linking (C9).
type ASTPub struct {
	base
	Name symbol.ID
	Expr ASTNode
}

func (n *ASTPub) String() string { return "pub " + n.Name.Str() }

// ASTVar is a procedural mutable declaration, `var name = expr`.
type ASTVar struct {
	base
	Name symbol.ID
	Expr ASTNode
}

func (n *ASTVar) String() string { return "var " + n.Name.Str() }

// ASTAssign is `target = expr`, procedural.
type ASTAssign struct {
	base
	Target ASTNode // ASTIdent, ASTMember, or ASTIndex
	Expr   ASTNode
}

func (n *ASTAssign) String() string { return n.Target.String() + " = " + n.Expr.String() }

// DecomposeField is one field of a named multi-variable decomposition,
// `let {a, b: renamed} = expr`.
type DecomposeField struct {
	SourceName symbol.ID
	BindName   symbol.ID
}

// ASTDecompose is a multi-variable decomposition let, either positional
// (`let [a, b] = expr`) or named (`let {a, b: c} = expr`).
type ASTDecompose struct {
	base
	Positional bool
	Names      []symbol.ID      // positional form
	Fields     []DecomposeField // named form
	Expr       ASTNode
	Body       ASTNode
}

func (n *ASTDecompose) String() string { return "let-decompose" }

package lambda

// Control forms: if (expression and statement), for, while, break,
// continue, return (spec §3.3). The for-expression clause shape follows
// spec §4.7's fixed clause order (let -> where -> group -> order ->
// limit/offset -> body).

import (
	"fmt"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// ASTIfExpr is the ternary-lowering form, `if c then t else e` used in
// expression position. Both branches are required.
type ASTIfExpr struct {
	base
	Cond, Then, Else ASTNode
}

func (n *ASTIfExpr) String() string { return fmt.Sprintf("if %s then %s else %s", n.Cond, n.Then, n.Else) }

// IfClause is one `if`/`else if` arm of an ASTIfStmt.
type IfClause struct {
	Cond ASTNode // nil for the trailing "else" clause
	Body ASTNode // an ASTBlock in practice
}

// ASTIfStmt is the block-lowering statement form, valid only inside
// procedures (spec §4.7).
type ASTIfStmt struct {
	base
	Clauses []IfClause
}

func (n *ASTIfStmt) String() string { return "if-stmt" }

// ASTBlock sequences statements and yields the value of its last
// expression (procedures) or nothing (pure statement blocks); TCO
// analysis (C6) treats a block's terminal sub-expression as a tail
// position exactly like a let's (spec §4.5).
type ASTBlock struct {
	base
	Stmts []ASTNode
}

func (n *ASTBlock) String() string { return "{block}" }

// ForOrderKey is one `order by key [asc|desc]` key.
type ForOrderKey struct {
	Key  ASTNode
	Desc bool
}

// ASTFor is the for-expression (spec §3.3, §4.7): produces a spreadable
// array via a loop over Source, applying clauses in the fixed order
// Let -> Where -> Group -> Order -> Limit/Offset -> Body.
type ASTFor struct {
	base
	IterVar, IndexVar symbol.ID
	Source            ASTNode

	// DeclScope is the scope the for-expression appears in, recorded by the
	// checker (spec §4.2 "current_scope is exposed"). Closure analysis (C5)
	// resolves names from the enclosing function's DeclScope, not this one.
	DeclScope *NameScope

	Lets  []ForLet
	Where ASTNode // nil if absent
	Group ASTNode // nil if absent; grouping key expression
	Order []ForOrderKey
	Limit  ASTNode // nil if absent
	Offset ASTNode // nil if absent

	Body ASTNode
}

func (n *ASTFor) String() string { return "for-expr" }

// ForLet is one `let` clause binding inside a for-expression.
type ForLet struct {
	Name symbol.ID
	Expr ASTNode
}

// ASTWhile is the procedural while-loop.
type ASTWhile struct {
	base
	Cond ASTNode
	Body ASTNode // ASTBlock
}

func (n *ASTWhile) String() string { return "while" }

// ASTBreak/ASTContinue/ASTReturn are procedural jumps, legal only inside
// a scope with IsProc==true (spec §4.2).
type ASTBreak struct{ base }
type ASTContinue struct{ base }
type ASTReturn struct {
	base
	Value ASTNode // nil for a bare `return`
}

func (n *ASTBreak) String() string    { return "break" }
func (n *ASTContinue) String() string { return "continue" }
func (n *ASTReturn) String() string   { return "return" }

package lambda

// C3: the typed AST model (spec §3.3).
//
// Node kinds mirror the teacher's gql/ast.go split — one small Go struct
// per syntactic form, all satisfying a common ASTNode interface — but
// eval() is replaced by the annotation surface the checker (C4), closure
// analyzer (C5), TCO analyzer (C6) and lowering engine (C8) need: a type,
// optional scope pointer, capture list, and pattern index. Nodes are
// created by the parser adapter (package parsetree), annotated in place
// during checking, and never mutated once emission begins (spec §3.3
// Lifecycle, §5 Mutation discipline).

import (
	"fmt"
	"text/scanner"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// Position aliases the standard library's scanner.Position, the way the
// teacher does for exactly the same reason: building a source position
// type from scratch would just reinvent this.
type Position = scanner.Position

// ASTNode is implemented by every node kind. Unlike the teacher's
// ASTNode (which adds eval/hash for tree-walking interpretation), this
// core never interprets: String is for diagnostics only, and the type/
// scope/capture annotations below are what the rest of the pipeline
// reads.
type ASTNode interface {
	Pos() Position
	String() string

	// TypeOf returns the type assigned by the checker, or nil before
	// checking has visited this node.
	TypeOf() *Type
	// SetType is called exactly once per node, by the checker.
	SetType(t *Type)
}

// base is embedded by every concrete node struct. It factors out the
// position/type bookkeeping every ASTNode needs, the way the teacher
// factors ASTStatement's Pos field out for reuse, but pushed one level
// further since every node (not just statements) carries a type here.
type base struct {
	P Position
	T *Type
}

func (b *base) Pos() Position  { return b.P }
func (b *base) TypeOf() *Type  { return b.T }
func (b *base) SetType(t *Type) {
	if b.T != nil {
		// Monotonic annotation (spec §8): re-checking an already-typed
		// node is a no-op rather than an error, so a second checker pass
		// over shared subtrees (e.g. a default-value expression reached
		// both from its parameter and from a call site) is safe.
		return
	}
	b.T = t
}

// ---- Literals & primary ----------------------------------------------

// ASTLiteral covers null/bool/int/int64/float/decimal/string/symbol/
// binary/datetime. Differentiated by TypeOf().Base once checked; before
// checking, Kind carries the parser's surface classification.
type ASTLiteral struct {
	base
	Kind    TypeID // the literal's surface type, pre-checking
	Str     string
	Int     int64
	Float   float64
	IsConst bool
	ConstIdx int
}

func (n *ASTLiteral) String() string { return fmt.Sprintf("lit(%v)", n.Kind) }

// ASTIdent is a bare identifier reference, resolved by C2/C4 to a
// NameEntry and, where applicable, annotated by C5 with capture info.
type ASTIdent struct {
	base
	Name symbol.ID

	// Annotated during checking:
	Entry *NameEntry
	// Annotated during closure analysis (C5), only meaningful when Entry
	// resolves outside the enclosing function:
	Captured     bool
	FromOuterEnv bool
	EnvSlot      int
}

func (n *ASTIdent) String() string { return n.Name.Str() }

// ASTParen is a parenthesized sub-expression, kept as its own node (not
// collapsed away) so source position and formatting survive for
// diagnostics, matching the grammar's own production.
type ASTParen struct {
	base
	Inner ASTNode
}

func (n *ASTParen) String() string { return "(" + n.Inner.String() + ")" }

// ---- Operators ---------------------------------------------------------

// UnaryOp enumerates +,-,!.
type UnaryOp int

const (
	UnaryPlus UnaryOp = iota
	UnaryMinus
	UnaryNot
)

// ASTUnary is a prefix operator application.
type ASTUnary struct {
	base
	Op      UnaryOp
	Operand ASTNode
}

func (n *ASTUnary) String() string { return fmt.Sprintf("unary(%v, %s)", n.Op, n.Operand) }

// BinaryOp enumerates the full binary-operator set of spec §3.3,
// including the pipe family.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpPow
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpIs
	OpIn
	OpTo
	OpJoin
	OpUnion     // |
	OpIntersect // &
	OpPipe      // | between expressions; the builder always produces OpPipe for it
	OpWhere
)

// ASTBinary is a binary operator application.
type ASTBinary struct {
	base
	Op          BinaryOp
	LHS, RHS    ASTNode
	// AutoMapped is set by C4 when Op==OpPipe and RHS references ~ or ~#
	// (spec §4.3 Pipe and filter).
	AutoMapped bool
}

func (n *ASTBinary) String() string { return fmt.Sprintf("(%s %v %s)", n.LHS, n.Op, n.RHS) }

// ASTCurrentItem/ASTCurrentIndex are the ~ and ~# pipe tokens (spec §9
// "Coroutine-like semantics of pipe"): loop-local bindings in scope only
// inside the right-hand side of a pipe expression, never first-class
// names, hence modeled as their own node kinds rather than identifiers.
type ASTCurrentItem struct{ base }
type ASTCurrentIndex struct{ base }

func (n *ASTCurrentItem) String() string  { return "~" }
func (n *ASTCurrentIndex) String() string { return "~#" }

// ---- Access --------------------------------------------------------------

// ASTMember is obj.field. When obj is an import alias, the checker
// resolves field against the imported script's public names and records
// the entry here; emission then prefixes the reference with m<index>.
// instead of lowering a runtime member access (spec §4.8).
type ASTMember struct {
	base
	Object ASTNode
	Field  symbol.ID

	ImportEntry *NameEntry
}

func (n *ASTMember) String() string { return fmt.Sprintf("%s.%s", n.Object, n.Field.Str()) }

// ASTIndex is obj[index].
type ASTIndex struct {
	base
	Object ASTNode
	Index  ASTNode
}

func (n *ASTIndex) String() string { return fmt.Sprintf("%s[%s]", n.Object, n.Index) }

// PathSegment is one static segment of an ASTPath.
type PathSegment struct {
	Name      string
	Wildcard  bool // '*'
	Recursive bool // '**'
}

// ASTPath is a static path expression (scheme + segments), e.g.
// `./a/b/*`.
type ASTPath struct {
	base
	Scheme   string // "", ".", "..", "/"
	Segments []PathSegment
}

func (n *ASTPath) String() string { return n.Scheme + "<path>" }

// ASTPathIndex is a path with a dynamic suffix, e.g. `./a/[expr]`.
type ASTPathIndex struct {
	base
	Path   *ASTPath
	Suffix ASTNode
}

func (n *ASTPathIndex) String() string { return fmt.Sprintf("%s[%s]", n.Path, n.Suffix) }

package lambda

// Patterns: string/symbol pattern definitions and the pattern-grammar AST
// consumed by the pattern compiler (C7, spec §4.6).

import "github.com/henry-luo/lambda-sub006/symbol"

// ASTPatternDef is `ident = <pattern>` in string/symbol context,
// registering a named pattern (spec §4.3 "Patterns").
type ASTPatternDef struct {
	base
	Name     symbol.ID
	IsSymbol bool // symbol-pattern vs string-pattern
	Pattern  ASTNode
}

func (n *ASTPatternDef) String() string { return "pattern " + n.Name.Str() }

// ASTPatternLiteral is a literal string/char used directly inside a
// pattern body.
type ASTPatternLiteral struct {
	base
	Value string
}

func (n *ASTPatternLiteral) String() string { return "\"" + n.Value + "\"" }

// PatternCharClass enumerates the built-in character classes (spec
// §4.6).
type PatternCharClass int

const (
	ClassDigit PatternCharClass = iota // \d
	ClassWord                          // \w
	ClassSpace                         // \s
	ClassAlpha                         // \a
	ClassAny                           // .
)

// ASTPatternCharClass is one of \d,\w,\s,\a,. .
type ASTPatternCharClass struct {
	base
	Class PatternCharClass
}

func (n *ASTPatternCharClass) String() string { return "charclass" }

// ASTPatternRange is `"a" to "z"`.
type ASTPatternRange struct {
	base
	Lo, Hi string
}

func (n *ASTPatternRange) String() string { return n.Lo + " to " + n.Hi }

// ASTPatternSeq is a concatenation of pattern terms.
type ASTPatternSeq struct {
	base
	Items []ASTNode
}

func (n *ASTPatternSeq) String() string { return "pattern-seq" }

// PatternRepeatKind enumerates ?, +, *, and bounded [n]/[n,m]/[n+].
type PatternRepeatKind int

const (
	RepeatOptional PatternRepeatKind = iota // ?
	RepeatOneMore                           // +
	RepeatZeroMore                          // *
	RepeatBounded                           // [n] / [n,m] / [n+]
)

// ASTPatternRepeat is a repetition of Inner.
type ASTPatternRepeat struct {
	base
	Inner   ASTNode
	Kind    PatternRepeatKind
	Min     int
	Max     int  // -1 means unbounded ("n+")
	HasMax  bool // false for exact-n (min==max) and for n+
}

func (n *ASTPatternRepeat) String() string { return "pattern-repeat" }

// ASTPatternNegation is `!a`.
type ASTPatternNegation struct {
	base
	Inner ASTNode
}

func (n *ASTPatternNegation) String() string { return "!pattern" }

// PatternBinOp enumerates union (|) and intersect (&) over patterns.
type PatternBinOp int

const (
	PatternUnion PatternBinOp = iota
	PatternIntersect
)

// ASTBinaryPattern is `a | b` or `a & b` within a pattern body.
type ASTBinaryPattern struct {
	base
	Op       PatternBinOp
	LHS, RHS ASTNode
}

func (n *ASTBinaryPattern) String() string { return "pattern-binop" }

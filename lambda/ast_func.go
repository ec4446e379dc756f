package lambda

// Functions: named fn, anonymous fn-expr, procedure, parameter, call,
// named-argument, system-function reference (spec §3.3). FuncDef is
// shared by all three function-defining forms (named/anonymous/
// procedure) the way the teacher's single `Func` struct (gql/func.go)
// backs both builtin and user-defined functions; here it backs both
// expression-bodied and procedure-bodied Lambda functions, distinguished
// by IsProc.

import (
	"fmt"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// ASTParam is one formal parameter.
type ASTParam struct {
	base
	Name       symbol.ID
	IsOptional bool
	Default    ASTNode // non-nil iff IsOptional
	Variadic   bool
}

func (n *ASTParam) String() string { return n.Name.Str() }

// Capture is one free variable captured by a FuncDef (annotated by C5).
type Capture struct {
	Entry        *NameEntry
	FromOuterEnv bool // true if re-exported from an already-capturing parent
	Slot         int  // index into the synthesized Env_F record
}

// FuncDef is the shared body of ASTFn, ASTFnExpr, and ASTProcedure.
type FuncDef struct {
	base
	Name        symbol.ID // symbol.Invalid for anonymous
	Params      []*ASTParam
	Body        ASTNode
	IsProc      bool
	IsPublic    bool
	IsAnonymous bool
	DeclScope   *NameScope // persisted scope pointer, needed by C5 (spec §4.2)

	// Annotated by C5:
	Captures []Capture

	// Annotated by C6:
	Safety          FunctionSafety
	NeedsStackCheck bool
	IsTCOEligible   bool
	// TailCallSites lists the ASTCall nodes inside Body that are
	// self-recursive tail calls, set once IsTCOEligible is true.
	TailCallSites []*ASTCall
}

func (f *FuncDef) String() string {
	if f.Name == symbol.Invalid {
		return "fn(...)"
	}
	return "fn " + f.Name.Str()
}

// ASTFn is a named top-level function, `fn name(params) => body`.
type ASTFn struct {
	FuncDef
}

func (n *ASTFn) String() string { return "fn " + n.Name.Str() }

// ASTFnExpr is an anonymous function expression, `fn(params) => body`.
type ASTFnExpr struct {
	FuncDef
}

func (n *ASTFnExpr) String() string { return "fn(...)" }

// ASTProcedure is a function whose body is a procedural block rather
// than a pure expression (spec §4.2 "is_proc").
type ASTProcedure struct {
	FuncDef
}

func (n *ASTProcedure) String() string { return "proc " + n.Name.Str() }

// ASTNamedArg is `name: expr` in a call's argument list.
type ASTNamedArg struct {
	base
	Name symbol.ID
	Expr ASTNode
}

func (n *ASTNamedArg) String() string { return n.Name.Str() + ": " + n.Expr.String() }

// CalleeKind classifies how a call's callee resolves (spec §4.3, §9
// "model callees as a sum type").
type CalleeKind int

const (
	CalleeDirect CalleeKind = iota
	CalleeDynamic
	CalleeSystem
)

// ASTCall is a function application. Callee resolution (Direct/Dynamic/
// System) is filled in by C4; ArgMap is the positional+named+default
// argument mapping C4 computed (spec §4.3).
type ASTCall struct {
	base
	Func ASTNode // the callee expression as written
	Args []ASTNode

	Kind       CalleeKind
	DirectDef  *FuncDef    // set iff Kind==CalleeDirect
	SysFunc    *SysFuncInfo // set iff Kind==CalleeSystem
	ArgMap     []int        // ArgMap[paramIndex] = index into resolved actual args, or -1 if defaulted
	Variadic   []ASTNode    // extra positional args packaged into the trailing variadic list
}

func (n *ASTCall) String() string { return fmt.Sprintf("%s(...)", n.Func) }

// SysFuncInfo describes a builtin/system function reference (spec §6
// "Runtime library"): name plus the native C symbol the call lowers to.
type SysFuncInfo struct {
	Name       string
	CSymbol    string
	Arity      int
	IsVariadic bool
}

// ASTSysFuncRef is a bare reference to a system function used as a value
// (e.g. passed as a callback), as opposed to being called directly.
type ASTSysFuncRef struct {
	base
	Info *SysFuncInfo
}

func (n *ASTSysFuncRef) String() string { return n.Info.Name }

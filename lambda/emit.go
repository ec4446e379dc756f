package lambda

// C8: Lowering Engine (spec §4.7). A visitor over the typed AST that
// writes C-shaped target source into a growable buffer. It is not an
// interpreter: each visit emits code that, when executed, computes the
// expression's value.
//
// The module-level transpiler state the original carries is made
// explicit here (spec §9 "Global mutable state"): the closure stack, the
// assignment-name stack, the pipe-injection counter, and the TCO frame
// are fields of Emitter, pushed and popped in scoped pairs.
//
// This file holds the Emitter itself, the script top-level emission
// order, function definition emission including the TCO loop transform,
// and naming. Expression lowering lives in emit_expr.go, statements and
// constructors in emit_stmt.go.

import (
	"fmt"
	"strings"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// Emitter lowers one checked Script.
type Emitter struct {
	script *Script
	linker *Linker
	diags  *Diagnostics

	body   *strings.Builder // current emission target
	indent int

	// Assigned in the collection pass, in source order, so emission is
	// deterministic (spec §8 property 6).
	funcs     []*FuncDef
	funcNames map[*FuncDef]string
	globals   map[ASTNode]bool // top-level ASTLet/ASTPub binding nodes
	typeList  []*Type          // append-only; indices referenced by emitted constructors

	// Explicit scoped stacks (spec §9):
	closureStack []*FuncDef
	assignNames  []string
	pipeCount    int
	tcoFrame     *FuncDef

	tmpCount int
	errCount int
}

// NewEmitter creates an emitter over a checked script.
func NewEmitter(s *Script, linker *Linker) *Emitter {
	return &Emitter{
		script:    s,
		linker:    linker,
		diags:     s.Diags,
		funcNames: map[*FuncDef]string{},
		globals:   map[ASTNode]bool{},
	}
}

// ErrorCount reports how many error placeholders emission produced.
func (e *Emitter) ErrorCount() int { return e.errCount }

// errValue records an emission failure and produces the error sentinel
// so the enclosing expression still compiles (spec §4.7 failure modes).
func (e *Emitter) errValue(pos Position, format string, args ...interface{}) BoxExpr {
	e.errCount++
	e.diags.Add(KindShapeError, pos, format, args...)
	return BoxExpr{Src: "ITEM_ERROR", Typ: TYPE_ANY}
}

// ---- writer helpers ------------------------------------------------------

func (e *Emitter) stmtf(format string, args ...interface{}) {
	for i := 0; i < e.indent; i++ {
		e.body.WriteString("    ")
	}
	fmt.Fprintf(e.body, format, args...)
	e.body.WriteByte('\n')
}

func (e *Emitter) open(format string, args ...interface{}) {
	e.stmtf(format, args...)
	e.indent++
}

func (e *Emitter) close(s string) {
	e.indent--
	e.stmtf("%s", s)
}

func (e *Emitter) tmp(prefix string) string {
	e.tmpCount++
	return fmt.Sprintf("_%s%d", prefix, e.tmpCount)
}

// ---- naming --------------------------------------------------------------

// funcName returns the backend-level name of f, assigning one on first
// use. Named functions become m<idx>_f_<name>; anonymous ones get a
// stable lambda counter in source order.
func (e *Emitter) funcName(f *FuncDef) string {
	if n, ok := e.funcNames[f]; ok {
		return n
	}
	var n string
	if f.Name != symbol.Invalid {
		n = fmt.Sprintf("m%d_f_%s", e.script.Index, f.Name.Str())
	} else {
		n = fmt.Sprintf("m%d_lambda%d", e.script.Index, len(e.funcNames))
	}
	e.funcNames[f] = n
	e.script.FuncNames.Register(n, e.displayName(f))
	return n
}

func (e *Emitter) envName(f *FuncDef) string {
	return "Env_" + e.funcName(f)
}

// displayName is the human name for stack traces: the declared name, or
// the name the closure is being assigned to, or "lambda".
func (e *Emitter) displayName(f *FuncDef) string {
	if f.Name != symbol.Invalid {
		return f.Name.Str()
	}
	if len(e.assignNames) > 0 {
		return e.assignNames[len(e.assignNames)-1]
	}
	return "lambda"
}

func (e *Emitter) moduleRef(imp *Import) string {
	if imp.Script != nil {
		return fmt.Sprintf("m%d", imp.Script.Index)
	}
	return "m_unresolved"
}

// typeIndex interns t in the script's type list, returning its stable
// index (spec §5: append-only during checking+emission).
func (e *Emitter) typeIndex(t *Type) int {
	for i, x := range e.typeList {
		if x == t {
			return i
		}
	}
	e.typeList = append(e.typeList, t)
	return len(e.typeList) - 1
}

// ---- script top-level ----------------------------------------------------

// EmitScript emits the whole compilation unit in the fixed order of spec
// §4.7: prelude, runtime-context pointer, closure environment records,
// forward declarations, imported-module structs, global storages,
// function definitions, and the single entry function.
func (e *Emitter) EmitScript(root *ASTScriptRoot) string {
	e.collect(root)

	var out strings.Builder

	// (1) runtime prelude.
	out.WriteString("#include \"lambda_runtime.h\"\n")
	if e.script.StackLimit > 0 {
		fmt.Fprintf(&out, "#define LAMBDA_STACK_LIMIT %d\n", e.script.StackLimit)
	}
	out.WriteByte('\n')
	// (2) shared runtime-context pointer, initialized by the entry.
	out.WriteString("static Context* rt;\n\n")

	// (3) predefine every closure environment record.
	for _, f := range e.funcs {
		if len(f.Captures) == 0 {
			continue
		}
		fmt.Fprintf(&out, "typedef struct %s {\n", e.envName(f))
		for _, c := range f.Captures {
			fmt.Fprintf(&out, "    Item %s;\n", c.Entry.Name.Str())
		}
		fmt.Fprintf(&out, "} %s;\n\n", e.envName(f))
	}

	// (4) forward declare every function.
	for _, f := range e.funcs {
		fmt.Fprintf(&out, "static %s;\n", e.signature(f))
	}
	if len(e.funcs) > 0 {
		out.WriteByte('\n')
	}

	// Imported-module structs: one per import, listing the target's
	// public functions and pub-let storages (spec §4.7 Module import).
	for _, impNode := range root.Imports {
		e.emitModuleStruct(&out, impNode.Decl)
	}

	// (5) global variable storages.
	for _, n := range root.Body {
		switch n := n.(type) {
		case *ASTLet:
			if n.Body == nil {
				fmt.Fprintf(&out, "static Item g_%s;\n", n.Name.Str())
			}
		case *ASTPub:
			fmt.Fprintf(&out, "Item g_%s;\n", n.Name.Str())
		case *ASTVar:
			fmt.Fprintf(&out, "static Item g_%s;\n", n.Name.Str())
		}
	}
	out.WriteByte('\n')

	// (6) function definitions.
	for _, f := range e.funcs {
		e.emitFunction(&out, f)
	}

	// (7) the entry function.
	e.emitEntry(&out, root)
	return out.String()
}

// collect gathers every function (in source pre-order) and every
// top-level binding before emission begins, so forward declarations and
// env records can precede any use.
func (e *Emitter) collect(root *ASTScriptRoot) {
	WalkPre(root, func(n ASTNode) {
		if f := funcDefOf(n); f != nil {
			e.funcs = append(e.funcs, f)
			e.funcName(f)
		}
	})
	for _, n := range root.Body {
		switch n := n.(type) {
		case *ASTLet:
			// A top-level let-in is an expression, not a global binding.
			if n.Body == nil {
				e.globals[n] = true
			}
		case *ASTPub, *ASTVar:
			e.globals[n] = true
		}
	}
}

func (e *Emitter) emitModuleStruct(out *strings.Builder, imp *Import) {
	if imp.Script == nil {
		return
	}
	ref := e.moduleRef(imp)
	fmt.Fprintf(out, "struct Module_%s {\n", ref)
	for _, entry := range publicEntries(imp.Script) {
		switch entry.DefiningNode.(type) {
		case *FuncDef:
			fmt.Fprintf(out, "    Item (*%s)();\n", entry.Name.Str())
		case *ASTPub:
			fmt.Fprintf(out, "    Item %s;\n", entry.Name.Str())
		}
	}
	fmt.Fprintf(out, "};\nextern struct Module_%s %s;\n\n", ref, ref)
}

// ---- function emission ---------------------------------------------------

// signature renders f's C signature. Capturing functions take their env
// record first; ordinary parameters get native typed slots, while
// optional, defaulted, and variadic parameters are Item slots unboxed at
// use sites (spec §4.7 identifier emission).
func (e *Emitter) signature(f *FuncDef) string {
	var parts []string
	if len(f.Captures) > 0 {
		parts = append(parts, e.envName(f)+"* _env")
	}
	for _, p := range f.Params {
		// A variadic parameter is the trailing hidden slot receiving the
		// packaged lazy list (spec §4.3 Variadic).
		parts = append(parts, e.paramCType(p)+" "+p.Name.Str())
	}
	if len(parts) == 0 {
		parts = append(parts, "void")
	}
	return fmt.Sprintf("Item %s(%s)", e.funcName(f), strings.Join(parts, ", "))
}

func (e *Emitter) paramCType(p *ASTParam) string {
	if p.IsOptional || p.Variadic {
		return "Item"
	}
	if t := p.TypeOf(); t != nil && t.Base.IsPrimitive() && t.Base != TYPE_ANY {
		return cDecl(t.Base)
	}
	return "Item"
}

func (e *Emitter) emitFunction(out *strings.Builder, f *FuncDef) {
	saved := e.body
	savedIndent := e.indent
	savedTmp := e.tmpCount
	var body strings.Builder
	e.body = &body
	e.indent = 1
	e.tmpCount = 0
	e.closureStack = append(e.closureStack, f)
	if f.IsTCOEligible {
		e.tcoFrame = f
	}

	if f.NeedsStackCheck {
		e.stmtf("LAMBDA_STACK_CHECK(\"%s\");", e.displayName(f))
	}
	if f.IsTCOEligible {
		// Loop label for the tail-call goto transform (spec §4.5).
		e.stmtf("_tco_entry:;")
	}
	if f.IsProc {
		e.emitStmt(f.Body)
		e.stmtf("return ITEM_NULL;")
	} else {
		e.emitTail(f.Body, f)
	}

	e.closureStack = e.closureStack[:len(e.closureStack)-1]
	e.tcoFrame = nil
	e.body = saved
	e.indent = savedIndent
	e.tmpCount = savedTmp

	fmt.Fprintf(out, "static %s {\n%s}\n\n", e.signature(f), body.String())
}

// emitTail lowers n in tail position (spec §4.5): tail-ness propagates
// through if branches, a let's terminal expression, and a block's last
// statement; a self-recursive call in TailCallSites becomes parameter
// reassignment plus a goto instead of a native call.
func (e *Emitter) emitTail(n ASTNode, f *FuncDef) {
	switch n := n.(type) {
	case *ASTIfExpr:
		e.open("if (%s) {", e.cond(n.Cond))
		e.emitTail(n.Then, f)
		e.indent--
		e.open("} else {")
		e.emitTail(n.Else, f)
		e.close("}")
	case *ASTLet:
		e.emitLetBinding(n)
		if n.Body != nil {
			e.emitTail(n.Body, f)
		} else {
			e.stmtf("return ITEM_NULL;")
		}
	case *ASTBlock:
		for i, s := range n.Stmts {
			if i == len(n.Stmts)-1 {
				e.emitTail(s, f)
			} else {
				e.emitStmt(s)
			}
		}
		if len(n.Stmts) == 0 {
			e.stmtf("return ITEM_NULL;")
		}
	case *ASTReturn:
		if n.Value != nil {
			e.emitTail(n.Value, f)
		} else {
			e.stmtf("return ITEM_NULL;")
		}
	case *ASTParen:
		e.emitTail(n.Inner, f)
	case *ASTCall:
		if f.IsTCOEligible && isTailSite(f, n) {
			e.emitTCOJump(n, f)
			return
		}
		e.stmtf("return %s;", e.item(n))
	default:
		e.stmtf("return %s;", e.item(n))
	}
}

func isTailSite(f *FuncDef, call *ASTCall) bool {
	for _, c := range f.TailCallSites {
		if c == call {
			return true
		}
	}
	return false
}

// emitTCOJump materializes every argument into a temporary before any
// parameter slot is reassigned, so permuted self-calls like f(b, a)
// cannot read an already-clobbered slot (spec §4.5).
func (e *Emitter) emitTCOJump(call *ASTCall, f *FuncDef) {
	e.open("{")
	temps := make([]string, len(f.Params))
	for i, p := range f.Params {
		t := e.tmp("a")
		temps[i] = t
		e.stmtf("%s %s = %s;", e.paramCType(p), t, e.argForParam(call, i, p))
	}
	for i, p := range f.Params {
		e.stmtf("%s = %s;", p.Name.Str(), temps[i])
	}
	e.stmtf("goto _tco_entry;")
	e.close("}")
}

// ---- entry ---------------------------------------------------------------

// emitEntry produces the single entry function: initialize the runtime
// pointer, run content-block expressions collecting a final value,
// assign globals, and dispatch to a user `main` procedure when one is
// declared (spec §4.7 Script top-level).
func (e *Emitter) emitEntry(out *strings.Builder, root *ASTScriptRoot) {
	entry := fmt.Sprintf("m%d_main", e.script.Index)
	e.script.FuncNames.Register(entry, e.script.Reference)

	saved := e.body
	var body strings.Builder
	e.body = &body
	e.indent = 1
	e.tmpCount = 0

	e.stmtf("rt = _ctx;")
	e.stmtf("Item _result = ITEM_NULL;")
	var userMain *FuncDef
	for _, n := range root.Body {
		switch n := n.(type) {
		case *ASTLet:
			if n.Body == nil {
				e.stmtf("g_%s = %s;", n.Name.Str(), e.item(n.Expr))
			} else {
				e.stmtf("_result = %s;", e.item(n))
			}
		case *ASTPub:
			e.stmtf("g_%s = %s;", n.Name.Str(), e.item(n.Expr))
		case *ASTVar:
			e.stmtf("g_%s = %s;", n.Name.Str(), e.item(n.Expr))
		case *ASTFn, *ASTFnExpr:
			// Definitions emit above; nothing to run here.
		case *ASTProcedure:
			if n.Name != symbol.Invalid && n.Name.Str() == "main" {
				userMain = &n.FuncDef
			}
		case *ASTPatternDef, *ASTImport:
			// Patterns are interned at compile time; imports are linked.
		default:
			e.stmtf("_result = %s;", e.item(n))
		}
	}
	if userMain != nil {
		e.stmtf("_result = %s();", e.funcName(userMain))
	}
	e.stmtf("return _result;")

	e.body = saved
	fmt.Fprintf(out, "Item %s(Context* _ctx) {\n%s}\n", entry, body.String())
}

// cDecl names the native C type for a primitive TypeID used in typed
// slots (spec §4.7 "native typed slot").
func cDecl(t TypeID) string {
	switch t {
	case TYPE_BOOL:
		return "bool"
	case TYPE_INT:
		return "int32_t"
	case TYPE_INT64:
		return "int64_t"
	case TYPE_FLOAT:
		return "double"
	case TYPE_STRING, TYPE_SYMBOL, TYPE_BINARY:
		return "String*"
	case TYPE_DECIMAL:
		return "Decimal*"
	case TYPE_DTIME:
		return "DateTime*"
	default:
		return cTypeName(t)
	}
}

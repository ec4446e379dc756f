package lambda

// Expression lowering (C8, spec §4.7). Every emission returns a BoxExpr:
// a C expression string plus the C-level type it computes at. The parent
// context decides the transition — item() when an Item is required,
// prim() when a primitive fast path applies, cond() for truth tests —
// which is the NeedsItem / NeedsPrimitive<t> state machine of spec §4.7
// expressed as three entry points instead of a mode flag.

import (
	"fmt"
	"strings"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// item emits n and bridges the result to Item form.
func (e *Emitter) item(n ASTNode) string {
	if lit, ok := n.(*ASTLiteral); ok && lit.IsConst {
		return Box(lit.Kind, e.emitLiteral(lit).Src, true, lit.ConstIdx).Src
	}
	v := e.emitValue(n)
	if v.Typ == TYPE_ANY {
		return v.Src
	}
	return Box(v.Typ, v.Src, false, 0).Src
}

// prim emits n at the given primitive type, unboxing or casting as
// needed. Valid only when the checker proved the type (spec §4.1).
func (e *Emitter) prim(n ASTNode, want TypeID) string {
	v := e.emitValue(n)
	if v.Typ == want {
		return v.Src
	}
	if v.Typ == TYPE_ANY {
		return Unbox(want, v.Src).Src
	}
	if v.Typ.IsNumeric() && want.IsNumeric() {
		// Widening within the lattice, or a recorded narrowing cast when
		// the parameter type demands it (spec §4.3 Assignability).
		return fmt.Sprintf("(%s)(%s)", cDecl(want), v.Src)
	}
	return Unbox(want, Box(v.Typ, v.Src, false, 0).Src).Src
}

// cond emits n as a C truth test.
func (e *Emitter) cond(n ASTNode) string {
	v := e.emitValue(n)
	if v.Typ == TYPE_BOOL {
		return v.Src
	}
	if v.Typ == TYPE_ANY {
		return fmt.Sprintf("is_truthy(%s)", v.Src)
	}
	return fmt.Sprintf("is_truthy(%s)", Box(v.Typ, v.Src, false, 0).Src)
}

// emitValue lowers one expression node.
func (e *Emitter) emitValue(n ASTNode) BoxExpr {
	if n == nil {
		return BoxExpr{Src: "ITEM_NULL", Typ: TYPE_ANY}
	}
	switch n := n.(type) {
	case *ASTLiteral:
		return e.emitLiteral(n)
	case *ASTIdent:
		return e.emitIdent(n)
	case *ASTParen:
		v := e.emitValue(n.Inner)
		return BoxExpr{Src: "(" + v.Src + ")", Typ: v.Typ}
	case *ASTUnary:
		return e.emitUnary(n)
	case *ASTBinary:
		return e.emitBinary(n)
	case *ASTCurrentItem:
		return BoxExpr{Src: e.pipeItemName(), Typ: TYPE_ANY}
	case *ASTCurrentIndex:
		return BoxExpr{Src: e.pipeIndexName(), Typ: TYPE_INT64}
	case *ASTMember:
		return e.emitMember(n)
	case *ASTIndex:
		return e.emitIndex(n)
	case *ASTPath, *ASTPathIndex:
		return e.emitPath(n)
	case *ASTArray:
		return e.emitArray(n)
	case *ASTList:
		return e.emitList(n)
	case *ASTMapLit:
		return e.emitMap(n)
	case *ASTElement:
		return e.emitElement(n)
	case *ASTContent:
		return e.emitContent(n)
	case *ASTIfExpr:
		return e.emitIfExpr(n)
	case *ASTLet:
		return e.emitLetExpr(n)
	case *ASTDecompose:
		return e.emitDecomposeExpr(n)
	case *ASTFor:
		return e.emitFor(n)
	case *ASTBlock:
		return e.emitBlockExpr(n)
	case *ASTFn:
		return BoxExpr{Src: e.fnValue(&n.FuncDef), Typ: TYPE_ANY}
	case *ASTFnExpr:
		return BoxExpr{Src: e.fnValue(&n.FuncDef), Typ: TYPE_ANY}
	case *ASTProcedure:
		return BoxExpr{Src: e.fnValue(&n.FuncDef), Typ: TYPE_ANY}
	case *ASTCall:
		return e.emitCall(n)
	case *ASTNamedArg:
		return e.emitValue(n.Expr)
	case *ASTSysFuncRef:
		return BoxExpr{
			Src: fmt.Sprintf("to_fn_named((FnPtr)%s, %d, \"%s\")", n.Info.CSymbol, n.Info.Arity, n.Info.Name),
			Typ: TYPE_ANY,
		}
	case *ASTBaseType:
		return BoxExpr{Src: fmt.Sprintf("const_type(%d)", int(n.Ref)), Typ: TYPE_ANY}
	case *ASTPatternDef:
		return e.emitPatternRef(n.Name, n.Pos())
	case *ASTUnknown:
		return e.errValue(n.Pos(), "malformed node: %s", n.Reason)
	}
	return e.errValue(n.Pos(), "no lowering for node %T", n)
}

// ---- literals ------------------------------------------------------------

func (e *Emitter) emitLiteral(n *ASTLiteral) BoxExpr {
	switch n.Kind {
	case TYPE_NULL:
		return BoxExpr{Src: "ITEM_NULL", Typ: TYPE_ANY}
	case TYPE_BOOL:
		if n.Int != 0 {
			return BoxExpr{Src: "true", Typ: TYPE_BOOL}
		}
		return BoxExpr{Src: "false", Typ: TYPE_BOOL}
	case TYPE_INT:
		return BoxExpr{Src: fmt.Sprintf("%d", n.Int), Typ: TYPE_INT}
	case TYPE_INT64:
		return BoxExpr{Src: fmt.Sprintf("%dLL", n.Int), Typ: TYPE_INT64}
	case TYPE_FLOAT:
		return BoxExpr{Src: fmt.Sprintf("%g", n.Float), Typ: TYPE_FLOAT}
	case TYPE_STRING:
		return BoxExpr{Src: fmt.Sprintf("const_s(%d)", n.ConstIdx), Typ: TYPE_STRING}
	case TYPE_SYMBOL:
		return BoxExpr{Src: fmt.Sprintf("const_k(%d)", n.ConstIdx), Typ: TYPE_SYMBOL}
	case TYPE_BINARY:
		return BoxExpr{Src: fmt.Sprintf("const_c2it(%d)", n.ConstIdx), Typ: TYPE_ANY}
	case TYPE_DTIME:
		return BoxExpr{Src: fmt.Sprintf("const_x2it(%d)", n.ConstIdx), Typ: TYPE_ANY}
	case TYPE_DECIMAL:
		return BoxExpr{Src: fmt.Sprintf("const_d2it(%d)", n.ConstIdx), Typ: TYPE_ANY}
	}
	return e.errValue(n.Pos(), "unrecognized literal kind %v", n.Kind)
}

// ---- identifiers ---------------------------------------------------------

// emitIdent implements the identifier dispatch of spec §4.7: captured
// variable, Item-slot parameter, native slot, module-imported name,
// named-function reference, or error sentinel.
func (e *Emitter) emitIdent(n *ASTIdent) BoxExpr {
	if n.Entry == nil {
		return e.errValue(n.Pos(), "undefined identifier %q", n.Name.Str())
	}
	t := entryType(n.Entry)
	if n.Captured {
		// Environment slot access with type-appropriate unboxing.
		slot := fmt.Sprintf("_env->%s", n.Entry.Name.Str())
		if t.Base.IsPrimitive() && t.Base != TYPE_ANY && t.Base != TYPE_ERROR {
			return Unbox(t.Base, slot)
		}
		return BoxExpr{Src: slot, Typ: TYPE_ANY}
	}
	if n.Entry.ImportOrigin != nil {
		return e.importedRef(n.Entry)
	}
	switch def := n.Entry.DefiningNode.(type) {
	case *FuncDef:
		return BoxExpr{Src: e.fnValue(def), Typ: TYPE_ANY}
	case *ASTPatternDef:
		return e.emitPatternRef(def.Name, n.Pos())
	case *ASTParam:
		if def.IsOptional || def.Variadic {
			return BoxExpr{Src: n.Name.Str(), Typ: TYPE_ANY}
		}
		pt := TYPE_ANY
		if pty := def.TypeOf(); pty != nil {
			pt = pty.Base
		}
		if pt.IsPrimitive() && pt != TYPE_ANY {
			return BoxExpr{Src: n.Name.Str(), Typ: pt}
		}
		return BoxExpr{Src: n.Name.Str(), Typ: TYPE_ANY}
	case *ASTLet, *ASTPub, *ASTVar:
		if e.globals[n.Entry.DefiningNode] {
			return BoxExpr{Src: "g_" + n.Name.Str(), Typ: TYPE_ANY}
		}
		// Local slots are native only for numeric/bool, mirroring the
		// binding emission; everything else lives in an Item slot.
		if t.Base.IsNumeric() || t.Base == TYPE_BOOL {
			return BoxExpr{Src: n.Name.Str(), Typ: t.Base}
		}
		return BoxExpr{Src: n.Name.Str(), Typ: TYPE_ANY}
	default:
		return BoxExpr{Src: n.Name.Str(), Typ: TYPE_ANY}
	}
}

func (e *Emitter) importedRef(entry *NameEntry) BoxExpr {
	ref := e.moduleRef(entry.ImportOrigin)
	// The linker declares qualified names as alias.name; the struct field
	// is the bare public name.
	name := entry.Name.Str()
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if fd, ok := entry.DefiningNode.(*FuncDef); ok {
		return BoxExpr{
			Src: fmt.Sprintf("to_fn_named((FnPtr)%s.%s, %d, \"%s\")", ref, name, len(fd.Params), name),
			Typ: TYPE_ANY,
		}
	}
	return BoxExpr{Src: fmt.Sprintf("%s.%s", ref, name), Typ: TYPE_ANY}
}

// entryType infers the variable type behind a name entry.
func entryType(entry *NameEntry) *Type {
	switch def := entry.DefiningNode.(type) {
	case *ASTParam:
		if t := def.TypeOf(); t != nil {
			return t
		}
	case *ASTLet:
		if t := def.Expr.TypeOf(); t != nil {
			return t
		}
	case *ASTVar:
		if t := def.Expr.TypeOf(); t != nil {
			return t
		}
	case *ASTPub:
		if t := def.Expr.TypeOf(); t != nil {
			return t
		}
	case *FuncDef:
		if t := def.TypeOf(); t != nil {
			return t
		}
	}
	return AnyType
}

// ---- function values -----------------------------------------------------

// fnValue produces the value-form of a function: a plain tagged pointer
// for non-capturing functions, or a builder that heap-allocates the env
// record, populates the captured slots, and constructs the closure
// (spec §4.4, §4.7).
func (e *Emitter) fnValue(f *FuncDef) string {
	name := e.funcName(f)
	arity := len(f.Params)
	display := e.displayName(f)
	if len(f.Captures) == 0 {
		return fmt.Sprintf("to_fn_named((FnPtr)%s, %d, \"%s\")", name, arity, display)
	}
	envT := e.envName(f)
	var b strings.Builder
	fmt.Fprintf(&b, "({ %s* _c = (%s*)heap_calloc(1, sizeof(%s)); ", envT, envT, envT)
	for _, c := range f.Captures {
		fmt.Fprintf(&b, "_c->%s = %s; ", c.Entry.Name.Str(), e.captureStorage(c))
	}
	fmt.Fprintf(&b, "to_closure_named((FnPtr)%s, %d, (Item*)_c, \"%s\"); })", name, arity, display)
	return b.String()
}

// captureStorage reads the captured variable at closure-construction
// time, reusing the enclosing env's boxed slot when the variable is
// itself a capture of the current function (spec §4.1 box_capture,
// §4.4 transitive capture).
func (e *Emitter) captureStorage(c Capture) string {
	if c.FromOuterEnv {
		return BoxCapture(TYPE_ANY, fmt.Sprintf("_env->%s", c.Entry.Name.Str()), true, false, 0).Src
	}
	read := e.entryRead(c.Entry)
	return BoxCapture(read.Typ, read.Src, false, false, 0).Src
}

// entryRead emits a read of a name entry in the current function's
// scope: global storage, parameter slot, or local slot.
func (e *Emitter) entryRead(entry *NameEntry) BoxExpr {
	if e.globals[entry.DefiningNode] {
		return BoxExpr{Src: "g_" + entry.Name.Str(), Typ: TYPE_ANY}
	}
	t := entryType(entry)
	if p, ok := entry.DefiningNode.(*ASTParam); ok {
		if p.IsOptional || p.Variadic {
			return BoxExpr{Src: entry.Name.Str(), Typ: TYPE_ANY}
		}
		if t.Base.IsPrimitive() && t.Base != TYPE_ANY && t.Base != TYPE_ERROR {
			return BoxExpr{Src: entry.Name.Str(), Typ: t.Base}
		}
		return BoxExpr{Src: entry.Name.Str(), Typ: TYPE_ANY}
	}
	if t.Base.IsNumeric() || t.Base == TYPE_BOOL {
		return BoxExpr{Src: entry.Name.Str(), Typ: t.Base}
	}
	return BoxExpr{Src: entry.Name.Str(), Typ: TYPE_ANY}
}

// ---- operators -----------------------------------------------------------

func (e *Emitter) emitUnary(n *ASTUnary) BoxExpr {
	ot := e.emitValue(n.Operand)
	switch n.Op {
	case UnaryNot:
		if ot.Typ == TYPE_BOOL {
			return BoxExpr{Src: "(!" + ot.Src + ")", Typ: TYPE_BOOL}
		}
		return BoxExpr{Src: fmt.Sprintf("fn_not(%s)", e.asItem(ot)), Typ: TYPE_ANY}
	case UnaryMinus:
		if ot.Typ.IsNumeric() {
			return BoxExpr{Src: "(-" + ot.Src + ")", Typ: ot.Typ}
		}
		return BoxExpr{Src: fmt.Sprintf("fn_neg(%s)", e.asItem(ot)), Typ: TYPE_ANY}
	default: // UnaryPlus
		if ot.Typ.IsNumeric() {
			return ot
		}
		return BoxExpr{Src: fmt.Sprintf("fn_pos(%s)", e.asItem(ot)), Typ: TYPE_ANY}
	}
}

func (e *Emitter) asItem(v BoxExpr) string {
	if v.Typ == TYPE_ANY {
		return v.Src
	}
	return Box(v.Typ, v.Src, false, 0).Src
}

var cArith = map[BinaryOp]string{OpAdd: "+", OpSub: "-", OpMul: "*"}
var runtimeBinary = map[BinaryOp]string{
	OpAdd: "fn_add", OpSub: "fn_sub", OpMul: "fn_mul", OpDiv: "fn_div",
	OpIDiv: "fn_idiv", OpMod: "fn_mod", OpPow: "fn_pow",
	OpEq: "fn_eq", OpNe: "fn_ne", OpLt: "fn_lt", OpLe: "fn_le", OpGt: "fn_gt", OpGe: "fn_ge",
	OpIs: "fn_is", OpIn: "fn_in", OpTo: "fn_to", OpJoin: "fn_join",
}

func (e *Emitter) emitBinary(n *ASTBinary) BoxExpr {
	switch n.Op {
	case OpAdd, OpSub, OpMul:
		lt, rt := typeOf(n.LHS), typeOf(n.RHS)
		if j, ok := Join(lt, rt); ok {
			// Numeric fast path at the join type (spec §4.3). Plain
			// native arithmetic; the INT overflow behavior is wrap-around
			// as in the reference implementation.
			return BoxExpr{
				Src: fmt.Sprintf("(%s %s %s)", e.prim(n.LHS, j), cArith[n.Op], e.prim(n.RHS, j)),
				Typ: j,
			}
		}
		return e.runtimeBin(n)
	case OpDiv:
		lt, rt := typeOf(n.LHS), typeOf(n.RHS)
		if lt.IsNumeric() && rt.IsNumeric() {
			// Fast path always computes at FLOAT (spec §4.3).
			return BoxExpr{
				Src: fmt.Sprintf("(%s / %s)", e.prim(n.LHS, TYPE_FLOAT), e.prim(n.RHS, TYPE_FLOAT)),
				Typ: TYPE_FLOAT,
			}
		}
		return e.runtimeBin(n)
	case OpIDiv, OpMod, OpPow:
		// Always routed to the runtime so zero-divisor reporting is
		// centralized (spec §4.3).
		return e.runtimeBin(n)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		// Always routed: the tagged-error encoding has no safe native
		// comparison fast path (spec §4.3).
		return e.runtimeBin(n)
	case OpAnd, OpOr:
		lv, rv := e.emitValue(n.LHS), e.emitValue(n.RHS)
		if lv.Typ == TYPE_BOOL && rv.Typ == TYPE_BOOL {
			op := "&&"
			if n.Op == OpOr {
				op = "||"
			}
			return BoxExpr{Src: fmt.Sprintf("(%s %s %s)", lv.Src, op, rv.Src), Typ: TYPE_BOOL}
		}
		name := "op_and"
		if n.Op == OpOr {
			name = "op_or"
		}
		return BoxExpr{Src: fmt.Sprintf("%s(%s, %s)", name, e.asItem(lv), e.asItem(rv)), Typ: TYPE_ANY}
	case OpIs, OpIn, OpTo, OpJoin:
		return e.runtimeBin(n)
	case OpUnion, OpIntersect:
		// Pattern operators outside a pattern definition evaluate to a
		// combined pattern value at runtime.
		fn := "fn_join"
		return BoxExpr{Src: fmt.Sprintf("%s(%s, %s)", fn, e.item(n.LHS), e.item(n.RHS)), Typ: TYPE_ANY}
	case OpWhere:
		return e.emitWhere(n)
	case OpPipe:
		return e.emitPipe(n)
	}
	return e.errValue(n.Pos(), "no lowering for binary operator")
}

func (e *Emitter) runtimeBin(n *ASTBinary) BoxExpr {
	return BoxExpr{
		Src: fmt.Sprintf("%s(%s, %s)", runtimeBinary[n.Op], e.item(n.LHS), e.item(n.RHS)),
		Typ: TYPE_ANY,
	}
}

func typeOf(n ASTNode) TypeID {
	if t := n.TypeOf(); t != nil {
		return t.Base
	}
	return TYPE_ANY
}

// ---- access --------------------------------------------------------------

func (e *Emitter) emitMember(n *ASTMember) BoxExpr {
	if n.ImportEntry != nil {
		return e.importedRef(n.ImportEntry)
	}
	key := e.script.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: n.Field.Str()})
	return BoxExpr{
		Src: fmt.Sprintf("fn_member(%s, const_k2it(%d))", e.item(n.Object), key),
		Typ: TYPE_ANY,
	}
}

// emitIndex picks the narrowest typed accessor available and falls back
// to the polymorphic index primitive (spec §4.7).
func (e *Emitter) emitIndex(n *ASTIndex) BoxExpr {
	ot, it := typeOf(n.Object), typeOf(n.Index)
	if it == TYPE_INT || it == TYPE_INT64 {
		obj := e.emitValue(n.Object)
		idx := e.prim(n.Index, TYPE_INT64)
		switch ot {
		case TYPE_ARRAY_INT:
			return BoxExpr{Src: fmt.Sprintf("array_int_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_INT}
		case TYPE_ARRAY_INT64:
			return BoxExpr{Src: fmt.Sprintf("array_int64_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_INT64}
		case TYPE_ARRAY_FLOAT:
			return BoxExpr{Src: fmt.Sprintf("array_float_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_FLOAT}
		case TYPE_ARRAY:
			return BoxExpr{Src: fmt.Sprintf("array_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_ANY}
		case TYPE_LIST:
			return BoxExpr{Src: fmt.Sprintf("list_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_ANY}
		case TYPE_ELEMENT:
			return BoxExpr{Src: fmt.Sprintf("elmt_get(%s, %s)", e.unboxed(obj, ot), idx), Typ: TYPE_ANY}
		}
	}
	if ot == TYPE_MAP {
		obj := e.emitValue(n.Object)
		return BoxExpr{Src: fmt.Sprintf("map_get(%s, %s)", e.unboxed(obj, ot), e.item(n.Index)), Typ: TYPE_ANY}
	}
	// Non-numeric indices and untyped objects go through the polymorphic
	// path.
	return BoxExpr{Src: fmt.Sprintf("fn_index(%s, %s)", e.item(n.Object), e.item(n.Index)), Typ: TYPE_ANY}
}

// unboxed renders v at container type t for a typed accessor call.
func (e *Emitter) unboxed(v BoxExpr, t TypeID) string {
	if v.Typ == t {
		return v.Src
	}
	return Unbox(t, e.asItem(v)).Src
}

func (e *Emitter) emitPath(n ASTNode) BoxExpr {
	// Paths lower to their string form plus a runtime resolution call;
	// the dynamic suffix indexes the resolved value.
	switch n := n.(type) {
	case *ASTPath:
		idx := e.script.Consts.Intern(Const{Type: TYPE_STRING, Str: pathString(n)})
		return BoxExpr{Src: fmt.Sprintf("fn_index(const_s2it(%d), ITEM_NULL)", idx), Typ: TYPE_ANY}
	case *ASTPathIndex:
		base := e.emitPath(n.Path)
		return BoxExpr{Src: fmt.Sprintf("fn_index(%s, %s)", base.Src, e.item(n.Suffix)), Typ: TYPE_ANY}
	}
	return BoxExpr{Src: "ITEM_NULL", Typ: TYPE_ANY}
}

func pathString(p *ASTPath) string {
	var b strings.Builder
	b.WriteString(p.Scheme)
	for i, s := range p.Segments {
		if i > 0 || p.Scheme != "" {
			b.WriteByte('/')
		}
		switch {
		case s.Recursive:
			b.WriteString("**")
		case s.Wildcard:
			b.WriteByte('*')
		default:
			b.WriteString(s.Name)
		}
	}
	return b.String()
}

// ---- calls ---------------------------------------------------------------

func (e *Emitter) emitCall(n *ASTCall) BoxExpr {
	switch n.Kind {
	case CalleeDirect:
		return e.emitDirectCall(n)
	case CalleeSystem:
		return e.emitSystemCall(n)
	default:
		return e.emitDynamicCall(n)
	}
}

// emitDirectCall emits a plain native call with coerced arguments; a
// capturing callee receives its freshly built environment first, and a
// variadic callee a trailing packaged list (spec §4.7 Calls).
func (e *Emitter) emitDirectCall(n *ASTCall) BoxExpr {
	fd := n.DirectDef
	if fd == nil {
		return e.errValue(n.Pos(), "direct call with no resolved definition")
	}
	if mem, ok := n.Func.(*ASTMember); ok && mem.ImportEntry != nil {
		return e.emitImportedCall(n, mem, fd)
	}
	var args []string
	if len(fd.Captures) > 0 {
		envT := e.envName(fd)
		var b strings.Builder
		fmt.Fprintf(&b, "({ %s* _c = (%s*)heap_calloc(1, sizeof(%s)); ", envT, envT, envT)
		for _, c := range fd.Captures {
			fmt.Fprintf(&b, "_c->%s = %s; ", c.Entry.Name.Str(), e.captureStorage(c))
		}
		b.WriteString("_c; })")
		args = append(args, b.String())
	}
	for i, p := range fd.Params {
		args = append(args, e.argForParam(n, i, p))
	}
	return BoxExpr{Src: fmt.Sprintf("%s(%s)", e.funcName(fd), strings.Join(args, ", ")), Typ: TYPE_ANY}
}

func (e *Emitter) emitImportedCall(n *ASTCall, mem *ASTMember, fd *FuncDef) BoxExpr {
	ref := e.moduleRef(mem.ImportEntry.ImportOrigin)
	var args []string
	for i, p := range fd.Params {
		args = append(args, e.argForParam(n, i, p))
	}
	return BoxExpr{
		Src: fmt.Sprintf("%s.%s(%s)", ref, mem.Field.Str(), strings.Join(args, ", ")),
		Typ: TYPE_ANY,
	}
}

// argForParam renders the actual argument feeding parameter i: the
// mapped argument coerced to the parameter slot type, the default
// expression, or NULL for a missing optional (spec §4.3).
func (e *Emitter) argForParam(call *ASTCall, i int, p *ASTParam) string {
	if p.Variadic {
		return e.packVariadic(call.Variadic)
	}
	var argNode ASTNode
	if call.ArgMap != nil && i < len(call.ArgMap) && call.ArgMap[i] >= 0 {
		argNode = call.Args[call.ArgMap[i]]
		if na, ok := argNode.(*ASTNamedArg); ok {
			argNode = na.Expr
		}
	} else if p.Default != nil {
		argNode = p.Default
	} else {
		return "ITEM_NULL"
	}
	if p.IsOptional {
		return e.item(argNode)
	}
	if t := p.TypeOf(); t != nil && t.Base.IsPrimitive() && t.Base != TYPE_ANY {
		return e.prim(argNode, t.Base)
	}
	return e.item(argNode)
}

// packVariadic packages extra positional arguments into the lazy list
// passed as the trailing hidden argument (spec §4.3 Variadic).
func (e *Emitter) packVariadic(extra []ASTNode) string {
	if len(extra) == 0 {
		return "(Item)list_end(list(0))"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "({ List* _vl = list(%d); ", len(extra))
	for _, a := range extra {
		fmt.Fprintf(&b, "list_push(_vl, %s); ", e.item(a))
	}
	b.WriteString("(Item)list_end(_vl); })")
	return b.String()
}

func (e *Emitter) emitSystemCall(n *ASTCall) BoxExpr {
	sf := n.SysFunc
	args := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, e.item(a))
	}
	return BoxExpr{Src: fmt.Sprintf("%s(%s)", sf.CSymbol, strings.Join(args, ", ")), Typ: TYPE_ANY}
}

// emitDynamicCall lowers calls through function variables: fn_call1..3
// avoid the list allocation for small arities; the general fn_call
// packages arguments into an on-stack Item array (spec §4.7 Calls).
func (e *Emitter) emitDynamicCall(n *ASTCall) BoxExpr {
	fn := e.item(n.Func)
	args := make([]string, 0, len(n.Args))
	for _, a := range n.Args {
		args = append(args, e.item(a))
	}
	switch len(args) {
	case 0:
		return BoxExpr{Src: fmt.Sprintf("fn_call(%s, 0, (Item*)0)", fn), Typ: TYPE_ANY}
	case 1:
		return BoxExpr{Src: fmt.Sprintf("fn_call1(%s, %s)", fn, args[0]), Typ: TYPE_ANY}
	case 2:
		return BoxExpr{Src: fmt.Sprintf("fn_call2(%s, %s, %s)", fn, args[0], args[1]), Typ: TYPE_ANY}
	case 3:
		return BoxExpr{Src: fmt.Sprintf("fn_call3(%s, %s, %s, %s)", fn, args[0], args[1], args[2]), Typ: TYPE_ANY}
	default:
		return BoxExpr{
			Src: fmt.Sprintf("fn_call(%s, %d, (Item[]){%s})", fn, len(args), strings.Join(args, ", ")),
			Typ: TYPE_ANY,
		}
	}
}

// ---- pipes ---------------------------------------------------------------

func (e *Emitter) pipeItemName() string {
	return fmt.Sprintf("_pipe_item%d", e.pipeCount)
}

func (e *Emitter) pipeIndexName() string {
	return fmt.Sprintf("_pipe_index%d", e.pipeCount)
}

// emitPipe lowers both pipe modes (spec §4.3): auto-map when the RHS
// references ~ or ~#, aggregate otherwise. The ~/~# tokens desugar into
// the loop-local bindings _pipe_itemN/_pipe_indexN, scoped to the
// generated loop body only (spec §9).
func (e *Emitter) emitPipe(n *ASTBinary) BoxExpr {
	if !n.AutoMapped {
		return e.emitAggregatePipe(n)
	}
	e.pipeCount++
	defer func() { e.pipeCount-- }()
	src := e.item(n.LHS)
	item, idx := e.pipeItemName(), e.pipeIndexName()
	body := e.item(n.RHS)
	var b strings.Builder
	fmt.Fprintf(&b, "({ Item _psrc = %s; ArraySpread* _pout = array_spreadable(); ", src)
	fmt.Fprintf(&b, "int64_t _pn = it2l(fn_len(_psrc)); ")
	fmt.Fprintf(&b, "for (int64_t _pi = 0; _pi < _pn; _pi++) { ")
	fmt.Fprintf(&b, "Item %s = item_at(_psrc, _pi); int64_t %s = _pi; ", item, idx)
	fmt.Fprintf(&b, "array_push_spread(_pout, %s); } ", body)
	b.WriteString("(Item)array_spreadable_end(_pout); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

// emitAggregatePipe passes the left value as the first argument to the
// right-hand function (spec §4.3 mode 2).
func (e *Emitter) emitAggregatePipe(n *ASTBinary) BoxExpr {
	left := e.item(n.LHS)
	if call, ok := stripParens(n.RHS).(*ASTCall); ok {
		// x | f(a, b) calls f(x, a, b) through the dynamic path.
		fn := e.item(call.Func)
		args := []string{left}
		for _, a := range call.Args {
			args = append(args, e.item(a))
		}
		switch len(args) {
		case 1:
			return BoxExpr{Src: fmt.Sprintf("fn_call1(%s, %s)", fn, args[0]), Typ: TYPE_ANY}
		case 2:
			return BoxExpr{Src: fmt.Sprintf("fn_call2(%s, %s, %s)", fn, args[0], args[1]), Typ: TYPE_ANY}
		case 3:
			return BoxExpr{Src: fmt.Sprintf("fn_call3(%s, %s, %s, %s)", fn, args[0], args[1], args[2]), Typ: TYPE_ANY}
		default:
			return BoxExpr{
				Src: fmt.Sprintf("fn_call(%s, %d, (Item[]){%s})", fn, len(args), strings.Join(args, ", ")),
				Typ: TYPE_ANY,
			}
		}
	}
	return BoxExpr{Src: fmt.Sprintf("fn_pipe_call(%s, %s)", e.item(n.RHS), left), Typ: TYPE_ANY}
}

// emitWhere filters: keep items for which the truthy predicate holds
// (spec §4.3). The predicate sees the loop-local ~ bindings.
func (e *Emitter) emitWhere(n *ASTBinary) BoxExpr {
	e.pipeCount++
	defer func() { e.pipeCount-- }()
	src := e.item(n.LHS)
	item, idx := e.pipeItemName(), e.pipeIndexName()
	pred := e.item(n.RHS)
	var b strings.Builder
	fmt.Fprintf(&b, "({ Item _wsrc = %s; ArraySpread* _wout = array_spreadable(); ", src)
	fmt.Fprintf(&b, "int64_t _wn = it2l(fn_len(_wsrc)); ")
	fmt.Fprintf(&b, "for (int64_t _wi = 0; _wi < _wn; _wi++) { ")
	fmt.Fprintf(&b, "Item %s = item_at(_wsrc, _wi); int64_t %s = _wi; (void)%s; ", item, idx, idx)
	fmt.Fprintf(&b, "if (is_truthy(%s)) array_push_spread(_wout, %s); } ", pred, item)
	b.WriteString("(Item)array_spreadable_end(_wout); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

func stripParens(n ASTNode) ASTNode {
	for {
		p, ok := n.(*ASTParen)
		if !ok {
			return n
		}
		n = p.Inner
	}
}

// emitPatternRef resolves a compiled pattern to its interned reference.
func (e *Emitter) emitPatternRef(name symbol.ID, pos Position) BoxExpr {
	if p, ok := e.script.Patterns.ByName(name); ok {
		return BoxExpr{Src: fmt.Sprintf("const_pattern(%d)", p.Index), Typ: TYPE_ANY}
	}
	return e.errValue(pos, "unresolved pattern %q", name.Str())
}

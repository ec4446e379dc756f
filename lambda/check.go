package lambda

// C4: Type Checker (spec §4.3). A bottom-up traversal that assigns a Type
// to every expression, grounded on the teacher's astTypes.add bottom-up
// switch (gql/ast_util.go) but built around Diagnostics accumulation
// instead of Panicf: every node that cannot be typed gets TYPE_ANY and is
// flagged for the runtime-polymorphic path, and checking continues (spec
// §4.3 "Errors accumulate").

import (
	"github.com/shopspring/decimal"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// Checker holds the state threaded through one Script's checking pass.
type Checker struct {
	Scopes   *ScopeStack
	Consts   *ConstTable
	Diags    *Diagnostics
	Patterns map[symbol.ID]*ASTPatternDef
	Funcs    map[symbol.ID]*FuncDef // named functions declared so far, for recursive self-calls
}

// NewChecker creates a Checker over a fresh global scope.
func NewChecker() *Checker {
	return &Checker{
		Scopes:   NewScopeStack(),
		Consts:   NewConstTable(),
		Diags:    &Diagnostics{},
		Patterns: map[symbol.ID]*ASTPatternDef{},
		Funcs:    map[symbol.ID]*FuncDef{},
	}
}

func (c *Checker) errTypef(pos Position, format string, args ...interface{}) *Type {
	c.Diags.Add(KindTypeError, pos, format, args...)
	return AnyType
}

// Check assigns a Type to n and every checkable descendant, returning
// n's type. It never returns nil: unresolvable nodes get TYPE_ANY.
func (c *Checker) Check(n ASTNode) *Type {
	if n == nil {
		return NullType
	}
	if t := n.TypeOf(); t != nil {
		// Monotonic: already checked (e.g. a default-value expression
		// reached a second time via a different call site).
		return t
	}
	t := c.check(n)
	n.SetType(t)
	return t
}

func (c *Checker) check(n ASTNode) *Type {
	switch n := n.(type) {
	case *ASTLiteral:
		return c.checkLiteral(n)
	case *ASTIdent:
		return c.checkIdent(n)
	case *ASTParen:
		return c.Check(n.Inner)
	case *ASTUnary:
		return c.checkUnary(n)
	case *ASTBinary:
		return c.checkBinary(n)
	case *ASTCurrentItem:
		return AnyType
	case *ASTCurrentIndex:
		return IntType
	case *ASTMember:
		return c.checkMember(n)
	case *ASTIndex:
		return c.checkIndex(n)
	case *ASTPath, *ASTPathIndex:
		return StringType
	case *ASTArray:
		return c.checkArray(n)
	case *ASTList:
		return c.checkList(n)
	case *ASTMapLit:
		return c.checkMap(n)
	case *ASTElement:
		return c.checkElement(n)
	case *ASTContent:
		for _, it := range n.Items {
			c.Check(it)
		}
		return AnyType
	case *ASTIfExpr:
		return c.checkIfExpr(n)
	case *ASTIfStmt:
		return c.checkIfStmt(n)
	case *ASTBlock:
		return c.checkBlock(n)
	case *ASTFor:
		return c.checkFor(n)
	case *ASTWhile:
		return c.checkWhile(n)
	case *ASTBreak, *ASTContinue:
		c.requireProc(n)
		return NullType
	case *ASTReturn:
		return c.checkReturn(n)
	case *ASTLet:
		return c.checkLet(n)
	case *ASTPub:
		return c.checkPub(n)
	case *ASTVar:
		return c.checkVar(n)
	case *ASTAssign:
		return c.checkAssign(n)
	case *ASTDecompose:
		return c.checkDecompose(n)
	case *ASTFn:
		c.checkFuncDef(&n.FuncDef, false)
		return &Type{Base: TYPE_FUNC, Returned: n.Body.TypeOf(), ParamCount: len(n.Params)}
	case *ASTFnExpr:
		c.checkFuncDef(&n.FuncDef, false)
		return &Type{Base: TYPE_FUNC, Returned: n.Body.TypeOf(), ParamCount: len(n.Params)}
	case *ASTProcedure:
		c.checkFuncDef(&n.FuncDef, true)
		return &Type{Base: TYPE_FUNC, Returned: AnyType, ParamCount: len(n.Params)}
	case *ASTCall:
		return c.checkCall(n)
	case *ASTNamedArg:
		return c.Check(n.Expr)
	case *ASTSysFuncRef:
		return &Type{Base: TYPE_FUNC, ParamCount: n.Info.Arity, IsVariadic: n.Info.IsVariadic}
	case *ASTPatternDef:
		return c.checkPatternDef(n)
	case *ASTPatternLiteral, *ASTPatternCharClass, *ASTPatternRange,
		*ASTPatternSeq, *ASTPatternRepeat, *ASTPatternNegation, *ASTBinaryPattern:
		return &Type{Base: TYPE_PATTERN}
	case *ASTBaseType:
		return &Type{Base: TYPE_TYPE}
	case *ASTArrayTypeLit, *ASTMapTypeLit, *ASTElementTypeLit, *ASTFnTypeLit:
		return &Type{Base: TYPE_TYPE}
	case *ASTImport:
		return NullType
	case *ASTScriptRoot:
		return c.checkScriptRoot(n)
	case *ASTUnknown:
		c.Diags.Add(KindShapeError, n.Pos(), "malformed node: %s", n.Reason)
		return AnyType
	default:
		c.Diags.Add(KindShapeError, n.Pos(), "unrecognized node kind %T", n)
		return AnyType
	}
}

func (c *Checker) requireProc(n ASTNode) {
	if !InProcRegion(c.Scopes.Current()) {
		c.Diags.Add(KindTypeError, n.Pos(), "procedural statement used outside a procedure")
	}
}

// ---- literals & identifiers ---------------------------------------------

func (c *Checker) checkLiteral(n *ASTLiteral) *Type {
	switch n.Kind {
	case TYPE_NULL:
		return NullType
	case TYPE_BOOL:
		return BoolType
	case TYPE_INT:
		return IntType
	case TYPE_INT64:
		return Int64Type
	case TYPE_FLOAT:
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_FLOAT, Float: n.Float})
		n.IsConst = true
		return FloatType
	case TYPE_DECIMAL:
		d, err := decimal.NewFromString(n.Str)
		if err != nil {
			return c.errTypef(n.Pos(), "bad decimal literal %q: %v", n.Str, err)
		}
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_DECIMAL, Dec: d})
		n.IsConst = true
		return DecimalType
	case TYPE_STRING:
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_STRING, Str: n.Str})
		n.IsConst = true
		return StringType
	case TYPE_SYMBOL:
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: n.Str})
		n.IsConst = true
		return SymbolType
	case TYPE_BINARY:
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_BINARY, Str: n.Str})
		n.IsConst = true
		return BinaryType
	case TYPE_DTIME:
		n.ConstIdx = c.Consts.Intern(Const{Type: TYPE_DTIME, Str: n.Str})
		n.IsConst = true
		return DTimeType
	}
	return c.errTypef(n.Pos(), "unrecognized literal kind %v", n.Kind)
}

func (c *Checker) checkIdent(n *ASTIdent) *Type {
	// A reference to a resolved pattern name used in type context becomes
	// a compiled-pattern value (spec §4.3 "Patterns").
	if pd, ok := c.Patterns[n.Name]; ok {
		if entry, _, found := c.Scopes.Lookup(n.Name); found {
			n.Entry = entry
		}
		if t := pd.TypeOf(); t != nil {
			return t
		}
		return &Type{Base: TYPE_PATTERN, PatternIsSym: pd.IsSymbol}
	}
	entry, _, ok := c.Scopes.Lookup(n.Name)
	if !ok {
		c.Diags.Add(KindNameError, n.Pos(), "undefined identifier %q", n.Name.Str())
		return AnyType
	}
	n.Entry = entry
	switch def := entry.DefiningNode.(type) {
	case *ASTParam:
		if t := def.TypeOf(); t != nil {
			return t
		}
		return AnyType
	case *FuncDef:
		return &Type{Base: TYPE_FUNC, ParamCount: len(def.Params), IsVariadic: funcIsVariadic(def)}
	case *ASTLet:
		return c.Check(def.Expr)
	case *ASTVar:
		return c.Check(def.Expr)
	case *ASTPub:
		return c.Check(def.Expr)
	case *ASTFor:
		// Loop variables are Item-typed; the element type of an arbitrary
		// source is not narrowed further.
		return AnyType
	default:
		if t := entry.DefiningNode.TypeOf(); t != nil {
			return t
		}
		return AnyType
	}
}

// ---- operators -----------------------------------------------------------

func (c *Checker) checkUnary(n *ASTUnary) *Type {
	t := c.Check(n.Operand)
	switch n.Op {
	case UnaryNot:
		if t.Base != TYPE_BOOL {
			return c.errTypef(n.Pos(), "operand of ! is not bool (is %v)", t.Base)
		}
		return BoolType
	default: // +, -
		if t.Base.IsNumeric() {
			return t
		}
		return AnyType // routes to fn_neg/fn_pos at runtime
	}
}

func (c *Checker) checkBinary(n *ASTBinary) *Type {
	switch n.Op {
	case OpAdd, OpSub, OpMul:
		lt, rt := c.Check(n.LHS).Base, c.Check(n.RHS).Base
		if j, ok := Join(lt, rt); ok {
			return &Type{Base: j}
		}
		return AnyType
	case OpDiv:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return FloatType // fast path always yields FLOAT (spec §4.3); 0-divisor detection is runtime's job
	case OpIDiv, OpMod, OpPow:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return AnyType // always routed to the runtime (spec §4.3)
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return BoolType // always routed to the runtime (spec §4.3)
	case OpAnd, OpOr:
		lt := c.Check(n.LHS)
		rt := c.Check(n.RHS)
		if lt.Base == TYPE_BOOL && rt.Base == TYPE_BOOL {
			return BoolType
		}
		return AnyType
	case OpIs, OpIn, OpTo, OpJoin:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return AnyType
	case OpUnion, OpIntersect:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return &Type{Base: TYPE_PATTERN}
	case OpWhere:
		c.Check(n.LHS)
		c.Check(n.RHS)
		return AnyType // filtered collection; element type not narrowed further
	case OpPipe:
		return c.checkPipe(n)
	}
	return c.errTypef(n.Pos(), "unrecognized binary operator")
}

// checkPipe implements spec §4.3 "Pipe and filter": auto-map when RHS
// references ~ or ~#, aggregate otherwise.
func (c *Checker) checkPipe(n *ASTBinary) *Type {
	c.Check(n.LHS)
	n.AutoMapped = referencesCurrentItem(n.RHS)
	c.Check(n.RHS)
	return AnyType
}

func referencesCurrentItem(n ASTNode) bool {
	switch n := n.(type) {
	case *ASTCurrentItem, *ASTCurrentIndex:
		return true
	case *ASTUnary:
		return referencesCurrentItem(n.Operand)
	case *ASTBinary:
		if n.Op == OpPipe {
			// Nested pipe's ~ is scoped to its own RHS, not ours.
			return false
		}
		return referencesCurrentItem(n.LHS) || referencesCurrentItem(n.RHS)
	case *ASTCall:
		for _, a := range n.Args {
			if referencesCurrentItem(a) {
				return true
			}
		}
		return false
	case *ASTMember:
		return referencesCurrentItem(n.Object)
	case *ASTIndex:
		return referencesCurrentItem(n.Object) || referencesCurrentItem(n.Index)
	case *ASTParen:
		return referencesCurrentItem(n.Inner)
	}
	return false
}

// ---- access ---------------------------------------------------------------

func (c *Checker) checkMember(n *ASTMember) *Type {
	// An import-qualified reference (alias.name) resolves against the
	// linker-injected entries before ordinary member typing (spec §4.8).
	if id, ok := n.Object.(*ASTIdent); ok {
		if qid, found := symbol.Lookup(id.Name.Str() + "." + n.Field.Str()); found {
			if entry, _, ok := c.Scopes.Lookup(qid); ok && entry.ImportOrigin != nil {
				n.ImportEntry = entry
				switch def := entry.DefiningNode.(type) {
				case *FuncDef:
					return &Type{Base: TYPE_FUNC, ParamCount: len(def.Params), IsVariadic: funcIsVariadic(def)}
				case *ASTPub:
					if t := def.TypeOf(); t != nil {
						return t
					}
				}
				return AnyType
			}
		}
	}
	ot := c.Check(n.Object)
	if ot.Base == TYPE_MAP {
		for _, f := range ot.Fields {
			if f.Name == n.Field.Str() {
				return f.Type
			}
		}
	}
	if ot.Base == TYPE_ELEMENT {
		for _, f := range ot.ElementAttrs {
			if f.Name == n.Field.Str() {
				return f.Type
			}
		}
	}
	return AnyType
}

func (c *Checker) checkIndex(n *ASTIndex) *Type {
	ot := c.Check(n.Object)
	it := c.Check(n.Index)
	switch ot.Base {
	case TYPE_ARRAY_INT:
		if it.Base == TYPE_INT {
			return IntType
		}
	case TYPE_ARRAY_INT64:
		if it.Base == TYPE_INT {
			return Int64Type
		}
	case TYPE_ARRAY_FLOAT:
		if it.Base == TYPE_INT {
			return FloatType
		}
	case TYPE_ARRAY, TYPE_LIST:
		if it.Base == TYPE_INT {
			return AnyType
		}
	case TYPE_MAP:
		return AnyType
	}
	return AnyType
}

// ---- constructors ----------------------------------------------------------

func (c *Checker) checkArray(n *ASTArray) *Type {
	var elem *Type
	uniform := true
	n.Spreadable = make([]bool, 0, len(n.Items))
	for _, it := range n.Items {
		t := c.Check(it)
		_, isFor := it.(*ASTFor)
		n.Spreadable = append(n.Spreadable, isFor)
		if elem == nil {
			elem = t
		} else if elem.Base != t.Base {
			uniform = false
		}
	}
	if elem == nil {
		return &Type{Base: TYPE_ARRAY, Nested: AnyType}
	}
	if uniform {
		switch elem.Base {
		case TYPE_INT:
			return &Type{Base: TYPE_ARRAY_INT, Nested: IntType}
		case TYPE_INT64:
			return &Type{Base: TYPE_ARRAY_INT64, Nested: Int64Type}
		case TYPE_FLOAT:
			return &Type{Base: TYPE_ARRAY_FLOAT, Nested: FloatType}
		}
	}
	return &Type{Base: TYPE_ARRAY, Nested: AnyType}
}

func (c *Checker) checkList(n *ASTList) *Type {
	for _, it := range n.Items {
		c.Check(it)
	}
	return &Type{Base: TYPE_LIST, Nested: AnyType}
}

func (c *Checker) checkMap(n *ASTMapLit) *Type {
	fields := make([]MapField, 0, len(n.Items))
	for _, it := range n.Items {
		c.Check(it.Key)
		vt := c.Check(it.Value)
		name := ""
		if lit, ok := it.Key.(*ASTLiteral); ok {
			name = lit.Str
		}
		fields = append(fields, MapField{Name: name, Type: vt})
	}
	return &Type{Base: TYPE_MAP, Fields: fields}
}

func (c *Checker) checkElement(n *ASTElement) *Type {
	attrs := make([]MapField, 0, len(n.Attrs))
	for _, a := range n.Attrs {
		vt := c.Check(a.Value)
		attrs = append(attrs, MapField{Name: a.Name.Str(), Type: vt})
	}
	for _, it := range n.Content {
		c.Check(it)
	}
	return &Type{Base: TYPE_ELEMENT, ElementTag: n.Tag, ElementAttrs: attrs, ElementContent: AnyType}
}

// ---- control ---------------------------------------------------------------

func (c *Checker) checkIfExpr(n *ASTIfExpr) *Type {
	ct := c.Check(n.Cond)
	if ct.Base != TYPE_BOOL {
		c.Diags.Add(KindTypeError, n.Cond.Pos(), "if-condition is not bool (is %v)", ct.Base)
	}
	tt := c.Check(n.Then)
	et := c.Check(n.Else)
	if tt.Base == et.Base {
		return tt
	}
	return AnyType // branches boxed uniformly at emission (spec §4.7)
}

func (c *Checker) checkIfStmt(n *ASTIfStmt) *Type {
	c.requireProc(n)
	for _, cl := range n.Clauses {
		if cl.Cond != nil {
			c.Check(cl.Cond)
		}
		c.Check(cl.Body)
	}
	return NullType
}

func (c *Checker) checkBlock(n *ASTBlock) *Type {
	var last *Type = NullType
	for _, s := range n.Stmts {
		last = c.Check(s)
	}
	return last
}

func (c *Checker) checkFor(n *ASTFor) *Type {
	c.Check(n.Source)
	n.DeclScope = c.Scopes.Current() // recorded on the node
	c.Scopes.EnterScope(false)
	defer c.Scopes.ExitScope()
	if n.IterVar != symbol.Invalid {
		_ = c.Scopes.Declare(n.IterVar, n, nil)
	}
	if n.IndexVar != symbol.Invalid {
		_ = c.Scopes.Declare(n.IndexVar, n, nil)
	}
	for _, l := range n.Lets {
		c.Check(l.Expr)
		if err := c.Scopes.Declare(l.Name, n, nil); err != nil {
			c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
		}
	}
	if n.Where != nil {
		if wt := c.Check(n.Where); wt.Base != TYPE_BOOL && wt.Base != TYPE_ANY {
			c.Diags.Add(KindTypeError, n.Where.Pos(), "where-clause is not bool (is %v)", wt.Base)
		}
	}
	if n.Group != nil {
		c.Check(n.Group)
	}
	for _, o := range n.Order {
		c.Check(o.Key)
	}
	if n.Limit != nil {
		c.Check(n.Limit)
	}
	if n.Offset != nil {
		c.Check(n.Offset)
	}
	c.Check(n.Body)
	return &Type{Base: TYPE_ARRAY, Nested: AnyType}
}

func (c *Checker) checkWhile(n *ASTWhile) *Type {
	c.requireProc(n)
	c.Check(n.Cond)
	c.Check(n.Body)
	return NullType
}

func (c *Checker) checkReturn(n *ASTReturn) *Type {
	c.requireProc(n)
	if n.Value != nil {
		return c.Check(n.Value)
	}
	return NullType
}

// ---- bindings ----------------------------------------------------------

func (c *Checker) checkLet(n *ASTLet) *Type {
	et := c.Check(n.Expr)
	if err := c.Scopes.Declare(n.Name, n, nil); err != nil {
		c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
	}
	_ = et
	if n.Body == nil {
		return NullType
	}
	return c.Check(n.Body)
}

func (c *Checker) checkPub(n *ASTPub) *Type {
	t := c.Check(n.Expr)
	if err := c.Scopes.Declare(n.Name, n, nil); err != nil {
		c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
	}
	return t
}

func (c *Checker) checkVar(n *ASTVar) *Type {
	c.requireProc(n)
	t := c.Check(n.Expr)
	if err := c.Scopes.Declare(n.Name, n, nil); err != nil {
		c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
	}
	return t
}

func (c *Checker) checkAssign(n *ASTAssign) *Type {
	c.requireProc(n)
	c.Check(n.Target)
	return c.Check(n.Expr)
}

func (c *Checker) checkDecompose(n *ASTDecompose) *Type {
	c.Check(n.Expr)
	if n.Positional {
		for _, nm := range n.Names {
			if err := c.Scopes.Declare(nm, n, nil); err != nil {
				c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
			}
		}
	} else {
		for _, f := range n.Fields {
			if err := c.Scopes.Declare(f.BindName, n, nil); err != nil {
				c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
			}
		}
	}
	if n.Body == nil {
		return NullType
	}
	return c.Check(n.Body)
}

// ---- functions -------------------------------------------------------------

func (c *Checker) checkFuncDef(f *FuncDef, isProc bool) {
	f.IsProc = isProc
	if f.Name != symbol.Invalid {
		c.Funcs[f.Name] = f
		if err := c.Scopes.Declare(f.Name, funcDefOwner(f), nil); err != nil {
			c.Diags.Add(KindNameError, f.Pos(), "%s", err.Error())
		}
	}
	f.DeclScope = c.Scopes.Current()
	c.Scopes.EnterFuncScope(isProc)
	defer c.Scopes.ExitScope()
	hasOptional := false
	hasVariadic := false
	for i, p := range f.Params {
		if hasVariadic {
			c.Diags.Add(KindTypeError, p.Pos(), "parameter %q follows a variadic parameter", p.Name.Str())
		}
		if p.Variadic {
			hasVariadic = true
			if i != len(f.Params)-1 {
				c.Diags.Add(KindTypeError, p.Pos(), "variadic parameter must be last")
			}
		}
		if p.IsOptional {
			hasOptional = true
			dt := c.Check(p.Default)
			p.SetType(dt)
		} else if hasOptional && !p.Variadic {
			c.Diags.Add(KindTypeError, p.Pos(), "required parameter %q follows an optional parameter", p.Name.Str())
		}
		if p.TypeOf() == nil {
			p.SetType(AnyType)
		}
		if err := c.Scopes.Declare(p.Name, p, nil); err != nil {
			c.Diags.Add(KindNameError, p.Pos(), "%s", err.Error())
		}
	}
	c.Check(f.Body)
}

// funcDefOwner returns f's own ASTNode view (FuncDef satisfies ASTNode
// through base), not the ASTFn/ASTFnExpr/ASTProcedure wrapper that embeds
// it, so NameEntry.DefiningNode holds the *FuncDef and callers
// type-switch on *FuncDef.
func funcDefOwner(f *FuncDef) ASTNode { return f }

func (c *Checker) checkCall(n *ASTCall) *Type {
	// Resolve callee (spec §4.3 "Resolve the callee").
	switch callee := n.Func.(type) {
	case *ASTIdent:
		entry, _, ok := c.Scopes.Lookup(callee.Name)
		if ok {
			if fd, ok := entry.DefiningNode.(*FuncDef); ok {
				n.Kind = CalleeDirect
				n.DirectDef = fd
				return c.checkDirectCall(n, fd)
			}
			if sf, ok := LookupSysFunc(callee.Name.Str()); ok {
				n.Kind = CalleeSystem
				n.SysFunc = sf
				return c.checkSystemCall(n, sf)
			}
			n.Kind = CalleeDynamic
			c.Check(callee)
			return c.checkDynamicCall(n)
		}
		if sf, ok := LookupSysFunc(callee.Name.Str()); ok {
			n.Kind = CalleeSystem
			n.SysFunc = sf
			return c.checkSystemCall(n, sf)
		}
		c.Diags.Add(KindNameError, n.Pos(), "call to undefined function %q", callee.Name.Str())
		return AnyType
	case *ASTMember:
		c.Check(callee)
		if callee.ImportEntry != nil {
			if fd, ok := callee.ImportEntry.DefiningNode.(*FuncDef); ok {
				n.Kind = CalleeDirect
				n.DirectDef = fd
				return c.checkDirectCall(n, fd)
			}
		}
		n.Kind = CalleeDynamic
		return c.checkDynamicCall(n)
	default:
		n.Kind = CalleeDynamic
		c.Check(n.Func)
		return c.checkDynamicCall(n)
	}
}

func (c *Checker) checkDynamicCall(n *ASTCall) *Type {
	for _, a := range n.Args {
		c.Check(a)
	}
	return AnyType
}

func (c *Checker) checkSystemCall(n *ASTCall, sf *SysFuncInfo) *Type {
	for _, a := range n.Args {
		c.Check(a)
	}
	if !sf.IsVariadic && len(n.Args) != sf.Arity {
		c.Diags.Add(KindTypeError, n.Pos(), "%s expects %d args, got %d", sf.Name, sf.Arity, len(n.Args))
	}
	return AnyType
}

// checkDirectCall implements the arg->param mapping of spec §4.3:
// positional args fill in order, named args match by name (duplicates
// are a TypeError), missing optional params default, missing
// required params fail, trailing extra positional args become the
// variadic list.
func (c *Checker) checkDirectCall(n *ASTCall, fd *FuncDef) *Type {
	np := len(fd.Params)
	n.ArgMap = make([]int, np)
	for i := range n.ArgMap {
		n.ArgMap[i] = -1
	}
	namedSeen := map[symbol.ID]bool{}
	positionalIdx := 0
	for ai, arg := range n.Args {
		if na, ok := arg.(*ASTNamedArg); ok {
			c.Check(na.Expr)
			pIdx := paramIndexByName(fd, na.Name)
			if pIdx < 0 {
				c.Diags.Add(KindTypeError, na.Pos(), "no such parameter %q", na.Name.Str())
				continue
			}
			if namedSeen[na.Name] {
				c.Diags.Add(KindTypeError, na.Pos(), "duplicate named argument %q", na.Name.Str())
				continue
			}
			namedSeen[na.Name] = true
			n.ArgMap[pIdx] = ai
			continue
		}
		c.Check(arg)
		if fd.Params != nil && positionalIdx < np && fd.Params[positionalIdx].Variadic {
			n.Variadic = append(n.Variadic, arg)
			continue
		}
		if positionalIdx >= np {
			n.Variadic = append(n.Variadic, arg)
			continue
		}
		n.ArgMap[positionalIdx] = ai
		positionalIdx++
	}
	for i, p := range fd.Params {
		if p.Variadic {
			continue
		}
		if n.ArgMap[i] == -1 {
			if !p.IsOptional {
				c.Diags.Add(KindTypeError, n.Pos(), "missing required argument %q", p.Name.Str())
			}
		} else {
			at := n.Args[n.ArgMap[i]].TypeOf()
			pt := p.TypeOf()
			if at != nil && pt != nil {
				c.checkAssignable(n.Args[n.ArgMap[i]].Pos(), at, pt, p.Name.Str())
			}
		}
	}
	if fd.Body != nil {
		if rt := fd.Body.TypeOf(); rt != nil {
			return rt
		}
	}
	return AnyType
}

func funcIsVariadic(fd *FuncDef) bool {
	return len(fd.Params) > 0 && fd.Params[len(fd.Params)-1].Variadic
}

func paramIndexByName(fd *FuncDef, name symbol.ID) int {
	for i, p := range fd.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// checkAssignable implements spec §4.3 Assignability.
func (c *Checker) checkAssignable(pos Position, from, to *Type, paramName string) {
	if to.Base == TYPE_ANY || from.Base == TYPE_ANY {
		return // bridged through box/unbox at emission
	}
	if from.Base == to.Base {
		return
	}
	if from.Base.IsNumeric() && to.Base.IsNumeric() {
		if _, ok := Join(from.Base, to.Base); ok {
			return // widening or narrowing; emitter records the cast either way
		}
	}
	c.Diags.Add(KindTypeError, pos, "cannot pass %v as parameter %q of type %v", from.Base, paramName, to.Base)
}

// ---- patterns ----------------------------------------------------------

func (c *Checker) checkPatternDef(n *ASTPatternDef) *Type {
	c.Check(n.Pattern)
	t := &Type{Base: TYPE_PATTERN, PatternIsSym: n.IsSymbol}
	c.Patterns[n.Name] = n
	if err := c.Scopes.Declare(n.Name, n, nil); err != nil {
		c.Diags.Add(KindNameError, n.Pos(), "%s", err.Error())
	}
	return t
}

// ---- module/script ----------------------------------------------------

func (c *Checker) checkScriptRoot(n *ASTScriptRoot) *Type {
	for _, imp := range n.Imports {
		c.Check(imp)
	}
	var last *Type = NullType
	for _, s := range n.Body {
		last = c.Check(s)
	}
	return last
}

package lambda

// Statement and constructor lowering (C8, spec §4.7): procedural blocks,
// while/if statements, bindings and assignment, and the collection
// constructors including the clause-ordered for-expression loop.

import (
	"fmt"
	"strings"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// ---- statements ----------------------------------------------------------

func (e *Emitter) emitStmt(n ASTNode) {
	switch n := n.(type) {
	case nil:
		return
	case *ASTBlock:
		e.open("{")
		for _, s := range n.Stmts {
			e.emitStmt(s)
		}
		e.close("}")
	case *ASTIfStmt:
		e.emitIfStmt(n)
	case *ASTWhile:
		e.open("while (%s) {", e.cond(n.Cond))
		e.emitStmt(n.Body)
		e.close("}")
	case *ASTBreak:
		e.stmtf("break;")
	case *ASTContinue:
		e.stmtf("continue;")
	case *ASTReturn:
		if e.tcoFrame != nil {
			// Inside a TCO-converted procedure a returned self-call in
			// TailCallSites becomes the goto transform (spec §4.5).
			e.emitTail(n, e.tcoFrame)
			return
		}
		if n.Value == nil {
			e.stmtf("return ITEM_NULL;")
		} else {
			e.stmtf("return %s;", e.item(n.Value))
		}
	case *ASTLet:
		e.emitLetBinding(n)
		if n.Body != nil {
			e.emitStmt(n.Body)
		}
	case *ASTVar:
		e.pushAssignName(n.Name.Str())
		e.emitLocalBinding(n.Name.Str(), n.Expr)
		e.popAssignName()
	case *ASTAssign:
		e.emitAssign(n)
	case *ASTDecompose:
		e.emitDecomposeStmt(n)
	case *ASTFn, *ASTFnExpr, *ASTProcedure:
		// Function definitions are emitted at top level; the statement
		// itself contributes nothing at its source position.
	case *ASTPatternDef, *ASTImport:
		// Compile-time declarations.
	default:
		e.stmtf("%s;", e.item(n))
	}
}

// emitIfStmt produces block lowering with else-if chaining (spec §4.7).
func (e *Emitter) emitIfStmt(n *ASTIfStmt) {
	if len(n.Clauses) == 0 {
		return
	}
	for i, cl := range n.Clauses {
		switch {
		case i == 0:
			e.open("if (%s) {", e.cond(cl.Cond))
		case cl.Cond != nil:
			e.indent--
			e.open("} else if (%s) {", e.cond(cl.Cond))
		default:
			e.indent--
			e.open("} else {")
		}
		e.emitStmt(cl.Body)
	}
	e.close("}")
}

// emitLetBinding declares the bound name as a native typed slot when the
// checker proved a numeric or bool type, an Item slot otherwise.
func (e *Emitter) emitLetBinding(n *ASTLet) {
	e.pushAssignName(n.Name.Str())
	e.emitLocalBinding(n.Name.Str(), n.Expr)
	e.popAssignName()
}

func (e *Emitter) emitLocalBinding(name string, expr ASTNode) {
	t := typeOf(expr)
	if t.IsNumeric() || t == TYPE_BOOL {
		e.stmtf("%s %s = %s;", cDecl(t), name, e.prim(expr, t))
		return
	}
	e.stmtf("Item %s = %s;", name, e.item(expr))
}

func (e *Emitter) emitAssign(n *ASTAssign) {
	switch target := stripParens(n.Target).(type) {
	case *ASTIdent:
		if target.Entry != nil && e.globals[target.Entry.DefiningNode] {
			e.stmtf("g_%s = %s;", target.Name.Str(), e.item(n.Expr))
			return
		}
		t := TYPE_ANY
		if target.Entry != nil {
			t = entryType(target.Entry).Base
		}
		if t.IsNumeric() || t == TYPE_BOOL {
			e.stmtf("%s = %s;", target.Name.Str(), e.prim(n.Expr, t))
			return
		}
		e.stmtf("%s = %s;", target.Name.Str(), e.item(n.Expr))
	case *ASTIndex:
		e.stmtf("fn_set(%s, %s, %s);", e.item(target.Object), e.item(target.Index), e.item(n.Expr))
	case *ASTMember:
		key := e.script.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: target.Field.Str()})
		e.stmtf("fn_set(%s, const_k2it(%d), %s);", e.item(target.Object), key, e.item(n.Expr))
	default:
		e.errValue(n.Pos(), "unassignable target %T", n.Target)
	}
}

func (e *Emitter) emitDecomposeStmt(n *ASTDecompose) {
	src := e.tmp("d")
	e.stmtf("Item %s = %s;", src, e.item(n.Expr))
	if n.Positional {
		for i, nm := range n.Names {
			e.stmtf("Item %s = item_at(%s, %d);", nm.Str(), src, i)
		}
	} else {
		for _, f := range n.Fields {
			key := e.script.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: f.SourceName.Str()})
			e.stmtf("Item %s = fn_member(%s, const_k2it(%d));", f.BindName.Str(), src, key)
		}
	}
	if n.Body != nil {
		e.emitStmt(n.Body)
	}
}

func (e *Emitter) pushAssignName(name string) {
	e.assignNames = append(e.assignNames, name)
}

func (e *Emitter) popAssignName() {
	e.assignNames = e.assignNames[:len(e.assignNames)-1]
}

// ---- expression forms needing statements ---------------------------------

// emitIfExpr is the ternary lowering; when branch types disagree both
// branches are boxed so the arms agree at Item (spec §4.7).
func (e *Emitter) emitIfExpr(n *ASTIfExpr) BoxExpr {
	c := e.cond(n.Cond)
	tv := e.emitValue(n.Then)
	ev := e.emitValue(n.Else)
	if tv.Typ == ev.Typ {
		return BoxExpr{Src: fmt.Sprintf("(%s ? %s : %s)", c, tv.Src, ev.Src), Typ: tv.Typ}
	}
	return BoxExpr{
		Src: fmt.Sprintf("(%s ? %s : %s)", c, e.asItem(tv), e.asItem(ev)),
		Typ: TYPE_ANY,
	}
}

// emitLetExpr lowers a let with a terminal expression into a statement
// expression whose value is the body's.
func (e *Emitter) emitLetExpr(n *ASTLet) BoxExpr {
	t := typeOf(n.Expr)
	e.pushAssignName(n.Name.Str())
	var bind string
	if t.IsNumeric() || t == TYPE_BOOL {
		bind = fmt.Sprintf("%s %s = %s;", cDecl(t), n.Name.Str(), e.prim(n.Expr, t))
	} else {
		bind = fmt.Sprintf("Item %s = %s;", n.Name.Str(), e.item(n.Expr))
	}
	e.popAssignName()
	if n.Body == nil {
		return BoxExpr{Src: fmt.Sprintf("({ %s ITEM_NULL; })", bind), Typ: TYPE_ANY}
	}
	body := e.emitValue(n.Body)
	return BoxExpr{Src: fmt.Sprintf("({ %s %s; })", bind, body.Src), Typ: body.Typ}
}

func (e *Emitter) emitDecomposeExpr(n *ASTDecompose) BoxExpr {
	var b strings.Builder
	src := e.tmp("d")
	fmt.Fprintf(&b, "({ Item %s = %s; ", src, e.item(n.Expr))
	if n.Positional {
		for i, nm := range n.Names {
			fmt.Fprintf(&b, "Item %s = item_at(%s, %d); ", nm.Str(), src, i)
		}
	} else {
		for _, f := range n.Fields {
			key := e.script.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: f.SourceName.Str()})
			fmt.Fprintf(&b, "Item %s = fn_member(%s, const_k2it(%d)); ", f.BindName.Str(), src, key)
		}
	}
	if n.Body == nil {
		b.WriteString("ITEM_NULL; })")
		return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
	}
	body := e.emitValue(n.Body)
	fmt.Fprintf(&b, "%s; })", body.Src)
	return BoxExpr{Src: b.String(), Typ: body.Typ}
}

// emitBlockExpr yields the last statement's value.
func (e *Emitter) emitBlockExpr(n *ASTBlock) BoxExpr {
	if len(n.Stmts) == 0 {
		return BoxExpr{Src: "ITEM_NULL", Typ: TYPE_ANY}
	}
	var b strings.Builder
	b.WriteString("({ ")
	saved := e.body
	savedIndent := e.indent
	for _, s := range n.Stmts[:len(n.Stmts)-1] {
		var sb strings.Builder
		e.body = &sb
		e.indent = 0
		e.emitStmt(s)
		b.WriteString(strings.TrimRight(sb.String(), "\n"))
		b.WriteByte(' ')
	}
	e.body = saved
	e.indent = savedIndent
	last := e.emitValue(n.Stmts[len(n.Stmts)-1])
	fmt.Fprintf(&b, "%s; })", last.Src)
	return BoxExpr{Src: b.String(), Typ: last.Typ}
}

// ---- constructors --------------------------------------------------------

// emitArray lowers array literals: a specialized typed array with fill
// when the element type is INT/INT64/FLOAT and no item is spreadable;
// otherwise a spread-aware builder (spec §4.7 Constructors).
func (e *Emitter) emitArray(n *ASTArray) BoxExpr {
	anySpread := false
	for _, s := range n.Spreadable {
		if s {
			anySpread = true
		}
	}
	t := typeOf(n)
	if !anySpread {
		switch t {
		case TYPE_ARRAY_INT, TYPE_ARRAY_INT64, TYPE_ARRAY_FLOAT:
			elem := map[TypeID]TypeID{
				TYPE_ARRAY_INT: TYPE_INT, TYPE_ARRAY_INT64: TYPE_INT64, TYPE_ARRAY_FLOAT: TYPE_FLOAT,
			}[t]
			ctor := map[TypeID]string{
				TYPE_ARRAY_INT: "array_int", TYPE_ARRAY_INT64: "array_int64", TYPE_ARRAY_FLOAT: "array_float",
			}[t]
			if len(n.Items) == 0 {
				return BoxExpr{Src: fmt.Sprintf("(Item)%s_end(%s(0))", ctor, ctor), Typ: TYPE_ANY}
			}
			vals := make([]string, len(n.Items))
			for i, it := range n.Items {
				vals[i] = e.prim(it, elem)
			}
			return BoxExpr{
				Src: fmt.Sprintf("(Item)%s_end(%s_fill(%s(%d), %d, %s))",
					ctor, ctor, ctor, len(n.Items), len(n.Items), strings.Join(vals, ", ")),
				Typ: TYPE_ANY,
			}
		}
	}
	if len(n.Items) == 0 {
		return BoxExpr{Src: "(Item)array_end(array(0))", Typ: TYPE_ANY}
	}
	var b strings.Builder
	b.WriteString("({ ArraySpread* _a = array_spreadable(); ")
	for i, it := range n.Items {
		if i < len(n.Spreadable) && n.Spreadable[i] {
			fmt.Fprintf(&b, "array_push_spread(_a, %s); ", e.item(it))
		} else {
			fmt.Fprintf(&b, "array_push(_a, %s); ", e.item(it))
		}
	}
	b.WriteString("(Item)array_spreadable_end(_a); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

// emitList: always Item form; declarations among the items lower first;
// an empty payload yields an empty list (spec §4.7).
func (e *Emitter) emitList(n *ASTList) BoxExpr {
	var decls []ASTNode
	var items []ASTNode
	for _, it := range n.Items {
		switch it.(type) {
		case *ASTLet, *ASTFn, *ASTPatternDef:
			decls = append(decls, it)
		default:
			items = append(items, it)
		}
	}
	if len(decls) == 0 && len(items) == 0 {
		return BoxExpr{Src: "(Item)list_end(list(0))", Typ: TYPE_ANY}
	}
	var b strings.Builder
	b.WriteString("({ ")
	saved := e.body
	savedIndent := e.indent
	for _, d := range decls {
		var sb strings.Builder
		e.body = &sb
		e.indent = 0
		e.emitStmt(d)
		b.WriteString(strings.TrimRight(sb.String(), "\n"))
		b.WriteByte(' ')
	}
	e.body = saved
	e.indent = savedIndent
	fmt.Fprintf(&b, "List* _l = list(%d); ", len(items))
	for _, it := range items {
		fmt.Fprintf(&b, "list_push(_l, %s); ", e.item(it))
	}
	b.WriteString("(Item)list_end(_l); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

// emitMap allocates with the map's type index and fills alternating
// boxed key-value items; key expressions go through the box bridge too
// (spec §4.7).
func (e *Emitter) emitMap(n *ASTMapLit) BoxExpr {
	ti := e.typeIndex(n.TypeOf())
	if len(n.Items) == 0 {
		return BoxExpr{Src: fmt.Sprintf("(Item)map_end(map(%d))", ti), Typ: TYPE_ANY}
	}
	pairs := make([]string, 0, len(n.Items)*2)
	for _, it := range n.Items {
		pairs = append(pairs, e.item(it.Key), e.item(it.Value))
	}
	return BoxExpr{
		Src: fmt.Sprintf("(Item)map_end(map_fill(map(%d), %d, %s))", ti, len(n.Items), strings.Join(pairs, ", ")),
		Typ: TYPE_ANY,
	}
}

// elementInlineFillMax bounds the content size inlined through
// elmt_fill; larger content goes through push-spread (spec §4.7).
const elementInlineFillMax = 4

func (e *Emitter) emitElement(n *ASTElement) BoxExpr {
	ti := e.typeIndex(n.TypeOf())
	var b strings.Builder
	fmt.Fprintf(&b, "({ Element* _el = elmt(%d); ", ti)
	for _, a := range n.Attrs {
		key := e.script.Consts.Intern(Const{Type: TYPE_SYMBOL, Str: a.Name.Str()})
		fmt.Fprintf(&b, "elmt_fill(_el, 1, const_k2it(%d), %s); ", key, e.item(a.Value))
	}
	if len(n.Content) > 0 && len(n.Content) <= elementInlineFillMax {
		vals := make([]string, len(n.Content))
		for i, it := range n.Content {
			vals[i] = e.item(it)
		}
		fmt.Fprintf(&b, "elmt_fill(_el, %d, %s); ", len(n.Content), strings.Join(vals, ", "))
	} else {
		for _, it := range n.Content {
			fmt.Fprintf(&b, "elmt_push_spread(_el, %s); ", e.item(it))
		}
	}
	b.WriteString("(Item)elmt_end(_el); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

func (e *Emitter) emitContent(n *ASTContent) BoxExpr {
	if len(n.Items) == 0 {
		return BoxExpr{Src: "(Item)list_end(list(0))", Typ: TYPE_ANY}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "({ List* _ct = list(%d); ", len(n.Items))
	for _, it := range n.Items {
		fmt.Fprintf(&b, "list_push(_ct, %s); ", e.item(it))
	}
	b.WriteString("(Item)list_end(_ct); })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

// ---- for-expression ------------------------------------------------------

// emitFor produces a spreadable array via a generated loop, with
// clauses applied in the fixed order let -> where -> group -> order ->
// limit/offset -> body (spec §4.7). Group and order keys are computed
// per iteration into parallel key arrays consumed by the post-loop
// transforms; ordering sorts stably per key so multi-key order respects
// asc/desc independently.
func (e *Emitter) emitFor(n *ASTFor) BoxExpr {
	var b strings.Builder
	b.WriteString("({ ArraySpread* _fout = array_spreadable(); ")
	if n.Group != nil {
		b.WriteString("ArraySpread* _fgk = array_spreadable(); ")
	}
	for i := range n.Order {
		fmt.Fprintf(&b, "ArraySpread* _fok%d = array_spreadable(); ", i)
	}
	fmt.Fprintf(&b, "Item _fsrc = %s; ", e.item(n.Source))
	b.WriteString("int64_t _fn = it2l(fn_len(_fsrc)); ")
	b.WriteString("for (int64_t _fi = 0; _fi < _fn; _fi++) { ")
	if n.IterVar != symbol.Invalid {
		fmt.Fprintf(&b, "Item %s = item_at(_fsrc, _fi); (void)%s; ", n.IterVar.Str(), n.IterVar.Str())
	}
	if n.IndexVar != symbol.Invalid {
		fmt.Fprintf(&b, "Item %s = l2it(_fi); (void)%s; ", n.IndexVar.Str(), n.IndexVar.Str())
	}
	for _, l := range n.Lets {
		fmt.Fprintf(&b, "Item %s = %s; ", l.Name.Str(), e.item(l.Expr))
	}
	if n.Where != nil {
		fmt.Fprintf(&b, "if (!(%s)) continue; ", e.cond(n.Where))
	}
	if n.Group != nil {
		fmt.Fprintf(&b, "array_push(_fgk, %s); ", e.item(n.Group))
	}
	for i, o := range n.Order {
		fmt.Fprintf(&b, "array_push(_fok%d, %s); ", i, e.item(o.Key))
	}
	fmt.Fprintf(&b, "array_push_spread(_fout, %s); ", e.item(n.Body))
	b.WriteString("} ")
	b.WriteString("Item _fres = (Item)array_spreadable_end(_fout); ")
	if n.Group != nil {
		b.WriteString("_fres = fn_group(_fres, (Item)array_spreadable_end(_fgk)); ")
	}
	// Stable sorts applied last key first, so the first key dominates.
	for i := len(n.Order) - 1; i >= 0; i-- {
		desc := 0
		if n.Order[i].Desc {
			desc = 1
		}
		fmt.Fprintf(&b, "_fres = fn_order(_fres, (Item)array_spreadable_end(_fok%d), %d); ", i, desc)
	}
	if n.Limit != nil || n.Offset != nil {
		limit := "ITEM_NULL"
		if n.Limit != nil {
			limit = e.item(n.Limit)
		}
		offset := "ITEM_NULL"
		if n.Offset != nil {
			offset = e.item(n.Offset)
		}
		fmt.Fprintf(&b, "_fres = fn_limit(_fres, %s, %s); ", limit, offset)
	}
	b.WriteString("_fres; })")
	return BoxExpr{Src: b.String(), Typ: TYPE_ANY}
}

package lambda

// The parser adapter: builds the typed AST (C3) from the external
// tree-structured syntax provider (package parsetree). The core depends
// on the provider's symbol and field *names*, never on numeric layout
// (spec §6), so every shape assumption lives here, in one switch, the
// way the teacher centralizes its yacc actions in gql/parser.go.
//
// Shape contract (per node symbol):
//   - operator nodes expose FieldLeft/FieldOperator/FieldRight
//     (FieldOperand for unary);
//   - control forms expose FieldCond/FieldThen/FieldElse/FieldBody;
//   - bindings expose FieldName/FieldValue (+FieldBody for let-expr);
//   - functions expose FieldName, FieldDeclare (parameter list node
//     whose entries are identifiers or `name = default` assign nodes),
//     FieldBody, and FieldPub/FieldVariadic markers;
//   - a missing optional child is a node with IsNull()==true, never Go
//     nil (spec §7 ShapeError accumulates instead of panicking).

import (
	"strconv"
	"strings"

	"github.com/henry-luo/lambda-sub006/parsetree"
	"github.com/henry-luo/lambda-sub006/symbol"
)

// BuildScript converts a parsed syntax tree into an ASTScriptRoot,
// accumulating ShapeError/SyntaxReject diagnostics for malformed
// regions while recovering with ASTUnknown placeholders.
func BuildScript(tree parsetree.Node, diags *Diagnostics) *ASTScriptRoot {
	b := &builder{diags: diags}
	root := &ASTScriptRoot{base: b.at(tree)}
	for _, ch := range tree.NamedChildren() {
		if ch.Symbol() == parsetree.SymComment {
			continue
		}
		if ch.Symbol() == parsetree.SymImportModule {
			root.Imports = append(root.Imports, b.buildImport(ch))
			continue
		}
		root.Body = append(root.Body, b.build(ch))
	}
	return root
}

// BuildExpr converts a single expression subtree; used by tests and by
// REPL-style hosts that check one expression at a time.
func BuildExpr(tree parsetree.Node, diags *Diagnostics) ASTNode {
	b := &builder{diags: diags}
	return b.build(tree)
}

type builder struct {
	diags *Diagnostics
}

func (b *builder) at(n parsetree.Node) base {
	return base{P: Position{Offset: int(n.StartByte())}}
}

func (b *builder) bad(n parsetree.Node, reason string) ASTNode {
	b.diags.Add(KindShapeError, b.at(n).P, "%s", reason)
	return &ASTUnknown{base: b.at(n), Reason: reason}
}

func (b *builder) build(n parsetree.Node) ASTNode {
	if n == nil || n.IsNull() {
		return nil
	}
	switch n.Symbol() {
	case parsetree.SymNull:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_NULL}
	case parsetree.SymTrue:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_BOOL, Int: 1}
	case parsetree.SymFalse:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_BOOL, Int: 0}
	case parsetree.SymInt:
		v, err := strconv.ParseInt(n.Text(), 0, 64)
		if err != nil {
			return b.bad(n, "bad integer literal "+n.Text())
		}
		kind := TYPE_INT
		if v > int64(int32(^uint32(0)>>1)) || v < -int64(int32(^uint32(0)>>1))-1 {
			kind = TYPE_INT64
		}
		return &ASTLiteral{base: b.at(n), Kind: kind, Int: v}
	case parsetree.SymInt64:
		v, err := strconv.ParseInt(strings.TrimSuffix(n.Text(), "L"), 0, 64)
		if err != nil {
			return b.bad(n, "bad int64 literal "+n.Text())
		}
		return &ASTLiteral{base: b.at(n), Kind: TYPE_INT64, Int: v}
	case parsetree.SymFloat:
		v, err := strconv.ParseFloat(n.Text(), 64)
		if err != nil {
			return b.bad(n, "bad float literal "+n.Text())
		}
		return &ASTLiteral{base: b.at(n), Kind: TYPE_FLOAT, Float: v}
	case parsetree.SymDecimal:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_DECIMAL, Str: strings.TrimSuffix(n.Text(), "n")}
	case parsetree.SymString, parsetree.SymStringContent:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_STRING, Str: unquote(n.Text())}
	case parsetree.SymSymbol, parsetree.SymSymbolContent:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_SYMBOL, Str: strings.TrimPrefix(unquote(n.Text()), "'")}
	case parsetree.SymBinary:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_BINARY, Str: n.Text()}
	case parsetree.SymDatetime, parsetree.SymTime:
		return &ASTLiteral{base: b.at(n), Kind: TYPE_DTIME, Str: n.Text()}

	case parsetree.SymIdentifier:
		return &ASTIdent{base: b.at(n), Name: symbol.Intern(n.Text())}
	case parsetree.SymCurrentItem:
		return &ASTCurrentItem{base: b.at(n)}
	case parsetree.SymCurrentIndex:
		return &ASTCurrentIndex{base: b.at(n)}
	case parsetree.SymPrimaryExpr:
		inner := firstNamed(n)
		if inner == nil {
			return b.bad(n, "empty primary expression")
		}
		return &ASTParen{base: b.at(n), Inner: b.build(inner)}

	case parsetree.SymUnaryExpr:
		return b.buildUnary(n)
	case parsetree.SymBinaryExpr, parsetree.SymBinaryExprNoPipe:
		return b.buildBinary(n)

	case parsetree.SymMemberExpr:
		obj := n.FieldChild(parsetree.FieldObject)
		field := n.FieldChild(parsetree.FieldField)
		if obj.IsNull() || field.IsNull() {
			return b.bad(n, "member expression missing object or field")
		}
		return &ASTMember{base: b.at(n), Object: b.build(obj), Field: symbol.Intern(field.Text())}
	case parsetree.SymIndexExpr:
		obj := n.FieldChild(parsetree.FieldObject)
		idx := n.FieldChild(parsetree.FieldIndex)
		if obj.IsNull() || idx.IsNull() {
			return b.bad(n, "index expression missing object or index")
		}
		return &ASTIndex{base: b.at(n), Object: b.build(obj), Index: b.build(idx)}
	case parsetree.SymPathExpr:
		return b.buildPath(n)

	case parsetree.SymCallExpr:
		return b.buildCall(n)
	case parsetree.SymNamedArgument:
		name := n.FieldChild(parsetree.FieldName)
		val := n.FieldChild(parsetree.FieldValue)
		if name.IsNull() || val.IsNull() {
			return b.bad(n, "named argument missing name or value")
		}
		return &ASTNamedArg{base: b.at(n), Name: symbol.Intern(name.Text()), Expr: b.build(val)}

	case parsetree.SymArray:
		out := &ASTArray{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			out.Items = append(out.Items, b.build(ch))
		}
		return out
	case parsetree.SymList:
		out := &ASTList{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			out.Items = append(out.Items, b.build(ch))
		}
		return out
	case parsetree.SymMap:
		out := &ASTMapLit{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			if ch.Symbol() != parsetree.SymMapItem {
				continue
			}
			key := ch.FieldChild(parsetree.FieldKey)
			val := ch.FieldChild(parsetree.FieldValue)
			if key.IsNull() || val.IsNull() {
				out.Items = append(out.Items, MapItem{Key: b.bad(ch, "map item missing key or value"), Value: b.bad(ch, "map item missing key or value")})
				continue
			}
			out.Items = append(out.Items, MapItem{Key: b.build(key), Value: b.build(val)})
		}
		return out
	case parsetree.SymElement:
		return b.buildElement(n)
	case parsetree.SymContent:
		out := &ASTContent{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			out.Items = append(out.Items, b.build(ch))
		}
		return out

	case parsetree.SymIfExpr:
		cond := n.FieldChild(parsetree.FieldCond)
		then := n.FieldChild(parsetree.FieldThen)
		els := n.FieldChild(parsetree.FieldElse)
		if cond.IsNull() || then.IsNull() || els.IsNull() {
			return b.bad(n, "if-expression requires cond, then, and else")
		}
		return &ASTIfExpr{base: b.at(n), Cond: b.build(cond), Then: b.build(then), Else: b.build(els)}
	case parsetree.SymIfStam:
		return b.buildIfStmt(n)
	case parsetree.SymForExpr, parsetree.SymForStam:
		return b.buildFor(n)
	case parsetree.SymWhileStam:
		cond := n.FieldChild(parsetree.FieldCond)
		body := n.FieldChild(parsetree.FieldBody)
		if cond.IsNull() || body.IsNull() {
			return b.bad(n, "while requires cond and body")
		}
		return &ASTWhile{base: b.at(n), Cond: b.build(cond), Body: b.build(body)}
	case parsetree.SymBreakStam:
		return &ASTBreak{base: b.at(n)}
	case parsetree.SymContinueStam:
		return &ASTContinue{base: b.at(n)}
	case parsetree.SymReturnStam:
		out := &ASTReturn{base: b.at(n)}
		if v := n.FieldChild(parsetree.FieldValue); !v.IsNull() {
			out.Value = b.build(v)
		}
		return out

	case parsetree.SymLetExpr, parsetree.SymLetStam:
		return b.buildLet(n)
	case parsetree.SymPubStam:
		name := n.FieldChild(parsetree.FieldName)
		val := n.FieldChild(parsetree.FieldValue)
		if name.IsNull() || val.IsNull() {
			return b.bad(n, "pub requires name and value")
		}
		return &ASTPub{base: b.at(n), Name: symbol.Intern(name.Text()), Expr: b.build(val)}
	case parsetree.SymVarStam:
		name := n.FieldChild(parsetree.FieldName)
		val := n.FieldChild(parsetree.FieldValue)
		if name.IsNull() || val.IsNull() {
			return b.bad(n, "var requires name and value")
		}
		return &ASTVar{base: b.at(n), Name: symbol.Intern(name.Text()), Expr: b.build(val)}
	case parsetree.SymAssignStam, parsetree.SymAssignExpr:
		target := n.FieldChild(parsetree.FieldTarget)
		val := n.FieldChild(parsetree.FieldValue)
		if target.IsNull() || val.IsNull() {
			return b.bad(n, "assignment requires target and value")
		}
		return &ASTAssign{base: b.at(n), Target: b.build(target), Expr: b.build(val)}

	case parsetree.SymFuncStam, parsetree.SymFuncExprStam, parsetree.SymFuncExpr:
		return b.buildFunc(n)

	case parsetree.SymStringPattern, parsetree.SymSymbolPattern:
		return b.buildPatternDef(n)
	case parsetree.SymPatternCharClass:
		return b.buildCharClass(n)
	case parsetree.SymPatternAny:
		return &ASTPatternCharClass{base: b.at(n), Class: ClassAny}
	case parsetree.SymPatternAnyStar:
		return &ASTPatternRepeat{base: b.at(n), Inner: &ASTPatternCharClass{base: b.at(n), Class: ClassAny}, Kind: RepeatZeroMore}
	case parsetree.SymPatternRange:
		lo := n.FieldChild(parsetree.FieldLeft)
		hi := n.FieldChild(parsetree.FieldRight)
		if lo.IsNull() || hi.IsNull() {
			return b.bad(n, "pattern range requires both endpoints")
		}
		return &ASTPatternRange{base: b.at(n), Lo: unquote(lo.Text()), Hi: unquote(hi.Text())}
	case parsetree.SymPatternSeq:
		out := &ASTPatternSeq{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			out.Items = append(out.Items, b.build(ch))
		}
		return out
	case parsetree.SymPatternOccurrence:
		return b.buildPatternRepeat(n)
	case parsetree.SymPatternNegation:
		inner := n.FieldChild(parsetree.FieldOperand)
		if inner.IsNull() {
			return b.bad(n, "pattern negation missing operand")
		}
		return &ASTPatternNegation{base: b.at(n), Inner: b.build(inner)}
	case parsetree.SymBinaryPattern:
		return b.buildBinaryPattern(n)
	case parsetree.SymPrimaryPattern:
		inner := firstNamed(n)
		if inner == nil {
			return b.bad(n, "empty pattern group")
		}
		return b.build(inner)

	case parsetree.SymBaseType:
		return &ASTBaseType{base: b.at(n), Ref: baseTypeID(n.Text())}
	case parsetree.SymArrayType, parsetree.SymListType:
		out := &ASTArrayTypeLit{base: b.at(n)}
		if inner := firstNamed(n); inner != nil {
			out.Nested = b.build(inner)
		}
		return out
	case parsetree.SymMapType:
		out := &ASTMapTypeLit{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			if ch.Symbol() != parsetree.SymMapTypeItem {
				continue
			}
			name := ch.FieldChild(parsetree.FieldName)
			typ := ch.FieldChild(parsetree.FieldType)
			if name.IsNull() || typ.IsNull() {
				continue
			}
			out.Fields = append(out.Fields, MapTypeField{Name: name.Text(), Type: b.build(typ)})
		}
		return out
	case parsetree.SymElementType:
		out := &ASTElementTypeLit{base: b.at(n)}
		if name := n.FieldChild(parsetree.FieldName); !name.IsNull() {
			out.Tag = name.Text()
		}
		return out
	case parsetree.SymFnType:
		out := &ASTFnTypeLit{base: b.at(n)}
		for _, ch := range namedNonComment(n) {
			out.Params = append(out.Params, b.build(ch))
		}
		if ret := n.FieldChild(parsetree.FieldType); !ret.IsNull() {
			out.Returned = b.build(ret)
		}
		return out

	case parsetree.SymComment:
		return nil
	}
	return b.bad(n, "unrecognized syntax node")
}

func (b *builder) buildUnary(n parsetree.Node) ASTNode {
	opNode := n.FieldChild(parsetree.FieldOperator)
	operand := n.FieldChild(parsetree.FieldOperand)
	if opNode.IsNull() || operand.IsNull() {
		return b.bad(n, "unary expression missing operator or operand")
	}
	var op UnaryOp
	switch opNode.Text() {
	case "+":
		op = UnaryPlus
	case "-":
		op = UnaryMinus
	case "!", "not":
		op = UnaryNot
	default:
		return b.bad(n, "unrecognized unary operator "+opNode.Text())
	}
	return &ASTUnary{base: b.at(n), Op: op, Operand: b.build(operand)}
}

var binaryOps = map[string]BinaryOp{
	"+": OpAdd, "-": OpSub, "*": OpMul, "/": OpDiv,
	"_/": OpIDiv, "%": OpMod, "^": OpPow,
	"==": OpEq, "!=": OpNe, "<": OpLt, "<=": OpLe, ">": OpGt, ">=": OpGe,
	"and": OpAnd, "or": OpOr,
	"is": OpIs, "in": OpIn, "to": OpTo, "join": OpJoin,
	"|": OpPipe, "&": OpIntersect, "where": OpWhere,
}

func (b *builder) buildBinary(n parsetree.Node) ASTNode {
	left := n.FieldChild(parsetree.FieldLeft)
	opNode := n.FieldChild(parsetree.FieldOperator)
	right := n.FieldChild(parsetree.FieldRight)
	if left.IsNull() || opNode.IsNull() || right.IsNull() {
		return b.bad(n, "binary expression missing a side or its operator")
	}
	op, ok := binaryOps[opNode.Text()]
	if !ok {
		return b.bad(n, "unrecognized binary operator "+opNode.Text())
	}
	return &ASTBinary{base: b.at(n), Op: op, LHS: b.build(left), RHS: b.build(right)}
}

func (b *builder) buildPath(n parsetree.Node) ASTNode {
	out := &ASTPath{base: b.at(n)}
	var dynamic parsetree.Node
	for _, ch := range namedNonComment(n) {
		switch ch.Symbol() {
		case parsetree.SymPathRoot:
			out.Scheme = "/"
		case parsetree.SymPathSelf:
			out.Scheme = "."
		case parsetree.SymPathParent:
			out.Scheme = ".."
		case parsetree.SymPathWildcard:
			out.Segments = append(out.Segments, PathSegment{Wildcard: true})
		case parsetree.SymPathWildcardRecursive:
			out.Segments = append(out.Segments, PathSegment{Wildcard: true, Recursive: true})
		case parsetree.SymIdentifier:
			out.Segments = append(out.Segments, PathSegment{Name: ch.Text()})
		default:
			dynamic = ch
		}
	}
	if dynamic != nil {
		return &ASTPathIndex{base: b.at(n), Path: out, Suffix: b.build(dynamic)}
	}
	return out
}

func (b *builder) buildCall(n parsetree.Node) ASTNode {
	fn := n.FieldChild(parsetree.FieldFunction)
	if fn.IsNull() {
		return b.bad(n, "call missing callee")
	}
	out := &ASTCall{base: b.at(n), Func: b.build(fn)}
	for _, ch := range namedNonComment(n) {
		if ch.StartByte() == fn.StartByte() && ch.EndByte() == fn.EndByte() {
			continue
		}
		out.Args = append(out.Args, b.build(ch))
	}
	return out
}

func (b *builder) buildElement(n parsetree.Node) ASTNode {
	out := &ASTElement{base: b.at(n)}
	if name := n.FieldChild(parsetree.FieldName); !name.IsNull() {
		out.Tag = name.Text()
	}
	for _, ch := range namedNonComment(n) {
		if ch.Symbol() == parsetree.SymAttr {
			name := ch.FieldChild(parsetree.FieldName)
			val := ch.FieldChild(parsetree.FieldValue)
			if name.IsNull() || val.IsNull() {
				continue
			}
			out.Attrs = append(out.Attrs, ElementAttr{Name: symbol.Intern(name.Text()), Value: b.build(val)})
			continue
		}
		out.Content = append(out.Content, b.build(ch))
	}
	return out
}

// buildIfStmt flattens an if/else-if/else chain into IfClauses.
func (b *builder) buildIfStmt(n parsetree.Node) ASTNode {
	out := &ASTIfStmt{base: b.at(n)}
	for cur := n; cur != nil && !cur.IsNull() && cur.Symbol() == parsetree.SymIfStam; {
		cond := cur.FieldChild(parsetree.FieldCond)
		then := cur.FieldChild(parsetree.FieldThen)
		if cond.IsNull() || then.IsNull() {
			return b.bad(cur, "if-statement missing cond or body")
		}
		out.Clauses = append(out.Clauses, IfClause{Cond: b.build(cond), Body: b.build(then)})
		els := cur.FieldChild(parsetree.FieldElse)
		if els.IsNull() {
			break
		}
		if els.Symbol() == parsetree.SymIfStam {
			cur = els
			continue
		}
		out.Clauses = append(out.Clauses, IfClause{Body: b.build(els)})
		break
	}
	return out
}

func (b *builder) buildFor(n parsetree.Node) ASTNode {
	out := &ASTFor{base: b.at(n)}
	if name := n.FieldChild(parsetree.FieldName); !name.IsNull() {
		out.IterVar = symbol.Intern(name.Text())
	}
	if idx := n.FieldChild(parsetree.FieldIndex); !idx.IsNull() {
		out.IndexVar = symbol.Intern(idx.Text())
	}
	src := n.FieldChild(parsetree.FieldExpr)
	if src.IsNull() {
		return b.bad(n, "for-expression missing source")
	}
	out.Source = b.build(src)
	if let := n.FieldChild(parsetree.FieldLet); !let.IsNull() {
		name := let.FieldChild(parsetree.FieldName)
		val := let.FieldChild(parsetree.FieldValue)
		if !name.IsNull() && !val.IsNull() {
			out.Lets = append(out.Lets, ForLet{Name: symbol.Intern(name.Text()), Expr: b.build(val)})
		}
	}
	if w := n.FieldChild(parsetree.FieldWhere); !w.IsNull() {
		out.Where = b.build(w)
	}
	if g := n.FieldChild(parsetree.FieldGroup); !g.IsNull() {
		out.Group = b.build(g)
	}
	if o := n.FieldChild(parsetree.FieldOrder); !o.IsNull() {
		key := ForOrderKey{Key: b.build(o)}
		if dir := n.FieldChild(parsetree.FieldDir); !dir.IsNull() && dir.Text() == "desc" {
			key.Desc = true
		}
		out.Order = append(out.Order, key)
	}
	if l := n.FieldChild(parsetree.FieldLimit); !l.IsNull() {
		out.Limit = b.build(l)
	}
	if off := n.FieldChild(parsetree.FieldOffset); !off.IsNull() {
		out.Offset = b.build(off)
	}
	body := n.FieldChild(parsetree.FieldBody)
	if body.IsNull() {
		return b.bad(n, "for-expression missing body")
	}
	out.Body = b.build(body)
	return out
}

func (b *builder) buildLet(n parsetree.Node) ASTNode {
	name := n.FieldChild(parsetree.FieldName)
	val := n.FieldChild(parsetree.FieldValue)
	if val.IsNull() {
		return b.bad(n, "let requires a bound value")
	}
	if decomp := n.FieldChild(parsetree.FieldDecompose); !decomp.IsNull() {
		out := &ASTDecompose{base: b.at(n), Expr: b.build(val)}
		switch decomp.Symbol() {
		case parsetree.SymArray, parsetree.SymList:
			out.Positional = true
			for _, ch := range namedNonComment(decomp) {
				out.Names = append(out.Names, symbol.Intern(ch.Text()))
			}
		case parsetree.SymMap:
			for _, ch := range namedNonComment(decomp) {
				src := ch.FieldChild(parsetree.FieldName)
				as := ch.FieldChild(parsetree.FieldAs)
				if src.IsNull() {
					continue
				}
				f := DecomposeField{SourceName: symbol.Intern(src.Text())}
				f.BindName = f.SourceName
				if !as.IsNull() {
					f.BindName = symbol.Intern(as.Text())
				}
				out.Fields = append(out.Fields, f)
			}
		default:
			return b.bad(n, "unrecognized decomposition shape")
		}
		if body := n.FieldChild(parsetree.FieldBody); !body.IsNull() {
			out.Body = b.build(body)
		}
		return out
	}
	if name.IsNull() {
		return b.bad(n, "let requires a name")
	}
	out := &ASTLet{base: b.at(n), Name: symbol.Intern(name.Text()), Expr: b.build(val)}
	if body := n.FieldChild(parsetree.FieldBody); !body.IsNull() {
		out.Body = b.build(body)
	}
	return out
}

func (b *builder) buildFunc(n parsetree.Node) ASTNode {
	var fd FuncDef
	fd.base = b.at(n)
	if name := n.FieldChild(parsetree.FieldName); !name.IsNull() {
		fd.Name = symbol.Intern(name.Text())
	} else {
		fd.IsAnonymous = true
	}
	if pub := n.FieldChild(parsetree.FieldPub); !pub.IsNull() {
		fd.IsPublic = true
	}
	if params := n.FieldChild(parsetree.FieldDeclare); !params.IsNull() {
		for _, ch := range namedNonComment(params) {
			fd.Params = append(fd.Params, b.buildParam(ch))
		}
	}
	body := n.FieldChild(parsetree.FieldBody)
	if body.IsNull() {
		fd.Body = b.bad(n, "function missing body")
	} else {
		fd.Body = b.build(body)
	}
	switch n.Symbol() {
	case parsetree.SymFuncStam:
		if _, isBlock := fd.Body.(*ASTBlock); isBlock {
			fd.IsProc = true
			return &ASTProcedure{FuncDef: fd}
		}
		return &ASTFn{FuncDef: fd}
	case parsetree.SymFuncExpr, parsetree.SymFuncExprStam:
		if fd.IsAnonymous {
			return &ASTFnExpr{FuncDef: fd}
		}
		return &ASTFn{FuncDef: fd}
	}
	return &ASTFn{FuncDef: fd}
}

// buildParam accepts either a bare identifier, a `name = default`
// assignment (optional parameter), or an identifier carrying the
// variadic marker field.
func (b *builder) buildParam(n parsetree.Node) *ASTParam {
	p := &ASTParam{base: b.at(n)}
	switch n.Symbol() {
	case parsetree.SymIdentifier:
		p.Name = symbol.Intern(n.Text())
	case parsetree.SymAssignExpr:
		name := n.FieldChild(parsetree.FieldName)
		val := n.FieldChild(parsetree.FieldValue)
		if !name.IsNull() {
			p.Name = symbol.Intern(name.Text())
		}
		if !val.IsNull() {
			p.IsOptional = true
			p.Default = b.build(val)
		}
	default:
		if name := n.FieldChild(parsetree.FieldName); !name.IsNull() {
			p.Name = symbol.Intern(name.Text())
		}
		if def := n.FieldChild(parsetree.FieldDefault); !def.IsNull() {
			p.IsOptional = true
			p.Default = b.build(def)
		}
	}
	if v := n.FieldChild(parsetree.FieldVariadic); !v.IsNull() {
		p.Variadic = true
	}
	return p
}

func (b *builder) buildImport(n parsetree.Node) *ASTImport {
	imp := &Import{}
	if alias := n.FieldChild(parsetree.FieldAlias); !alias.IsNull() {
		imp.Alias = symbol.Intern(alias.Text())
	}
	if mod := n.FieldChild(parsetree.FieldModule); !mod.IsNull() {
		imp.ModulePath = unquote(mod.Text())
		imp.IsRelative = strings.HasPrefix(imp.ModulePath, ".")
	}
	if imp.Alias == symbol.Invalid && imp.ModulePath != "" {
		parts := strings.Split(imp.ModulePath, "/")
		imp.Alias = symbol.Intern(parts[len(parts)-1])
	}
	return &ASTImport{base: b.at(n), Decl: imp}
}

func (b *builder) buildPatternDef(n parsetree.Node) ASTNode {
	name := n.FieldChild(parsetree.FieldName)
	pat := n.FieldChild(parsetree.FieldPattern)
	if name.IsNull() || pat.IsNull() {
		return b.bad(n, "pattern definition missing name or body")
	}
	return &ASTPatternDef{
		base:     b.at(n),
		Name:     symbol.Intern(name.Text()),
		IsSymbol: n.Symbol() == parsetree.SymSymbolPattern,
		Pattern:  b.build(pat),
	}
}

func (b *builder) buildCharClass(n parsetree.Node) ASTNode {
	switch n.Text() {
	case `\d`:
		return &ASTPatternCharClass{base: b.at(n), Class: ClassDigit}
	case `\w`:
		return &ASTPatternCharClass{base: b.at(n), Class: ClassWord}
	case `\s`:
		return &ASTPatternCharClass{base: b.at(n), Class: ClassSpace}
	case `\a`:
		return &ASTPatternCharClass{base: b.at(n), Class: ClassAlpha}
	case ".":
		return &ASTPatternCharClass{base: b.at(n), Class: ClassAny}
	}
	return b.bad(n, "unrecognized character class "+n.Text())
}

func (b *builder) buildPatternRepeat(n parsetree.Node) ASTNode {
	inner := n.FieldChild(parsetree.FieldOperand)
	if inner.IsNull() {
		return b.bad(n, "pattern occurrence missing operand")
	}
	out := &ASTPatternRepeat{base: b.at(n), Inner: b.build(inner)}
	switch kind := n.FieldChild(parsetree.FieldKind); kind.Text() {
	case "?":
		out.Kind = RepeatOptional
	case "+":
		out.Kind = RepeatOneMore
	case "*":
		out.Kind = RepeatZeroMore
	default:
		out.Kind = RepeatBounded
		count := n.FieldChild(parsetree.FieldCount)
		if count.IsNull() {
			return b.bad(n, "bounded repeat missing count")
		}
		spec := count.Text()
		switch {
		case strings.HasSuffix(spec, "+"):
			out.Min, _ = strconv.Atoi(strings.TrimSuffix(spec, "+"))
			out.Max = -1
		case strings.Contains(spec, ","):
			parts := strings.SplitN(spec, ",", 2)
			out.Min, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
			out.Max, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
			out.HasMax = true
		default:
			out.Min, _ = strconv.Atoi(spec)
			out.Max = out.Min
		}
	}
	return out
}

func (b *builder) buildBinaryPattern(n parsetree.Node) ASTNode {
	left := n.FieldChild(parsetree.FieldLeft)
	opNode := n.FieldChild(parsetree.FieldOperator)
	right := n.FieldChild(parsetree.FieldRight)
	if left.IsNull() || right.IsNull() {
		return b.bad(n, "binary pattern missing a side")
	}
	op := PatternUnion
	if !opNode.IsNull() && opNode.Text() == "&" {
		op = PatternIntersect
	}
	return &ASTBinaryPattern{base: b.at(n), Op: op, LHS: b.build(left), RHS: b.build(right)}
}

// ---- small helpers -------------------------------------------------------

func firstNamed(n parsetree.Node) parsetree.Node {
	for _, ch := range n.NamedChildren() {
		if ch.Symbol() != parsetree.SymComment {
			return ch
		}
	}
	return nil
}

func namedNonComment(n parsetree.Node) []parsetree.Node {
	out := n.NamedChildren()[:0:0]
	for _, ch := range n.NamedChildren() {
		if ch.Symbol() != parsetree.SymComment {
			out = append(out, ch)
		}
	}
	return out
}

func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		if u, err := strconv.Unquote(`"` + s[1:len(s)-1] + `"`); err == nil {
			return u
		}
		return s[1 : len(s)-1]
	}
	return s
}

func baseTypeID(name string) TypeID {
	switch name {
	case "null":
		return TYPE_NULL
	case "bool":
		return TYPE_BOOL
	case "int":
		return TYPE_INT
	case "int64":
		return TYPE_INT64
	case "float":
		return TYPE_FLOAT
	case "number":
		return TYPE_NUMBER
	case "decimal":
		return TYPE_DECIMAL
	case "datetime":
		return TYPE_DTIME
	case "string":
		return TYPE_STRING
	case "symbol":
		return TYPE_SYMBOL
	case "binary":
		return TYPE_BINARY
	case "any":
		return TYPE_ANY
	}
	return TYPE_ANY
}

package lambda

// The boxing bridge (spec §4.1). The core does not choose Item's bit
// encoding; it only needs to emit the correctly-shaped C expression for
// each transition between a typed/native representation and the uniform
// Item representation. Source() strings are raw C fragments; the emitter
// (C8) is the only caller that writes them into the output buffer.

import "fmt"

// BoxExpr wraps a source-level expression string together with the type
// it was computed at, so callers can tell whether a further box/unbox is
// needed.
type BoxExpr struct {
	Src string
	Typ TypeID
}

// Box produces an Item-typed C expression for a value of the given
// primitive type. literal/constIdx selects the constant-table path for
// is_literal expressions (spec §4.1: "For STRING/SYMBOL/BINARY/DTIME/
// DECIMAL with is_literal, emit a constant-table accessor keyed by
// const_index; otherwise emit a heap-boxing primitive").
func Box(t TypeID, expr string, isLiteral bool, constIdx int) BoxExpr {
	switch t {
	case TYPE_ANY, TYPE_ERROR:
		// Already Item-shaped; pass through unchanged.
		return BoxExpr{Src: expr, Typ: TYPE_ANY}
	case TYPE_BOOL:
		return BoxExpr{Src: fmt.Sprintf("b2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_INT:
		return BoxExpr{Src: fmt.Sprintf("i2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_INT64:
		return BoxExpr{Src: fmt.Sprintf("l2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_FLOAT:
		return BoxExpr{Src: fmt.Sprintf("d2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_STRING:
		if isLiteral {
			return BoxExpr{Src: fmt.Sprintf("const_s2it(%d)", constIdx), Typ: TYPE_ANY}
		}
		return BoxExpr{Src: fmt.Sprintf("s2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_SYMBOL:
		if isLiteral {
			return BoxExpr{Src: fmt.Sprintf("const_k2it(%d)", constIdx), Typ: TYPE_ANY}
		}
		return BoxExpr{Src: fmt.Sprintf("k2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_BINARY:
		if isLiteral {
			return BoxExpr{Src: fmt.Sprintf("const_c2it(%d)", constIdx), Typ: TYPE_ANY}
		}
		return BoxExpr{Src: fmt.Sprintf("c2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_DTIME:
		if isLiteral {
			return BoxExpr{Src: fmt.Sprintf("const_x2it(%d)", constIdx), Typ: TYPE_ANY}
		}
		return BoxExpr{Src: fmt.Sprintf("x2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_DECIMAL:
		if isLiteral {
			return BoxExpr{Src: fmt.Sprintf("const_d2it(%d)", constIdx), Typ: TYPE_ANY}
		}
		return BoxExpr{Src: fmt.Sprintf("y2it(%s)", expr), Typ: TYPE_ANY}
	case TYPE_LIST, TYPE_ARRAY, TYPE_ARRAY_INT, TYPE_ARRAY_INT64, TYPE_ARRAY_FLOAT,
		TYPE_RANGE, TYPE_MAP, TYPE_ELEMENT, TYPE_FUNC, TYPE_TYPE, TYPE_PATTERN:
		// Containers and functions are already pointer-shaped Items; only a
		// cast is required.
		return BoxExpr{Src: fmt.Sprintf("(Item)(%s)", expr), Typ: TYPE_ANY}
	default:
		return BoxExpr{Src: fmt.Sprintf("/*unboxable*/(%s)", expr), Typ: TYPE_ANY}
	}
}

// Unbox is the inverse of Box. The caller must already have proved t by
// type checking (spec §4.1): emission never inserts a runtime check here,
// it trusts C4's prior judgement.
func Unbox(t TypeID, itemExpr string) BoxExpr {
	switch t {
	case TYPE_BOOL:
		return BoxExpr{Src: fmt.Sprintf("it2b(%s)", itemExpr), Typ: t}
	case TYPE_INT:
		return BoxExpr{Src: fmt.Sprintf("it2i(%s)", itemExpr), Typ: t}
	case TYPE_INT64:
		return BoxExpr{Src: fmt.Sprintf("it2l(%s)", itemExpr), Typ: t}
	case TYPE_FLOAT:
		return BoxExpr{Src: fmt.Sprintf("it2f(%s)", itemExpr), Typ: t}
	case TYPE_STRING, TYPE_SYMBOL, TYPE_BINARY:
		return BoxExpr{Src: fmt.Sprintf("it2s(%s)", itemExpr), Typ: t}
	case TYPE_DECIMAL:
		return BoxExpr{Src: fmt.Sprintf("it2d(%s)", itemExpr), Typ: t}
	default:
		// Containers/functions/ANY: a pointer-shaped cast back to the
		// narrower static type, valid only because the checker proved it.
		return BoxExpr{Src: fmt.Sprintf("(%s)(%s)", cTypeName(t), itemExpr), Typ: t}
	}
}

// BoxCapture produces a storage expression for a captured variable (spec
// §4.1 box_capture): if the variable is already boxed in an outer closure
// environment (fromOuterEnv==true, set by C5's capture-site annotation),
// reuse that storage; otherwise box it fresh from its native slot.
func BoxCapture(t TypeID, varExpr string, fromOuterEnv bool, isLiteral bool, constIdx int) BoxExpr {
	if fromOuterEnv {
		// Outer env slots are always Item-typed; no boxing needed, only a
		// slot read, which the emitter has already produced as varExpr.
		return BoxExpr{Src: varExpr, Typ: TYPE_ANY}
	}
	return Box(t, varExpr, isLiteral, constIdx)
}

// cTypeName names the native C type the emitter declares for a primitive
// or container TypeID. Used by Unbox's default container-cast path.
func cTypeName(t TypeID) string {
	switch t {
	case TYPE_LIST:
		return "List*"
	case TYPE_ARRAY:
		return "Array*"
	case TYPE_ARRAY_INT:
		return "ArrayInt*"
	case TYPE_ARRAY_INT64:
		return "ArrayInt64*"
	case TYPE_ARRAY_FLOAT:
		return "ArrayFloat*"
	case TYPE_RANGE:
		return "Range*"
	case TYPE_MAP:
		return "Map*"
	case TYPE_ELEMENT:
		return "Element*"
	case TYPE_FUNC:
		return "Function*"
	case TYPE_PATTERN:
		return "Pattern*"
	default:
		return "Item"
	}
}

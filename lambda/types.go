package lambda

// C1: Value & Type Model.
//
// This file defines the interned Type values every AST node carries (spec
// §3.2) and the constants table. The boxing bridge (spec §4.1) that the
// lowering engine (C8) calls to move values between primitive and Item
// (tagged-union) form lives in box.go. The shapes mirror the teacher's ValueType/Value split in gql/value_type.go
// and gql/value.go, generalized from GQL's table-oriented scalar set to
// Lambda's numeric-promotion-lattice scalar set plus structural types.

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/henry-luo/lambda-sub006/hash"
)

// TypeID names a primitive or container type. Caution: like the teacher's
// ValueType, these values are referenced by const_index-adjacent tables
// and by generated C switch statements, so once a script is emitted they
// must not be renumbered within a compiler version.
type TypeID byte

const (
	TYPE_INVALID TypeID = iota
	TYPE_NULL
	TYPE_BOOL
	TYPE_INT
	TYPE_INT64
	TYPE_FLOAT
	TYPE_NUMBER // union of INT/INT64/FLOAT, used only as an inferred join result
	TYPE_DECIMAL
	TYPE_DTIME
	TYPE_STRING
	TYPE_SYMBOL
	TYPE_BINARY
	TYPE_ANY
	TYPE_ERROR

	TYPE_LIST
	TYPE_ARRAY
	TYPE_ARRAY_INT
	TYPE_ARRAY_INT64
	TYPE_ARRAY_FLOAT
	TYPE_RANGE
	TYPE_MAP
	TYPE_ELEMENT
	TYPE_FUNC
	TYPE_TYPE
	TYPE_PATTERN
)

// IsNumeric reports membership in the {INT, INT64, FLOAT} promotion lattice
// that +, -, * fast-path over (spec §4.3).
func (t TypeID) IsNumeric() bool {
	return t == TYPE_INT || t == TYPE_INT64 || t == TYPE_FLOAT
}

// IsPrimitive reports whether t is boxed/unboxed as an immediate rather
// than through a pointer-shaped container bridge.
func (t TypeID) IsPrimitive() bool {
	switch t {
	case TYPE_NULL, TYPE_BOOL, TYPE_INT, TYPE_INT64, TYPE_FLOAT, TYPE_DECIMAL,
		TYPE_DTIME, TYPE_STRING, TYPE_SYMBOL, TYPE_BINARY, TYPE_ERROR:
		return true
	}
	return false
}

func (t TypeID) String() string {
	switch t {
	case TYPE_INVALID:
		return "invalid"
	case TYPE_NULL:
		return "null"
	case TYPE_BOOL:
		return "bool"
	case TYPE_INT:
		return "int"
	case TYPE_INT64:
		return "int64"
	case TYPE_FLOAT:
		return "float"
	case TYPE_NUMBER:
		return "number"
	case TYPE_DECIMAL:
		return "decimal"
	case TYPE_DTIME:
		return "datetime"
	case TYPE_STRING:
		return "string"
	case TYPE_SYMBOL:
		return "symbol"
	case TYPE_BINARY:
		return "binary"
	case TYPE_ANY:
		return "any"
	case TYPE_ERROR:
		return "error"
	case TYPE_LIST:
		return "list"
	case TYPE_ARRAY:
		return "array"
	case TYPE_ARRAY_INT:
		return "array<int>"
	case TYPE_ARRAY_INT64:
		return "array<int64>"
	case TYPE_ARRAY_FLOAT:
		return "array<float>"
	case TYPE_RANGE:
		return "range"
	case TYPE_MAP:
		return "map"
	case TYPE_ELEMENT:
		return "element"
	case TYPE_FUNC:
		return "func"
	case TYPE_TYPE:
		return "type"
	case TYPE_PATTERN:
		return "pattern"
	}
	return "?"
}

// Type is the interned, structural description carried by every checked
// AST node (spec §3.2). Only the fields relevant to Base are populated for
// a given Base; e.g. Nested is only meaningful when Base==TYPE_ARRAY.
type Type struct {
	Base TypeID

	// TypeArray.nested
	Nested *Type

	// TypeMap.fields
	Fields []MapField

	// TypeElement.tag+attrs+content
	ElementTag     string
	ElementAttrs   []MapField
	ElementContent *Type

	// TypeFunc.params+returned+is_variadic+is_public+is_anonymous
	Params       *Param
	ParamCount   int
	Returned     *Type
	IsVariadic   bool
	IsPublic     bool
	IsAnonymous  bool

	// TypeConst.const_index
	ConstIndex int
	IsLiteral  bool

	// TypePattern.re+source+pattern_index+is_symbol
	PatternSource string
	PatternIndex  int
	PatternIsSym  bool
	// Re is non-nil once the pattern compiler (C7) has resolved this type.
	Re interface{}
}

// MapField is one {name: type} entry of a TypeMap or one attribute of a
// TypeElement.
type MapField struct {
	Name string
	Type *Type
}

// Param is one node of a TypeFunc's parameter chain.
//
// TypeParam.is_optional+default_value+next
type Param struct {
	Name         string
	Type         *Type
	IsOptional   bool
	HasDefault   bool
	DefaultValue ASTNode // arena-owned AST node
	Next         *Param
}

// Convenience singletons for primitive types; interning a primitive never
// needs more than one instance since none of its fields vary.
var (
	NullType    = &Type{Base: TYPE_NULL}
	BoolType    = &Type{Base: TYPE_BOOL}
	IntType     = &Type{Base: TYPE_INT}
	Int64Type   = &Type{Base: TYPE_INT64}
	FloatType   = &Type{Base: TYPE_FLOAT}
	NumberType  = &Type{Base: TYPE_NUMBER}
	DecimalType = &Type{Base: TYPE_DECIMAL}
	DTimeType   = &Type{Base: TYPE_DTIME}
	StringType  = &Type{Base: TYPE_STRING}
	SymbolType  = &Type{Base: TYPE_SYMBOL}
	BinaryType  = &Type{Base: TYPE_BINARY}
	AnyType     = &Type{Base: TYPE_ANY}
	ErrorType   = &Type{Base: TYPE_ERROR}
)

// Join computes the numeric promotion lattice result for +, -, * (spec
// §4.3): FLOAT dominates INT64 dominates INT. Non-numeric inputs have no
// join; callers fall back to TYPE_ANY (a polymorphic runtime call).
func Join(a, b TypeID) (TypeID, bool) {
	if !a.IsNumeric() || !b.IsNumeric() {
		return TYPE_INVALID, false
	}
	if a == TYPE_FLOAT || b == TYPE_FLOAT {
		return TYPE_FLOAT, true
	}
	if a == TYPE_INT64 || b == TYPE_INT64 {
		return TYPE_INT64, true
	}
	return TYPE_INT, true
}

// Const is one entry of a Script's constants table (spec §3.1). The
// table is append-only during checking+emission (spec §5); the same
// const_index always resolves to the same value for the life of the
// Script.
type Const struct {
	Type  TypeID
	Str   string          // STRING/SYMBOL/BINARY/DTIME literal payload
	Int   int64           // INT/INT64 literal payload
	Float float64         // FLOAT literal payload
	Dec   decimal.Decimal // DECIMAL literal payload
	Hash  hash.Hash
}

// ConstTable is the append-only constants pool of a Script (C1).
type ConstTable struct {
	entries []Const
	byHash  map[hash.Hash]int
}

// NewConstTable creates an empty constants table.
func NewConstTable() *ConstTable {
	return &ConstTable{byHash: map[hash.Hash]int{}}
}

// Intern finds or appends c, returning its stable const_index. Identical
// literals (same type, same hash) share an index, satisfying the
// round-trip invariant of spec §8 ("constant-table lookup by const_index
// returns the originally interned value unchanged").
func (t *ConstTable) Intern(c Const) int {
	h := c.contentHash()
	c.Hash = h
	if idx, ok := t.byHash[h]; ok {
		return idx
	}
	idx := len(t.entries)
	t.entries = append(t.entries, c)
	t.byHash[h] = idx
	return idx
}

// At returns the constant previously interned at idx.
func (t *ConstTable) At(idx int) Const {
	return t.entries[idx]
}

// Len reports the number of distinct constants interned so far.
func (t *ConstTable) Len() int {
	return len(t.entries)
}

func (c Const) contentHash() hash.Hash {
	h := hash.Int(int64(c.Type))
	switch c.Type {
	case TYPE_STRING, TYPE_SYMBOL, TYPE_BINARY, TYPE_DTIME:
		h = h.MergeString(c.Str)
	case TYPE_INT, TYPE_INT64:
		h = h.Merge(hash.Int(c.Int))
	case TYPE_FLOAT:
		h = h.Merge(hash.Int(int64(math.Float64bits(c.Float))))
	case TYPE_DECIMAL:
		h = h.MergeString(c.Dec.String())
	}
	return h
}

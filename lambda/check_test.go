package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckLiteralTypes(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_INT, c.Check(litInt(1)).Base)
	assert.Equal(t, TYPE_FLOAT, c.Check(litFloat(1.5)).Base)
	assert.Equal(t, TYPE_STRING, c.Check(litStr("s")).Base)
	assert.Equal(t, TYPE_BOOL, c.Check(litBool(true)).Base)
}

func TestCheckStringLiteralInternsConst(t *testing.T) {
	c := NewChecker()
	lit := litStr("hello")
	c.Check(lit)
	require.True(t, lit.IsConst)
	assert.Equal(t, "hello", c.Consts.At(lit.ConstIdx).Str)
}

func TestCheckNumericJoin(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_INT, c.Check(bin(OpAdd, litInt(1), litInt(2))).Base)
	assert.Equal(t, TYPE_FLOAT, c.Check(bin(OpMul, litInt(2), litFloat(3.0))).Base)
}

func TestCheckDivisionIsFloat(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_FLOAT, c.Check(bin(OpDiv, litInt(1), litInt(2))).Base)
}

func TestCheckIDivModPowRouteToRuntime(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_ANY, c.Check(bin(OpIDiv, litInt(7), litInt(2))).Base)
	assert.Equal(t, TYPE_ANY, c.Check(bin(OpMod, litInt(7), litInt(2))).Base)
	assert.Equal(t, TYPE_ANY, c.Check(bin(OpPow, litInt(2), litInt(8))).Base)
}

func TestCheckComparisonIsBool(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_BOOL, c.Check(bin(OpLe, litInt(1), litInt(2))).Base)
	assert.Equal(t, TYPE_BOOL, c.Check(bin(OpEq, litStr("a"), litStr("b"))).Base)
}

func TestCheckMixedAddIsAny(t *testing.T) {
	c := NewChecker()
	assert.Equal(t, TYPE_ANY, c.Check(bin(OpAdd, litStr("a"), litInt(1))).Base)
}

func TestCheckIfExprBranchTypes(t *testing.T) {
	c := NewChecker()
	same := ifExpr(litBool(true), litInt(1), litInt(2))
	assert.Equal(t, TYPE_INT, c.Check(same).Base)

	differ := ifExpr(litBool(true), litInt(1), litStr("x"))
	assert.Equal(t, TYPE_ANY, c.Check(differ).Base, "disagreeing branches are boxed to ANY")
}

func TestCheckIfCondMustBeBool(t *testing.T) {
	c := NewChecker()
	c.Check(ifExpr(litInt(1), litInt(2), litInt(3)))
	assert.NotEmpty(t, diagsOfKind(c.Diags, KindTypeError))
}

func TestCheckUndefinedIdent(t *testing.T) {
	c := NewChecker()
	got := c.Check(ident("nosuch"))
	assert.Equal(t, TYPE_ANY, got.Base)
	require.Len(t, diagsOfKind(c.Diags, KindNameError), 1)
}

func TestCheckMonotonicAnnotation(t *testing.T) {
	// Re-checking an already-typed node is a no-op (spec §8).
	c := NewChecker()
	n := bin(OpAdd, litInt(1), litInt(2))
	first := c.Check(n)
	second := c.Check(n)
	assert.Same(t, first, second)
}

func TestCheckProceduralOutsideProc(t *testing.T) {
	c := NewChecker()
	c.Check(&ASTReturn{Value: litInt(1)})
	assert.NotEmpty(t, diagsOfKind(c.Diags, KindTypeError))
}

func TestCheckProceduralInsideProc(t *testing.T) {
	root := script(procNode("go", nil, &ASTBlock{Stmts: []ASTNode{
		&ASTVar{Name: sym("i"), Expr: litInt(0)},
		&ASTWhile{Cond: litBool(true), Body: &ASTBlock{Stmts: []ASTNode{&ASTBreak{}}}},
		&ASTReturn{Value: litInt(1)},
	}}))
	s := checkedScript(root)
	assert.Empty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckProceduralInNestedFnInsideProc(t *testing.T) {
	// A plain fn nested lexically inside a procedure is not a
	// procedural region: its body may not assign, declare vars, or
	// return, whatever the enclosing function is.
	helper := fnNode("helper", []*ASTParam{param("x")},
		&ASTAssign{Target: ident("x"), Expr: bin(OpAdd, ident("x"), litInt(1))})
	outer := procNode("outer", nil, &ASTBlock{Stmts: []ASTNode{
		helper,
		&ASTReturn{Value: litInt(1)},
	}})
	s := checkedScript(script(outer))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckReturnInNestedFnInsideProc(t *testing.T) {
	helper := fnNode("helper_r", nil, &ASTReturn{Value: litInt(1)})
	outer := procNode("outer_r", nil, &ASTBlock{Stmts: []ASTNode{helper}})
	s := checkedScript(script(outer))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckNamedArgsWithDefaults(t *testing.T) {
	greet := fnNode("greet",
		[]*ASTParam{param("name"), optParam("greeting", litStr("Hello"))},
		bin(OpAdd, bin(OpAdd, ident("greeting"), litStr(", ")), ident("name")))
	c1 := call(ident("greet"), namedArg("name", litStr("World")))
	c2 := call(ident("greet"), litStr("World"), namedArg("greeting", litStr("Hi")))
	s := checkedScript(script(greet, c1, c2))
	assert.Empty(t, s.Diags.List())
	require.Equal(t, CalleeDirect, c1.Kind)
	assert.Equal(t, 0, c1.ArgMap[0])
	assert.Equal(t, -1, c1.ArgMap[1], "missing optional parameter is defaulted")
	assert.Equal(t, 0, c2.ArgMap[0])
	assert.Equal(t, 1, c2.ArgMap[1])
}

func TestCheckDuplicateNamedArg(t *testing.T) {
	f := fnNode("f", []*ASTParam{param("a")}, ident("a"))
	bad := call(ident("f"), namedArg("a", litInt(1)), namedArg("a", litInt(2)))
	s := checkedScript(script(f, bad))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckMissingRequiredArg(t *testing.T) {
	f := fnNode("f", []*ASTParam{param("a"), param("b")}, ident("a"))
	bad := call(ident("f"), litInt(1))
	s := checkedScript(script(f, bad))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckUnknownNamedArg(t *testing.T) {
	f := fnNode("f", []*ASTParam{param("a")}, ident("a"))
	bad := call(ident("f"), namedArg("zz", litInt(1)))
	s := checkedScript(script(f, bad))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckVariadicPackaging(t *testing.T) {
	vp := param("rest")
	vp.Variadic = true
	f := fnNode("f", []*ASTParam{param("a"), vp}, ident("a"))
	c := call(ident("f"), litInt(1), litInt(2), litInt(3), litInt(4))
	s := checkedScript(script(f, c))
	assert.Empty(t, s.Diags.List())
	assert.Len(t, c.Variadic, 3, "extra positional arguments join the variadic list")
}

func TestCheckRequiredAfterOptionalRejected(t *testing.T) {
	f := fnNode("f", []*ASTParam{optParam("a", litInt(1)), param("b")}, ident("b"))
	s := checkedScript(script(f))
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindTypeError))
}

func TestCheckPipeAutoMapDetection(t *testing.T) {
	arr := &ASTArray{Items: []ASTNode{litInt(1), litInt(2), litInt(3)}}
	automap := bin(OpPipe, arr, bin(OpMul, &ASTCurrentItem{}, litInt(2)))
	c := NewChecker()
	c.Check(automap)
	assert.True(t, automap.AutoMapped)

	arr2 := &ASTArray{Items: []ASTNode{litInt(1), litInt(2), litInt(3)}}
	aggregate := bin(OpPipe, arr2, ident("sum"))
	c2 := NewChecker()
	c2.Check(aggregate)
	assert.False(t, aggregate.AutoMapped, "no ~ reference means aggregate pipe")
}

func TestCheckNestedPipeDoesNotLeakCurrentItem(t *testing.T) {
	inner := bin(OpPipe, ident("xs"), bin(OpMul, &ASTCurrentItem{}, litInt(2)))
	outer := bin(OpPipe, ident("ys"), inner)
	c := NewChecker()
	_ = c.Scopes.Declare(sym("xs"), litInt(0), nil)
	_ = c.Scopes.Declare(sym("ys"), litInt(0), nil)
	c.Check(outer)
	assert.False(t, outer.AutoMapped, "a nested pipe's ~ belongs to the nested pipe")
}

func TestCheckArraySpecialization(t *testing.T) {
	c := NewChecker()
	ints := &ASTArray{Items: []ASTNode{litInt(1), litInt(2)}}
	assert.Equal(t, TYPE_ARRAY_INT, c.Check(ints).Base)

	floats := &ASTArray{Items: []ASTNode{litFloat(1), litFloat(2)}}
	assert.Equal(t, TYPE_ARRAY_FLOAT, c.Check(floats).Base)

	mixed := &ASTArray{Items: []ASTNode{litInt(1), litStr("x")}}
	assert.Equal(t, TYPE_ARRAY, c.Check(mixed).Base)

	empty := &ASTArray{}
	assert.Equal(t, TYPE_ARRAY, c.Check(empty).Base)
}

func TestCheckForYieldsArray(t *testing.T) {
	f := &ASTFor{
		IterVar: sym("i"),
		Source:  bin(OpTo, litInt(1), litInt(10)),
		Where:   bin(OpEq, bin(OpMod, ident("i"), litInt(2)), litInt(0)),
		Order:   []ForOrderKey{{Key: ident("i"), Desc: true}},
		Limit:   litInt(3),
		Body:    ident("i"),
	}
	c := NewChecker()
	got := c.Check(f)
	assert.Equal(t, TYPE_ARRAY, got.Base)
	assert.Empty(t, diagsOfKind(c.Diags, KindNameError))
}

func TestCheckErrorsAccumulate(t *testing.T) {
	// Multiple independent problems are all reported in encounter order.
	s := checkedScript(script(
		ident("a_missing"),
		ident("b_missing"),
		ifExpr(litInt(1), litInt(2), litInt(3)),
	))
	assert.Len(t, diagsOfKind(s.Diags, KindNameError), 2)
	assert.Len(t, diagsOfKind(s.Diags, KindTypeError), 1)
}

package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// outerWithCapture builds  fn outer() => let x = 1 in let f = fn() => x in f()
func outerWithCapture() (*ASTFn, *ASTFnExpr, *ASTIdent) {
	xRef := ident("x")
	inner := fnExpr(nil, xRef)
	outer := fnNode("outer", nil,
		letIn("x", litInt(1),
			letIn("f", inner,
				call(ident("f")))))
	return outer, inner, xRef
}

func TestClosureCapturesLocal(t *testing.T) {
	outer, inner, xRef := outerWithCapture()
	s := checkedScript(script(outer))
	require.Empty(t, diagsOfKind(s.Diags, KindNameError))

	require.Len(t, inner.Captures, 1)
	cap := inner.Captures[0]
	assert.Equal(t, sym("x"), cap.Entry.Name)
	assert.False(t, cap.FromOuterEnv)
	assert.Equal(t, 0, cap.Slot)

	assert.True(t, xRef.Captured)
	assert.Equal(t, 0, xRef.EnvSlot)
	assert.Empty(t, outer.Captures, "the defining function does not capture its own local")
}

func TestClosureGlobalsNotCaptured(t *testing.T) {
	// A top-level let is a global; functions address it directly.
	xRef := ident("g")
	f := fnNode("f", nil, xRef)
	s := checkedScript(script(&ASTLet{Name: sym("g"), Expr: litInt(1)}, f))
	require.Empty(t, diagsOfKind(s.Diags, KindNameError))
	assert.Empty(t, f.Captures)
	assert.False(t, xRef.Captured)
}

func TestClosureParamsNotCaptured(t *testing.T) {
	aRef := ident("a")
	f := fnNode("f", []*ASTParam{param("a")}, aRef)
	checkedScript(script(f))
	assert.Empty(t, f.Captures)
	assert.False(t, aRef.Captured)
}

func TestClosureTransitiveCapture(t *testing.T) {
	// fn outer(v) => let mid = fn() => let deep = fn() => v in deep in mid
	vDeep := ident("v")
	deep := fnExpr(nil, vDeep)
	mid := fnExpr(nil, letIn("deep", deep, ident("deep")))
	outer := fnNode("outer", []*ASTParam{param("v")}, letIn("mid", mid, ident("mid")))
	s := checkedScript(script(outer))
	require.Empty(t, diagsOfKind(s.Diags, KindNameError))

	require.Len(t, mid.Captures, 1, "mid captures v to re-export it")
	assert.False(t, mid.Captures[0].FromOuterEnv)

	require.Len(t, deep.Captures, 1)
	assert.True(t, deep.Captures[0].FromOuterEnv, "deep reads v from mid's env, not the original slot")
	assert.True(t, vDeep.Captured)
	assert.True(t, vDeep.FromOuterEnv)
}

func TestClosureCaptureInsertionOrder(t *testing.T) {
	// Captures are slotted in first-reference order.
	body := bin(OpAdd, bin(OpAdd, ident("b"), ident("a")), ident("b"))
	inner := fnExpr(nil, body)
	outer := fnNode("outer", []*ASTParam{param("a"), param("b")}, inner)
	checkedScript(script(outer))
	require.Len(t, inner.Captures, 2)
	assert.Equal(t, sym("b"), inner.Captures[0].Entry.Name)
	assert.Equal(t, 0, inner.Captures[0].Slot)
	assert.Equal(t, sym("a"), inner.Captures[1].Entry.Name)
	assert.Equal(t, 1, inner.Captures[1].Slot)
}

func TestClosureEnvLayoutHash(t *testing.T) {
	// Two closures capturing the same names in the same order have the
	// same layout digest; a different capture set does not.
	outerA, innerA, _ := outerWithCapture()
	outerB, innerB, _ := outerWithCapture()
	checkedScript(script(outerA))
	checkedScript(script(outerB))
	assert.Equal(t, EnvLayoutHash(&innerA.FuncDef), EnvLayoutHash(&innerB.FuncDef))

	other := fnExpr(nil, ident("y"))
	outerC := fnNode("outer_c", nil, letIn("y", litInt(2), letIn("h", other, ident("h"))))
	checkedScript(script(outerC))
	assert.NotEqual(t, EnvLayoutHash(&innerA.FuncDef), EnvLayoutHash(&other.FuncDef))
}

func TestClosureNamedFunctionRefNotCaptured(t *testing.T) {
	helper := fnNode("helper", nil, litInt(1))
	user := fnExpr(nil, call(ident("helper")))
	outer := fnNode("outer", nil, letIn("u", user, ident("u")))
	checkedScript(script(helper, outer))
	assert.Empty(t, user.Captures, "named function references lower to to_fn builders, not env slots")
}

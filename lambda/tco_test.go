package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// factTail builds  fn fact(n, acc) => if n <= 1 then acc else fact(n - 1, acc * n)
func factTail() *ASTFn {
	return fnNode("fact", []*ASTParam{param("n"), param("acc")},
		ifExpr(bin(OpLe, ident("n"), litInt(1)),
			ident("acc"),
			call(ident("fact"), bin(OpSub, ident("n"), litInt(1)), bin(OpMul, ident("acc"), ident("n")))))
}

func TestTCOTailRecursionEligible(t *testing.T) {
	f := factTail()
	checkedScript(script(f))
	assert.True(t, f.IsTCOEligible)
	require.Len(t, f.TailCallSites, 1)
	assert.False(t, f.NeedsStackCheck, "a converted tail loop needs no entry stack check")
	assert.Equal(t, SafetySafe, f.Safety)
}

func TestTCONonTailRecursionIneligible(t *testing.T) {
	// fn fact(n) => if n <= 1 then 1 else n * fact(n - 1)
	f := fnNode("fact2", []*ASTParam{param("n")},
		ifExpr(bin(OpLe, ident("n"), litInt(1)),
			litInt(1),
			bin(OpMul, ident("n"), call(ident("fact2"), bin(OpSub, ident("n"), litInt(1))))))
	checkedScript(script(f))
	assert.False(t, f.IsTCOEligible, "the recursive call feeds a multiplication, not a tail position")
	assert.True(t, f.NeedsStackCheck)
	assert.Equal(t, SafetyUnsafe, f.Safety)
}

func TestTCOMixedTailAndNonTailIneligible(t *testing.T) {
	// One tail self-call plus one non-tail self-call: not convertible.
	f := fnNode("mix", []*ASTParam{param("n")},
		ifExpr(bin(OpLe, ident("n"), litInt(0)),
			bin(OpAdd, call(ident("mix"), litInt(0)), litInt(1)),
			call(ident("mix"), bin(OpSub, ident("n"), litInt(1)))))
	checkedScript(script(f))
	assert.False(t, f.IsTCOEligible)
	assert.True(t, f.NeedsStackCheck)
}

func TestTCOTailThroughLetTerminal(t *testing.T) {
	// fn countdown(n) => let m = n - 1 in if n <= 0 then 0 else countdown(m)
	f := fnNode("countdown", []*ASTParam{param("n")},
		letIn("m", bin(OpSub, ident("n"), litInt(1)),
			ifExpr(bin(OpLe, ident("n"), litInt(0)),
				litInt(0),
				call(ident("countdown"), ident("m")))))
	checkedScript(script(f))
	assert.True(t, f.IsTCOEligible, "a let's terminal expression is a tail position")
}

func TestTCOCallInLetBindingIsNotTail(t *testing.T) {
	// fn g(n) => let m = g(n - 1) in m
	f := fnNode("g1", []*ASTParam{param("n")},
		letIn("m", call(ident("g1"), bin(OpSub, ident("n"), litInt(1))), ident("m")))
	checkedScript(script(f))
	assert.False(t, f.IsTCOEligible, "the bound expression of a let is not a tail position")
}

func TestTCOProceduralReturnIsTail(t *testing.T) {
	f := procNode("loop", []*ASTParam{param("n")}, &ASTBlock{Stmts: []ASTNode{
		&ASTReturn{Value: call(ident("loop"), bin(OpSub, ident("n"), litInt(1)))},
	}})
	checkedScript(script(f))
	assert.True(t, f.IsTCOEligible, "a procedural return's value is a tail position")
}

func TestTCOArgumentPositionIsNotTail(t *testing.T) {
	helper := fnNode("helper2", []*ASTParam{param("x")}, ident("x"))
	f := fnNode("h", []*ASTParam{param("n")},
		call(ident("helper2"), call(ident("h"), ident("n"))))
	checkedScript(script(helper, f))
	assert.False(t, f.IsTCOEligible, "arguments are never tail positions")
}

func TestTCONonRecursiveFunctionKeepsStackCheck(t *testing.T) {
	// A plain non-recursive function is Safe but, not being
	// TCO-converted, still gets the conservative entry check.
	f := fnNode("plain", []*ASTParam{param("x")}, bin(OpAdd, ident("x"), litInt(1)))
	checkedScript(script(f))
	assert.False(t, f.IsTCOEligible)
	assert.Equal(t, SafetySafe, f.Safety)
	assert.True(t, f.NeedsStackCheck)
}

func TestTCOMutualRecursionKeepsChecks(t *testing.T) {
	// even/odd mutual recursion: neither has a tail self-call to
	// convert, so both keep their conservative entry checks regardless
	// of how the cross edges resolve.
	odd := fnNode("odd4", []*ASTParam{param("n")},
		ifExpr(bin(OpEq, ident("n"), litInt(0)), litBool(false),
			call(ident("even4"), bin(OpSub, ident("n"), litInt(1)))))
	even := fnNode("even4", []*ASTParam{param("n")},
		ifExpr(bin(OpEq, ident("n"), litInt(0)), litBool(true),
			call(ident("odd4"), bin(OpSub, ident("n"), litInt(1)))))
	checkedScript(script(odd, even))
	assert.False(t, odd.IsTCOEligible)
	assert.False(t, even.IsTCOEligible)
	assert.True(t, odd.NeedsStackCheck)
	assert.True(t, even.NeedsStackCheck)
}

func TestTCOSafetyCycleDetection(t *testing.T) {
	// A non-tail call from another function does not form a cycle back
	// into a tail-recursive function: the callee stays TCO-converted
	// without a stack check, and only the caller keeps its own check.
	self := fnNode("spin", []*ASTParam{param("n")},
		ifExpr(bin(OpLe, ident("n"), litInt(0)),
			litInt(0),
			call(ident("spin"), bin(OpSub, ident("n"), litInt(1)))))
	// trampoline calls spin non-tail; spin's own analysis stays Safe
	// because the cycle does not run back into spin.
	tramp := fnNode("tramp", []*ASTParam{param("n")},
		bin(OpAdd, call(ident("spin"), ident("n")), litInt(1)))
	checkedScript(script(self, tramp))
	assert.True(t, self.IsTCOEligible)
	assert.False(t, self.NeedsStackCheck)
	assert.True(t, tramp.NeedsStackCheck)
}

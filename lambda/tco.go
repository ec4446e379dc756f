package lambda

// C6: Safety / TCO Analyzer (spec §4.5). Decides, per function, (a)
// whether all direct recursive self-calls sit in tail position, making
// the function convertible to a loop, and (b) whether the entry
// stack-overflow check can be omitted. The two are deliberately separate
// judgements: a function can be TCO-convertible yet still reach itself
// through another function (mutual recursion), in which case the loop
// conversion happens but the stack check stays. A self-call inside a
// default-value expression is never a tail call, so it makes the function
// ineligible for conversion.
//
// The four-state safety lattice below follows the original safety
// analyzer's cycle handling: ANALYZING marks a function currently on the
// traversal stack, so a mutual-recursion cycle is detected the moment a
// call edge lands back on an in-progress function instead of looping the
// analyzer forever.

// FunctionSafety is the analysis state of one function.
type FunctionSafety int

const (
	SafetyUnknown FunctionSafety = iota
	SafetyAnalyzing
	SafetySafe   // cannot recurse except through TCO-converted tail calls
	SafetyUnsafe // recursion possible on the native stack; keep the entry check
)

func (s FunctionSafety) String() string {
	switch s {
	case SafetyAnalyzing:
		return "analyzing"
	case SafetySafe:
		return "safe"
	case SafetyUnsafe:
		return "unsafe"
	}
	return "unknown"
}

// AnalyzeSafety computes TCO eligibility and stack-check gating for
// every function reachable from root. It must run after checking (call
// resolution) and is idempotent.
func AnalyzeSafety(root ASTNode, diags *Diagnostics) {
	a := &safetyAnalyzer{diags: diags}
	WalkPre(root, func(n ASTNode) {
		if f := funcDefOf(n); f != nil {
			a.funcs = append(a.funcs, f)
		}
	})
	for _, f := range a.funcs {
		a.analyzeTailCalls(f)
	}
	for _, f := range a.funcs {
		a.analyze(f)
	}
	for _, f := range a.funcs {
		// Spec §4.5 stack-check gate: only a TCO-converted function that
		// is otherwise free of native-stack recursion may omit the check.
		f.NeedsStackCheck = !(f.IsTCOEligible && f.Safety == SafetySafe)
	}
}

func funcDefOf(n ASTNode) *FuncDef {
	switch n := n.(type) {
	case *ASTFn:
		return &n.FuncDef
	case *ASTFnExpr:
		return &n.FuncDef
	case *ASTProcedure:
		return &n.FuncDef
	case *FuncDef:
		return n
	}
	return nil
}

type safetyAnalyzer struct {
	diags *Diagnostics
	funcs []*FuncDef
}

// analyzeTailCalls classifies every direct self-call of f as tail or
// non-tail and sets IsTCOEligible and TailCallSites.
func (a *safetyAnalyzer) analyzeTailCalls(f *FuncDef) {
	var selfCalls, tailCalls []*ASTCall
	collectSelfCalls(f.Body, f, true, &selfCalls, &tailCalls)
	// Default-value expressions are evaluated eagerly at the call site
	// and are never tail positions.
	for _, p := range f.Params {
		if p.Default != nil {
			collectSelfCalls(p.Default, f, false, &selfCalls, &tailCalls)
		}
	}
	if len(selfCalls) > 0 && len(selfCalls) == len(tailCalls) {
		f.IsTCOEligible = true
		f.TailCallSites = tailCalls
	}
}

// collectSelfCalls walks n, tracking tail position structurally (spec
// §4.5): the body is tail; both branches of an if are tail iff the if
// is; a let's terminal sub-expression is tail iff the let is; a block's
// last statement is tail iff the block is; a procedural return's value
// is tail. Nowhere else.
func collectSelfCalls(n ASTNode, f *FuncDef, tail bool, self, tails *[]*ASTCall) {
	if n == nil {
		return
	}
	switch n := n.(type) {
	case *ASTCall:
		if n.Kind == CalleeDirect && n.DirectDef == f {
			*self = append(*self, n)
			if tail {
				*tails = append(*tails, n)
			}
		}
		// Arguments are never tail positions.
		collectSelfCalls(n.Func, f, false, self, tails)
		for _, arg := range n.Args {
			collectSelfCalls(arg, f, false, self, tails)
		}
	case *ASTIfExpr:
		collectSelfCalls(n.Cond, f, false, self, tails)
		collectSelfCalls(n.Then, f, tail, self, tails)
		collectSelfCalls(n.Else, f, tail, self, tails)
	case *ASTIfStmt:
		for _, cl := range n.Clauses {
			collectSelfCalls(cl.Cond, f, false, self, tails)
			collectSelfCalls(cl.Body, f, tail, self, tails)
		}
	case *ASTLet:
		collectSelfCalls(n.Expr, f, false, self, tails)
		collectSelfCalls(n.Body, f, tail, self, tails)
	case *ASTBlock:
		for i, s := range n.Stmts {
			collectSelfCalls(s, f, tail && i == len(n.Stmts)-1, self, tails)
		}
	case *ASTReturn:
		collectSelfCalls(n.Value, f, tail, self, tails)
	case *ASTParen:
		collectSelfCalls(n.Inner, f, tail, self, tails)
	case *ASTFn, *ASTFnExpr, *ASTProcedure:
		// A nested function's self-calls belong to the nested function.
	default:
		VisitChildren(n, func(ch ASTNode) {
			collectSelfCalls(ch, f, false, self, tails)
		})
	}
}

// analyze walks f's call graph looking for recursion that survives TCO
// conversion. Direct tail self-calls become a loop and do not count;
// everything else that can land back on a function already being
// analyzed makes the whole cycle Unsafe.
func (a *safetyAnalyzer) analyze(f *FuncDef) FunctionSafety {
	switch f.Safety {
	case SafetySafe, SafetyUnsafe:
		return f.Safety
	case SafetyAnalyzing:
		// A call edge landed back on an in-progress function: cycle.
		f.Safety = SafetyUnsafe
		return SafetyUnsafe
	}
	f.Safety = SafetyAnalyzing
	result := SafetySafe
	a.eachDirectCallee(f, func(call *ASTCall, callee *FuncDef) {
		if callee == f {
			// Direct self-recursion: harmless when every such call turns
			// into the TCO loop, native-stack recursion otherwise.
			if !f.IsTCOEligible {
				result = SafetyUnsafe
			}
			return
		}
		// Conservative propagation: a callee that can recurse keeps the
		// caller's stack check too, so every member of a mutual cycle
		// ends up Unsafe no matter where the traversal entered.
		if a.analyze(callee) == SafetyUnsafe {
			result = SafetyUnsafe
		}
	})
	if f.Safety == SafetyUnsafe {
		// A deeper call edge landed back on f while it was ANALYZING
		// (mutual recursion); the cycle branch above marked it in place.
		return SafetyUnsafe
	}
	f.Safety = result
	return result
}

// eachDirectCallee visits every resolved direct call inside f's body and
// default-value expressions, skipping the bodies of nested functions
// (their call edges belong to the nested function's own analysis).
func (a *safetyAnalyzer) eachDirectCallee(f *FuncDef, visit func(*ASTCall, *FuncDef)) {
	var walk func(ASTNode)
	walk = func(n ASTNode) {
		if n == nil {
			return
		}
		if funcDefOf(n) != nil && funcDefOf(n) != f {
			return
		}
		if call, ok := n.(*ASTCall); ok && call.Kind == CalleeDirect && call.DirectDef != nil {
			visit(call, call.DirectDef)
		}
		VisitChildren(n, walk)
	}
	walk(f.Body)
	for _, p := range f.Params {
		if p.Default != nil {
			walk(p.Default)
		}
	}
}

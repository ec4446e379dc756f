package lambda

// C5: Closure Analyzer (spec §4.4). Runs after checking, before safety
// analysis and emission. For every function node it computes the list of
// captured free variables and synthesizes their environment slot layout.
//
// Grounded on the teacher's free-variable handling in gql/func.go, where
// a user-defined *Func carries the `env` bindings frame it closed over;
// Lambda compiles ahead of time, so instead of carrying live bindings we
// record which NameEntry each capture refers to and let the emitter
// build the Env_F record from that.

import (
	"github.com/henry-luo/lambda-sub006/hash"
	"github.com/henry-luo/lambda-sub006/symbol"
)

// AnalyzeClosures walks root and fills in FuncDef.Captures plus the
// per-identifier capture annotations (Captured, FromOuterEnv, EnvSlot)
// the lowering engine reads.
func AnalyzeClosures(root ASTNode, diags *Diagnostics) {
	w := &closureWalk{diags: diags}
	w.walk(root)
}

type closureWalk struct {
	diags *Diagnostics
	// stack of enclosing functions, outermost first.
	stack []*FuncDef
}

func (w *closureWalk) walk(n ASTNode) {
	if n == nil {
		return
	}
	switch n := n.(type) {
	case *ASTFn:
		w.walkFunc(&n.FuncDef)
		return
	case *ASTFnExpr:
		w.walkFunc(&n.FuncDef)
		return
	case *ASTProcedure:
		w.walkFunc(&n.FuncDef)
		return
	case *ASTIdent:
		w.annotateIdent(n)
		return
	}
	VisitChildren(n, w.walk)
}

func (w *closureWalk) walkFunc(f *FuncDef) {
	w.stack = append(w.stack, f)
	for _, p := range f.Params {
		if p.Default != nil {
			w.walk(p.Default)
		}
	}
	w.walk(f.Body)
	w.stack = w.stack[:len(w.stack)-1]
}

// annotateIdent decides, for each enclosing function from innermost
// outward, whether the identifier's entry is defined strictly outside
// it. Every such function captures the variable; the innermost one's
// slot is recorded on the identifier for emission.
func (w *closureWalk) annotateIdent(id *ASTIdent) {
	if id.Entry == nil || len(w.stack) == 0 {
		return
	}
	if _, ok := id.Entry.DefiningNode.(*FuncDef); ok {
		// A named-function reference lowers to a to_fn/to_closure builder
		// (spec §4.7 identifier emission), never to an env slot.
		return
	}
	// The chain of enclosing functions that the entry is free in, i.e.
	// whose declaration scope still resolves the name to the same entry.
	var capturing []*FuncDef
	for i := len(w.stack) - 1; i >= 0; i-- {
		f := w.stack[i]
		entry, sc, ok := LookupFrom(f.DeclScope, id.Entry.Name)
		if !ok || entry != id.Entry {
			break // the entry lives inside f; f and everything outward see their own copy or nothing
		}
		if sc.Parent == nil {
			// Globals are addressed directly, never captured (spec §4.4).
			return
		}
		capturing = append(capturing, f)
	}
	if len(capturing) == 0 {
		return
	}
	// capturing[0] is the innermost function. Walking outward, a capture
	// reads from the next-outer env when that function also captures it
	// (spec §4.4 "Transitive capture").
	for i := len(capturing) - 1; i >= 0; i-- {
		fromOuter := i < len(capturing)-1
		slot := addCapture(capturing[i], id.Entry, fromOuter)
		if i == 0 {
			id.Captured = true
			id.FromOuterEnv = fromOuter
			id.EnvSlot = slot
		}
	}
}

// addCapture appends entry to f's capture list in insertion order,
// deduping by entry identity, and returns its env slot.
func addCapture(f *FuncDef, entry *NameEntry, fromOuterEnv bool) int {
	for i, c := range f.Captures {
		if c.Entry == entry {
			return i
		}
	}
	slot := len(f.Captures)
	f.Captures = append(f.Captures, Capture{Entry: entry, FromOuterEnv: fromOuterEnv, Slot: slot})
	return slot
}

// EnvSlotOf reports the env slot a given name occupies in f's closure
// environment, or -1 if f does not capture it. Used by the emitter when
// populating a nested closure's environment from the current one.
func EnvSlotOf(f *FuncDef, name symbol.ID) int {
	for _, c := range f.Captures {
		if c.Entry.Name == name {
			return c.Slot
		}
	}
	return -1
}

// EnvLayoutHash digests a function's capture layout (slot order and
// names), so callers can detect structurally identical environments
// across functions.
func EnvLayoutHash(f *FuncDef) hash.Hash {
	h := hash.Int(int64(len(f.Captures)))
	for _, c := range f.Captures {
		h = h.Merge(c.Entry.Name.Hash())
	}
	return h
}

package lambda

// C2: Name & Scope Table.
//
// Grounded on the teacher's bindings/env-frame chain (gql/ast.go's
// `bindings` type used during eval) and its symbol-keyed linked lookup,
// generalized from GQL's runtime-value environment to a compile-time,
// declaration-only scope chain: Lambda never evaluates, so NameScope only
// ever needs to remember *where* (which ASTNode) a name was declared, not
// hold a runtime value.

import (
	"fmt"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// NameEntry is one declared name (spec §3.4).
type NameEntry struct {
	Name         symbol.ID
	DefiningNode ASTNode
	ImportOrigin *Import // non-nil if this name was pulled in by an import (C9)
	Next         *NameEntry
}

// NameScope is a linked lexical scope (spec §3.4). IsFunc marks a
// function's own entry scope (parameters + body), as opposed to the
// clause scopes a for-expression or block pushes; procedural-region
// checks stop at the nearest IsFunc scope.
type NameScope struct {
	First, Last *NameEntry
	Parent      *NameScope
	IsProc      bool
	IsFunc      bool
}

// ScopeStack manages the currently-open chain of scopes during checking;
// closure analysis works from persisted scopes through LookupFrom. It
// guarantees release on every exit
// path the way the teacher's `bindings.pushFrame/popFrame` pair does, but
// for declarations rather than values.
type ScopeStack struct {
	current *NameScope
}

// NewScopeStack creates a stack with an empty global scope.
func NewScopeStack() *ScopeStack {
	return &ScopeStack{current: &NameScope{IsProc: false}}
}

// Current exposes the innermost scope so for-expressions and function
// bodies can persist their scope pointer on their AST node, as closure
// analysis (C5) requires (spec §4.2).
func (s *ScopeStack) Current() *NameScope { return s.current }

// EnterScope pushes a new scope. Callers must pair every EnterScope with
// ExitScope, ideally via defer, so a scope is released on every exit path
// including the error-return paths typechecking takes.
func (s *ScopeStack) EnterScope(isProc bool) *NameScope {
	n := &NameScope{Parent: s.current, IsProc: isProc}
	s.current = n
	return n
}

// EnterFuncScope pushes a function's own entry scope: a procedural
// region iff the function is a procedure, and a boundary that stops the
// procedural-region walk regardless (spec §4.2 "nearest enclosing
// function").
func (s *ScopeStack) EnterFuncScope(isProc bool) *NameScope {
	n := &NameScope{Parent: s.current, IsProc: isProc, IsFunc: true}
	s.current = n
	return n
}

// ExitScope pops back to the parent of the current scope.
func (s *ScopeStack) ExitScope() {
	if s.current.Parent == nil {
		panic("lambda: ExitScope called on the global scope")
	}
	s.current = s.current.Parent
}

// Declare appends an entry to the innermost scope. Redeclaration within
// the same scope is a NameError (spec §4.2); shadowing across scopes is
// always allowed.
func (s *ScopeStack) Declare(name symbol.ID, node ASTNode, origin *Import) error {
	sc := s.current
	for e := sc.First; e != nil; e = e.Next {
		if e.Name == name {
			return &NameError{Msg: fmt.Sprintf("%q redeclared in the same scope", name.Str())}
		}
	}
	e := &NameEntry{Name: name, DefiningNode: node, ImportOrigin: origin}
	if sc.Last == nil {
		sc.First, sc.Last = e, e
	} else {
		sc.Last.Next = e
		sc.Last = e
	}
	return nil
}

// Lookup resolves name starting at the innermost scope and walking
// outward; the first match wins (spec §3.4, §4.2).
func (s *ScopeStack) Lookup(name symbol.ID) (*NameEntry, *NameScope, bool) {
	for sc := s.current; sc != nil; sc = sc.Parent {
		for e := sc.First; e != nil; e = e.Next {
			if e.Name == name {
				return e, sc, true
			}
		}
	}
	return nil, nil, false
}

// LookupFrom resolves name starting at an arbitrary persisted scope
// (e.g. a function's saved DeclScope) rather than the live stack top;
// used by C5 when re-walking a function body after checking has unwound
// the stack.
func LookupFrom(from *NameScope, name symbol.ID) (*NameEntry, *NameScope, bool) {
	for sc := from; sc != nil; sc = sc.Parent {
		for e := sc.First; e != nil; e = e.Next {
			if e.Name == name {
				return e, sc, true
			}
		}
	}
	return nil, nil, false
}

// InProcRegion reports whether scope sc, or its nearest enclosing
// function, is a procedure (spec §4.2): break/continue/return/var/while/
// assign are legal only here. The walk stops at the first function
// boundary it meets — a plain fn nested inside a procedure is not a
// procedural region, whatever its ancestors are.
func InProcRegion(sc *NameScope) bool {
	for s := sc; s != nil; s = s.Parent {
		if s.IsFunc {
			return s.IsProc
		}
		if s.IsProc {
			return true
		}
	}
	return false
}

// NameError reports an undefined identifier or a duplicate declaration.
type NameError struct {
	Msg string
	Pos Position
}

func (e *NameError) Error() string { return e.Msg }

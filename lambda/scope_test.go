package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopeDeclareLookup(t *testing.T) {
	s := NewScopeStack()
	n := litInt(1)
	require.NoError(t, s.Declare(sym("x"), n, nil))
	entry, _, ok := s.Lookup(sym("x"))
	require.True(t, ok)
	assert.Equal(t, ASTNode(n), entry.DefiningNode)
}

func TestScopeRedeclareSameScopeFails(t *testing.T) {
	s := NewScopeStack()
	require.NoError(t, s.Declare(sym("dup"), litInt(1), nil))
	err := s.Declare(sym("dup"), litInt(2), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "redeclared")
}

func TestScopeShadowingAcrossScopes(t *testing.T) {
	s := NewScopeStack()
	outer := litInt(1)
	inner := litInt(2)
	require.NoError(t, s.Declare(sym("v"), outer, nil))
	s.EnterScope(false)
	require.NoError(t, s.Declare(sym("v"), inner, nil))
	entry, _, ok := s.Lookup(sym("v"))
	require.True(t, ok)
	assert.Equal(t, ASTNode(inner), entry.DefiningNode, "innermost match wins")
	s.ExitScope()
	entry, _, ok = s.Lookup(sym("v"))
	require.True(t, ok)
	assert.Equal(t, ASTNode(outer), entry.DefiningNode)
}

func TestProcRegion(t *testing.T) {
	s := NewScopeStack()
	assert.False(t, InProcRegion(s.Current()))
	s.EnterFuncScope(true) // a procedure's own scope
	assert.True(t, InProcRegion(s.Current()))
	s.EnterScope(false) // a clause scope inside the procedure
	assert.True(t, InProcRegion(s.Current()), "clause scopes inherit the enclosing function's region")
	s.EnterFuncScope(false) // a plain fn nested inside the procedure
	assert.False(t, InProcRegion(s.Current()), "the walk stops at the nearest function boundary")
	s.ExitScope()
	s.ExitScope()
	s.ExitScope()
	assert.False(t, InProcRegion(s.Current()))
}

func TestLookupFromPersistedScope(t *testing.T) {
	s := NewScopeStack()
	require.NoError(t, s.Declare(sym("persisted"), litInt(1), nil))
	saved := s.Current()
	inner := s.EnterScope(false)
	require.NoError(t, s.Declare(sym("local"), litInt(2), nil))
	s.ExitScope()

	_, _, ok := LookupFrom(saved, sym("persisted"))
	assert.True(t, ok)
	_, _, ok = LookupFrom(saved, sym("local"))
	assert.False(t, ok, "saved scope must not see names declared in scopes entered later")
	_, _, ok = LookupFrom(inner, sym("persisted"))
	assert.True(t, ok, "persisted inner scope still chains to its parent")
}

package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBackend struct {
	source string
	names  *FuncNameMap
}

func (b *recordingBackend) Compile(source string, names *FuncNameMap) (MainFunc, error) {
	b.source = source
	b.names = names
	return func(*Context) Item { return 0 }, nil
}

func TestScriptCompilePipeline(t *testing.T) {
	s := NewScript("pipeline.ls", 0, "", nil)
	s.ASTRoot = script(factTail(), call(ident("fact"), litInt(5), litInt(1)))
	backend := &recordingBackend{}
	main, err := s.Compile(nil, backend)
	require.NoError(t, err)
	require.NotNil(t, main)
	assert.Contains(t, backend.source, "m0_f_fact")
	human, ok := backend.names.Lookup("m0_f_fact")
	require.True(t, ok)
	assert.Equal(t, "fact", human)
}

func TestScriptCheckIdempotent(t *testing.T) {
	s := NewScript("idem.ls", 0, "", nil)
	s.ASTRoot = script(ident("missing"))
	s.Check(nil)
	n := len(s.Diags.List())
	s.Check(nil)
	assert.Equal(t, n, len(s.Diags.List()), "a second Check is a no-op")
}

func TestScriptWithoutTreeOrAST(t *testing.T) {
	s := NewScript("empty.ls", 0, "", nil)
	out := s.EmitSource(nil)
	assert.Empty(t, out)
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindShapeError))
}

func TestFuncNameMapLastWriteWins(t *testing.T) {
	m := NewFuncNameMap()
	m.Register("m0_f", "first")
	m.Register("m0_f", "second")
	got, ok := m.Lookup("m0_f")
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

func TestDiagnosticsThreshold(t *testing.T) {
	d := &Diagnostics{Threshold: 2}
	for i := 0; i < 5; i++ {
		d.Add(KindTypeError, Position{}, "err %d", i)
	}
	assert.Len(t, d.List(), 2, "diagnostics past the per-kind threshold are summarized away")
	d.Add(KindNameError, Position{}, "other kind")
	assert.Len(t, d.List(), 3, "the threshold is per kind")
}

func TestRecoverCatchesPanic(t *testing.T) {
	err := Recover("broken.ls", func() { panic("boom") })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
	assert.Contains(t, err.Error(), "broken.ls", "the failing script is named in the error")
	assert.NoError(t, Recover("fine.ls", func() {}))
}

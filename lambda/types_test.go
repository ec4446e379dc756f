package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinLattice(t *testing.T) {
	tests := []struct {
		a, b, want TypeID
	}{
		{TYPE_INT, TYPE_INT, TYPE_INT},
		{TYPE_INT, TYPE_INT64, TYPE_INT64},
		{TYPE_INT64, TYPE_INT, TYPE_INT64},
		{TYPE_INT, TYPE_FLOAT, TYPE_FLOAT},
		{TYPE_INT64, TYPE_FLOAT, TYPE_FLOAT},
		{TYPE_FLOAT, TYPE_FLOAT, TYPE_FLOAT},
	}
	for _, tc := range tests {
		got, ok := Join(tc.a, tc.b)
		require.True(t, ok, "%v join %v", tc.a, tc.b)
		assert.Equal(t, tc.want, got)
	}
	_, ok := Join(TYPE_STRING, TYPE_INT)
	assert.False(t, ok)
	_, ok = Join(TYPE_INT, TYPE_ANY)
	assert.False(t, ok)
}

func TestConstTableInternDedups(t *testing.T) {
	ct := NewConstTable()
	a := ct.Intern(Const{Type: TYPE_STRING, Str: "hello"})
	b := ct.Intern(Const{Type: TYPE_STRING, Str: "hello"})
	c := ct.Intern(Const{Type: TYPE_STRING, Str: "world"})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, 2, ct.Len())
}

func TestConstTableRoundTrip(t *testing.T) {
	// Lookup by const_index returns the originally interned value
	// unchanged.
	ct := NewConstTable()
	idx := ct.Intern(Const{Type: TYPE_INT64, Int: 1 << 40})
	got := ct.At(idx)
	assert.Equal(t, TYPE_INT64, got.Type)
	assert.Equal(t, int64(1<<40), got.Int)

	sidx := ct.Intern(Const{Type: TYPE_SYMBOL, Str: "name"})
	assert.Equal(t, "name", ct.At(sidx).Str)
}

func TestConstTableDifferentTypeSamePayload(t *testing.T) {
	ct := NewConstTable()
	a := ct.Intern(Const{Type: TYPE_STRING, Str: "x"})
	b := ct.Intern(Const{Type: TYPE_SYMBOL, Str: "x"})
	assert.NotEqual(t, a, b, "string and symbol constants must not collide")
}

func TestBoxUnboxPairing(t *testing.T) {
	// Boxing then unboxing a typed value must route through paired
	// bridge primitives for every primitive type.
	pairs := []struct {
		t          TypeID
		box, unbox string
	}{
		{TYPE_INT, "i2it", "it2i"},
		{TYPE_INT64, "l2it", "it2l"},
		{TYPE_FLOAT, "d2it", "it2f"},
		{TYPE_BOOL, "b2it", "it2b"},
	}
	for _, p := range pairs {
		boxed := Box(p.t, "x", false, 0)
		assert.Equal(t, TYPE_ANY, boxed.Typ)
		assert.Contains(t, boxed.Src, p.box)
		un := Unbox(p.t, boxed.Src)
		assert.Equal(t, p.t, un.Typ)
		assert.Contains(t, un.Src, p.unbox)
	}
}

func TestBoxLiteralUsesConstTable(t *testing.T) {
	got := Box(TYPE_STRING, "", true, 7)
	assert.Equal(t, "const_s2it(7)", got.Src)
	got = Box(TYPE_SYMBOL, "", true, 3)
	assert.Equal(t, "const_k2it(3)", got.Src)
}

func TestBoxContainerIsCast(t *testing.T) {
	got := Box(TYPE_LIST, "lst", false, 0)
	assert.Equal(t, "(Item)(lst)", got.Src)
}

func TestBoxCaptureReusesOuterEnv(t *testing.T) {
	got := BoxCapture(TYPE_INT, "_env->x", true, false, 0)
	assert.Equal(t, "_env->x", got.Src, "outer env slots are already boxed")
	fresh := BoxCapture(TYPE_INT, "x", false, false, 0)
	assert.Equal(t, "i2it(x)", fresh.Src)
}

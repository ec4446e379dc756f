package symbol_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henry-luo/lambda-sub006/symbol"
)

func TestInternDedups(t *testing.T) {
	a := symbol.Intern("foo")
	b := symbol.Intern("foo")
	assert.Equal(t, a, b)
	assert.Equal(t, "foo", a.Str())
}

func TestInternDistinctNames(t *testing.T) {
	a := symbol.Intern("bar_one")
	b := symbol.Intern("bar_two")
	assert.NotEqual(t, a, b)
}

func TestLookupMissing(t *testing.T) {
	_, ok := symbol.Lookup("never_interned_xyz")
	assert.False(t, ok)
}

func TestHashStable(t *testing.T) {
	a := symbol.Intern("stable_name")
	assert.Equal(t, a.Hash(), a.Hash())
}

package hash_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/henry-luo/lambda-sub006/hash"
)

func TestStringStable(t *testing.T) {
	assert.Equal(t, hash.String("abc"), hash.String("abc"))
	assert.NotEqual(t, hash.String("abc"), hash.String("abd"))
}

func TestIntDistinct(t *testing.T) {
	assert.NotEqual(t, hash.Int(1), hash.Int(2))
	assert.Equal(t, hash.Int(42), hash.Int(42))
}

func TestMergeOrderDependent(t *testing.T) {
	a, b := hash.String("a"), hash.String("b")
	assert.NotEqual(t, a.Merge(b), b.Merge(a))
	assert.Equal(t, a.Merge(b), a.Merge(b))
}

func TestMergeStringMatchesMerge(t *testing.T) {
	a := hash.String("x")
	assert.Equal(t, a.Merge(hash.String("y")), a.MergeString("y"))
}

func TestBytesMatchesString(t *testing.T) {
	assert.Equal(t, hash.String("abc"), hash.Bytes([]byte("abc")))
}

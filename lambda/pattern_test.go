package lambda

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compilePattern(t *testing.T, def *ASTPatternDef) *CompiledPattern {
	t.Helper()
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	p, err := pc.CompileDef(def)
	require.NoError(t, err)
	require.False(t, diags.HasErrors())
	return p
}

func TestPatternHexFullMatch(t *testing.T) {
	// string hex = ("0x")? (\d | "a" to "f" | "A" to "F")+
	hexDigit := patUnion(patClass(ClassDigit), patUnion(patRange("a", "f"), patRange("A", "F")))
	def := patDef("hex",
		patSeq(
			patRepeat(RepeatOptional, patLit("0x")),
			patRepeat(RepeatOneMore, hexDigit)))
	p := compilePattern(t, def)
	assert.True(t, p.FullMatch("0xDEADBEEF"))
	assert.True(t, p.FullMatch("cafe42"))
	assert.False(t, p.FullMatch("0xGHI"))
	assert.False(t, p.FullMatch(""))
}

func TestPatternPartialMatch(t *testing.T) {
	def := patDef("digits", patRepeat(RepeatOneMore, patClass(ClassDigit)))
	p := compilePattern(t, def)
	assert.True(t, p.PartialMatch("abc123def"))
	assert.False(t, p.PartialMatch("abcdef"))
	assert.False(t, p.FullMatch("abc123def"), "full match anchors both ends")
}

func TestPatternTranslationTable(t *testing.T) {
	tests := []struct {
		name string
		ast  ASTNode
		want string
	}{
		{"literal escaped", patLit("a.b"), `a\.b`},
		{"digit class", patClass(ClassDigit), "[0-9]"},
		{"word class", patClass(ClassWord), "[A-Za-z0-9_]"},
		{"alpha class", patClass(ClassAlpha), "[A-Za-z]"},
		{"range", patRange("a", "z"), "[a-z]"},
		{"union", patUnion(patLit("a"), patLit("b")), "(?:a|b)"},
		{"optional", patRepeat(RepeatOptional, patLit("a")), "(?:a)?"},
		{"one or more", patRepeat(RepeatOneMore, patLit("a")), "(?:a)+"},
		{"zero or more", patRepeat(RepeatZeroMore, patLit("a")), "(?:a)*"},
		{"negation", &ASTPatternNegation{Inner: patLit("a")}, "(?!a)."},
		{"intersect lookahead", &ASTBinaryPattern{Op: PatternIntersect, LHS: patClass(ClassWord), RHS: patLit("x")}, "(?=[A-Za-z0-9_])x"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := compilePattern(t, patDef("p_"+strings.ReplaceAll(tc.name, " ", "_"), tc.ast))
			assert.Equal(t, tc.want, p.Source)
		})
	}
}

func TestPatternBoundedRepeat(t *testing.T) {
	exact := &ASTPatternRepeat{Inner: patLit("a"), Kind: RepeatBounded, Min: 3, Max: 3}
	p := compilePattern(t, patDef("r_exact", exact))
	assert.Equal(t, "(?:a){3}", p.Source)
	assert.True(t, p.FullMatch("aaa"))
	assert.False(t, p.FullMatch("aa"))
	assert.False(t, p.FullMatch("aaaa"))

	ranged := &ASTPatternRepeat{Inner: patLit("a"), Kind: RepeatBounded, Min: 2, Max: 4, HasMax: true}
	p = compilePattern(t, patDef("r_range", ranged))
	assert.Equal(t, "(?:a){2,4}", p.Source)

	open := &ASTPatternRepeat{Inner: patLit("a"), Kind: RepeatBounded, Min: 2, Max: -1}
	p = compilePattern(t, patDef("r_open", open))
	assert.Equal(t, "(?:a){2,}", p.Source)
	assert.True(t, p.FullMatch("aaaaaa"))
	assert.False(t, p.FullMatch("a"))
}

func TestPatternIntersectApproximation(t *testing.T) {
	// (?=a)b lookahead: matches strings in b's language that also start
	// like a. Documented subset per the design notes.
	def := patDef("wordy",
		&ASTBinaryPattern{
			Op:  PatternIntersect,
			LHS: patRepeat(RepeatOneMore, patClass(ClassWord)),
			RHS: patSeq(patLit("ab"), patRepeat(RepeatZeroMore, patClass(ClassAny))),
		})
	p := compilePattern(t, def)
	assert.True(t, p.FullMatch("abc"))
	assert.False(t, p.FullMatch("zbc"))
}

func TestPatternReferenceInlines(t *testing.T) {
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	_, err := pc.CompileDef(patDef("digit_ref", patClass(ClassDigit)))
	require.NoError(t, err)
	p, err := pc.CompileDef(patDef("two", patSeq(ident("digit_ref"), ident("digit_ref"))))
	require.NoError(t, err)
	assert.True(t, p.FullMatch("42"))
	assert.False(t, p.FullMatch("4"))
}

func TestPatternUnresolvedReference(t *testing.T) {
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	_, err := pc.CompileDef(patDef("broken", ident("never_defined_pat")))
	require.Error(t, err)
	assert.NotEmpty(t, diagsOfKind(diags, KindPatternError))
}

func nestedPattern(depth int) ASTNode {
	var n ASTNode = patLit("a")
	for i := 1; i < depth; i++ {
		n = patSeq(n)
	}
	return n
}

func TestPatternDepthLimitBoundary(t *testing.T) {
	// Nesting exactly at the limit compiles; one more fails with
	// OverflowError.
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	pc.DepthLimit = 10

	_, err := pc.CompileDef(patDef("at_limit", nestedPattern(10)))
	require.NoError(t, err)

	_, err = pc.CompileDef(patDef("over_limit", nestedPattern(11)))
	require.Error(t, err)
	assert.IsType(t, &OverflowError{}, err)
	assert.NotEmpty(t, diagsOfKind(diags, KindOverflowError))
}

func TestPatternIndicesStable(t *testing.T) {
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	a, err := pc.CompileDef(patDef("pa", patLit("a")))
	require.NoError(t, err)
	b, err := pc.CompileDef(patDef("pb", patLit("b")))
	require.NoError(t, err)
	assert.Equal(t, 0, a.Index)
	assert.Equal(t, 1, b.Index)
	got, ok := pc.ByName(sym("pa"))
	require.True(t, ok)
	assert.Same(t, a, got)
}

func TestPatternRangeEndpointEscaped(t *testing.T) {
	p := compilePattern(t, patDef("dash", patRange("-", "-")))
	assert.Equal(t, `[\--\-]`, p.Source)
	assert.True(t, p.FullMatch("-"))
}

func TestPatternMultiCharRangeEndpointRejected(t *testing.T) {
	// A multi-character range endpoint is rejected before reaching the
	// engine; a PatternError names the endpoints.
	diags := &Diagnostics{}
	pc := NewPatternCompiler(diags)
	_, err := pc.CompileDef(patDef("badrange", patRange("ab", "z")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single character")
}

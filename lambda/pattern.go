package lambda

// C7: Pattern Compiler (spec §4.6). Translates the pattern AST to a
// regex string, then compiles it with regexp2. The library choice
// matters: the `intersect &` rule lowers to a lookahead `(?=a)b`, which
// RE2-family engines (including Go's stdlib regexp) reject; regexp2's
// .NET-flavored syntax accepts it.
//
// Compile failures carry the engine's own error text verbatim; an
// unresolvable pattern reference is a PatternError on the definition.

import (
	"fmt"
	"strings"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// DefaultPatternDepthLimit bounds pattern AST nesting (spec §5
// "Cancellation / timeouts": parse depth <= 50). Nesting exactly at the
// limit compiles; one level more fails with OverflowError.
const DefaultPatternDepthLimit = 50

// CompiledPattern is one interned, resolved pattern (spec §3.2
// TypePattern): the regex source, the anchored full matcher, the
// unanchored partial matcher, and the pattern_index identifiers
// reference it by.
type CompiledPattern struct {
	Name     symbol.ID
	Source   string // unanchored regex text
	Index    int
	IsSymbol bool

	full    *regexp2.Regexp
	partial *regexp2.Regexp
}

// FullMatch reports whether s, in its entirety, is in the pattern's
// language (spec §8 property 5).
func (p *CompiledPattern) FullMatch(s string) bool {
	ok, err := p.full.MatchString(s)
	return err == nil && ok
}

// PartialMatch reports whether some substring of s is in the pattern's
// language.
func (p *CompiledPattern) PartialMatch(s string) bool {
	ok, err := p.partial.MatchString(s)
	return err == nil && ok
}

// PatternCompiler compiles every pattern definition of one Script and
// interns the results at stable pattern indices.
type PatternCompiler struct {
	Diags      *Diagnostics
	DepthLimit int // 0 means DefaultPatternDepthLimit

	compiled []*CompiledPattern
	byName   map[symbol.ID]*CompiledPattern
}

// NewPatternCompiler creates a compiler accumulating into diags.
func NewPatternCompiler(diags *Diagnostics) *PatternCompiler {
	return &PatternCompiler{
		Diags:      diags,
		DepthLimit: DefaultPatternDepthLimit,
		byName:     map[symbol.ID]*CompiledPattern{},
	}
}

// All returns the interned patterns in index order.
func (pc *PatternCompiler) All() []*CompiledPattern { return pc.compiled }

// ByName resolves a previously compiled pattern.
func (pc *PatternCompiler) ByName(name symbol.ID) (*CompiledPattern, bool) {
	p, ok := pc.byName[name]
	return p, ok
}

// CompileAll walks root compiling every pattern definition in source
// order. Definitions that fail stay unresolved (Type.Re == nil) and are
// flagged (spec §3.2 invariant on patterns).
func (pc *PatternCompiler) CompileAll(root ASTNode) {
	WalkPre(root, func(n ASTNode) {
		if def, ok := n.(*ASTPatternDef); ok {
			pc.CompileDef(def)
		}
	})
}

// CompileDef compiles one definition and interns it.
func (pc *PatternCompiler) CompileDef(def *ASTPatternDef) (*CompiledPattern, error) {
	src, err := pc.regexOf(def.Pattern, 1)
	if err != nil {
		pc.Diags.Add(kindOfPatternErr(err), def.Pos(), "pattern %q: %v", def.Name.Str(), err)
		return nil, err
	}
	full, err := regexp2.Compile("^(?:"+src+")$", regexp2.Unicode)
	if err != nil {
		err = errors.Wrapf(err, "pattern %q", def.Name.Str())
		pc.Diags.Add(KindPatternError, def.Pos(), "%v", err)
		return nil, err
	}
	partial, err := regexp2.Compile(src, regexp2.Unicode)
	if err != nil {
		err = errors.Wrapf(err, "pattern %q", def.Name.Str())
		pc.Diags.Add(KindPatternError, def.Pos(), "%v", err)
		return nil, err
	}
	p := &CompiledPattern{
		Name:     def.Name,
		Source:   src,
		Index:    len(pc.compiled),
		IsSymbol: def.IsSymbol,
		full:     full,
		partial:  partial,
	}
	pc.compiled = append(pc.compiled, p)
	pc.byName[def.Name] = p
	if t := def.TypeOf(); t != nil {
		t.Re = p
		t.PatternSource = src
		t.PatternIndex = p.Index
	}
	return p, nil
}

func kindOfPatternErr(err error) Kind {
	if _, ok := err.(*OverflowError); ok {
		return KindOverflowError
	}
	return KindPatternError
}

// regexOf lowers one pattern AST node to regex text per the translation
// table of spec §4.6.
func (pc *PatternCompiler) regexOf(n ASTNode, depth int) (string, error) {
	limit := pc.DepthLimit
	if limit == 0 {
		limit = DefaultPatternDepthLimit
	}
	if depth > limit {
		return "", &OverflowError{Msg: fmt.Sprintf("pattern nesting exceeds depth limit %d", limit)}
	}
	switch n := n.(type) {
	case *ASTPatternLiteral:
		return escapeLiteral(n.Value), nil
	case *ASTPatternCharClass:
		switch n.Class {
		case ClassDigit:
			return "[0-9]", nil
		case ClassWord:
			return "[A-Za-z0-9_]", nil
		case ClassSpace:
			return `\s`, nil
		case ClassAlpha:
			return "[A-Za-z]", nil
		case ClassAny:
			return ".", nil
		}
		return "", &PatternError{Msg: "unrecognized character class"}
	case *ASTPatternRange:
		lo, hi := n.Lo, n.Hi
		if len(lo) != 1 || len(hi) != 1 {
			return "", &PatternError{Msg: fmt.Sprintf("range endpoints must be single characters, got %q to %q", lo, hi)}
		}
		return "[" + escapeInClass(lo) + "-" + escapeInClass(hi) + "]", nil
	case *ASTPatternSeq:
		var b strings.Builder
		for _, it := range n.Items {
			s, err := pc.regexOf(it, depth+1)
			if err != nil {
				return "", err
			}
			b.WriteString(s)
		}
		return b.String(), nil
	case *ASTBinaryPattern:
		l, err := pc.regexOf(n.LHS, depth+1)
		if err != nil {
			return "", err
		}
		r, err := pc.regexOf(n.RHS, depth+1)
		if err != nil {
			return "", err
		}
		if n.Op == PatternUnion {
			return "(?:" + l + "|" + r + ")", nil
		}
		// Intersection approximated by lookahead; full regular-language
		// intersection is not attempted (spec §9 open questions).
		return "(?=" + l + ")" + r, nil
	case *ASTPatternRepeat:
		inner, err := pc.regexOf(n.Inner, depth+1)
		if err != nil {
			return "", err
		}
		grouped := "(?:" + inner + ")"
		switch n.Kind {
		case RepeatOptional:
			return grouped + "?", nil
		case RepeatOneMore:
			return grouped + "+", nil
		case RepeatZeroMore:
			return grouped + "*", nil
		case RepeatBounded:
			if n.Max < 0 {
				return fmt.Sprintf("%s{%d,}", grouped, n.Min), nil
			}
			if !n.HasMax || n.Min == n.Max {
				return fmt.Sprintf("%s{%d}", grouped, n.Min), nil
			}
			return fmt.Sprintf("%s{%d,%d}", grouped, n.Min, n.Max), nil
		}
		return "", &PatternError{Msg: "unrecognized repeat kind"}
	case *ASTPatternNegation:
		inner, err := pc.regexOf(n.Inner, depth+1)
		if err != nil {
			return "", err
		}
		return "(?!" + inner + ").", nil
	case *ASTIdent:
		// A reference to an earlier pattern definition inlines its
		// already-compiled source.
		if p, ok := pc.byName[n.Name]; ok {
			return "(?:" + p.Source + ")", nil
		}
		return "", &PatternError{Msg: fmt.Sprintf("unresolved pattern reference %q", n.Name.Str())}
	case *ASTLiteral:
		if n.Kind == TYPE_STRING || n.Kind == TYPE_SYMBOL {
			return escapeLiteral(n.Str), nil
		}
		return "", &PatternError{Msg: fmt.Sprintf("literal of type %v not usable in a pattern", n.Kind)}
	case *ASTParen:
		return pc.regexOf(n.Inner, depth+1)
	}
	return "", &PatternError{Msg: fmt.Sprintf("node %T not usable in a pattern", n)}
}

// escapeLiteral escapes every regex metacharacter in s.
func escapeLiteral(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`\.+*?()|[]{}^$`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// escapeInClass escapes a single character for use inside [...].
func escapeInClass(s string) string {
	if strings.ContainsAny(s, `\]^-`) {
		return `\` + s
	}
	return s
}

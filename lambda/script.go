package lambda

// Script is the per-compilation-unit record of spec §3.5, plus the
// pipeline that carries one script from parsed syntax tree to emitted
// target source. The structure mirrors the teacher's Session: one object
// owning the const/type tables, the global scope, and the analysis
// passes, handed around explicitly instead of living in package globals
// (spec §9 "Global mutable state").

import (
	"sync"

	"github.com/grailbio/base/log"

	"github.com/henry-luo/lambda-sub006/parsetree"
)

// Item is the uniform 64-bit tagged runtime slot (spec §3.1). Its bit
// encoding belongs to the runtime; the core only needs the width for the
// backend's entry signature.
type Item uint64

// Context is the process-wide runtime context the host owns (spec §5).
// Opaque to the core; emitted code receives it as `Context*`.
type Context struct{}

// MainFunc is the callable the backend returns for a compiled script
// (spec §6 "Backend": main_func_t = fn(Context*) -> Item).
type MainFunc func(*Context) Item

// Backend compiles emitted source into a callable. The real
// implementation is the external MIR-like JIT (out of scope per spec
// §1); tests substitute a recorder.
type Backend interface {
	Compile(source string, names *FuncNameMap) (MainFunc, error)
}

// FuncNameMap maps emitted (backend-level) function names to
// human-readable names for stack traces (spec §3.5 func_name_map).
// Append-only; duplicate registration is last-write-wins (spec §5).
type FuncNameMap struct {
	mu sync.Mutex
	m  map[string]string
}

// NewFuncNameMap creates an empty name map.
func NewFuncNameMap() *FuncNameMap {
	return &FuncNameMap{m: map[string]string{}}
}

// Register records backendName -> humanName.
func (f *FuncNameMap) Register(backendName, humanName string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[backendName] = humanName
}

// Lookup resolves a backend name to its human name.
func (f *FuncNameMap) Lookup(backendName string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h, ok := f.m[backendName]
	return h, ok
}

// DecimalCtx is the per-script arbitrary-precision context (spec §3.5
// decimal_ctx, §6 "Decimal library"). The checker does not read it:
// DECIMAL literals are parsed with the decimal library's defaults when
// they are interned.
type DecimalCtx struct {
	// DivisionPrecision records a digit bound for decimal division; 0
	// means the library default. Nothing in the core reads it.
	DivisionPrecision int
}

// Script is one compilation unit (spec §3.5).
type Script struct {
	Reference string // module path or file reference
	Index     int    // disambiguates cross-module names; emitted as m<Index>
	Source    string

	SyntaxTree  parsetree.Node
	ASTRoot     *ASTScriptRoot
	GlobalScope *NameScope

	Consts    *ConstTable
	Diags     *Diagnostics
	Patterns  *PatternCompiler
	FuncNames *FuncNameMap
	Decimal   DecimalCtx

	// StackLimit, when nonzero, overrides the runtime's default bound
	// for the per-function entry checks in the emitted prelude.
	StackLimit int

	checked bool
}

// NewScript creates a Script over an already-parsed syntax tree. The
// AST is built lazily by Check (via the parse-tree builder) unless the
// caller supplies ASTRoot directly, which tests do.
func NewScript(reference string, index int, source string, tree parsetree.Node) *Script {
	s := &Script{
		Reference: reference,
		Index:     index,
		Source:    source,
		SyntaxTree: tree,
		Diags:     &Diagnostics{},
		Consts:    NewConstTable(),
		FuncNames: NewFuncNameMap(),
	}
	s.Patterns = NewPatternCompiler(s.Diags)
	return s
}

// Check runs the full analysis pipeline: build (if needed), name/type
// checking (C2+C4), module linking (C9), closure analysis (C5), safety
// analysis (C6), and pattern compilation (C7). Idempotent: a second
// Check is a no-op (spec §8 "monotonic annotation").
func (s *Script) Check(linker *Linker) {
	if s.checked {
		return
	}
	s.checked = true
	if s.ASTRoot == nil {
		if s.SyntaxTree == nil {
			s.Diags.Add(KindShapeError, Position{}, "script %q has neither a syntax tree nor an AST", s.Reference)
			return
		}
		s.ASTRoot = BuildScript(s.SyntaxTree, s.Diags)
	}
	checker := NewChecker()
	checker.Diags = s.Diags
	checker.Consts = s.Consts
	if linker != nil {
		linker.Resolve(s, checker)
	}
	checker.Check(s.ASTRoot)
	s.GlobalScope = checker.Scopes.Current()
	AnalyzeClosures(s.ASTRoot, s.Diags)
	AnalyzeSafety(s.ASTRoot, s.Diags)
	s.Patterns.CompileAll(s.ASTRoot)
	if s.Diags.HasErrors() {
		log.Debug.Printf("lambda: script %q checked with %d diagnostics", s.Reference, len(s.Diags.List()))
	}
}

// EmitSource lowers the checked AST to target source (C8). Deterministic
// for a given AST (spec §8 property 6). Emission proceeds past
// accumulated errors; error-valued placeholders stand in for the broken
// sub-expressions (spec §7).
func (s *Script) EmitSource(linker *Linker) string {
	if !s.checked {
		s.Check(linker)
	}
	if s.ASTRoot == nil {
		return ""
	}
	e := NewEmitter(s, linker)
	return e.EmitScript(s.ASTRoot)
}

// Compile runs the whole pipeline and hands the emitted source to the
// backend. A host-fatal panic in any pass (spec §7) comes back as an
// error naming this script rather than unwinding into the host.
func (s *Script) Compile(linker *Linker, backend Backend) (MainFunc, error) {
	var src string
	if err := Recover(s.Reference, func() { src = s.EmitSource(linker) }); err != nil {
		return nil, err
	}
	return backend.Compile(src, s.FuncNames)
}

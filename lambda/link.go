package lambda

// C9: Module Linker (spec §4.8). Resolves import nodes during checking:
// each import binds to an already-parsed Script with a stable index, and
// the imported script's public names (public functions and pub-lets)
// enter the importer's global scope under the alias, annotated with
// their import origin so the emitter prefixes references with m<index>.

import (
	"github.com/henry-luo/lambda-sub006/symbol"
)

// Linker owns the registry of parsed Scripts keyed by module path.
type Linker struct {
	byPath  map[string]*Script
	ordered []*Script
}

// NewLinker creates an empty registry.
func NewLinker() *Linker {
	return &Linker{byPath: map[string]*Script{}}
}

// Register makes s resolvable by its reference. A script must be
// registered before any script importing it is checked.
func (l *Linker) Register(s *Script) {
	l.byPath[s.Reference] = s
	l.ordered = append(l.ordered, s)
}

// ByPath resolves a module path to its Script.
func (l *Linker) ByPath(path string) (*Script, bool) {
	s, ok := l.byPath[path]
	return s, ok
}

// Scripts returns every registered script in registration order.
func (l *Linker) Scripts() []*Script { return l.ordered }

// Resolve binds every import of the importing script and injects the
// imported public names into the importer's current (global) scope.
// Unresolved module references accumulate as ImportError and the import
// is skipped; checking continues (spec §7).
func (l *Linker) Resolve(importing *Script, c *Checker) {
	if importing.ASTRoot == nil {
		return
	}
	for _, impNode := range importing.ASTRoot.Imports {
		imp := impNode.Decl
		target, ok := l.byPath[imp.ModulePath]
		if !ok {
			c.Diags.Add(KindImportError, impNode.Pos(), "unresolved module %q", imp.ModulePath)
			continue
		}
		if target == importing {
			c.Diags.Add(KindImportError, impNode.Pos(), "module %q imports itself", imp.ModulePath)
			continue
		}
		// The imported script must be checked first so its public
		// declarations carry types.
		target.Check(l)
		imp.Script = target
		for _, entry := range publicEntries(target) {
			qualified := symbol.Intern(imp.Alias.Str() + "." + entry.Name.Str())
			if err := c.Scopes.Declare(qualified, entry.DefiningNode, imp); err != nil {
				c.Diags.Add(KindImportError, impNode.Pos(), "%s", err.Error())
			}
		}
	}
}

// publicEntries lists the exportable declarations of a checked script:
// public named functions and pub-let bindings, in source order.
func publicEntries(s *Script) []*NameEntry {
	var out []*NameEntry
	for _, n := range s.ASTRoot.Body {
		switch n := n.(type) {
		case *ASTFn:
			if n.IsPublic {
				out = append(out, &NameEntry{Name: n.Name, DefiningNode: &n.FuncDef})
			}
		case *ASTProcedure:
			if n.IsPublic {
				out = append(out, &NameEntry{Name: n.Name, DefiningNode: &n.FuncDef})
			}
		case *ASTPub:
			out = append(out, &NameEntry{Name: n.Name, DefiningNode: n})
		}
	}
	return out
}

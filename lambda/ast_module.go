package lambda

// Module: import, script root (spec §3.3, §3.5, C9 Module Linker).

import "github.com/henry-luo/lambda-sub006/symbol"

// Import is one `import alias "module_path"` declaration (spec §3.5).
type Import struct {
	Alias      symbol.ID
	ModulePath string
	Script     *Script // resolved by C9 once the target Script is parsed
	IsRelative bool
}

// ASTImport is the import statement node.
type ASTImport struct {
	base
	Decl *Import
}

func (n *ASTImport) String() string { return "import " + n.Decl.Alias.Str() }

// ASTScriptRoot is the top of a parsed Script's AST: a sequence of
// imports, pattern/function/pub declarations, and trailing content-block
// expressions whose values are collected as the script's result (spec
// §4.7 "Script top-level").
type ASTScriptRoot struct {
	base
	Imports []*ASTImport
	Body    []ASTNode
}

func (n *ASTScriptRoot) String() string { return "script" }

// ASTUnknown is a placeholder used where a required child is missing or
// unresolvable; emission treats it as the error sentinel (spec §7
// ShapeError) rather than aborting.
type ASTUnknown struct {
	base
	Reason string
}

func (n *ASTUnknown) String() string { return "<error: " + n.Reason + ">" }

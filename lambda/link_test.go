package lambda

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func libAndMain() (*Script, *Script, *Linker) {
	inc := fnNode("inc", []*ASTParam{param("x")}, bin(OpAdd, ident("x"), litInt(1)))
	inc.IsPublic = true
	lib := NewScript("lib.ls", 1, "", nil)
	lib.ASTRoot = script(&ASTPub{Name: sym("pi"), Expr: litFloat(3.14)}, inc)

	imp := &ASTImport{Decl: &Import{Alias: sym("lib"), ModulePath: "lib.ls"}}
	main := NewScript("main.ls", 0, "", nil)
	main.ASTRoot = &ASTScriptRoot{
		Imports: []*ASTImport{imp},
		Body: []ASTNode{
			call(&ASTMember{Object: ident("lib"), Field: sym("inc")}, litInt(41)),
			&ASTMember{Object: ident("lib"), Field: sym("pi")},
		},
	}

	linker := NewLinker()
	linker.Register(main)
	linker.Register(lib)
	return lib, main, linker
}

func TestLinkResolvesImport(t *testing.T) {
	lib, main, linker := libAndMain()
	main.Check(linker)
	assert.Empty(t, diagsOfKind(main.Diags, KindImportError))
	assert.Empty(t, diagsOfKind(main.Diags, KindNameError))
	require.NotNil(t, main.ASTRoot.Imports[0].Decl.Script)
	assert.Same(t, lib, main.ASTRoot.Imports[0].Decl.Script)
}

func TestLinkImportedCallIsDirect(t *testing.T) {
	_, main, linker := libAndMain()
	main.Check(linker)
	c := main.ASTRoot.Body[0].(*ASTCall)
	assert.Equal(t, CalleeDirect, c.Kind)
	require.NotNil(t, c.DirectDef)
	assert.Equal(t, sym("inc"), c.DirectDef.Name)
}

func TestLinkEmissionPrefixesModuleIndex(t *testing.T) {
	_, main, linker := libAndMain()
	out := main.EmitSource(linker)
	assert.Contains(t, out, "struct Module_m1")
	assert.Contains(t, out, "m1.inc(")
	assert.Contains(t, out, "m1.pi")
}

func TestLinkUnresolvedModule(t *testing.T) {
	imp := &ASTImport{Decl: &Import{Alias: sym("ghost"), ModulePath: "ghost.ls"}}
	main := NewScript("main2.ls", 0, "", nil)
	main.ASTRoot = &ASTScriptRoot{Imports: []*ASTImport{imp}, Body: []ASTNode{litInt(1)}}
	linker := NewLinker()
	linker.Register(main)
	main.Check(linker)
	assert.NotEmpty(t, diagsOfKind(main.Diags, KindImportError))
}

func TestLinkSelfImportRejected(t *testing.T) {
	imp := &ASTImport{Decl: &Import{Alias: sym("me"), ModulePath: "self.ls"}}
	s := NewScript("self.ls", 0, "", nil)
	s.ASTRoot = &ASTScriptRoot{Imports: []*ASTImport{imp}, Body: []ASTNode{litInt(1)}}
	linker := NewLinker()
	linker.Register(s)
	s.Check(linker)
	assert.NotEmpty(t, diagsOfKind(s.Diags, KindImportError))
}

func TestLinkPrivateNamesNotExported(t *testing.T) {
	private := fnNode("secret", nil, litInt(1))
	lib := NewScript("lib2.ls", 1, "", nil)
	lib.ASTRoot = script(private)

	imp := &ASTImport{Decl: &Import{Alias: sym("lib2"), ModulePath: "lib2.ls"}}
	main := NewScript("main3.ls", 0, "", nil)
	main.ASTRoot = &ASTScriptRoot{
		Imports: []*ASTImport{imp},
		Body:    []ASTNode{call(&ASTMember{Object: ident("lib2"), Field: sym("secret")})},
	}
	linker := NewLinker()
	linker.Register(main)
	linker.Register(lib)
	main.Check(linker)
	// The member does not resolve against the import; it degrades to a
	// dynamic member access on an undefined object.
	assert.NotEmpty(t, diagsOfKind(main.Diags, KindNameError))
}

// Command lambdac drives the Lambda compilation core: parse (through a
// linked parser adapter), check, analyze, and emit target source for the
// external backend. Parsing itself is out of the core's scope; a host
// links a concrete tree provider by assigning NewTree before main runs.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/pkg/errors"

	"github.com/henry-luo/lambda-sub006/lambda"
	"github.com/henry-luo/lambda-sub006/parsetree"
)

var (
	emitDir           = flag.String("emit-dir", "", "directory to write emitted source into (default: alongside the script)")
	stackLimit        = flag.Int("stack-limit", 0, "override the runtime stack bound in the emitted prelude (0: runtime default)")
	patternDepthLimit = flag.Int("pattern-depth-limit", lambda.DefaultPatternDepthLimit, "max pattern AST nesting depth")
)

// NewTree is the parser-adapter hook: a linked host assigns a function
// producing the syntax tree for a source buffer. The core consumes the
// tree through the parsetree interface only.
var NewTree func(source string) (parsetree.Node, error)

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "usage: lambdac [flags] script.ls [more scripts...]")
		os.Exit(2)
	}
	if err := run(flag.Args()); err != nil {
		log.Error.Printf("lambdac: %v", err)
		os.Exit(1)
	}
}

func run(paths []string) error {
	if NewTree == nil {
		return errors.New("no parser adapter linked; lambdac emits from a host-provided syntax tree")
	}
	linker := lambda.NewLinker()
	scripts := make([]*lambda.Script, 0, len(paths))
	for i, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		tree, err := NewTree(string(src))
		if err != nil {
			return errors.Wrapf(err, "parse %s", path)
		}
		s := lambda.NewScript(path, i, string(src), tree)
		s.StackLimit = *stackLimit
		s.Patterns.DepthLimit = *patternDepthLimit
		linker.Register(s)
		scripts = append(scripts, s)
	}
	failed := false
	for _, s := range scripts {
		out := s.EmitSource(linker)
		for _, d := range s.Diags.List() {
			fmt.Fprintln(os.Stderr, d)
		}
		if s.Diags.HasErrors() {
			failed = true
			continue
		}
		dst := emittedPath(s.Reference)
		if err := os.WriteFile(dst, []byte(out), 0644); err != nil {
			return errors.Wrapf(err, "write %s", dst)
		}
		log.Debug.Printf("lambdac: %s -> %s", s.Reference, dst)
	}
	if failed {
		return errors.New("compilation had errors")
	}
	return nil
}

func emittedPath(script string) string {
	base := strings.TrimSuffix(filepath.Base(script), filepath.Ext(script)) + ".c"
	if *emitDir != "" {
		return filepath.Join(*emitDir, base)
	}
	return filepath.Join(filepath.Dir(script), base)
}

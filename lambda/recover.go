package lambda

// Fatal conditions — pool exhaustion, a corrupt constant table — are
// reserved for the host (spec §7) and surface as Go panics inside the
// analysis and emission passes; language-level problems never panic,
// they accumulate as Diagnostics instead. Recover converts a pass's
// panic into an error naming the script, so a host compiling many
// scripts loses one compilation, not the process.

import (
	"fmt"
	"runtime/debug"

	"github.com/grailbio/base/errors"
)

// Recover runs one compilation pass over the named script, turning any
// panic into a fatal error that carries the script reference and the
// stack at the point of failure. It returns nil if the pass completes.
func Recover(scriptRef string, pass func()) (err error) {
	defer func() {
		if e := recover(); e != nil {
			err = errors.E(errors.Fatal,
				fmt.Sprintf("lambda: fatal compiling %s: %v", scriptRef, e),
				string(debug.Stack()))
		}
	}()
	pass()
	return nil
}

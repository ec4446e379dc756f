package lambda

// The system-function table (spec §6 "Runtime library"). Grounded on the
// teacher's RegisterBuiltinFunc/Func registry (gql/func.go), simplified:
// Lambda's system functions are not user-extensible at parse time (no
// init()-time plugin registration is exposed across Script boundaries),
// so a single package-level table suffices.

import "sync"

var (
	sysFuncsOnce sync.Once
	sysFuncs     map[string]*SysFuncInfo
)

func initSysFuncs() {
	sysFuncs = map[string]*SysFuncInfo{}
	register := func(name, csym string, arity int, variadic bool) {
		sysFuncs[name] = &SysFuncInfo{Name: name, CSymbol: csym, Arity: arity, IsVariadic: variadic}
	}
	// Arithmetic/comparison slow paths (spec §4.3), invoked when the fast
	// numeric path does not apply.
	register("fn_add", "fn_add", 2, false)
	register("fn_sub", "fn_sub", 2, false)
	register("fn_mul", "fn_mul", 2, false)
	register("fn_div", "fn_div", 2, false)
	register("fn_idiv", "fn_idiv", 2, false)
	register("fn_mod", "fn_mod", 2, false)
	register("fn_pow", "fn_pow", 2, false)
	register("fn_neg", "fn_neg", 1, false)
	register("fn_pos", "fn_pos", 1, false)
	register("fn_eq", "fn_eq", 2, false)
	register("fn_ne", "fn_ne", 2, false)
	register("fn_lt", "fn_lt", 2, false)
	register("fn_le", "fn_le", 2, false)
	register("fn_gt", "fn_gt", 2, false)
	register("fn_ge", "fn_ge", 2, false)
	register("fn_in", "fn_in", 2, false)
	register("fn_is", "fn_is", 2, false)
	register("fn_to", "fn_to", 2, false)
	register("fn_join", "fn_join", 2, false)
	register("fn_len", "fn_len", 1, false)
	register("fn_index", "fn_index", 2, false)
	register("fn_member", "fn_member", 2, false)
	// Library-level functions callable from user scripts.
	register("sum", "fn_sum", 1, false)
	register("count", "fn_count", 1, false)
	register("min", "fn_min", 1, true)
	register("max", "fn_max", 1, true)
	register("match", "fn_match", 2, false)
	register("print", "fn_print", 1, true)
	register("string", "fn_to_string", 1, false)
	register("int", "fn_to_int", 1, false)
	register("float", "fn_to_float", 1, false)
}

// LookupSysFunc finds a system function by name (spec §4.3 "Resolve the
// callee ... system function").
func LookupSysFunc(name string) (*SysFuncInfo, bool) {
	sysFuncsOnce.Do(initSysFuncs)
	f, ok := sysFuncs[name]
	return f, ok
}

// Package symbol manages interned identifiers. Symbols are deduped strings
// represented as small integers, so that name lookups in NameScope and
// NameEntry (see package lambda) compare in O(1) rather than doing string
// comparison on every scope walk.
package symbol

import (
	"sync"
	"sync/atomic"

	"github.com/henry-luo/lambda-sub006/hash"
)

// ID represents an interned symbol.
type ID int32

const (
	// Invalid is a sentinel returned for lookups that failed to resolve.
	Invalid = ID(0)
)

type idInfo struct {
	name string
	hash hash.Hash
}

type table struct {
	sync.Mutex
	names   map[string]ID
	idsPtr  atomic.Value // []idInfo
}

var symbols table

func maybeInit() {
	if symbols.names == nil {
		symbols.Lock()
		defer symbols.Unlock()
		if symbols.names == nil {
			symbols.names = map[string]ID{"(invalid)": Invalid}
			symbols.idsPtr.Store([]idInfo{{"(invalid)", hash.String("(invalid)")}})
		}
	}
}

func init() {
	maybeInit()
}

func (t *table) ids() []idInfo {
	return t.idsPtr.Load().([]idInfo)
}

// Hash returns the content hash of the symbol's name.
func (id ID) Hash() hash.Hash {
	return symbols.ids()[id].hash
}

// Str returns the human-readable name of the symbol. It panics if id was
// never interned, which would indicate a compiler bug (a name resolved to
// an ID nobody declared).
func (id ID) Str() string {
	ids := symbols.ids()
	if int(id) >= len(ids) || ids[id].name == "" {
		panic("symbol: id not found")
	}
	return ids[id].name
}

// Intern finds or creates the ID for the given string. Interning is
// append-only for the lifetime of the process: once assigned, an ID's
// name never changes, matching the append-only constants/type-table
// discipline the rest of the core relies on (spec §5).
func Intern(v string) ID {
	maybeInit()
	if v == "" {
		panic("symbol: empty name")
	}
	symbols.Lock()
	defer symbols.Unlock()
	if id, ok := symbols.names[v]; ok {
		return id
	}
	ids := symbols.ids()
	id := ID(len(ids))
	ids = append(ids, idInfo{v, hash.String(v)})
	symbols.idsPtr.Store(ids)
	symbols.names[v] = id
	return id
}

// Lookup finds the ID for a string without interning it. The checker uses
// it to resolve an import-qualified member name without creating a new
// symbol when no such name was declared.
func Lookup(v string) (ID, bool) {
	maybeInit()
	symbols.Lock()
	defer symbols.Unlock()
	id, ok := symbols.names[v]
	return id, ok
}

package lambda

// Constructors: array, typed array, list, map, element, content (spec
// §3.3). Grounded on the teacher's struct/Struct split (gql/struct.go) for
// the map/element field-list shape, generalized to hold ASTNode children
// rather than runtime Values.

import (
	"fmt"
	"strings"

	"github.com/henry-luo/lambda-sub006/symbol"
)

// ASTArray is an array literal, `[e1, e2, ...]`. Whether it lowers to a
// specialized typed array or a generic Item array is decided during
// emission (C8), not here; this node just holds the checked element
// expressions plus whether any of them is spreadable (produced by a
// nested for-expression).
type ASTArray struct {
	base
	Items      []ASTNode
	Spreadable []bool // parallel to Items; true if Items[i] is a for-expression
}

func (n *ASTArray) String() string { return "[array]" }

// ASTList is a list literal, always Item-shaped regardless of element
// type uniformity.
type ASTList struct {
	base
	Items []ASTNode
}

func (n *ASTList) String() string { return "[list]" }

// MapItem is one key:value entry of an ASTMapLit.
type MapItem struct {
	Key   ASTNode
	Value ASTNode
}

// ASTMapLit is a map literal `{k1: v1, k2: v2}`.
type ASTMapLit struct {
	base
	Items []MapItem
}

func (n *ASTMapLit) String() string { return "{map}" }

// ElementAttr is one attr="value" of an ASTElement.
type ElementAttr struct {
	Name  symbol.ID
	Value ASTNode
}

// ASTElement is a tagged element literal `<tag attr="v">content</tag>`.
type ASTElement struct {
	base
	Tag     string
	Attrs   []ElementAttr
	Content []ASTNode
}

func (n *ASTElement) String() string {
	return fmt.Sprintf("<%s>", n.Tag)
}

// ASTContent is a bare content-sequence node (an element's children, or a
// top-level content block), distinguished from ASTList because content
// has no surrounding literal-list syntax of its own.
type ASTContent struct {
	base
	Items []ASTNode
}

func (n *ASTContent) String() string {
	parts := make([]string, len(n.Items))
	for i, it := range n.Items {
		parts[i] = it.String()
	}
	return strings.Join(parts, "; ")
}

package extractor

import (
	"fmt"
	"os"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// goParserPool is a pool of reusable tree-sitter parsers for Go.
var goParserPool = sync.Pool{
	New: func() interface{} {
		parser := sitter.NewParser()
		parser.SetLanguage(golang.GetLanguage())
		return parser
	},
}

// FuncIndex lists the function and method declarations of a Go source file
// in source order. Files with syntax errors are indexed as far as the parser
// recovers.
func FuncIndex(content []byte) ([]FuncEntry, error) {
	parser := goParserPool.Get().(*sitter.Parser)
	defer goParserPool.Put(parser)

	tree := parser.Parse(nil, content)
	if tree == nil {
		return nil, fmt.Errorf("parsing content failed")
	}
	defer tree.Close()

	var entries []FuncEntry
	root := tree.RootNode()
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "function_declaration":
			if e, ok := parseFunction(node, content); ok {
				entries = append(entries, e)
			}
		case "method_declaration":
			if e, ok := parseMethod(node, content); ok {
				entries = append(entries, e)
			}
		}
	}
	return entries, nil
}

// FuncIndexFile reads path and indexes it.
func FuncIndexFile(path string) ([]FuncEntry, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file %s: %w", path, err)
	}
	entries, err := FuncIndex(content)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", path, err)
	}
	return entries, nil
}

func parseFunction(node *sitter.Node, content []byte) (FuncEntry, bool) {
	name := nodeText(node.ChildByFieldName("name"), content)
	if name == "" {
		return FuncEntry{}, false
	}
	return FuncEntry{
		Name:      name,
		Func:      name,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		HasBody:   node.ChildByFieldName("body") != nil,
	}, true
}

func parseMethod(node *sitter.Node, content []byte) (FuncEntry, bool) {
	name := nodeText(node.ChildByFieldName("name"), content)
	recv := receiverType(node.ChildByFieldName("receiver"), content)
	if name == "" || recv == "" {
		return FuncEntry{}, false
	}
	return FuncEntry{
		Name:      strings.TrimPrefix(recv, "*") + "." + name,
		Func:      name,
		Receiver:  recv,
		StartLine: int(node.StartPoint().Row) + 1,
		EndLine:   int(node.EndPoint().Row) + 1,
		HasBody:   node.ChildByFieldName("body") != nil,
	}, true
}

// receiverType renders the receiver's type with any type arguments
// dropped: "T", "*T".
func receiverType(list *sitter.Node, content []byte) string {
	if list == nil {
		return ""
	}
	for i := 0; i < int(list.NamedChildCount()); i++ {
		param := list.NamedChild(i)
		if param.Type() != "parameter_declaration" {
			continue
		}
		typ := param.ChildByFieldName("type")
		prefix := ""
		if typ != nil && typ.Type() == "pointer_type" {
			prefix = "*"
			typ = typ.NamedChild(0)
		}
		if typ != nil && typ.Type() == "generic_type" {
			typ = typ.ChildByFieldName("type")
		}
		if text := nodeText(typ, content); text != "" {
			return prefix + text
		}
	}
	return ""
}

// nodeText extracts the text content of a node from the source.
func nodeText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start := node.StartByte()
	end := node.EndByte()
	if start >= uint32(len(content)) || end > uint32(len(content)) {
		return ""
	}
	return string(content[start:end])
}

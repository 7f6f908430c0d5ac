package cfg

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

var dotEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
)

// WriteDot writes g in Graphviz dot format. Guards are drawn as diamonds,
// nodes that stop execution as double boxes, and True/False edges are
// labelled.
func WriteDot(w io.Writer, g *Graph) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "digraph %q {\n", g.Name)
	fmt.Fprintf(bw, "  node [shape=box, fontname=\"monospace\"];\n")
	for _, n := range g.Nodes() {
		label := n.Text
		if label == "" {
			label = n.Kind.String()
		}
		attrs := ""
		switch {
		case n.Kind == KindCondition || n.Kind == KindLoopGuard:
			attrs = ", shape=diamond"
		case n.StopsExecution():
			attrs = ", peripheries=2"
		case n.Kind == KindNoOp:
			attrs = ", shape=point"
		}
		if n.ID == g.Entry() {
			attrs += ", style=bold"
		}
		fmt.Fprintf(bw, "  n%d [label=\"%s\"%s];\n", n.ID, dotEscaper.Replace(label), attrs)
	}
	for _, e := range g.Edges() {
		switch e.Kind {
		case True:
			fmt.Fprintf(bw, "  n%d -> n%d [label=\"true\", color=\"darkgreen\"];\n", e.From, e.To)
		case False:
			fmt.Fprintf(bw, "  n%d -> n%d [label=\"false\", color=\"red\"];\n", e.From, e.To)
		default:
			fmt.Fprintf(bw, "  n%d -> n%d;\n", e.From, e.To)
		}
	}
	fmt.Fprintf(bw, "}\n")
	return bw.Flush()
}

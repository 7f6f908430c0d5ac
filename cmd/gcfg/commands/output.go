package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/l3aro/go-cfg-builder/pkg/cfg"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// printInfo renders a graph in the human readable text format.
func printInfo(w io.Writer, info *cfg.CFGInfo, indent string) {
	fmt.Fprintf(w, "%sFunction: %s\n", indent, info.FunctionName)
	if info.Receiver != "" {
		fmt.Fprintf(w, "%sReceiver: %s\n", indent, info.Receiver)
	}
	if info.File != "" {
		fmt.Fprintf(w, "%sFile: %s\n", indent, info.File)
	}
	if len(info.Params) > 0 {
		params := make([]string, len(info.Params))
		for i, p := range info.Params {
			params[i] = strings.TrimSpace(p.Name + " " + p.Type)
		}
		fmt.Fprintf(w, "%sParams: %s\n", indent, strings.Join(params, ", "))
	}
	if len(info.Results) > 0 {
		fmt.Fprintf(w, "%sResults: %s (%s)\n", indent, strings.Join(info.Results, ", "), info.ResultShape)
	}
	fmt.Fprintf(w, "%sComplexity: %d\n", indent, info.CyclomaticComplexity)
	fmt.Fprintf(w, "%sEntry: %d  Exits: %v\n", indent, info.Entry, info.Exits)

	succ := make(map[int][]string)
	for _, e := range info.Edges {
		s := fmt.Sprintf("%d", e.To)
		if e.Kind != "sequential" {
			s += "(" + e.Kind + ")"
		}
		succ[e.From] = append(succ[e.From], s)
	}

	fmt.Fprintf(w, "\n%sNodes (%d):\n", indent, len(info.Nodes))
	for _, n := range info.Nodes {
		text := n.Text
		if text == "" {
			text = "<" + n.Kind + ">"
		}
		line := fmt.Sprintf("%s  [%d] %-10s L%-4d %s", indent, n.ID, n.Kind, n.Line, text)
		if out := succ[n.ID]; len(out) > 0 {
			line += " -> " + strings.Join(out, ", ")
		}
		if n.Stops {
			line += " (stops)"
		}
		fmt.Fprintln(w, line)
	}

	if len(info.Variables) > 0 {
		vars := append([]cfg.VariableInfo(nil), info.Variables...)
		sort.SliceStable(vars, func(i, j int) bool { return vars[i].Decl < vars[j].Decl })
		fmt.Fprintf(w, "\n%sVariables:\n", indent)
		for _, v := range vars {
			fmt.Fprintf(w, "%s  %s (%s) declared at %d, scope ends at %d\n", indent, v.Name, v.Kind, v.Decl, v.ScopeEnd)
		}
	}
	if len(info.Deferred) > 0 {
		fmt.Fprintf(w, "%sDeferred: %v\n", indent, info.Deferred)
	}
	for _, a := range info.Anonymous {
		fmt.Fprintln(w)
		printInfo(w, a, indent+"  ")
	}
}

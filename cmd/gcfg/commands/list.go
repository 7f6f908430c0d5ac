package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-cfg-builder/internal/source"
	"github.com/l3aro/go-cfg-builder/pkg/extractor"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list <file|url>",
	Short: "List the functions and methods of a Go file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		content, name, err := source.NewReader().Read(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		entries, err := extractor.FuncIndex(content)
		if err != nil {
			return fmt.Errorf("indexing %s: %w", name, err)
		}

		w := cmd.OutOrStdout()
		if listJSON {
			return printJSON(w, entries)
		}
		fmt.Fprintf(w, "File: %s (%d functions)\n", name, len(entries))
		for _, e := range entries {
			suffix := ""
			if !e.HasBody {
				suffix = " (no body)"
			}
			fmt.Fprintf(w, "  %-40s L%d-%d%s\n", e.Name, e.StartLine, e.EndLine, suffix)
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listJSON, "json", "j", false, "Output as JSON")
}

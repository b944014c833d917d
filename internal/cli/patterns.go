package cli

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/olehluchkiv/bugtree/internal/analyzer"
)

type patternInfo struct {
	Name        string `json:"name"`
	Category    string `json:"category"`
	Priority    string `json:"priority"`
	Description string `json:"description"`
}

// NewPatternsCommand creates the patterns command.
func NewPatternsCommand(_ *RootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "patterns",
		Short: "List the bug patterns bugtree can run",
		Args:  maxArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			var infos []patternInfo
			for _, p := range analyzer.Patterns() {
				infos = append(infos, patternInfo{
					Name:        p.Name(),
					Category:    string(p.Category),
					Priority:    p.Priority.String(),
					Description: p.ShortDescription(),
				})
			}

			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(infos)
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("NAME", "CATEGORY", "PRIORITY", "DESCRIPTION")
			for _, i := range infos {
				t.Row(i.Name, i.Category, i.Priority, i.Description)
			}
			_, err := fmt.Fprintln(out, t.String())
			return err
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print as JSON")

	return cmd
}

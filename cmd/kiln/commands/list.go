package commands

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/core/domain"
)

func (c *CLI) newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list [environment]",
		Short: "List locked packages per environment",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			envName := ""
			if len(args) == 1 {
				envName = args[0]
			}

			listing, err := c.app.List(envName)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			pairs := make([]domain.PairKey, 0, len(listing))
			for pair := range listing {
				pairs = append(pairs, pair)
			}
			slices.SortFunc(pairs, domain.ComparePairs)

			for _, pair := range pairs {
				_, _ = fmt.Fprintf(out, "%s\n", pair)
				for _, pkg := range listing[pair] {
					line := fmt.Sprintf("  %s %s %s", pkg.Ecosystem, pkg.Name.String(), pkg.Version)
					if pkg.Build != "" {
						line += " " + pkg.Build
					}
					line += " " + string(pkg.Provenance)
					_, _ = fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}
	return cmd
}

package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List supported languages",
		Long: `List every language the chunker knows, including languages loaded
from the configured language files.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := a.cfg.Registry()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "LANGUAGE\tALIASES\tEXTENSIONS")
			for _, name := range reg.Names() {
				table, err := reg.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", table.Name,
					strings.Join(table.Aliases, ", "),
					strings.Join(table.Extensions, " "))
			}
			return tw.Flush()
		},
	}
}

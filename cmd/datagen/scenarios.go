package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nyos/apr/internal/infrastructure/scenarioconfig"
)

func newScenariosCmd(a *app) *cobra.Command {
	var asYAML bool
	cmd := &cobra.Command{
		Use:   "scenarios",
		Short: "List the scenario calendar",
		Long: `Scenarios prints the active calendar, built in or loaded from
generation.scenario_file. --yaml emits it in the scenario file format, as a
starting point for a custom calendar.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry, err := a.registry()
			if err != nil {
				return err
			}
			scenarios := registry.Scenarios()

			if asYAML {
				data, err := scenarioconfig.Encode(scenarios)
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(data)
				return err
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tPERIOD\tDATA TYPES\tWINDOWS")
			for _, s := range scenarios {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%d\n", s.ID, s.Period,
					strings.Join(s.Categories().Strings(), ","), len(s.Windows))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asYAML, "yaml", false, "print as a scenario file")
	return cmd
}

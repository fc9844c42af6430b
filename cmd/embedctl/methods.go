package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newMethodsCmd(a *app) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "methods",
		Short: "List backends and their models",
		Long: `List every registered backend with its model catalog.

Examples:
  embedctl methods
  embedctl methods --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, reg, err := a.registry()
			if err != nil {
				return err
			}

			if asJSON {
				type model struct {
					ID        int32    `json:"id"`
					Name      string   `json:"name"`
					Inputs    []string `json:"input_types"`
					Dimension int      `json:"dimension,omitempty"`
				}
				type method struct {
					ID     int32   `json:"id"`
					Name   string  `json:"name"`
					Models []model `json:"models"`
				}
				var out []method
				for _, e := range reg.Methods() {
					m := method{ID: e.MethodID(), Name: e.MethodName()}
					for _, info := range e.Models() {
						m.Models = append(m.Models, model{ID: info.ID, Name: info.Name, Inputs: inputNames(info.Inputs), Dimension: info.Dimension})
					}
					out = append(out, m)
				}
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(out)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "METHOD\tID\tMODEL\tMODEL ID\tINPUTS\tDIM")
			for _, e := range reg.Methods() {
				for _, info := range e.Models() {
					fmt.Fprintf(w, "%s\t%d\t%s\t%d\t%s\t%d\n",
						e.MethodName(), e.MethodID(), info.Name, info.ID, strings.Join(inputNames(info.Inputs), ","), info.Dimension)
				}
			}
			return w.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

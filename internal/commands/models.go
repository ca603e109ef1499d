package commands

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

func addModels(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "models [model]",
		Short: "List registered models, or the fields of one model.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, name := range serde.Default.Models() {
					fmt.Fprintln(out, name)
				}
				return nil
			}
			schema, err := lookupSchema(args[0])
			if err != nil {
				return err
			}

			bold := color.New(color.Bold)
			tbl := uitable.New()
			tbl.Separator = "  "
			tbl.AddRow(bold.Sprint("PROPERTY"), bold.Sprint("NAME"), bold.Sprint("TYPE"),
				bold.Sprint("REQUIRED"), bold.Sprint("DEPENDS ON"))
			for _, f := range schema.Fields() {
				tbl.AddRow(f.Property, f.Name, f.Type, f.Required, strings.Join(f.Dependencies, ","))
			}
			fmt.Fprintln(out, tbl)
			fmt.Fprintf(out, "\ndecode order: %s\n", strings.Join(schema.DecodeOrder(), " -> "))
			return nil
		},
	}
	topLevel.AddCommand(cmd)
}

package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lk2023060901/querydesk-go/application"
	"github.com/lk2023060901/querydesk-go/internal/json"
	"github.com/lk2023060901/querydesk-go/pkg/log"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

func addServer(topLevel *cobra.Command, app *application.Application) {
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Talk to the querydesk backend.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	oo := &OutputOptions{}
	info := &cobra.Command{
		Use:   "info",
		Short: "Print server information and check its version.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := app.Client()
			if err != nil {
				return err
			}
			si, err := client.CheckServerVersion(cmd.Context())
			if err != nil {
				return err
			}
			out, err := serde.Encode(client.Registry(), si)
			if err != nil {
				return err
			}
			return oo.Write(cmd.OutOrStdout(), out)
		},
	}
	addOutputArgs(info, oo)

	var modelName string
	watch := &cobra.Command{
		Use:   "watch <path>",
		Short: "Subscribe to a server stream and print every message.",
		Example: `
querydesk server watch /history/stream --model historyentry
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var schema *serde.Schema
			if modelName != "" {
				s, err := lookupSchema(modelName)
				if err != nil {
					return err
				}
				schema = s
			}
			client, err := app.Client()
			if err != nil {
				return err
			}
			stream, err := client.Subscribe(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer stream.Close()

			out := cmd.OutOrStdout()
			for res := range stream.Recv() {
				if schema == nil {
					raw, err := json.Marshal(res.Raw())
					if err != nil {
						return err
					}
					fmt.Fprintln(out, string(raw))
					continue
				}
				v, err := res.As(schema.Factory())
				if err != nil {
					log.Ctx(cmd.Context()).Warn("invalid stream message", zap.Error(err))
					fmt.Fprintf(out, "invalid: %v\n", err)
					continue
				}
				encoded, err := serde.Marshal(client.Registry(), v)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(encoded))
			}
			return stream.Err()
		},
	}
	watch.Flags().StringVar(&modelName, "model", "", "Decode every message as this model.")

	cmd.AddCommand(info, watch)
	topLevel.AddCommand(cmd)
}

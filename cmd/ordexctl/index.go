package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ordex/internal/repository/document"
)

func (c *cli) newIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
	}

	var mapping string
	ensure := &cobra.Command{
		Use:   "ensure <name>",
		Short: "Create the index from a mapping unless it exists",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				created, err := docs.CreateIndex(ctx, args[0], mapping)
				if err != nil {
					return err
				}
				if c.output == outputJSON {
					return writeJSON(out, map[string]any{"index": args[0], "created": created})
				}
				state := "exists"
				if created {
					state = "created"
				}
				_, err = fmt.Fprintf(out, "%s %s\n", args[0], state)
				return err
			})
		},
	}
	ensure.Flags().StringVar(&mapping, "mapping", "orders.mapping.json", "mapping file to create the index from")

	drop := &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop the index; a missing index is not an error",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				if err := docs.DropIndex(ctx, args[0]); err != nil {
					return err
				}
				if c.output == outputJSON {
					return writeJSON(out, map[string]any{"index": args[0], "dropped": true})
				}
				_, err := fmt.Fprintf(out, "%s dropped\n", args[0])
				return err
			})
		},
	}

	cmd.AddCommand(ensure, drop)
	return cmd
}

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ordex/internal/domain"
	"github.com/kailas-cloud/ordex/internal/repository/document"
)

// rawDecoder keeps sources as stored.
func rawDecoder(src []byte) (json.RawMessage, error) {
	return json.RawMessage(src), nil
}

type docOut struct {
	ID     string          `json:"id"`
	Source json.RawMessage `json:"source"`
}

type mutationOut struct {
	Outcome string `json:"outcome"`
	Count   int    `json:"count"`
}

func (c *cli) newGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <index> <id>",
		Short: "Print one document",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			index, id := args[0], args[1]
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				item, err := document.GetByID(ctx, docs, id, index, rawDecoder)
				if err != nil {
					return err
				}
				if item == nil {
					return fmt.Errorf("document %s in %s: %w", id, index, domain.ErrNotFound)
				}
				return c.writeDocs(out, []docOut{{ID: item.ID, Source: item.Value}})
			})
		},
	}
}

func (c *cli) newListCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list <index>",
		Short: "Print up to --limit documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return domain.InvalidInputf("--limit must not be negative")
			}
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				items, err := document.GetAll(ctx, docs, args[0], rawDecoder, limit)
				if err != nil {
					return err
				}
				rows := make([]docOut, len(items))
				for i, it := range items {
					rows[i] = docOut{ID: it.ID, Source: it.Value}
				}
				return c.writeDocs(out, rows)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of documents (0 uses the server cap)")
	return cmd
}

func (c *cli) newUpdateCmd() *cobra.Command {
	var where, set []string
	cmd := &cobra.Command{
		Use:   "update <index>",
		Short: "Apply --set assignments to documents matching --where",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseWhere(where)
			if err != nil {
				return err
			}
			spec, err := parseSet(set)
			if err != nil {
				return err
			}
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				res, err := docs.UpdateByFilter(ctx, f, spec, args[0])
				if err != nil {
					return err
				}
				return c.writeMutation(out, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "filter as field=value, repeatable; id=<id> selects by identity")
	cmd.Flags().StringArrayVar(&set, "set", nil, "assignment as path=value, repeatable; dotted paths reach nested fields")
	_ = cmd.MarkFlagRequired("set")
	return cmd
}

func (c *cli) newDeleteCmd() *cobra.Command {
	var where []string
	cmd := &cobra.Command{
		Use:   "delete <index>",
		Short: "Delete documents matching --where",
		Long:  "Delete documents matching --where. Without --where nothing is deleted.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseWhere(where)
			if err != nil {
				return err
			}
			return c.withDocs(cmd, func(ctx context.Context, docs *document.Service, out io.Writer) error {
				res, err := docs.DeleteByFilter(ctx, f, args[0])
				if err != nil {
					return err
				}
				return c.writeMutation(out, res)
			})
		},
	}
	cmd.Flags().StringArrayVar(&where, "where", nil, "filter as field=value, repeatable; id=<id> selects by identity")
	return cmd
}

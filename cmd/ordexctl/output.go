package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/kailas-cloud/ordex/internal/domain"
)

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (c *cli) writeDocs(out io.Writer, rows []docOut) error {
	if c.output == outputJSON {
		return writeJSON(out, rows)
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(out, "%s\t%s\n", r.ID, r.Source); err != nil {
			return err
		}
	}
	return nil
}

func (c *cli) writeMutation(out io.Writer, res domain.MutationResult) error {
	m := mutationOut{Outcome: res.Kind.String(), Count: res.Sentinel()}
	if c.output == outputJSON {
		return writeJSON(out, m)
	}
	_, err := fmt.Fprintf(out, "outcome=%s count=%d\n", m.Outcome, m.Count)
	return err
}

package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/ordex/internal/bootstrap"
	"github.com/kailas-cloud/ordex/internal/config"
	logpkg "github.com/kailas-cloud/ordex/internal/logger"
	"github.com/kailas-cloud/ordex/internal/repository/document"
	"github.com/kailas-cloud/ordex/internal/version"
)

const (
	outputText = "text"
	outputJSON = "json"
)

// connectFunc opens an initialized document service for the named environment.
type connectFunc func(ctx context.Context, env, logLevel string) (*document.Service, error)

// cli carries the state shared by all subcommands.
type cli struct {
	connect  connectFunc
	env      string
	logLevel string
	output   string
}

func newRootCmd(connect connectFunc) *cobra.Command {
	c := &cli{connect: connect}

	root := &cobra.Command{
		Use:   "ordexctl",
		Short: "Inspect and maintain order indexes",
		Long: `ordexctl talks to the configured document store directly.

Examples:
  ordexctl index ensure orders --mapping orders.mapping.yaml
  ordexctl list orders --limit 20
  ordexctl update orders --where status=paid --set status=shipped
  ordexctl delete orders --where id=3f2c...`,
		Version:      version.String(),
		SilenceUsage: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			if c.output != outputText && c.output != outputJSON {
				return fmt.Errorf("--output must be %q or %q, got %q", outputText, outputJSON, c.output)
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&c.env, "env", config.GetEnv(), "configuration environment (local, dev, prod)")
	pf.StringVar(&c.logLevel, "log-level", "warn", "log level written to stderr")
	pf.StringVarP(&c.output, "output", "o", outputText, "output format: text or json")

	root.AddCommand(
		c.newIndexCmd(),
		c.newGetCmd(),
		c.newListCmd(),
		c.newUpdateCmd(),
		c.newDeleteCmd(),
	)
	return root
}

// withDocs opens the document service, runs fn and closes the service.
func (c *cli) withDocs(cmd *cobra.Command, fn func(ctx context.Context, docs *document.Service, out io.Writer) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	docs, err := c.connect(ctx, c.env, c.logLevel)
	if err != nil {
		return err
	}
	defer docs.Close()
	return fn(ctx, docs, cmd.OutOrStdout())
}

// connectFromConfig loads the environment's configuration and opens the store.
func connectFromConfig(ctx context.Context, env, logLevel string) (*document.Service, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, err
	}
	log, err := logpkg.NewLogger(env, logLevel)
	if err != nil {
		return nil, err
	}
	log = log.With(zap.String("component", "ordexctl"))
	return bootstrap.OpenDocuments(ctx, cfg, log)
}

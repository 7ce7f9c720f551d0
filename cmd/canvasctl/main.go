package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mianjunaid1223/Collab-Studio/internal/infra/httpclient"
	"github.com/mianjunaid1223/Collab-Studio/internal/infra/logger"
	"github.com/mianjunaid1223/Collab-Studio/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalOpts struct {
	server   string
	token    string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOpts{}

	root := &cobra.Command{
		Use:   "canvasctl",
		Short: "canvasctl - inspect and drive Collab Studio projects",
		Long: `canvasctl talks to a Collab Studio server as an author.

It helps you:
  - Export a project's artifact (svg, png, wav, json)
  - List contributions as JSON or YAML
  - Submit contributions and watch a project live
  - Tail contribution events from RabbitMQ`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.server, "server", envOr("CANVASCTL_SERVER", "http://localhost:8029"), "server base URL")
	root.PersistentFlags().StringVar(&opts.token, "token", os.Getenv("CANVASCTL_TOKEN"), "author bearer token")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newVersionCmd(),
		newExportCmd(opts),
		newContributionsCmd(opts),
		newSubmitCmd(opts),
		newWatchCmd(opts),
		newTailCmd(opts),
	)
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "canvasctl version %s\n", version.Version)
		},
	}
}

func (o *globalOpts) logger() (*zap.Logger, error) {
	return logger.New(o.logLevel)
}

func (o *globalOpts) client() (*httpclient.Client, *zap.Logger, error) {
	log, err := o.logger()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --log-level: %w", err)
	}
	if o.token == "" {
		return nil, nil, fmt.Errorf("an author token is required (--token or CANVASCTL_TOKEN)")
	}
	return httpclient.NewClient(o.server, o.token, log), log, nil
}

func parseProjectID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid project id %q: %w", s, err)
	}
	return id, nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/mianjunaid1223/Collab-Studio/internal/config"
	mq "github.com/mianjunaid1223/Collab-Studio/internal/infra/queue"
)

var tailRoutingKeys = []string{"contribution.added", "contribution.removed", "project.updated"}

func newTailCmd(opts *globalOpts) *cobra.Command {
	var (
		url      string
		exchange string
		queue    string
		useTLS   bool
	)

	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print contribution events from the RabbitMQ exchange",
		Long: `Print contribution events from the RabbitMQ exchange.

Without --queue a server-named exclusive queue is bound for the lifetime of
the command, so only events published while tailing are shown.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := opts.logger()
			if err != nil {
				return fmt.Errorf("invalid --log-level: %w", err)
			}
			if url == "" {
				return fmt.Errorf("an AMQP url is required (--amqp-url or CANVASCTL_AMQP_URL)")
			}

			cfg := &config.Config{
				App: config.AppCfg{Name: "canvasctl"},
				RabbitMQ: config.MQCfg{
					Enabled:      true,
					URL:          url,
					EnableTLS:    useTLS,
					ExchangeName: config.MQExchangeName{Contribution: exchange},
				},
			}

			conn, err := mq.Dial(cfg)
			if err != nil {
				return fmt.Errorf("dial rabbitmq: %w", err)
			}
			defer conn.Close()

			consumer, err := mq.NewConsumer(conn, queue, tailRoutingKeys, 0, log, cfg)
			if err != nil {
				return err
			}
			defer consumer.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			err = consumer.Handle(ctx, func(_ context.Context, routingKey string, body []byte) error {
				_, werr := fmt.Fprintf(out, "%s %-22s %s\n", time.Now().Format(time.TimeOnly), routingKey, body)
				return werr
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&url, "amqp-url", os.Getenv("CANVASCTL_AMQP_URL"), "RabbitMQ URL")
	cmd.Flags().StringVar(&exchange, "exchange", "canvas.contribution", "contribution exchange")
	cmd.Flags().StringVar(&queue, "queue", "", "durable queue to consume from, empty for an exclusive queue")
	cmd.Flags().BoolVar(&useTLS, "tls", false, "dial with TLS")
	return cmd
}

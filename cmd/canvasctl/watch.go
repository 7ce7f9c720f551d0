package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mianjunaid1223/Collab-Studio/internal/reconcile"
)

func newWatchCmd(opts *globalOpts) *cobra.Command {
	var (
		resync    time.Duration
		fromStdin bool
	)

	cmd := &cobra.Command{
		Use:   "watch <project-id>",
		Short: "Follow a project live and print every change",
		Long: `Follow a project live and print every change.

The view is loaded over HTTP, then kept current through the websocket
gateway. While the live channel is down the view is resynced every --resync
interval and the gateway is redialed. With --stdin every line read from
standard input is submitted as a contribution payload and shown as pending
until the server confirms or rejects it.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			client, log, err := opts.client()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			me, err := client.Me(ctx)
			if err != nil {
				return err
			}
			project, err := client.GetProject(ctx, projectID)
			if err != nil {
				return err
			}

			rc := reconcile.NewClient(projectID, project.CanvasType, me.ID, client, log)
			printer := &viewPrinter{out: cmd.OutOrStdout(), rc: rc}
			rc.OnChange(printer.changed)
			rc.OnReject(printer.rejected)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error { return rc.Run(gctx, resync) })
			g.Go(func() error { return stayLive(gctx, rc, opts, resync, log) })
			if fromStdin {
				g.Go(func() error { return submitLines(gctx, rc, cmd.InOrStdin(), printer) })
			}
			return g.Wait()
		},
	}

	cmd.Flags().DurationVar(&resync, "resync", 5*time.Second, "resync and redial interval while disconnected")
	cmd.Flags().BoolVar(&fromStdin, "stdin", false, "submit each stdin line as a contribution payload")
	return cmd
}

// stayLive keeps a gateway session attached to rc until ctx is done.
func stayLive(ctx context.Context, rc *reconcile.Client, opts *globalOpts, backoff time.Duration, log *zap.Logger) error {
	for {
		live, err := reconcile.DialWS(ctx, opts.server, opts.token)
		if err == nil {
			log.Info("live channel up")
			err = rc.Listen(ctx, live)
		}
		if ctx.Err() != nil {
			return nil
		}
		log.Warn("live channel down", zap.Error(err))

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(backoff):
		}
	}
}

func submitLines(ctx context.Context, rc *reconcile.Client, in io.Reader, p *viewPrinter) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		ref, err := rc.Add(ctx, json.RawMessage(line))
		if err != nil {
			p.printf("not submitted: %v\n", err)
			continue
		}
		p.printf("submitted %s\n", ref)
	}
	return sc.Err()
}

type viewPrinter struct {
	mu  sync.Mutex
	out io.Writer
	rc  *reconcile.Client
}

func (p *viewPrinter) printf(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.out, format, args...)
}

func (p *viewPrinter) changed() {
	v := p.rc.View()
	line := fmt.Sprintf("%s  %d confirmed, %d pending", time.Now().Format(time.TimeOnly), v.Confirmed(), v.Len()-v.Confirmed())
	if proj := v.Project(); proj != nil {
		line += fmt.Sprintf("  %d%% complete, %d contributors, %s", proj.CompletionPercentage, proj.ContributorCount, proj.Status)
	}
	if !p.rc.Connected() {
		line += "  (offline)"
	}
	p.printf("%s\n", line)
}

func (p *viewPrinter) rejected(r reconcile.Rejection) {
	p.printf("rejected %s: %s\n", r.ClientRef, r.Reason)
}

package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mianjunaid1223/Collab-Studio/internal/infra/httpclient"
	"github.com/mianjunaid1223/Collab-Studio/internal/pkg/canvas"
)

func newSubmitCmd(opts *globalOpts) *cobra.Command {
	var (
		canvasType string
		payload    string
	)

	cmd := &cobra.Command{
		Use:   "submit <project-id>",
		Short: "Submit one contribution over the request/response path",
		Example: `  canvasctl submit 3f0c... --type Mosaic --payload '{"x":3,"y":4,"color":"#ff8800"}'
  canvasctl submit 3f0c... --type AudioVisual --payload '{"col":2,"row":5,"remove":true}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			t := canvas.Type(canvasType)
			if !t.Valid() {
				return fmt.Errorf("%w: %q", canvas.ErrUnknownType, canvasType)
			}
			if _, err := canvas.Decode(t, []byte(payload)); err != nil {
				return err
			}
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			res, err := client.Submit(cmd.Context(), httpclient.SubmitRequest{
				ProjectID:  projectID,
				CanvasType: t,
				Payload:    json.RawMessage(payload),
				ClientRef:  uuid.NewString(),
			})
			if err != nil {
				return err
			}

			switch {
			case res.Noop:
				fmt.Fprintln(cmd.OutOrStdout(), "nothing to remove")
			case res.Removed != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "removed note at col %d row %d\n", res.Removed.Col, res.Removed.Row)
			case res.Contribution != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "contribution %d committed\n", res.Contribution.ID)
			}
			if p := res.Project; p != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "project %s: %d%% complete, %d contributors, %s\n",
					p.Title, p.CompletionPercentage, p.ContributorCount, p.Status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&canvasType, "type", "t", "", "canvas type of the project")
	cmd.Flags().StringVarP(&payload, "payload", "p", "", "contribution payload as JSON")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("payload")
	return cmd
}

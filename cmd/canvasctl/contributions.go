package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newContributionsCmd(opts *globalOpts) *cobra.Command {
	var (
		output string
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:     "contributions <project-id>",
		Aliases: []string{"ls"},
		Short:   "List a project's contributions in commit order",
		Long: `List a project's contributions in commit order.

Without --limit the full sequence is fetched. With --limit a single page is
printed together with the cursor of the next page.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			projectID, err := parseProjectID(args[0])
			if err != nil {
				return err
			}
			if output != "json" && output != "yaml" {
				return fmt.Errorf("unsupported output %q, want json or yaml", output)
			}
			client, _, err := opts.client()
			if err != nil {
				return err
			}

			if limit <= 0 {
				items, err := client.ListAll(cmd.Context(), projectID)
				if err != nil {
					return err
				}
				return printDoc(cmd.OutOrStdout(), output, items)
			}

			page, err := client.ListPage(cmd.Context(), projectID, cursor, limit)
			if err != nil {
				return err
			}
			return printDoc(cmd.OutOrStdout(), output, page)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "json", "json or yaml")
	cmd.Flags().IntVar(&limit, "limit", 0, "page size, 0 fetches everything")
	cmd.Flags().StringVar(&cursor, "cursor", "", "cursor of the page to fetch")
	return cmd
}

// printDoc writes v as indented JSON, or as YAML keyed by the JSON field names.
func printDoc(w io.Writer, format string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if format == "json" {
		var doc any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return err
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(doc)
}

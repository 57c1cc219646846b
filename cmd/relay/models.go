package main

import (
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var modelsCmd = &cobra.Command{
	Use:   "models [provider...]",
	Short: "List the models each provider offers",
	Long: `Query the model listing endpoint of one or more providers. Without
arguments every configured provider is queried. A provider that cannot be
reached lists no models.

Examples:
  relay models
  relay models openai ollama -o json`,
	RunE: runModels,
}

func init() {
	rootCmd.AddCommand(modelsCmd)
}

func runModels(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	d, err := rt.dispatcher()
	if err != nil {
		return err
	}
	defer d.Close()

	names := args
	if len(names) == 0 {
		names = d.ListAvailableProviders()
	}

	var progress cli.ProgressReporter
	if len(names) > 1 && rt.format == cli.FormatText {
		progress = cli.NewProgressReporter(cmd.ErrOrStderr(), "Listing models")
		progress.Start(int64(len(names)))
	}

	table := &cli.Table{Headers: []string{"provider", "model", "created", "description"}}
	for i, name := range names {
		for _, m := range d.ListAvailableModels(cmd.Context(), name) {
			created := ""
			if m.Created > 0 {
				created = time.Unix(m.Created, 0).UTC().Format("2006-01-02")
			}
			desc := m.Description
			if desc == "" {
				desc = m.DisplayName
			}
			table.AddRow(name, m.ID, created, desc)
		}
		if progress != nil {
			progress.Update(int64(i + 1))
		}
	}
	if progress != nil {
		progress.Finish()
	}

	return rt.print(table)
}

/*
Package cli provides command-line helpers for the relay command: output
formatters, a progress reporter, signal handling and exit codes.

Output Formatting:

Commands print either free text or a *Table in text, JSON or CSV:

	table := &cli.Table{Headers: []string{"provider", "model"}}
	table.AddRow("openai", "gpt-4o")
	if err := cli.NewFormatter(cli.FormatJSON).FormatTo(os.Stdout, table); err != nil {
		return err
	}

Exit Codes:

ExitCode maps dispatcher and memory errors onto stable process exit codes:
2 for configuration problems, 3 for vendor rejections, 4 for transport
failures, 5 for a missing memory key and 130 for cancellation.

Signal Handling:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
*/
package cli

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/dispatcher"
	"mercator-hq/relay/pkg/telemetry/health"
)

var healthWatch time.Duration

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Probe every configured provider",
	Long: `Probe each provider by listing its models. A provider is healthy when it
has a credential (or needs none) and its listing returns at least one model.

With --watch the probe repeats at the given interval until interrupted.

Exit code is non-zero when any provider is unhealthy.

Examples:
  relay health
  relay health --watch 30s --metrics-out /var/lib/node_exporter/relay.prom`,
	Args: cobra.NoArgs,
	RunE: runHealth,
}

func init() {
	healthCmd.Flags().DurationVarP(&healthWatch, "watch", "w", 0, "repeat the probe at this interval until interrupted")
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
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

	if healthWatch <= 0 {
		report := d.HealthReport(cmd.Context())
		if err := rt.printReport(report); err != nil {
			return err
		}
		return reportError(report)
	}

	var last health.Report
	monitor := dispatcher.NewHealthMonitor(d, healthWatch, func(report health.Report) {
		last = report
		if err := rt.printReport(report); err != nil {
			rt.logger.Warn("failed to print health report", "error", err)
		}
	})
	monitor.Start(cmd.Context())
	<-cmd.Context().Done()
	monitor.Stop()

	return reportError(last)
}

func (rt *app) printReport(report health.Report) error {
	if rt.format == cli.FormatJSON {
		return rt.print(report)
	}

	table := &cli.Table{Headers: []string{"provider", "healthy", "latency", "message"}}
	for _, name := range report.Names() {
		result := report.Checks[name]
		table.AddRow(name, result.Healthy, result.Duration.Round(time.Millisecond), result.Message)
	}
	if err := rt.print(table); err != nil {
		return err
	}
	if rt.format == cli.FormatText {
		fmt.Fprintf(rt.out, "status: %s (%s)\n", report.Status, report.Timestamp.Format(time.RFC3339))
	}
	return nil
}

func reportError(report health.Report) error {
	if report.Status == "" || report.Status == health.StatusOK {
		return nil
	}
	var down []string
	for _, name := range report.Names() {
		if !report.Checks[name].Healthy {
			down = append(down, name)
		}
	}
	return cli.NewCommandError("health", fmt.Errorf("%s: unhealthy providers %v", report.Status, down))
}

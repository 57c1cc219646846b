package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
)

var (
	// Global flags
	cfgFile    string
	verbose    bool
	outputFlag string
	logLevel   string
	metricsOut string
)

var rootCmd = &cobra.Command{
	Use:   "relay",
	Short: "Relay - one interface to many LLM vendors",
	Long: `Relay sends chat completions to OpenAI, Anthropic, Gemini, Ollama, Qwen,
DeepSeek, OpenRouter, Doubao and any OpenAI-compatible server through a
single interface.

Providers are declared in a YAML configuration file. Credentials are read
from placeholders such as ${OPENAI_API_KEY} or ${secret:anthropic-key} and
never need to appear in the file itself.

Timeouts and connection failures are retried with exponential backoff
(1s, 2s, 4s ... capped at 30s); vendor rejections fail immediately.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits with a code derived from the
// error kind.
func Execute() {
	ctx, stop := cli.SetupSignalHandler(context.Background())
	err := rootCmd.ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "text", "output format (text, json, csv)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsOut, "metrics-out", "", "write Prometheus metrics to this textfile on exit")
}

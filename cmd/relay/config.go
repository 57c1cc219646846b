package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the configuration file",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Load and validate the configuration file",
	Long: `Load the configuration file, resolve its placeholders and validate it.
Unlike other commands, a missing file is an error.

Examples:
  relay config validate -c /etc/relay/config.yaml`,
	Args: cobra.NoArgs,
	RunE: runConfigValidate,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration with credentials redacted",
	Long: `Print the configuration after defaults, environment overrides and
placeholder resolution, as YAML. API keys and sensitive headers are masked.`,
	Args:  cobra.NoArgs,
	RunE:  runConfigShow,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig(cmd.Context(), cfgFile)
	if err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Configuration %s is valid\n", cfgFile)
	fmt.Fprintf(out, "  default provider: %s\n", cfg.DefaultProvider)
	fmt.Fprintf(out, "  providers:        %d\n", len(cfg.Providers))
	fmt.Fprintf(out, "  default retries:  %d\n", cfg.DefaultRetries)
	fmt.Fprintf(out, "  memory driver:    %s\n", cfg.Memory.Driver)
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	rt, err := setup(cmd)
	if err != nil {
		return err
	}
	defer rt.close()

	redacted := redactConfig(rt.cfg)
	enc := yaml.NewEncoder(rt.out)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(redacted)
}

// redactConfig returns a copy of cfg with credentials masked.
func redactConfig(cfg *config.Config) *config.Config {
	out := *cfg
	out.Providers = make(map[string]config.ProviderConfig, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		pc.APIKey = redactKey(pc.APIKey)
		pc.Headers = redactHeaders(pc.Headers)
		out.Providers[name] = pc
	}
	return &out
}

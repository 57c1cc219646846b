package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/telemetry/logging"
)

var providersCmd = &cobra.Command{
	Use:   "providers",
	Short: "List configured providers",
	Long: `List every configured provider with its adapter type, default model and
whether it is usable (a credential is present when the adapter needs one).

Examples:
  relay providers
  relay providers show anthropic`,
	Args: cobra.NoArgs,
	RunE: runProviders,
}

var providersShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Show one provider's resolved configuration",
	Args:  cobra.ExactArgs(1),
	RunE:  runProvidersShow,
}

func init() {
	providersCmd.AddCommand(providersShowCmd)
	rootCmd.AddCommand(providersCmd)
}

func runProviders(cmd *cobra.Command, args []string) error {
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

	table := &cli.Table{Headers: []string{"name", "type", "default_model", "base_url", "available"}}
	for _, name := range d.ListAvailableProviders() {
		pc, err := d.GetProviderConfig(name)
		if err != nil {
			return err
		}
		typ := pc.Type
		if typ == "" {
			typ = name
		}
		table.AddRow(name, typ, pc.DefaultModel, pc.BaseURL, d.IsProviderAvailable(name))
	}

	if len(table.Rows) == 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "No providers configured in %s\n", cfgFile)
	}
	return rt.print(table)
}

// providerView is the redacted form printed by providers show.
type providerView struct {
	Name           string            `json:"name"`
	Type           string            `json:"type"`
	BaseURL        string            `json:"base_url"`
	APIKey         string            `json:"api_key"`
	DefaultModel   string            `json:"default_model"`
	DefaultParams  map[string]any    `json:"default_params,omitempty"`
	ConnectTimeout string            `json:"connect_timeout"`
	ReadTimeout    string            `json:"read_timeout"`
	Headers        map[string]string `json:"headers,omitempty"`
	Available      bool              `json:"available"`
}

func runProvidersShow(cmd *cobra.Command, args []string) error {
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

	pc, err := d.GetProviderConfig(args[0])
	if err != nil {
		return err
	}

	timeouts := pc.DefaultTimeouts()
	view := providerView{
		Name:           pc.Name,
		Type:           pc.Type,
		BaseURL:        pc.BaseURL,
		APIKey:         redactKey(pc.APIKey),
		DefaultModel:   pc.DefaultModel,
		DefaultParams:  pc.DefaultParams,
		ConnectTimeout: timeouts.Connect.String(),
		ReadTimeout:    timeouts.Read.String(),
		Headers:        redactHeaders(pc.Headers),
		Available:      d.IsProviderAvailable(pc.Name),
	}

	if rt.format != cli.FormatText {
		return rt.print(view)
	}

	table := &cli.Table{Headers: []string{"field", "value"}}
	table.AddRow("name", view.Name)
	table.AddRow("type", view.Type)
	table.AddRow("base_url", view.BaseURL)
	table.AddRow("api_key", view.APIKey)
	table.AddRow("default_model", view.DefaultModel)
	table.AddRow("connect_timeout", view.ConnectTimeout)
	table.AddRow("read_timeout", view.ReadTimeout)
	table.AddRow("available", view.Available)
	for k, v := range view.DefaultParams {
		table.AddRow("param."+k, v)
	}
	return rt.print(table)
}

func redactKey(key string) string {
	if key == "" {
		return ""
	}
	return logging.RedactAPIKey(key)
}

func redactHeaders(headers map[string]string) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if logging.IsSensitiveKey(k) {
			v = logging.RedactAPIKey(v)
		}
		out[k] = v
	}
	return out
}

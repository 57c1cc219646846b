package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/relay/pkg/cli"
	"mercator-hq/relay/pkg/dispatcher"
	"mercator-hq/relay/pkg/providers"
)

var (
	callProvider       string
	callModel          string
	callSystem         string
	callParams         []string
	callRetries        int
	callTimeout        time.Duration
	callConnectTimeout time.Duration
	chatFile           string
)

var chatCmd = &cobra.Command{
	Use:   "chat [message]",
	Short: "Send a chat completion request",
	Long: `Send a conversation to a provider and print the assistant reply.

The conversation is either a single user message given as an argument, or a
JSON array of {"role","content"} messages read from --file ("-" reads stdin).

Examples:
  relay chat "What is the capital of France?"
  relay chat --provider ollama --model llama3 --param temperature=0 "Hi"
  relay chat --file conversation.json -o json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

var completeCmd = &cobra.Command{
	Use:   "complete PROMPT",
	Short: "Complete a single prompt",
	Long: `Send one user prompt and print only the reply text.

Examples:
  relay complete "Write a haiku about Go"
  relay complete --system "Answer in French" "Good morning"`,
	Args: cobra.ExactArgs(1),
	RunE: runComplete,
}

func init() {
	for _, cmd := range []*cobra.Command{chatCmd, completeCmd} {
		addCallFlags(cmd)
		rootCmd.AddCommand(cmd)
	}
	chatCmd.Flags().StringVarP(&chatFile, "file", "f", "", "read a JSON message array from file (- for stdin)")
}

func addCallFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&callProvider, "provider", "p", "", "provider name (default: default_provider)")
	flags.StringVarP(&callModel, "model", "m", "", "model name (default: the provider's default_model)")
	flags.StringVarP(&callSystem, "system", "s", "", "system prompt prepended to the conversation")
	flags.StringArrayVar(&callParams, "param", nil, "vendor parameter as key=value; the value is parsed as YAML (repeatable)")
	flags.IntVar(&callRetries, "retries", 0, "total attempt budget (default: default_retries)")
	flags.DurationVar(&callTimeout, "timeout", 0, "read timeout for each attempt")
	flags.DurationVar(&callConnectTimeout, "connect-timeout", 0, "connect timeout for each attempt")
}

// callOptions turns the shared call flags into dispatcher options.
func callOptions(cmd *cobra.Command) ([]dispatcher.CallOption, error) {
	var opts []dispatcher.CallOption
	if callProvider != "" {
		opts = append(opts, dispatcher.WithProvider(callProvider))
	}
	if callModel != "" {
		opts = append(opts, dispatcher.WithModel(callModel))
	}
	if callSystem != "" {
		opts = append(opts, dispatcher.WithSystemPrompt(callSystem))
	}

	params, err := parseParams(callParams)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		opts = append(opts, dispatcher.WithParams(params))
	}

	if cmd.Flags().Changed("retries") {
		opts = append(opts, dispatcher.WithRetries(callRetries))
	}
	switch {
	case callConnectTimeout > 0:
		opts = append(opts, dispatcher.WithTimeoutPair(callConnectTimeout, callTimeout))
	case callTimeout > 0:
		opts = append(opts, dispatcher.WithTimeout(callTimeout))
	}
	return opts, nil
}

// parseParams reads key=value pairs. Values are YAML scalars or flow
// collections, so temperature=0.2 is a float and stop=[a,b] a list.
func parseParams(pairs []string) (providers.Params, error) {
	params := make(providers.Params, len(pairs))
	for _, pair := range pairs {
		key, raw, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, cli.NewConfigError("param", fmt.Sprintf("expected key=value, got %q", pair))
		}

		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, cli.NewConfigError("param", fmt.Sprintf("invalid value for %s: %v", key, err))
		}
		if value == nil {
			value = raw
		}
		params[key] = value
	}
	return params, nil
}

// readMessages loads a JSON message array from path, or stdin for "-".
func readMessages(path string, stdin io.Reader) ([]providers.Message, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}

	var messages []providers.Message
	if err := json.Unmarshal(data, &messages); err != nil {
		return nil, cli.NewConfigError("file", fmt.Sprintf("invalid message array: %v", err))
	}
	return messages, nil
}

func runChat(cmd *cobra.Command, args []string) error {
	var messages []providers.Message
	if chatFile != "" {
		loaded, err := readMessages(chatFile, cmd.InOrStdin())
		if err != nil {
			return err
		}
		messages = loaded
	}
	if len(args) == 1 {
		messages = append(messages, providers.Message{Role: providers.RoleUser, Content: args[0]})
	}
	if len(messages) == 0 {
		return cli.NewConfigError("message", "give a message argument or --file")
	}

	opts, err := callOptions(cmd)
	if err != nil {
		return err
	}

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

	resp, err := d.GetChatCompletion(cmd.Context(), messages, opts...)
	if err != nil {
		return err
	}

	if rt.format == cli.FormatText {
		fmt.Fprintln(rt.out, resp.Choice.Content)
		rt.logger.Debug("chat completion finished",
			"provider", resp.Provider,
			"model", resp.Model,
			"attempts", resp.Attempts,
			"finish_reason", resp.Choice.FinishReason,
			"total_tokens", resp.Usage.TotalTokens,
		)
		return nil
	}
	return rt.print(resp)
}

func runComplete(cmd *cobra.Command, args []string) error {
	opts, err := callOptions(cmd)
	if err != nil {
		return err
	}

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

	text, err := d.GetCompletion(cmd.Context(), args[0], opts...)
	if err != nil {
		return err
	}

	if rt.format == cli.FormatText {
		fmt.Fprintln(rt.out, text)
		return nil
	}
	return rt.print(map[string]string{"completion": text})
}

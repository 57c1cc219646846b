package cli

import (
	"errors"
	"fmt"

	"mercator-hq/relay/pkg/memory"
	"mercator-hq/relay/pkg/providers"
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitConfiguration = 2
	ExitVendor        = 3
	ExitTransport     = 4
	ExitNotFound      = 5
	ExitCancelled     = 130
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfiguration
	}
	if errors.Is(err, memory.ErrNotFound) {
		return ExitNotFound
	}

	switch providers.KindOf(err) {
	case providers.KindCancelled:
		return ExitCancelled
	case providers.KindConfiguration, providers.KindUnsupportedProvider:
		return ExitConfiguration
	case providers.KindVendorRequest, providers.KindMalformedResponse:
		return ExitVendor
	case providers.KindTimeout, providers.KindConnection:
		return ExitTransport
	}
	return ExitFailure
}

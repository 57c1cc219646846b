// Package logging builds the process logger: log/slog with a handler that
// masks credentials.
//
//	logger, err := logging.New(logging.Config{LoggingConfig: cfg.Telemetry.Logging})
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// API keys (sk-, sk-ant-, AIza), bearer tokens and key= query parameters
// are masked wherever they appear in a message or attribute; attributes
// named like credentials (api_key, authorization, token) are masked whole.
// Request ID, provider and model stored on the context with WithRequestID,
// WithProvider and WithModel are added to every record logged with it.
package logging

/*
Package secrets resolves credential placeholders in configuration values.

Two placeholder forms are recognized:

	api_key: ${OPENAI_API_KEY}          # environment variable
	api_key: ${secret:openai-api-key}   # looked up through the configured sources

Sources are consulted in order. EnvSource maps secret names onto prefixed
environment variables; FileSource reads one file per secret from a
directory and can watch it with fsnotify so rotated keys are picked up:

	files, err := secrets.NewFileSource("/var/run/secrets/relay", true)
	if err != nil {
		return err
	}
	defer files.Close()

	resolver := secrets.NewResolver(
		[]secrets.Source{secrets.NewEnvSource("RELAY_SECRET_"), files},
		secrets.CacheConfig{TTL: 5 * time.Minute, MaxSize: 256},
	)

	key, err := resolver.Resolve(ctx, "${secret:openai-api-key}")

An unresolvable placeholder is reported as *UnresolvedError; it is never
silently replaced with an empty string.
*/
package secrets

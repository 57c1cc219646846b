package dispatcher

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	testhelpers "mercator-hq/relay/internal/providers"
	"mercator-hq/relay/pkg/config"
	"mercator-hq/relay/pkg/providers"
	"mercator-hq/relay/pkg/telemetry/health"
	"mercator-hq/relay/pkg/telemetry/metrics"
)

// sleepRecorder records backoff delays instead of waiting.
type sleepRecorder struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (r *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	r.delays = append(r.delays, d)
	r.mu.Unlock()
	return ctx.Err()
}

func (r *sleepRecorder) recorded() []time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]time.Duration(nil), r.delays...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(provs map[string]config.ProviderConfig) *config.Config {
	cfg := &config.Config{
		DefaultProvider: "openai",
		Providers:       provs,
	}
	config.ApplyDefaults(cfg)
	return cfg
}

func openAIProvider(baseURL string) config.ProviderConfig {
	return config.ProviderConfig{
		Type:           "openai",
		APIBase:        baseURL,
		APIKey:         "test-key",
		DefaultModel:   "gpt-4",
		ConnectTimeout: config.Duration(time.Second),
		ReadTimeout:    config.Duration(2 * time.Second),
	}
}

func newTestDispatcher(t *testing.T, cfg *config.Config, opts ...Option) *Dispatcher {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	d, err := New(cfg, opts...)
	testhelpers.AssertNoError(t, err)
	t.Cleanup(d.Close)
	return d
}

func TestNew_NilConfig(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestGetChatCompletion_Success(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIResponse("Hello!", "gpt-4"),
	})

	rec := &sleepRecorder{}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}), WithSleeper(rec.sleep))

	resp, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages())
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "Hello!" {
		t.Errorf("expected content %q, got %q", "Hello!", resp.Choice.Content)
	}
	if resp.Attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", resp.Attempts)
	}
	if resp.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", resp.Provider)
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("expected no backoff, got %v", rec.recorded())
	}
}

func TestGetChatCompletion_RetriesTimeouts(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetSequence("/v1/chat/completions",
		testhelpers.MockSlowResponse(time.Second),
		testhelpers.MockSlowResponse(time.Second),
		testhelpers.MockResponse{Body: testhelpers.MockOpenAIResponse("finally", "gpt-4")},
	)

	rec := &sleepRecorder{}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}), WithSleeper(rec.sleep))

	resp, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(),
		WithTimeout(50*time.Millisecond))
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "finally" {
		t.Errorf("expected content %q, got %q", "finally", resp.Choice.Content)
	}
	if resp.Attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", resp.Attempts)
	}

	delays := rec.recorded()
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %s, got %s", i, want[i], delays[i])
		}
	}

	if n := mock.GetRequestCount(); n != 3 {
		t.Errorf("expected 3 requests, got %d", n)
	}
}

func TestGetChatCompletion_ConnectionExhausted(t *testing.T) {
	rec := &sleepRecorder{}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(testhelpers.ClosedServerURL() + "/v1"),
	}), WithSleeper(rec.sleep))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(), WithRetries(4))

	var exhausted *providers.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 4 {
		t.Errorf("expected 4 attempts, got %d", exhausted.Attempts)
	}
	if exhausted.Provider != "openai" {
		t.Errorf("expected provider openai, got %q", exhausted.Provider)
	}

	var connErr *providers.TransportConnectionError
	if !errors.As(err, &connErr) {
		t.Errorf("expected the last error to be a TransportConnectionError, got %v", exhausted.Err)
	}

	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}
	delays := rec.recorded()
	if len(delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, delays)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d: expected %s, got %s", i, want[i], delays[i])
		}
	}
}

func TestGetChatCompletion_VendorErrorIsFatal(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockAuthError())

	rec := &sleepRecorder{}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}), WithSleeper(rec.sleep))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(), WithRetries(5))

	testhelpers.AssertVendorError(t, err, 401, "invalid key")
	if n := mock.GetRequestCount(); n != 1 {
		t.Errorf("expected a single request, got %d", n)
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("expected no backoff, got %v", rec.recorded())
	}
}

func TestGetChatCompletion_RetryBudgetOfOne(t *testing.T) {
	rec := &sleepRecorder{}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(testhelpers.ClosedServerURL() + "/v1"),
	}), WithSleeper(rec.sleep))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(), WithRetries(0))

	var exhausted *providers.RetryExhaustedError
	if !errors.As(err, &exhausted) {
		t.Fatalf("expected RetryExhaustedError, got %T: %v", err, err)
	}
	if exhausted.Attempts != 1 {
		t.Errorf("expected budget to be raised to 1 attempt, got %d", exhausted.Attempts)
	}
	if len(rec.recorded()) != 0 {
		t.Errorf("expected no backoff, got %v", rec.recorded())
	}
}

func TestGetChatCompletion_MissingCredential(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()

	p := openAIProvider(mock.URL() + "/v1")
	p.APIKey = ""
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{"openai": p}))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages())

	var cfgErr *providers.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "api_key" {
		t.Errorf("expected api_key field, got %q", cfgErr.Field)
	}
	if n := mock.GetRequestCount(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

func TestGetChatCompletion_CredentialOptionalProvider(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/api/chat", testhelpers.MockResponse{
		Body: testhelpers.MockOllamaResponse("local answer", "llama3"),
	})

	cfg := testConfig(map[string]config.ProviderConfig{
		"ollama": {APIBase: mock.URL() + "/api", DefaultModel: "llama3"},
	})
	cfg.DefaultProvider = "ollama"
	d := newTestDispatcher(t, cfg)

	resp, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages())
	testhelpers.AssertNoError(t, err)

	if resp.Choice.Content != "local answer" {
		t.Errorf("expected content %q, got %q", "local answer", resp.Choice.Content)
	}
	if !d.IsProviderAvailable("ollama") {
		t.Error("expected keyless ollama to be available")
	}
}

func TestGetChatCompletion_UnknownProviderFallsBack(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIResponse("from default", "gpt-4"),
	})

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}))

	resp, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(), WithProvider("nonexistent"))
	testhelpers.AssertNoError(t, err)

	if resp.Provider != "openai" {
		t.Errorf("expected fallback to openai, got %q", resp.Provider)
	}
	if got := d.Stats().Snapshot().Fallbacks; got != 1 {
		t.Errorf("expected 1 fallback, got %d", got)
	}
}

func TestGetChatCompletion_DefaultProviderMissing(t *testing.T) {
	cfg := testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider("http://localhost:1/v1"),
	})
	cfg.DefaultProvider = "absent"
	d := newTestDispatcher(t, cfg)

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages())

	var cfgErr *providers.ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %T: %v", err, err)
	}
	if cfgErr.Field != "default_provider" {
		t.Errorf("expected default_provider field, got %q", cfgErr.Field)
	}
}

func TestGetChatCompletion_NoModel(t *testing.T) {
	p := openAIProvider("http://localhost:1/v1")
	p.DefaultModel = ""
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{"openai": p}))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages())
	testhelpers.AssertKind(t, err, providers.KindConfiguration)
}

func TestGetChatCompletion_CancelledDuringBackoff(t *testing.T) {
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(testhelpers.ClosedServerURL() + "/v1"),
	}))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := d.GetChatCompletion(ctx, testhelpers.TestMessages(), WithRetries(5))

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 900*time.Millisecond {
		t.Errorf("expected the backoff sleep to be interrupted, took %s", elapsed)
	}
	if got := d.Stats().Snapshot().Attempts; got != 1 {
		t.Errorf("expected 1 attempt, got %d", got)
	}
}

func TestGetChatCompletion_ParamsMergeAndReservedKeys(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIResponse("ok", "gpt-4"),
	})

	p := openAIProvider(mock.URL() + "/v1")
	p.DefaultParams = map[string]any{
		"temperature": 0.7,
		"max_tokens":  100,
		"retries":     2,
		"timeout":     30,
	}
	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{"openai": p}))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(),
		WithModel("gpt-4o"),
		WithParam("temperature", 0.1),
		WithParam("connect_timeout", 2),
	)
	testhelpers.AssertNoError(t, err)

	req, _ := mock.LastRequest()
	body := req.JSON()
	if body["temperature"] != 0.1 {
		t.Errorf("expected call temperature to win, got %v", body["temperature"])
	}
	if body["max_tokens"] != float64(100) {
		t.Errorf("expected default max_tokens, got %v", body["max_tokens"])
	}
	if body["model"] != "gpt-4o" {
		t.Errorf("expected call model, got %v", body["model"])
	}
	for _, key := range []string{ParamRetries, ParamTimeout, ParamConnectTimeout} {
		if _, ok := body[key]; ok {
			t.Errorf("expected reserved key %q not to be forwarded", key)
		}
	}
}

func TestRetryBudget(t *testing.T) {
	two, five := 2, 5
	tests := []struct {
		name     string
		global   int
		reserved *int
		option   *int
		want     int
	}{
		{"global default", 3, nil, nil, 3},
		{"unset global", 0, nil, nil, config.DefaultRetryBudget},
		{"params override global", 3, &two, nil, 2},
		{"option overrides params", 3, &two, &five, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &Dispatcher{cfg: &config.Config{DefaultRetries: tt.global}}
			got := d.retryBudget(callOptions{retries: tt.option}, reservedParams{retries: tt.reserved})
			if got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestShapeTimeouts(t *testing.T) {
	cfg := providers.ProviderConfig{
		Timeout:        60 * time.Second,
		ConnectTimeout: 10 * time.Second,
		ReadTimeout:    120 * time.Second,
	}

	tests := []struct {
		name   string
		opts   []CallOption
		params providers.Params
		want   providers.Timeouts
	}{
		{
			name: "provider defaults",
			want: providers.Timeouts{Connect: 10 * time.Second, Read: 120 * time.Second},
		},
		{
			name:   "single param timeout is read",
			params: providers.Params{"timeout": 30},
			want:   providers.Timeouts{Connect: 10 * time.Second, Read: 30 * time.Second},
		},
		{
			name:   "pair param",
			params: providers.Params{"timeout": []any{5, 45.5}},
			want:   providers.Timeouts{Connect: 5 * time.Second, Read: 45500 * time.Millisecond},
		},
		{
			name:   "connect_timeout param",
			params: providers.Params{"timeout": "20s", "connect_timeout": 3},
			want:   providers.Timeouts{Connect: 3 * time.Second, Read: 20 * time.Second},
		},
		{
			name:   "option beats param",
			opts:   []CallOption{WithTimeout(15 * time.Second)},
			params: providers.Params{"timeout": 30},
			want:   providers.Timeouts{Connect: 10 * time.Second, Read: 15 * time.Second},
		},
		{
			name: "option pair verbatim",
			opts: []CallOption{WithTimeoutPair(time.Second, 2*time.Second)},
			want: providers.Timeouts{Connect: time.Second, Read: 2 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var o callOptions
			for _, opt := range tt.opts {
				opt(&o)
			}
			reserved, _, err := extractReserved(tt.params)
			testhelpers.AssertNoError(t, err)

			if got := shapeTimeouts(o, reserved, cfg); got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestExtractReserved_Invalid(t *testing.T) {
	tests := []providers.Params{
		{"retries": "many"},
		{"timeout": "soon"},
		{"timeout": []any{1, 2, 3}},
		{"connect_timeout": true},
	}
	for _, params := range tests {
		if _, _, err := extractReserved(params); err == nil {
			t.Errorf("expected error for %v", params)
		}
	}
}

func TestGetCompletion_SystemPrompt(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/chat/completions", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIResponse("4", "gpt-4"),
	})

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}))

	text, err := d.GetCompletion(context.Background(), "2+2?", WithSystemPrompt("Answer with a number."))
	testhelpers.AssertNoError(t, err)
	if text != "4" {
		t.Errorf("expected %q, got %q", "4", text)
	}

	req, _ := mock.LastRequest()
	messages, _ := req.JSON()["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	first, _ := messages[0].(map[string]any)
	if first["role"] != "system" {
		t.Errorf("expected system message first, got %v", first["role"])
	}
}

func TestProviderIntrospection(t *testing.T) {
	keyless := openAIProvider("http://localhost:1/v1")
	keyless.APIKey = ""

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai":  openAIProvider("http://localhost:1/v1"),
		"keyless": keyless,
	}))

	if got := d.ListAvailableProviders(); len(got) != 2 || got[0] != "keyless" || got[1] != "openai" {
		t.Errorf("expected sorted [keyless openai], got %v", got)
	}
	if !d.IsProviderAvailable("openai") {
		t.Error("expected openai to be available")
	}
	if d.IsProviderAvailable("keyless") {
		t.Error("expected provider without key to be unavailable")
	}
	if d.IsProviderAvailable("missing") {
		t.Error("expected unknown provider to be unavailable")
	}

	cfg, err := d.GetProviderConfig("openai")
	testhelpers.AssertNoError(t, err)
	if cfg.DefaultModel != "gpt-4" {
		t.Errorf("expected default model gpt-4, got %q", cfg.DefaultModel)
	}

	_, err = d.GetProviderConfig("missing")
	testhelpers.AssertKind(t, err, providers.KindUnsupportedProvider)
}

func TestListAvailableModels(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/models", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIModels("gpt-4o", "gpt-4o-mini"),
	})
	mock.SetResponse("/broken/v1/models", testhelpers.MockServerError())

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
		"broken": openAIProvider(mock.URL() + "/broken/v1"),
	}))

	models := d.ListAvailableModels(context.Background(), "openai")
	if len(models) != 2 {
		t.Fatalf("expected 2 models, got %d", len(models))
	}
	if models[0].Provider != "openai" {
		t.Errorf("expected provider to be stamped, got %q", models[0].Provider)
	}

	if got := d.ListAvailableModels(context.Background(), "broken"); got == nil || len(got) != 0 {
		t.Errorf("expected empty listing for 500, got %v", got)
	}
	if got := d.ListAvailableModels(context.Background(), "missing"); len(got) != 0 {
		t.Errorf("expected empty listing for unknown provider, got %v", got)
	}

	all := d.ListAllModels(context.Background())
	if len(all["openai"]) != 2 || len(all["broken"]) != 0 {
		t.Errorf("unexpected listing %v", all)
	}
}

func TestCheckHealth(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/models", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIModels("gpt-4o"),
	})
	mock.SetResponse("/empty/v1/models", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIModels(),
	})

	keyless := openAIProvider(mock.URL() + "/v1")
	keyless.APIKey = ""

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai":  openAIProvider(mock.URL() + "/v1"),
		"empty":   openAIProvider(mock.URL() + "/empty/v1"),
		"down":    openAIProvider(testhelpers.ClosedServerURL() + "/v1"),
		"keyless": keyless,
	}))

	requestsBefore := mock.GetRequestCount()
	status := d.CheckHealth(context.Background())

	want := map[string]bool{"openai": true, "empty": false, "down": false, "keyless": false}
	for name, healthy := range want {
		if status[name] != healthy {
			t.Errorf("%s: expected healthy=%v, got %v", name, healthy, status[name])
		}
	}
	// openai and empty each list once; keyless is skipped without a request
	if n := mock.GetRequestCount() - requestsBefore; n != 2 {
		t.Errorf("expected 2 listing requests, got %d", n)
	}
}

func TestMetricsAndStats(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetSequence("/v1/chat/completions",
		testhelpers.MockSlowResponse(time.Second),
		testhelpers.MockResponse{Body: testhelpers.MockOpenAIResponse("ok", "gpt-4")},
	)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(config.MetricsConfig{Enabled: true}, registry)
	rec := &sleepRecorder{}

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}), WithMetrics(collector), WithSleeper(rec.sleep))

	_, err := d.GetChatCompletion(context.Background(), testhelpers.TestMessages(), WithTimeout(50*time.Millisecond))
	testhelpers.AssertNoError(t, err)

	snap := d.Stats().Snapshot()
	if snap.TotalCalls != 1 || snap.Attempts != 2 || snap.Retries != 1 || snap.Errors != 0 {
		t.Errorf("unexpected stats %+v", snap)
	}
	if snap.CallsPerProvider["openai"] != 1 {
		t.Errorf("expected 1 call for openai, got %d", snap.CallsPerProvider["openai"])
	}

	for _, name := range []string{
		"relay_calls_total",
		"relay_call_attempts",
		"relay_tokens_total",
		"relay_provider_retries_total",
		"relay_provider_errors_total",
	} {
		if n, err := testutil.GatherAndCount(registry, name); err != nil || n == 0 {
			t.Errorf("expected %s to be recorded, got %d series (err=%v)", name, n, err)
		}
	}

	d.Stats().Reset()
	if snap := d.Stats().Snapshot(); snap.TotalCalls != 0 || len(snap.CallsPerProvider) != 0 {
		t.Errorf("expected reset stats, got %+v", snap)
	}
}

func TestHealthMonitor(t *testing.T) {
	mock := testhelpers.NewMockServer()
	defer mock.Close()
	mock.SetResponse("/v1/models", testhelpers.MockResponse{
		Body: testhelpers.MockOpenAIModels("gpt-4o"),
	})

	d := newTestDispatcher(t, testConfig(map[string]config.ProviderConfig{
		"openai": openAIProvider(mock.URL() + "/v1"),
	}))

	var mu sync.Mutex
	rounds := 0
	monitor := NewHealthMonitor(d, 20*time.Millisecond, func(health.Report) {
		mu.Lock()
		rounds++
		mu.Unlock()
	})
	monitor.Start(context.Background())

	testhelpers.WaitForCondition(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return rounds >= 2
	}, "health monitor should run repeatedly")
	monitor.Stop()

	latest := monitor.Latest()
	if latest.Status != health.StatusOK {
		t.Errorf("expected ok status, got %q", latest.Status)
	}
	if !latest.Checks["openai"].Healthy {
		t.Error("expected openai to be healthy")
	}
}

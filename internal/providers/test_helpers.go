package providers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/relay/pkg/providers"
)

// TestConfig returns a test provider configuration.
func TestConfig(name, providerType string) providers.ProviderConfig {
	return providers.ProviderConfig{
		Name:           name,
		Type:           providerType,
		BaseURL:        "http://localhost:8080/",
		APIKey:         "test-key",
		DefaultModel:   "test-model",
		Timeout:        5 * time.Second,
		ConnectTimeout: 1 * time.Second,
		ReadTimeout:    5 * time.Second,
	}
}

// TestConfigWithURL returns a test config with a specific base URL.
func TestConfigWithURL(name, providerType, baseURL string) providers.ProviderConfig {
	config := TestConfig(name, providerType)
	config.BaseURL = providers.NormalizeBaseURL(baseURL)
	return config
}

// TestMessages returns a short system + user conversation.
func TestMessages() []providers.Message {
	return []providers.Message{
		{Role: providers.RoleSystem, Content: "You are terse."},
		{Role: providers.RoleUser, Content: "Hello"},
	}
}

// ClosedServerURL returns the URL of a server that is no longer listening,
// so connecting to it is refused.
func ClosedServerURL() string {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()
	return url
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

// AssertKind fails the test if err does not classify as kind.
func AssertKind(t *testing.T, err error, kind providers.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := providers.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s (%T: %v)", kind, got, err, err)
	}
}

// AssertVendorError fails the test unless err is a VendorRequestError
// with the given status and message.
func AssertVendorError(t *testing.T, err error, status int, message string) {
	t.Helper()
	var vendorErr *providers.VendorRequestError
	if !errors.As(err, &vendorErr) {
		t.Fatalf("expected VendorRequestError, got %T: %v", err, err)
	}
	if vendorErr.StatusCode != status {
		t.Errorf("expected status %d, got %d", status, vendorErr.StatusCode)
	}
	if vendorErr.Message != message {
		t.Errorf("expected message %q, got %q", message, vendorErr.Message)
	}
}

// AssertEqual fails the test if got != expected.
func AssertEqual(t *testing.T, got, expected interface{}) {
	t.Helper()
	if got != expected {
		t.Fatalf("expected %v, got %v", expected, got)
	}
}

// WaitForCondition waits for a condition to become true within a timeout.
func WaitForCondition(t *testing.T, timeout time.Duration, condition func() bool, message string) {
	t.Helper()

	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if condition() {
			return
		}

		if time.Now().After(deadline) {
			t.Fatalf("condition not met within %s: %s", timeout, message)
		}

		<-ticker.C
	}
}

package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestVersionDefaults(t *testing.T) {
	origVersion, origGitCommit, origBuildDate := Version, GitCommit, BuildDate
	defer func() {
		Version, GitCommit, BuildDate = origVersion, origGitCommit, origBuildDate
	}()

	Version = "0.1.0-test"
	GitCommit = "abc123"
	BuildDate = "2025-11-20"

	info := currentVersion()
	if info.Version != "0.1.0-test" {
		t.Errorf("Version = %q, want %q", info.Version, "0.1.0-test")
	}
	if info.GitCommit != "abc123" {
		t.Errorf("GitCommit = %q, want %q", info.GitCommit, "abc123")
	}
	if info.BuildDate != "2025-11-20" {
		t.Errorf("BuildDate = %q, want %q", info.BuildDate, "2025-11-20")
	}
	if info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("expected runtime details, got %+v", info)
	}
}

func TestVersionCommandExists(t *testing.T) {
	if versionCmd == nil {
		t.Fatal("versionCmd is nil")
	}
	if versionCmd.Use != "version" {
		t.Errorf("versionCmd.Use = %q, want %q", versionCmd.Use, "version")
	}
	if versionCmd.Short == "" {
		t.Error("versionCmd.Short should not be empty")
	}
	if versionCmd.RunE == nil {
		t.Error("versionCmd.RunE should not be nil")
	}
}

func TestVersionCommand_Output(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := executeCommand(t, "version")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.HasPrefix(out, "Relay "+Version) {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := executeCommand(t, "version", "-o", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var info versionInfo
		if err := json.NewDecoder(bytes.NewBufferString(out)).Decode(&info); err != nil {
			t.Fatalf("invalid json %q: %v", out, err)
		}
		if info.Version != Version {
			t.Errorf("expected version %q, got %q", Version, info.Version)
		}
	})
}

package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestChecker_Run(t *testing.T) {
	tests := []struct {
		name       string
		checks     map[string]CheckFunc
		wantStatus string
		wantHealth map[string]bool
	}{
		{
			name:       "no checks",
			checks:     nil,
			wantStatus: "ok",
			wantHealth: map[string]bool{},
		},
		{
			name: "all healthy",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return nil },
			},
			wantStatus: "ok",
			wantHealth: map[string]bool{"a": true, "b": true},
		},
		{
			name: "one failing",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { return nil },
				"b": func(context.Context) error { return errors.New("down") },
			},
			wantStatus: "degraded",
			wantHealth: map[string]bool{"a": true, "b": false},
		},
		{
			name: "all failing",
			checks: map[string]CheckFunc{
				"a": func(context.Context) error { panic("boom") },
			},
			wantStatus: "unhealthy",
			wantHealth: map[string]bool{"a": false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			for name, check := range tt.checks {
				checker.RegisterCheck(name, check)
			}

			report := checker.Run(context.Background())
			if report.Status != tt.wantStatus {
				t.Errorf("expected status %q, got %q", tt.wantStatus, report.Status)
			}
			got := report.Healthy()
			if len(got) != len(tt.wantHealth) {
				t.Fatalf("expected %d results, got %d", len(tt.wantHealth), len(got))
			}
			for name, want := range tt.wantHealth {
				if got[name] != want {
					t.Errorf("%s: expected healthy=%v, got %v", name, want, got[name])
				}
			}
		})
	}
}

func TestChecker_Timeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCheck("slow", func(ctx context.Context) error {
		<-ctx.Done()
		time.Sleep(50 * time.Millisecond)
		return nil
	})

	report := checker.Run(context.Background())
	result := report.Checks["slow"]
	if result.Healthy {
		t.Fatal("expected slow check to be unhealthy")
	}
	if result.Message != ErrCheckTimeout.Error() {
		t.Errorf("expected timeout message, got %q", result.Message)
	}
}

func TestChecker_RegisterUnregister(t *testing.T) {
	checker := New(0)
	checker.RegisterCheck("a", func(context.Context) error { return nil })
	checker.RegisterCheck("a", func(context.Context) error { return errors.New("replaced") })
	checker.RegisterCheck("b", func(context.Context) error { return nil })

	if checker.CheckCount() != 2 {
		t.Fatalf("expected 2 checks, got %d", checker.CheckCount())
	}

	report := checker.Run(context.Background())
	if report.Checks["a"].Message != "replaced" {
		t.Errorf("expected re-registration to replace the check, got %+v", report.Checks["a"])
	}
	if names := report.Names(); len(names) != 2 || names[0] != "a" {
		t.Errorf("expected sorted names, got %v", names)
	}

	checker.UnregisterCheck("a")
	if checker.CheckCount() != 1 {
		t.Errorf("expected 1 check after unregister, got %d", checker.CheckCount())
	}
}

package emessaging

import (
	"strings"
	"testing"
)

func TestRequireGateway(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.RequireGateway()
	if err == nil {
		t.Fatal("expected missing gateway settings to error")
	}
	for _, name := range []string{"API_KEY", "DEVICE_ID"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("expected error to name %s, got %q", name, err)
		}
	}

	cfg.APIKey = "k"
	cfg.DeviceID = "d"
	if err := cfg.RequireGateway(); err != nil {
		t.Errorf("expected complete gateway settings to validate, got %v", err)
	}
}

func TestRequireComposer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.AzamPesa = "a"
	cfg.LipaNamba = "l"
	cfg.TigoPesa = "t"

	err := cfg.RequireComposer()
	if err == nil || !strings.Contains(err.Error(), "RECEIVER_NAME") {
		t.Fatalf("expected RECEIVER_NAME to be reported missing, got %v", err)
	}
}

func TestStorePaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ResultsDir = "results"
	cfg.StorageDir = "state"

	if got := cfg.BillingLogPath("Jan, 2026"); got != "results/Jan, 2026.csv" {
		t.Errorf("unexpected billing log path %q", got)
	}
	if got := cfg.FailedListPath(); got != "results/failed.csv" {
		t.Errorf("unexpected failed list path %q", got)
	}
	if got := cfg.PendingStorePath(); got != "state/data.json" {
		t.Errorf("unexpected pending store path %q", got)
	}
}

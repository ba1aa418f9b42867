package simulator

import "testing"

func TestRuntimeProductVersionFromModernKey(t *testing.T) {
	got := runtimeProductVersion("com.apple.CoreSimulator.SimRuntime.iOS-17-0")
	if got != "17.0" {
		t.Fatalf("got %q, want %q", got, "17.0")
	}
}

func TestRuntimeProductVersionFromLegacyKey(t *testing.T) {
	got := runtimeProductVersion("iOS 13.0")
	if got != "13.0" {
		t.Fatalf("got %q, want %q", got, "13.0")
	}
}

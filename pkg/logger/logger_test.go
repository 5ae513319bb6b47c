package logger

import "testing"

func TestInitAcceptsKnownLevels(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if err := Init(level); err != nil {
			t.Fatalf("Init(%q) returned error: %v", level, err)
		}
	}
}

func TestInitFallsBackOnUnknownLevel(t *testing.T) {
	if err := Init("loud"); err != nil {
		t.Fatalf("expected fallback to info level, got error: %v", err)
	}

	if Logger() == nil {
		t.Fatal("expected a usable logger")
	}
}

func TestWithModuleReturnsChild(t *testing.T) {
	if WithModule("feed") == nil {
		t.Fatal("expected a child logger")
	}
}

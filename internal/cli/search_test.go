package cli

import (
	"strings"
	"testing"
	"unicode/utf8"

	"rdb/config"
)

func TestNewRefiner_ModelConfigured(t *testing.T) {
	t.Setenv("RDB_TEST_REFINER_KEY", "test-key")

	rcfg := config.DefaultConfig().Refiner
	rcfg.APIKeyEnv = "RDB_TEST_REFINER_KEY"

	// Enabled is false by default; the LLM refiner must still be built so
	// refinement can be switched on per search or mid-session.
	if rcfg.Enabled {
		t.Fatal("default config unexpectedly enables refinement")
	}
	ref := newRefiner(rcfg)
	if ref.Name() != "llm:"+rcfg.Model {
		t.Errorf("expected LLM refiner, got %q", ref.Name())
	}
}

func TestNewRefiner_FallsBackToPassthrough(t *testing.T) {
	rcfg := config.DefaultConfig().Refiner
	rcfg.APIKeyEnv = "RDB_TEST_REFINER_KEY_UNSET"

	if ref := newRefiner(rcfg); ref.Name() != "passthrough" {
		t.Errorf("expected passthrough when the client cannot be built, got %q", ref.Name())
	}

	rcfg = config.DefaultConfig().Refiner
	rcfg.Model = ""
	if ref := newRefiner(rcfg); ref.Name() != "passthrough" {
		t.Errorf("expected passthrough without a model, got %q", ref.Name())
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		max      int
		expected string
	}{
		{"unlimited", "abcdef", 0, "abcdef"},
		{"under limit", "abc", 10, "abc"},
		{"ascii cut", "abcdef", 3, "abc..."},
		{"multibyte boundary kept", "日本語", 6, "日本..."},
		{"multibyte mid-rune backs up", "日本語", 4, "日..."},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := truncate(tc.input, tc.max)
			if got != tc.expected {
				t.Errorf("truncate(%q, %d) = %q, expected %q", tc.input, tc.max, got, tc.expected)
			}
			if !utf8.ValidString(got) {
				t.Errorf("truncate produced invalid UTF-8: %q", got)
			}
		})
	}
}

func TestTruncate_LongMultibyte(t *testing.T) {
	s := strings.Repeat("é", 300)
	got := truncate(s, 501) // odd cap lands mid-rune for a 2-byte rune
	if !utf8.ValidString(got) {
		t.Errorf("expected valid UTF-8 after truncation")
	}
	if len(got) > 501+len("...") {
		t.Errorf("truncated string too long: %d bytes", len(got))
	}
}

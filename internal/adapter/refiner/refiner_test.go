package refiner

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

type fakeLLM struct {
	response string
	err      error
	delay    time.Duration
}

func (f *fakeLLM) Generate(prompt string) (string, error) {
	return f.GenerateWithSystem("", prompt)
}

func (f *fakeLLM) GenerateWithSystem(systemPrompt, userPrompt string) (string, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.response, f.err
}

func (f *fakeLLM) ModelName() string { return "fake" }

func TestCleanResponse(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "plain",
			input:    "Wireless network configuration iwctl",
			expected: "Wireless network configuration iwctl",
		},
		{
			name:     "quoted",
			input:    `"Pacman package manager installation"`,
			expected: "Pacman package manager installation",
		},
		{
			name:     "multiline keeps first line",
			input:    "GRUB bootloader configuration\nThis should help you find boot topics.",
			expected: "GRUB bootloader configuration",
		},
		{
			name:     "strips prefix",
			input:    "Search terms: ALSA sound configuration",
			expected: "ALSA sound configuration",
		},
		{
			name:     "dedupes repeated words",
			input:    "wifi wifi wireless wifi network",
			expected: "wifi wireless network",
		},
		{
			name:     "empty",
			input:    "   ",
			expected: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := cleanResponse(tc.input)
			if got != tc.expected {
				t.Errorf("cleanResponse(%q) = %q, expected %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCleanResponse_LengthCap(t *testing.T) {
	long := strings.Repeat("word", 100) // single huge token, no dedup
	got := cleanResponse(long)
	if len(got) > 200 {
		t.Errorf("expected response capped at 200 chars, got %d", len(got))
	}
}

func TestCleanResponse_LengthCapKeepsValidUTF8(t *testing.T) {
	// 3-byte runes put byte 200 inside a rune; the cap must back up to a
	// rune boundary rather than emit a mangled trailing character.
	long := strings.Repeat("日", 100)
	got := cleanResponse(long)
	if len(got) > 200 {
		t.Errorf("expected response capped at 200 bytes, got %d", len(got))
	}
	if !utf8.ValidString(got) {
		t.Errorf("expected valid UTF-8 after cap, got %q", got)
	}
}

func TestLLMRefiner_Refine(t *testing.T) {
	r := NewLLMRefiner(&fakeLLM{response: `"Wireless network configuration iwctl"`})

	refined, err := r.Refine(context.Background(), "wifi broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refined != "Wireless network configuration iwctl" {
		t.Errorf("unexpected refinement: %q", refined)
	}
}

func TestLLMRefiner_ErrorPropagates(t *testing.T) {
	r := NewLLMRefiner(&fakeLLM{err: errors.New("model offline")})

	if _, err := r.Refine(context.Background(), "wifi broken"); err == nil {
		t.Fatal("expected error from failing model")
	}
}

func TestLLMRefiner_EmptyOutputIsError(t *testing.T) {
	r := NewLLMRefiner(&fakeLLM{response: "   \n  "})

	if _, err := r.Refine(context.Background(), "wifi broken"); err == nil {
		t.Fatal("expected error for empty refinement")
	}
}

func TestLLMRefiner_Timeout(t *testing.T) {
	r := NewLLMRefiner(&fakeLLM{response: "slow", delay: 200 * time.Millisecond})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Refine(ctx, "wifi broken")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestPassthrough(t *testing.T) {
	p := NewPassthrough()
	refined, err := p.Refine(context.Background(), "wifi broken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if refined != "wifi broken" {
		t.Errorf("expected query unchanged, got %q", refined)
	}
}

// Package refiner rewrites colloquial user queries into technical search
// terms. Failures never escape to the search caller: the engine logs them
// and falls back to the original query.
package refiner

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"rdb/internal/port"
)

const refinementSystemPrompt = `You are an expert documentation search assistant. Convert user questions into specific technical search terms that match documentation page titles and content.

Include both specific commands AND general page titles in your search terms.

Examples:
User: "How do I connect to wifi?"
Search: "Wireless network configuration iwctl station connect NetworkManager wifi setup"

User: "sound not working"
Search: "ALSA sound configuration PulseAudio audio troubleshooting"

User: "install packages"
Search: "Pacman package manager installation AUR"

Reply with the search terms only, on a single line.`

// LLMRefiner refines queries through a language model.
type LLMRefiner struct {
	llm port.LLM
}

// NewLLMRefiner creates a refiner backed by the given model.
func NewLLMRefiner(llm port.LLM) *LLMRefiner {
	return &LLMRefiner{llm: llm}
}

// Refine rewrites the query into technical search terms. The underlying
// model call is bounded by ctx; on timeout the context error is returned and
// the caller keeps the original query.
func (r *LLMRefiner) Refine(ctx context.Context, query string) (string, error) {
	userPrompt := fmt.Sprintf("User: %q\nSearch:", query)

	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)
	go func() {
		text, err := r.llm.GenerateWithSystem(refinementSystemPrompt, userPrompt)
		done <- reply{text, err}
	}()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", res.err
		}
		refined := cleanResponse(res.text)
		if refined == "" {
			return "", fmt.Errorf("refiner returned empty output")
		}
		return refined, nil
	}
}

// Name identifies the refiner for logging.
func (r *LLMRefiner) Name() string {
	return "llm:" + r.llm.ModelName()
}

// cleanResponse strips quoting, explanations and repetition from model
// output, leaving a single line of search terms.
func cleanResponse(response string) string {
	response = strings.TrimSpace(response)

	if strings.HasPrefix(response, `"`) && strings.HasSuffix(response, `"`) && len(response) >= 2 {
		response = response[1 : len(response)-1]
	}

	// Keep only the first line; anything after is usually explanation.
	if i := strings.IndexByte(response, '\n'); i >= 0 {
		response = response[:i]
	}

	for _, prefix := range []string{
		"Technical search query:",
		"Search terms:",
		"Refined query:",
		"Search:",
		"Query:",
	} {
		if len(response) >= len(prefix) && strings.EqualFold(response[:len(prefix)], prefix) {
			response = strings.TrimSpace(response[len(prefix):])
		}
	}

	// Drop repeated words the model sometimes emits.
	words := strings.Fields(response)
	seen := make(map[string]struct{}, len(words))
	filtered := words[:0]
	for _, word := range words {
		key := strings.ToLower(strings.Trim(word, `",.`))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		filtered = append(filtered, word)
	}
	response = strings.Join(filtered, " ")

	if len(response) > 200 {
		cut := 200
		for cut > 0 && !utf8.RuneStart(response[cut]) {
			cut--
		}
		response = strings.TrimSpace(response[:cut])
	}

	return strings.TrimSpace(response)
}

package translate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// System Prompts Configuration
// ---------------------------------------------------------------------------

// PromptsConfig holds named system prompts loaded from prompts.json.
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

// defaultPromptsMap returns all built-in system prompts as a map.
func defaultPromptsMap() map[string]string {
	return map[string]string{
		"default": DefaultSystemPrompt,
		"strict":  StrictSystemPrompt,
	}
}

// LoadPrompts reads a prompts file. A missing file yields the built-in
// prompts.
func LoadPrompts(path string) (*PromptsConfig, error) {
	cfg := &PromptsConfig{Prompts: defaultPromptsMap()}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var loaded PromptsConfig
	if err := json.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file %s: %w", path, err)
	}
	for name, p := range loaded.Prompts {
		if strings.TrimSpace(p) != "" {
			cfg.Prompts[name] = p
		}
	}
	return cfg, nil
}

// WriteDefaultPrompts writes the built-in prompts to path as formatted JSON
// unless a file already exists there.
func WriteDefaultPrompts(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	}
	data, err := json.MarshalIndent(PromptsConfig{Prompts: defaultPromptsMap()}, "", "  ")
	if err != nil {
		return false, fmt.Errorf("marshaling default prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return false, fmt.Errorf("creating prompts directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return false, fmt.Errorf("writing default prompts file: %w", err)
	}
	return true, nil
}

// Get returns the named prompt. Unknown names and a nil config fall back to
// the default prompt.
func (c *PromptsConfig) Get(name string) string {
	if c != nil {
		if p, ok := c.Prompts[name]; ok && p != "" {
			return p
		}
	}
	if name == "strict" {
		return StrictSystemPrompt
	}
	return DefaultSystemPrompt
}

// RenderPrompt fills {{targetLang}} and {{count}} in a prompt template.
func RenderPrompt(tmpl, targetLang string, count int) string {
	r := strings.NewReplacer(
		"{{targetLang}}", targetLang,
		"{{count}}", strconv.Itoa(count),
	)
	return r.Replace(tmpl)
}

// ---------------------------------------------------------------------------
// Built-in prompts
// ---------------------------------------------------------------------------

// DefaultSystemPrompt is used for localization resource files.
const DefaultSystemPrompt = `You are a top-tier multilingual localization expert, proficient in software development, UI/UX design, and cross-cultural communication.
Your ONLY task is to accurately and naturally translate the values of the following JSON object into the target language: [ {{targetLang}} ].

You MUST strictly adhere to the following guidelines:
1. Use modern Web/App and software engineering terminology. Keep a professional, natural, and friendly tone.
2. NEVER translate, modify, or lose any placeholders (e.g. {{name}}, {count}, %s, %1$d), HTML tags (e.g. <b>), or special symbols. Keep them in grammatically correct positions.
3. Infer the usage context from the JSON keys (e.g. "btn" for short actionable buttons, "msg" for full sentences).
4. Keep translations concise to avoid UI text overflow.
5. Keep the ending punctuation consistent with the original text (e.g. "..." or "?").
6. Return a valid JSON object whose keys EXACTLY match the input keys. DO NOT add, remove, or rename keys; translate only the values. There are {{count}} fields and the result MUST contain exactly {{count}} fields.
7. Output pure JSON only: no Markdown code fences, explanations, prefixes, or notes.`

// StrictSystemPrompt trades tone guidance for a terse contract, for small
// local models that follow long prompts poorly.
const StrictSystemPrompt = `Translate every value of the JSON object below into {{targetLang}}.
Return ONLY a JSON object with exactly the same {{count}} keys. Do not translate keys.
Keep placeholders such as {{name}}, {count}, %s and HTML tags unchanged.`

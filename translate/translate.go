// Package translate talks to AI translation services. A batch of keyed
// source strings goes out as one JSON object and the model answers with an
// object holding the same keys.
package translate

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/minios-linux/locsync/document"
)

// ErrEmptyResponse is returned when the model replies with no content.
var ErrEmptyResponse = errors.New("empty translation response")

// Entry is one string to translate, addressed by an opaque key.
type Entry struct {
	Key  string
	Text string
}

// Request is one batch sent to a Translator.
type Request struct {
	Entries []Entry
	// Language is the target language code, e.g. "de".
	Language string
	// LanguageName is the human-readable target, e.g. "German (Deutsch)".
	// Falls back to Language when empty.
	LanguageName string
}

// Translator translates a batch of keyed strings. The returned mapping may
// omit keys or contain extra ones; callers validate it.
type Translator interface {
	Translate(ctx context.Context, req Request) (map[string]string, error)
}

// ---------------------------------------------------------------------------
// AI client
// ---------------------------------------------------------------------------

// ClientOptions configures an AIClient.
type ClientOptions struct {
	Provider Provider
	// Prompt is the system prompt template; empty means DefaultSystemPrompt.
	Prompt string
	// MaxRateLimitWaits bounds how many 429 responses are waited out per
	// call (default 3).
	MaxRateLimitWaits int
	Verbose           bool
	// HTTPClient overrides the client built from Provider.Proxy/Timeout.
	HTTPClient *http.Client

	// OnLog is called for debug messages when Verbose is set.
	OnLog func(format string, args ...any)
	// OnWarn is always called, e.g. while a rate limit is waited out.
	OnWarn func(format string, args ...any)
}

func (o ClientOptions) effectivePrompt() string {
	if o.Prompt != "" {
		return o.Prompt
	}
	return DefaultSystemPrompt
}

func (o ClientOptions) effectiveRateLimitWaits() int {
	if o.MaxRateLimitWaits > 0 {
		return o.MaxRateLimitWaits
	}
	return 3
}

// AIClient is a Translator backed by an HTTP chat-completion API.
type AIClient struct {
	opts   ClientOptions
	client *http.Client
}

// NewAIClient validates the provider configuration and returns a client.
func NewAIClient(opts ClientOptions) (*AIClient, error) {
	prov := opts.Provider
	if prov.BaseURL == "" {
		return nil, fmt.Errorf("provider %q: base URL is required", prov.ID)
	}
	if prov.Model == "" {
		return nil, fmt.Errorf("provider %q: model is required", prov.ID)
	}
	if prov.NeedsAPIKey() && prov.APIKey == "" {
		return nil, fmt.Errorf("provider %q: API key is required", prov.ID)
	}
	client := opts.HTTPClient
	if client == nil {
		client = makeHTTPClient(prov.Proxy, prov.Timeout)
	}
	return &AIClient{opts: opts, client: client}, nil
}

func (c *AIClient) logf(format string, args ...any) {
	if c.opts.Verbose && c.opts.OnLog != nil {
		c.opts.OnLog(format, args...)
	}
}

func (c *AIClient) warnf(format string, args ...any) {
	if c.opts.OnWarn != nil {
		c.opts.OnWarn(format, args...)
	}
}

// Translate sends the batch as a single request and parses the reply.
func (c *AIClient) Translate(ctx context.Context, req Request) (map[string]string, error) {
	if len(req.Entries) == 0 {
		return map[string]string{}, nil
	}

	lang := req.LanguageName
	if lang == "" {
		lang = req.Language
	}
	systemPrompt := RenderPrompt(c.opts.effectivePrompt(), lang, len(req.Entries))

	userPrompt, err := BuildUserPrompt(req.Entries)
	if err != nil {
		return nil, err
	}

	text, err := callProvider(ctx, c.client, c.opts.Provider, systemPrompt, userPrompt, c.opts.effectiveRateLimitWaits(), c.logf, c.warnf)
	if err != nil {
		return nil, err
	}
	c.logf("[DEBUG] %s: received %d bytes", c.opts.Provider.Name, len(text))

	return parseMapping(text)
}

// BuildUserPrompt renders entries as an indented JSON object in entry order.
func BuildUserPrompt(entries []Entry) (string, error) {
	obj := document.New()
	for _, e := range entries {
		obj.Set(e.Key, e.Text)
	}
	data, err := document.MarshalJSON(obj, document.DefaultIndent)
	if err != nil {
		return "", fmt.Errorf("encoding batch: %w", err)
	}
	return string(data), nil
}

// Package genai implements a match.Matcher backed by the Google GenAI
// SDK. The adapter owns all model interaction policy: prompt assembly,
// response fence stripping, retries with backoff, and per-call timeouts.
package genai

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/agentstation/cdmforge/pkg/constants"
	"github.com/agentstation/cdmforge/pkg/errors"
	"github.com/agentstation/cdmforge/pkg/logging"
	"github.com/agentstation/cdmforge/pkg/match"
)

// DefaultModel is the model used when none is configured.
const DefaultModel = "gemini-2.0-flash"

const systemInstruction = "You are an expert healthcare data engineer and data analyst experienced mapping source to target data. Return ONLY valid JSON."

// Matcher maps source entities to canonical attributes via a Gemini model.
type Matcher struct {
	client *genai.Client
	model  string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithModel overrides the default model.
func WithModel(model string) Option {
	return func(m *Matcher) {
		if model != "" {
			m.model = model
		}
	}
}

// New creates a Matcher using the Gemini API backend. The API key is read
// from GEMINI_API_KEY, falling back to GOOGLE_API_KEY.
func New(ctx context.Context, opts ...Option) (*Matcher, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	if apiKey == "" {
		return nil, &errors.ConfigError{
			Component: "genai",
			Message:   "no API key found, set GEMINI_API_KEY or GOOGLE_API_KEY",
		}
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		Backend: genai.BackendGeminiAPI,
		APIKey:  apiKey,
	})
	if err != nil {
		return nil, &errors.ConfigError{
			Component: "genai",
			Message:   "failed to create client",
			Err:       err,
		}
	}

	m := &Matcher{
		client: client,
		model:  DefaultModel,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Match sends one source entity to the model and parses its mapping
// decision. Transient failures retry with exponential backoff up to
// constants.MaxMatcherRetries attempts.
func (m *Matcher) Match(ctx context.Context, req *match.Request) (*match.EntityMapping, error) {
	log := logging.FromContext(ctx)
	prompt, err := buildPrompt(req)
	if err != nil {
		return nil, &errors.MatchError{
			SourceType:   req.SourceType,
			SourceEntity: req.Entity.EntityName,
			Message:      "failed to build prompt",
			Err:          err,
		}
	}

	backoff := constants.RetryBackoff
	var lastErr error
	for attempt := 1; attempt <= constants.MaxMatcherRetries; attempt++ {
		mapping, err := m.generate(ctx, req, prompt)
		if err == nil {
			return mapping, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
		if attempt < constants.MaxMatcherRetries {
			log.Warn().
				Str("source_type", req.SourceType).
				Str("entity", req.Entity.EntityName).
				Int("attempt", attempt).
				Err(err).
				Msg("Matcher call failed, retrying")

			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			backoff *= 2
			if backoff > constants.MaxRetryBackoff {
				backoff = constants.MaxRetryBackoff
			}
		}
	}

	return nil, &errors.MatchError{
		SourceType:   req.SourceType,
		SourceEntity: req.Entity.EntityName,
		Message:      "matcher exhausted retries",
		Err:          lastErr,
	}
}

// generate performs one model round trip under the matcher timeout.
func (m *Matcher) generate(ctx context.Context, req *match.Request, prompt string) (*match.EntityMapping, error) {
	callCtx, cancel := context.WithTimeout(ctx, constants.MatcherTimeout)
	defer cancel()

	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := m.client.Models.GenerateContent(callCtx, m.model, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	text := stripFences(resp.Text())
	if text == "" {
		return nil, errors.ErrMatcherFailed
	}

	var mapping match.EntityMapping
	if err := json.Unmarshal([]byte(text), &mapping); err != nil {
		return nil, errors.WrapParse("json", "matcher response", err)
	}
	if mapping.SourceEntity == "" {
		mapping.SourceEntity = req.Entity.EntityName
	}
	return &mapping, nil
}

// stripFences removes a surrounding markdown code fence from a model
// response, if present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	if len(lines) < 2 {
		return s
	}
	lines = lines[1:]
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

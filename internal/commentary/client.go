// internal/commentary/client.go
//
// Commentary client: turns a guess into a host reaction.
// Responsibilities:
//   - Render the prompt and call the Generator with a bounded timeout.
//   - Parse and validate the JSON reply against the response schema.
//   - Substitute the outcome-keyed fallback on any failure.
//
// The client is stateless between calls; it never returns an error.

package commentary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/numberguess/assets"
)

// Errors produced while obtaining a commentary line. They only reach logs.
var (
	ErrDisabled      = errors.New("commentary generator disabled")
	ErrEmptyResponse = errors.New("empty model response")
	ErrMissingText   = errors.New("response missing text")
	ErrInvalidMood   = errors.New("response has invalid mood")
)

// Generator produces a raw JSON reply for a prompt.
// Implementations must honour ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// DefaultTimeout bounds a single generator call.
const DefaultTimeout = 8 * time.Second

const fallbackSystem = "You are a charismatic game host. Keep it brief and fun."

// Client wraps a Generator with prompt rendering, parsing and fallback.
type Client struct {
	gen     Generator
	timeout time.Duration
	system  string
}

// NewClient builds a Client. A nil gen behaves like Disabled(); a
// non-positive timeout uses DefaultTimeout.
func NewClient(gen Generator, timeout time.Duration) *Client {
	if gen == nil {
		gen = Disabled()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	system, err := assets.SystemInstruction()
	if err != nil || system == "" {
		system = fallbackSystem
	}
	return &Client{gen: gen, timeout: timeout, system: system}
}

// RequestCommentary returns the model's reaction to a guess, or the
// fallback for req.Outcome if anything goes wrong.
func (c *Client) RequestCommentary(ctx context.Context, req Request) Commentary {
	out, err := c.generate(ctx, req)
	if err != nil {
		ev := log.Warn()
		if errors.Is(err, ErrDisabled) {
			ev = log.Debug()
		}
		ev.Err(err).
			Int("guess", req.Guess).
			Str("outcome", string(req.Outcome)).
			Int("attempt", req.Attempt).
			Msg("commentary unavailable, using fallback")
		return Fallback(req.Outcome)
	}
	return out
}

func (c *Client) generate(ctx context.Context, req Request) (Commentary, error) {
	prompt, err := BuildPrompt(req)
	if err != nil {
		return Commentary{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	raw, err := c.gen.Generate(ctx, c.system, prompt)
	if err != nil {
		return Commentary{}, fmt.Errorf("generate: %w", err)
	}
	return Parse(raw)
}

// Parse decodes and validates a model reply.
//
// Accepts a bare JSON object, optionally wrapped in a ``` code fence.
// Text must be non-empty after trimming; mood must be a known Mood.
func Parse(raw string) (Commentary, error) {
	raw = stripFence(strings.TrimSpace(raw))
	if raw == "" {
		return Commentary{}, ErrEmptyResponse
	}

	var body struct {
		Text *string `json:"text"`
		Mood *string `json:"mood"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err != nil {
		return Commentary{}, fmt.Errorf("decode response: %w", err)
	}
	if body.Text == nil || strings.TrimSpace(*body.Text) == "" {
		return Commentary{}, ErrMissingText
	}
	if body.Mood == nil {
		return Commentary{}, ErrInvalidMood
	}
	mood := Mood(strings.ToLower(strings.TrimSpace(*body.Mood)))
	if !mood.Valid() {
		return Commentary{}, fmt.Errorf("%w: %q", ErrInvalidMood, *body.Mood)
	}
	return Commentary{Text: strings.TrimSpace(*body.Text), Mood: mood}, nil
}

func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type disabled struct{}

func (disabled) Generate(context.Context, string, string) (string, error) { return "", ErrDisabled }

// Disabled returns a Generator that always fails, so every call falls back.
func Disabled() Generator { return disabled{} }

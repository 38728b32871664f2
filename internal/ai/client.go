package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

const jsonInstruction = "\n\nYou must respond with valid JSON only. No markdown, no explanations, just the JSON object."

// RetryPolicy bounds how often a model call is retried. Backoff doubles
// after each failed attempt and never exceeds MaxBackoff; no wait happens
// before the first attempt.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     10 * time.Second,
	}
}

// Client wraps a single generator with retry and strict-JSON parsing. Both
// the plain-text and structured paths share the same retry loop.
type Client struct {
	gen    IGenerator
	policy RetryPolicy
	sleep  func(ctx context.Context, d time.Duration) error
}

func NewClient(gen IGenerator, policy RetryPolicy) *Client {
	if policy.MaxAttempts <= 0 {
		policy = DefaultRetryPolicy()
	}
	return &Client{gen: gen, policy: policy, sleep: sleepContext}
}

func (c *Client) GenerateText(ctx context.Context, req *GenerateRequest) (string, error) {
	var result string
	err := c.withRetry(ctx, func() error {
		resp, err := c.gen.Generate(ctx, req)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(resp)
		if text == "" {
			return fmt.Errorf("empty ai response")
		}
		result = text
		return nil
	})
	return result, err
}

// GenerateStructured appends the JSON-only instruction to the system prompt,
// strips a single fenced code block from the reply and decodes it strictly.
// A parse failure counts as a retryable failure like a transport error.
func (c *Client) GenerateStructured(ctx context.Context, req *GenerateRequest) (map[string]any, error) {
	jsonReq := *req
	jsonReq.SystemPrompt = req.SystemPrompt + jsonInstruction

	var result map[string]any
	err := c.withRetry(ctx, func() error {
		resp, err := c.gen.Generate(ctx, &jsonReq)
		if err != nil {
			return err
		}
		parsed, err := decodeStrictJSON(stripCodeFence(resp))
		if err != nil {
			return fmt.Errorf("parse model output: %w", err)
		}
		result = parsed
		return nil
	})
	return result, err
}

func (c *Client) withRetry(ctx context.Context, call func() error) error {
	backoff := c.policy.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= c.policy.MaxAttempts; attempt++ {
		lastErr = call()
		if lastErr == nil {
			return nil
		}
		logutil.GetLogger(ctx).Warn("model call failed",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", c.policy.MaxAttempts),
			zap.Error(lastErr),
		)
		if attempt == c.policy.MaxAttempts {
			break
		}
		if err := c.sleep(ctx, backoff); err != nil {
			return err
		}
		backoff *= 2
		if backoff > c.policy.MaxBackoff {
			backoff = c.policy.MaxBackoff
		}
	}
	return fmt.Errorf("model call failed after %d attempts: %w", c.policy.MaxAttempts, lastErr)
}

func stripCodeFence(raw string) string {
	clean := strings.TrimSpace(raw)
	clean = strings.TrimPrefix(clean, "```json")
	clean = strings.TrimPrefix(clean, "```")
	clean = strings.TrimSuffix(clean, "```")
	return strings.TrimSpace(clean)
}

func decodeStrictJSON(s string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	var out map[string]any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("trailing data after json object")
	}
	return out, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

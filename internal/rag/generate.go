package rag

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generation_client.go -package=mocks careerpath-ai/internal/rag GenerationClient

import (
	"context"
	"strings"
	"time"

	"careerpath-ai/internal/contextutil"
)

// DisclaimerMarker is the footer every generated answer must carry. Its
// absence is recorded on the result but does not fail the call; enforcement
// is a caller-level policy.
const DisclaimerMarker = "This guidance is informational and not a substitute for a registered career counsellor."

// GenerationClient is the external generation provider.
type GenerationClient interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// GeneratorConfig tunes the retry policy.
type GeneratorConfig struct {
	// MaxRetries is the number of retries after the first attempt, so total
	// attempts = MaxRetries + 1.
	MaxRetries int
	// AttemptTimeout bounds each individual provider call.
	AttemptTimeout time.Duration
	// InitialBackoff is the delay before the first retry. It doubles per
	// retry up to MaxBackoff.
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Generator calls the generation provider under a retry state machine.
// It never returns an error: exhausted retries produce a failed
// GenerationResult that callers turn into a user-visible fallback.
type Generator struct {
	client GenerationClient
	cfg    GeneratorConfig

	// sleep waits out a backoff delay, honoring cancellation. Injectable so
	// retry tests run without real delays.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewGenerator creates a Generator.
func NewGenerator(client GenerationClient, cfg GeneratorConfig) *Generator {
	return &Generator{
		client: client,
		cfg:    cfg,
		sleep:  sleepContext,
	}
}

// Generate runs the retry state machine:
// Pending -> Attempting -> (Succeeded | Retrying -> Attempting | Failed).
// Each attempt is bounded by the configured timeout; any provider error or
// timeout consumes one attempt. The backoff delay doubles per retry, capped
// at MaxBackoff. Cancellation of ctx ends the cycle with a failed result.
func (g *Generator) Generate(ctx context.Context, systemPrompt, userPrompt string) GenerationResult {
	logger := contextutil.LoggerFromContext(ctx)
	start := time.Now()

	result := GenerationResult{State: StatePending}
	delay := g.cfg.InitialBackoff
	var lastErr error

	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			result.State = StateRetrying
			logger.Warn("generation attempt failed, retrying",
				"attempt", attempt, "backoff", delay, "error", lastErr)
			if err := g.sleep(ctx, delay); err != nil {
				lastErr = err
				break
			}
			delay *= 2
			if delay > g.cfg.MaxBackoff {
				delay = g.cfg.MaxBackoff
			}
		}

		result.State = StateAttempting
		result.Attempts++

		text, err := g.attempt(ctx, systemPrompt, userPrompt)
		if err == nil {
			result.State = StateSucceeded
			result.Success = true
			result.Text = text
			result.FooterPresent = strings.Contains(text, DisclaimerMarker)
			result.Elapsed = time.Since(start)
			if !result.FooterPresent {
				logger.Warn("generated answer missing disclaimer footer")
			}
			return result
		}
		lastErr = err

		if ctx.Err() != nil {
			break
		}
	}

	result.State = StateFailed
	if lastErr != nil {
		result.ErrorDetail = lastErr.Error()
	}
	result.Elapsed = time.Since(start)
	logger.Error("generation failed", "attempts", result.Attempts, "error", result.ErrorDetail)
	return result
}

// attempt issues one provider call bounded by the per-attempt timeout.
func (g *Generator) attempt(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if g.cfg.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.cfg.AttemptTimeout)
		defer cancel()
	}
	return g.client.Complete(ctx, systemPrompt, userPrompt)
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

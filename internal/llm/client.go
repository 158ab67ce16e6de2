package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

// Config holds connection settings for the chat completion backend.
// Any OpenAI-compatible endpoint works via BaseURL.
type Config struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestTimeout    time.Duration
	MaxAttempts       uint
	RequestsPerMinute int
}

// Client is a rate-limited, retrying wrapper around the chat API.
type Client struct {
	api         openai.Client
	model       string
	limiter     *rate.Limiter
	stats       *Stats
	maxAttempts uint
}

func NewClient(cfg Config, stats *Stats) *Client {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(&http.Client{Timeout: timeout}),
		// Retries are handled here with backoff, not in the SDK.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 30
	}
	attempts := cfg.MaxAttempts
	if attempts == 0 {
		attempts = 5
	}

	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		limiter:     rate.NewLimiter(rate.Limit(float64(rpm)/60.0), 1),
		stats:       stats,
		maxAttempts: attempts,
	}
}

// Complete sends one chat turn and returns the assistant text. Quota
// and server errors are retried with exponential backoff.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if system != "" {
		msgs = append(msgs, openai.SystemMessage(system))
	}
	msgs = append(msgs, openai.UserMessage(user))

	var out string
	err := retry.Do(
		func() error {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
			start := time.Now()
			resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
				Model:    openai.ChatModel(c.model),
				Messages: msgs,
			})
			if c.stats != nil {
				c.stats.Record(time.Since(start).Milliseconds())
			}
			if err != nil {
				return classify(err)
			}
			if len(resp.Choices) == 0 {
				return fmt.Errorf("empty completion")
			}
			out = resp.Choices[0].Message.Content
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.maxAttempts),
		retry.Delay(2*time.Second),
		retry.MaxDelay(3*time.Minute),
		retry.DelayType(retry.BackOffDelay),
		retry.RetryIf(func(err error) bool {
			var re *RetryableError
			return errors.As(err, &re)
		}),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", err
	}
	return out, nil
}

// classify maps quota and server-side failures to RetryableError.
func classify(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || apiErr.StatusCode >= 500 {
			return &RetryableError{StatusCode: apiErr.StatusCode, Message: apiErr.Error()}
		}
	}
	return err
}

// RetryableError indicates a transient failure that can be retried.
type RetryableError struct {
	StatusCode int
	Message    string
}

func (e *RetryableError) Error() string {
	return fmt.Sprintf("retryable error (status %d): %s", e.StatusCode, truncate(e.Message, 200))
}

var codeBlockRe = regexp.MustCompile("(?s)^```(?:json)?\\s*(.*?)\\s*```$")

// stripCodeBlock unwraps a ```json fence if the model added one.
func stripCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); len(m) > 1 {
		return m[1]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

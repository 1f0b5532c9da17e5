package imagen

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	models "github.com/rm-hull/circle-mockup/internal/models/imagen"
)

const (
	DefaultModel = "imagen-3.0-generate-001"

	promptSuffix = ", photorealistic style, professional photography, centered composition, high resolution, white background"
	maxAttempts  = 3
)

// Client turns a text prompt into raw image bytes.
type Client interface {
	Generate(ctx context.Context, prompt, model string) ([]byte, error)
}

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type GeminiClient struct {
	baseUrl string
	apiKey  string
	client  HTTPDoer
	delays  []time.Duration
}

func NewClient(apiKey string) *GeminiClient {
	return &GeminiClient{
		baseUrl: "https://generativelanguage.googleapis.com/v1beta",
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 2 * time.Minute},
		delays:  []time.Duration{1 * time.Second, 2 * time.Second, 4 * time.Second},
	}
}

// Generate asks the model for a single square image. Rate limiting and
// server errors are retried with backoff; authorisation and unknown-model
// failures are returned immediately.
func (c *GeminiClient) Generate(ctx context.Context, prompt, model string) ([]byte, error) {
	if c.apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrEmptyPrompt
	}
	if model == "" {
		model = DefaultModel
	}

	body, err := json.Marshal(models.PredictRequest{
		Instances:  []models.Instance{{Prompt: prompt + promptSuffix}},
		Parameters: models.Parameters{SampleCount: 1, AspectRatio: "1:1"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:predict", c.baseUrl, url.PathEscape(model))

	var lastErr error
	for attempt := range maxAttempts {
		if attempt > 0 {
			delay := c.delays[min(attempt-1, len(c.delays)-1)]
			log.Printf("Retrying image generation in %s (attempt %d/%d): %v", delay, attempt+1, maxAttempts, lastErr)
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		data, retry, err := c.predict(ctx, endpoint, body)
		if err == nil {
			return data, nil
		}
		if !retry {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (c *GeminiClient) predict(ctx context.Context, endpoint string, body []byte) ([]byte, bool, error) {
	log.Printf("Requesting image: %s", endpoint)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	res, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, fmt.Errorf("failed to fetch from %s: %w", endpoint, err)
	}
	defer func() {
		_ = res.Body.Close()
	}()

	if res.StatusCode > 299 {
		msg := errorMessage(res.Body)
		switch {
		case res.StatusCode == http.StatusUnauthorized || res.StatusCode == http.StatusForbidden:
			return nil, false, fmt.Errorf("%w: %s", ErrUnauthorized, msg)
		case res.StatusCode == http.StatusNotFound:
			return nil, false, fmt.Errorf("%w: %s", ErrModelNotFound, msg)
		case res.StatusCode == http.StatusTooManyRequests:
			return nil, true, fmt.Errorf("%w: %s", ErrRateLimited, msg)
		default:
			return nil, res.StatusCode >= 500, &ServiceError{StatusCode: res.StatusCode, Message: msg}
		}
	}

	var resp models.PredictResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, false, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(resp.Predictions) == 0 || resp.Predictions[0].BytesBase64Encoded == "" {
		return nil, false, ErrNoImage
	}

	data, err := base64.StdEncoding.DecodeString(resp.Predictions[0].BytesBase64Encoded)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode image payload: %w", err)
	}
	return data, false, nil
}

func errorMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil {
		return ""
	}
	var er models.ErrorResponse
	if err := json.Unmarshal(raw, &er); err == nil && er.Error.Message != "" {
		return er.Error.Message
	}
	return strings.TrimSpace(string(raw))
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsRetryable reports whether err came from a failure worth retrying later.
func IsRetryable(err error) bool {
	var se *ServiceError
	return errors.Is(err, ErrRateLimited) || (errors.As(err, &se) && se.StatusCode >= 500)
}

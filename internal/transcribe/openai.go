package transcribe

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/util"
	"github.com/ppiankov/truthweaver/internal/worker"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// Confidence reported when the engine returns text without segment scores
const unscoredConfidence = 0.5

// retryBaseDelay is the first backoff step between attempts (overridden in tests)
var retryBaseDelay = time.Second

// WhisperTranscriber transcribes recordings with the OpenAI audio API
type WhisperTranscriber struct {
	client     *openai.Client
	config     model.TranscriptionConfig
	limiter    *worker.Limiter
	limiterKey string
	logger     *zap.Logger
}

// NewWhisperTranscriber creates a Whisper transcriber. The limiter may be
// nil to disable client-side throttling.
func NewWhisperTranscriber(cfg model.TranscriptionConfig, httpCfg model.HTTPConfig, limiter *worker.Limiter, logger *zap.Logger) (*WhisperTranscriber, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(httpCfg.HTTPProxy, httpCfg.HTTPSProxy, httpCfg.NoProxy),
		},
	}

	return &WhisperTranscriber{
		client:     openai.NewClientWithConfig(clientConfig),
		config:     cfg,
		limiter:    limiter,
		limiterKey: clientConfig.BaseURL,
		logger:     logger.With(zap.String("provider", "openai")),
	}, nil
}

// Name returns the provider name
func (w *WhisperTranscriber) Name() string {
	return "openai"
}

// Transcribe uploads the recording and scores the returned segments
func (w *WhisperTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	modelName := w.config.Model
	if modelName == "" {
		modelName = openai.Whisper1
	}

	req := openai.AudioRequest{
		Model:    modelName,
		FilePath: path,
		Language: w.config.Language,
		Format:   openai.AudioResponseFormatVerboseJSON,
	}

	maxRetries := w.config.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx, w.limiterKey); err != nil {
				return nil, fmt.Errorf("rate limit: %w", err)
			}
		}

		resp, err := w.client.CreateTranscription(ctx, req)
		if err == nil {
			return transcriptFromResponse(path, resp)
		}

		lastErr = err
		if !isRetryable(err) || attempt == maxRetries-1 {
			break
		}

		backoff := time.Duration(1<<uint(attempt)) * retryBaseDelay
		w.logger.Warn("transcription failed, retrying",
			zap.String("path", path),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", backoff),
			zap.Error(err),
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("OpenAI transcription of %s: %w", path, lastErr)
}

func transcriptFromResponse(path string, resp openai.AudioResponse) (*Transcript, error) {
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrNoTranscript)
	}

	if len(resp.Segments) == 0 {
		return &Transcript{Text: text, Confidence: unscoredConfidence}, nil
	}

	// avg_logprob is a mean token log-probability; exp maps it back to [0,1]
	var sum float64
	for _, seg := range resp.Segments {
		sum += math.Exp(seg.AvgLogprob)
	}

	return &Transcript{
		Text:       text,
		Confidence: clampConfidence(sum / float64(len(resp.Segments))),
	}, nil
}

// isRetryable reports transient API failures: rate limits and server errors
func isRetryable(err error) bool {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		s := strings.ToLower(err.Error())
		return strings.Contains(s, "timeout") ||
			strings.Contains(s, "connection refused") ||
			strings.Contains(s, "connection reset")
	}

	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

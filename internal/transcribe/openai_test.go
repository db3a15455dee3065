package transcribe

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/worker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWhisper(t *testing.T, url string, retries int) *WhisperTranscriber {
	t.Helper()
	w, err := NewWhisperTranscriber(model.TranscriptionConfig{
		Provider:   "openai",
		APIKey:     "sk-test",
		BaseURL:    url,
		Language:   "en",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	}, model.HTTPConfig{}, worker.NewLimiter(100, 10), nil)
	require.NoError(t, err)
	return w
}

func setRetryBaseDelay(t *testing.T, d time.Duration) {
	t.Helper()
	old := retryBaseDelay
	retryBaseDelay = d
	t.Cleanup(func() { retryBaseDelay = old })
}

func TestWhisperTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))
		assert.Equal(t, "en", r.FormValue("language"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"task": "transcribe",
			"language": "english",
			"text": " I have 3 years of Go. ",
			"segments": [
				{"id": 0, "text": "I have 3 years", "avg_logprob": 0},
				{"id": 1, "text": "of Go.", "avg_logprob": -0.6931471805599453}
			]
		}`))
	}))
	defer server.Close()

	audio := writeFile(t, t.TempDir(), "s.mp3", "audio")
	tr, err := newTestWhisper(t, server.URL, 1).Transcribe(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, "I have 3 years of Go.", tr.Text)
	// mean of exp(0)=1 and exp(-ln 2)=0.5
	assert.InDelta(t, 0.75, tr.Confidence, 1e-9)
}

func TestWhisperTranscribeRetriesRateLimit(t *testing.T) {
	setRetryBaseDelay(t, time.Millisecond)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "slow down", "type": "rate_limit_error"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"text": "second time lucky"}`))
	}))
	defer server.Close()

	audio := writeFile(t, t.TempDir(), "s.mp3", "audio")
	tr, err := newTestWhisper(t, server.URL, 3).Transcribe(context.Background(), audio)
	require.NoError(t, err)

	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, "second time lucky", tr.Text)
	assert.Equal(t, unscoredConfidence, tr.Confidence)
}

func TestWhisperTranscribeDoesNotRetryClientErrors(t *testing.T) {
	setRetryBaseDelay(t, time.Millisecond)

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": {"message": "bad file", "type": "invalid_request_error"}}`))
	}))
	defer server.Close()

	audio := writeFile(t, t.TempDir(), "s.mp3", "audio")
	_, err := newTestWhisper(t, server.URL, 3).Transcribe(context.Background(), audio)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestWhisperTranscribeEmptyText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"text": "   "}`))
	}))
	defer server.Close()

	audio := writeFile(t, t.TempDir(), "s.mp3", "audio")
	_, err := newTestWhisper(t, server.URL, 1).Transcribe(context.Background(), audio)
	assert.ErrorIs(t, err, ErrNoTranscript)
}

func TestNewWhisperTranscriberRequiresKey(t *testing.T) {
	_, err := NewWhisperTranscriber(model.TranscriptionConfig{}, model.HTTPConfig{}, nil, nil)
	assert.Error(t, err)
}

func TestIsRetryable(t *testing.T) {
	assert.False(t, isRetryable(assert.AnError))
	assert.True(t, isRetryable(errString("dial tcp: connection refused")))
	assert.True(t, isRetryable(errString("context deadline exceeded (Client.Timeout exceeded)")))
	assert.False(t, isRetryable(errString("permission denied")))
}

func TestTranscriptFromResponseClamps(t *testing.T) {
	assert.Equal(t, 1.0, clampConfidence(math.Exp(0.5)))
	assert.Equal(t, 0.0, clampConfidence(-0.1))
}

type errString string

func (e errString) Error() string { return string(e) }

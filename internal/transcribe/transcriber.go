// Package transcribe turns testimony recordings into text. Speech
// recognition itself is delegated: either to a remote engine or to
// transcript files produced ahead of time next to each recording.
package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/worker"
	"go.uber.org/zap"
)

// ErrNoTranscript is returned when a source yields no usable text
var ErrNoTranscript = errors.New("no transcript available")

// Transcript is the text of one recording with the engine's confidence
type Transcript struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcriber converts one recording into a transcript
type Transcriber interface {
	// Name returns the provider name
	Name() string

	// Transcribe returns the transcript of the recording at path
	Transcribe(ctx context.Context, path string) (*Transcript, error)
}

// NewTranscriber creates the transcriber selected by configuration. Remote
// engines are wrapped in a transcript cache when caching is enabled; sidecar
// files are always read fresh.
func NewTranscriber(cfg *model.Config, limiter *worker.Limiter, logger *zap.Logger) (Transcriber, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var t Transcriber
	switch strings.ToLower(cfg.Transcription.Provider) {
	case "", "sidecar":
		t = NewSidecarTranscriber()
	case "openai", "whisper":
		w, err := NewWhisperTranscriber(cfg.Transcription, cfg.HTTP, limiter, logger)
		if err != nil {
			return nil, err
		}
		t = w
		if cfg.Cache.Enabled {
			t = NewCachedTranscriber(w, cfg.Cache, logger)
		}
	case "mock":
		t = NewMockTranscriber(nil)
	default:
		return nil, fmt.Errorf("unknown transcription provider: %s (supported: sidecar, openai, mock)", cfg.Transcription.Provider)
	}

	return t, nil
}

func clampConfidence(c float64) float64 {
	switch {
	case c < 0:
		return 0
	case c > 1:
		return 1
	default:
		return c
	}
}

package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// Confidence assigned to hand-made transcripts that carry no score
const manualConfidence = 1.0

// SidecarTranscriber reads transcripts prepared next to each recording:
// for session1.mp3 it looks for session1.json, session1.txt and
// session1.html in that order. A path that is itself a transcript file is
// read directly.
type SidecarTranscriber struct {
	extensions []string
}

// NewSidecarTranscriber creates a sidecar transcriber
func NewSidecarTranscriber() *SidecarTranscriber {
	return &SidecarTranscriber{
		extensions: []string{".json", ".txt", ".html", ".htm"},
	}
}

// Name returns the provider name
func (s *SidecarTranscriber) Name() string {
	return "sidecar"
}

// Transcribe loads the sidecar transcript for path
func (s *SidecarTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	candidates := s.candidates(path)
	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read transcript: %w", err)
		}

		t, err := parseSidecar(candidate, data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", candidate, err)
		}
		if strings.TrimSpace(t.Text) == "" {
			return nil, fmt.Errorf("%s: %w", candidate, ErrNoTranscript)
		}
		return t, nil
	}

	return nil, fmt.Errorf("%s: no sidecar transcript (tried %s): %w", path, strings.Join(candidates, ", "), ErrNoTranscript)
}

func (s *SidecarTranscriber) candidates(path string) []string {
	ext := strings.ToLower(filepath.Ext(path))
	for _, known := range s.extensions {
		if ext == known {
			return []string{path}
		}
	}

	base := strings.TrimSuffix(path, filepath.Ext(path))
	candidates := make([]string, 0, len(s.extensions))
	for _, e := range s.extensions {
		candidates = append(candidates, base+e)
	}
	return candidates
}

// sidecarJSON accepts both the "transcription" and "text" spellings used by
// speech engines' raw responses
type sidecarJSON struct {
	Transcription string   `json:"transcription"`
	Text          string   `json:"text"`
	Confidence    *float64 `json:"confidence"`
}

func parseSidecar(path string, data []byte) (*Transcript, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		var raw sidecarJSON
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, err
		}
		text := raw.Transcription
		if text == "" {
			text = raw.Text
		}
		confidence := manualConfidence
		if raw.Confidence != nil {
			confidence = clampConfidence(*raw.Confidence)
		}
		return &Transcript{Text: strings.TrimSpace(text), Confidence: confidence}, nil

	case ".html", ".htm":
		text, err := VisibleText(string(data))
		if err != nil {
			return nil, err
		}
		return &Transcript{Text: text, Confidence: manualConfidence}, nil

	default:
		return &Transcript{Text: strings.TrimSpace(string(data)), Confidence: manualConfidence}, nil
	}
}

package transcribe

import (
	"context"
	"fmt"
	"path/filepath"
)

// MockTranscriber returns canned transcripts keyed by file base name
type MockTranscriber struct {
	transcripts map[string]Transcript
}

// NewMockTranscriber creates a mock transcriber. Unknown files get a fixed
// placeholder transcript.
func NewMockTranscriber(transcripts map[string]Transcript) *MockTranscriber {
	if transcripts == nil {
		transcripts = map[string]Transcript{}
	}
	return &MockTranscriber{transcripts: transcripts}
}

// Name returns the provider name
func (m *MockTranscriber) Name() string {
	return "mock"
}

// Transcribe returns the canned transcript for path
func (m *MockTranscriber) Transcribe(ctx context.Context, path string) (*Transcript, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if t, ok := m.transcripts[filepath.Base(path)]; ok {
		if t.Text == "" {
			return nil, fmt.Errorf("%s: %w", path, ErrNoTranscript)
		}
		return &t, nil
	}

	return &Transcript{
		Text:       fmt.Sprintf("Mock recognition for %s: I have 2 years of Python.", filepath.Base(path)),
		Confidence: 0.95,
	}, nil
}

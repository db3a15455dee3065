package extract

import (
	"testing"

	"github.com/ppiankov/truthweaver/internal/model"
)

func TestEmotionClassifier_RuleOrder(t *testing.T) {
	classifier := NewEmotionClassifier(nil)

	tests := []struct {
		transcript string
		want       model.EmotionalState
	}{
		{"I was crying the whole time", model.EmotionDistressed},
		{"Stop asking me!", model.EmotionAgitated},
		{"I can barely talk", model.EmotionFearful},
		{"I am confident in my work", model.EmotionConfident},
		{"I wrote some code", model.EmotionNeutral},
		// Distressed is checked before agitated
		{"Sobbing and shouting!", model.EmotionDistressed},
	}

	for _, tt := range tests {
		if got := classifier.Classify(tt.transcript); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.transcript, got, tt.want)
		}
	}
}

func TestSessionBuilder_Record(t *testing.T) {
	builder := NewSessionBuilder(nil)

	tests := []struct {
		confidence float64
		want       model.QualityTier
	}{
		{0.95, model.QualityClear},
		{0.8, model.QualityModerate},
		{0.6, model.QualityModerate},
		{0.5, model.QualityPoor},
		{0.0, model.QualityPoor},
	}

	for _, tt := range tests {
		record := builder.Record(2, "s2.mp3", "I am sure about it", tt.confidence)
		if record.Quality != tt.want {
			t.Errorf("confidence %.2f: expected %s, got %s", tt.confidence, tt.want, record.Quality)
		}
		if record.Index != 2 || record.Source != "s2.mp3" {
			t.Errorf("unexpected identity fields: %+v", record)
		}
		if record.Emotion != model.EmotionConfident {
			t.Errorf("expected confident, got %s", record.Emotion)
		}
	}
}

func TestSessionBuilder_EvidenceSkipsUnusable(t *testing.T) {
	builder := NewSessionBuilder(nil)

	sessions := []model.SessionRecord{
		builder.Record(1, "a.mp3", "Python for 3 years", 0.9),
		{Index: 2, Source: "b.mp3", Error: "transcription failed"},
		{Index: 3, Source: "c.mp3"},
		builder.Record(4, "d.mp3", "Go for 7 years", 0.7),
	}

	evidence := builder.Evidence(sessions)

	if len(evidence) != 2 {
		t.Fatalf("Expected 2 usable sessions, got %d", len(evidence))
	}
	if evidence[0].Index != 1 || evidence[1].Index != 4 {
		t.Errorf("Expected session order 1, 4; got %d, %d", evidence[0].Index, evidence[1].Index)
	}
	if len(evidence[1].Claims.Skills) != 1 || evidence[1].Claims.Skills[0] != "go" {
		t.Errorf("Expected go skill in session 4, got %v", evidence[1].Claims.Skills)
	}
}

func TestSessionBuilder_EvidenceEmpty(t *testing.T) {
	builder := NewSessionBuilder(nil)

	evidence := builder.Evidence(nil)
	if evidence == nil || len(evidence) != 0 {
		t.Errorf("Expected empty non-nil evidence, got %v", evidence)
	}
}

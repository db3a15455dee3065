package extract

import (
	"strings"

	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/model"
)

// EmotionClassifier tags a transcript with an emotional state
type EmotionClassifier struct {
	rules   []lexicon.EmotionRule
	matcher lexicon.Matcher
}

// NewEmotionClassifier creates a classifier from the lexicon's ordered rules
func NewEmotionClassifier(lex *lexicon.Lexicon) *EmotionClassifier {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &EmotionClassifier{
		rules:   lex.Emotion,
		matcher: lex.Matcher(),
	}
}

// Classify returns the state of the first rule with a matching phrase
func (c *EmotionClassifier) Classify(transcript string) model.EmotionalState {
	text := strings.ToLower(transcript)
	for _, rule := range c.rules {
		if c.matcher.ContainsAny(text, rule.Phrases) {
			return rule.State
		}
	}
	return model.EmotionNeutral
}

// SessionBuilder turns raw transcripts into session records and analysis input
type SessionBuilder struct {
	claims  *ClaimExtractor
	emotion *EmotionClassifier
}

// NewSessionBuilder creates a session builder over the given lexicon
func NewSessionBuilder(lex *lexicon.Lexicon) *SessionBuilder {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &SessionBuilder{
		claims:  NewClaimExtractor(lex),
		emotion: NewEmotionClassifier(lex),
	}
}

// Record derives the immutable session record for a transcript
func (b *SessionBuilder) Record(index int, source, transcript string, confidence float64) model.SessionRecord {
	return model.SessionRecord{
		Index:      index,
		Source:     source,
		Transcript: transcript,
		Confidence: confidence,
		Quality:    model.QualityFromConfidence(confidence),
		Emotion:    b.emotion.Classify(transcript),
	}
}

// Evidence extracts the claim set of every usable session, preserving order
func (b *SessionBuilder) Evidence(sessions []model.SessionRecord) []model.SessionEvidence {
	evidence := []model.SessionEvidence{}
	for _, s := range sessions {
		if !s.Usable() {
			continue
		}
		evidence = append(evidence, model.SessionEvidence{
			Index:      s.Index,
			Transcript: s.Transcript,
			Claims:     b.claims.Extract(s.Transcript),
		})
	}
	return evidence
}

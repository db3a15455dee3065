package model

// SessionRecord represents one transcribed testimony recording
type SessionRecord struct {
	Index      int            `json:"session_index"` // 1-based position of the input file
	Source     string         `json:"source"`
	Transcript string         `json:"transcript"`
	Confidence float64        `json:"transcription_confidence"`
	Quality    QualityTier    `json:"audio_quality"`
	Emotion    EmotionalState `json:"emotional_state"`
	Error      string         `json:"error,omitempty"` // Set when transcription failed
}

// Usable reports whether the session carries a transcript the analysis can use
func (s SessionRecord) Usable() bool {
	return s.Error == "" && s.Transcript != ""
}

// QualityTier classifies audio quality from transcription confidence
type QualityTier string

const (
	QualityClear    QualityTier = "clear"
	QualityModerate QualityTier = "moderate"
	QualityPoor     QualityTier = "poor"
)

// QualityFromConfidence maps a transcription confidence to a quality tier
func QualityFromConfidence(confidence float64) QualityTier {
	switch {
	case confidence > 0.8:
		return QualityClear
	case confidence > 0.5:
		return QualityModerate
	default:
		return QualityPoor
	}
}

// EmotionalState tags the dominant affect detected in a transcript
type EmotionalState string

const (
	EmotionDistressed EmotionalState = "distressed"
	EmotionAgitated   EmotionalState = "agitated"
	EmotionFearful    EmotionalState = "fearful"
	EmotionConfident  EmotionalState = "confident"
	EmotionNeutral    EmotionalState = "neutral"
)

// SessionEvidence is the unit the analysis consumes: a transcript paired
// with the claims extracted from it
type SessionEvidence struct {
	Index      int
	Transcript string
	Claims     ClaimSet
}

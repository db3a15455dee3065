package analyze

import (
	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/model"
)

// Analyzer runs the detector and the reconciler over one case
type Analyzer struct {
	detector   *Detector
	reconciler *Reconciler
}

// NewAnalyzer creates an analyzer sharing one lexicon
func NewAnalyzer(lex *lexicon.Lexicon, skillSpreadThreshold int) *Analyzer {
	return &Analyzer{
		detector:   NewDetector(skillSpreadThreshold),
		reconciler: NewReconciler(lex),
	}
}

// Analyze assembles the case report for shadowID
func (a *Analyzer) Analyze(shadowID string, sessions []model.SessionEvidence) *model.CaseReport {
	return &model.CaseReport{
		ShadowID:          shadowID,
		RevealedTruth:     a.reconciler.Reconcile(sessions),
		DeceptionPatterns: a.detector.Detect(sessions),
	}
}

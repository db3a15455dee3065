package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ppiankov/truthweaver/internal/analyze"
	"github.com/ppiankov/truthweaver/internal/extract"
	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/transcribe"
	"go.uber.org/zap"
)

// Pipeline orchestrates the analysis of one subject's recordings
type Pipeline struct {
	transcriber transcribe.Transcriber
	sessions    *extract.SessionBuilder
	analyzer    *analyze.Analyzer
	renderer    *Renderer
	config      *model.Config
	logger      *zap.Logger
	now         func() time.Time
}

// NewPipeline creates a new pipeline. A nil lexicon uses the built-in
// vocabulary.
func NewPipeline(cfg *model.Config, lex *lexicon.Lexicon, transcriber transcribe.Transcriber, logger *zap.Logger) *Pipeline {
	if lex == nil {
		lex = lexicon.Default()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Pipeline{
		transcriber: transcriber,
		sessions:    extract.NewSessionBuilder(lex),
		analyzer:    analyze.NewAnalyzer(lex, cfg.Analysis.SkillSpreadThreshold),
		renderer:    NewRenderer(),
		config:      cfg,
		logger:      logger,
		now:         time.Now,
	}
}

// ProcessCase transcribes every recording in order and analyzes the
// sessions. Recordings that fail to transcribe are kept as failed sessions
// and excluded from the analysis.
func (p *Pipeline) ProcessCase(ctx context.Context, shadowID string, files []string) (*model.CaseResult, error) {
	shadowID = strings.TrimSpace(shadowID)
	if shadowID == "" {
		return nil, fmt.Errorf("shadow id is required")
	}

	log := p.logger.With(zap.String("shadow_id", shadowID))

	var (
		records    = make([]model.SessionRecord, 0, len(files))
		transcript strings.Builder
	)

	for i, file := range files {
		index := i + 1
		log.Info("processing session", zap.Int("session", index), zap.String("file", file))

		t, err := p.transcriber.Transcribe(ctx, file)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, fmt.Errorf("case %s: %w", shadowID, ctxErr)
			}
			log.Warn("transcription failed", zap.Int("session", index), zap.String("file", file), zap.Error(err))
			records = append(records, failedSession(index, file, err))
			continue
		}

		record := p.sessions.Record(index, file, t.Text, t.Confidence)
		records = append(records, record)

		if record.Usable() {
			fmt.Fprintf(&transcript, "Session %d:\n%s\n\n", index, record.Transcript)
		}
	}

	evidence := p.sessions.Evidence(records)
	report := p.analyzer.Analyze(shadowID, evidence)

	log.Info("case analyzed",
		zap.Int("sessions", len(records)),
		zap.Int("usable", len(evidence)),
		zap.Int("contradictions", len(report.DeceptionPatterns)),
	)

	return &model.CaseResult{
		Report:      report,
		Sessions:    records,
		Transcript:  transcript.String(),
		ProcessedAt: p.now().UTC(),
	}, nil
}

func failedSession(index int, file string, err error) model.SessionRecord {
	return model.SessionRecord{
		Index:   index,
		Source:  file,
		Quality: model.QualityPoor,
		Emotion: model.EmotionNeutral,
		Error:   err.Error(),
	}
}

// OutputPaths lists the files written for one case
type OutputPaths struct {
	JSON       string
	Transcript string
	Markdown   string
}

// RenderResult writes the case artifacts into dir. The Markdown report is
// written only when markdown is set.
func (p *Pipeline) RenderResult(result *model.CaseResult, dir string, markdown bool) (*OutputPaths, error) {
	id := SanitizeFilename(result.Report.ShadowID)
	paths := &OutputPaths{
		JSON:       filepath.Join(dir, id+"_analysis.json"),
		Transcript: filepath.Join(dir, id+"_transcript.txt"),
	}

	if err := p.renderer.RenderJSON(result.Report, paths.JSON); err != nil {
		return nil, fmt.Errorf("render JSON: %w", err)
	}
	if err := p.renderer.RenderTranscript(result.Transcript, paths.Transcript); err != nil {
		return nil, fmt.Errorf("render transcript: %w", err)
	}

	if markdown {
		paths.Markdown = filepath.Join(dir, id+"_analysis.md")
		if err := p.renderer.RenderMarkdown(result, paths.Markdown); err != nil {
			return nil, fmt.Errorf("render markdown: %w", err)
		}
	}

	p.logger.Debug("wrote case artifacts", zap.String("shadow_id", id), zap.String("dir", dir))
	return paths, nil
}

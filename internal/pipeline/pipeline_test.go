package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/truthweaver/internal/model"
	"github.com/ppiankov/truthweaver/internal/transcribe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sessionOne   = "I have 6 years of Python and I am an expert with Flask. I was the team lead."
	sessionThree = "Maybe 2 years of Python, working alone."
)

func newTestPipeline() *Pipeline {
	tr := transcribe.NewMockTranscriber(map[string]transcribe.Transcript{
		"s1.mp3": {Text: sessionOne, Confidence: 0.91},
		"s2.mp3": {},
		"s3.mp3": {Text: sessionThree, Confidence: 0.55},
	})
	p := NewPipeline(model.DefaultConfig(), nil, tr, nil)
	p.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return p
}

func TestProcessCase(t *testing.T) {
	result, err := newTestPipeline().ProcessCase(context.Background(), "phoenix_2024", []string{"s1.mp3", "s2.mp3", "s3.mp3"})
	require.NoError(t, err)

	report := result.Report
	assert.Equal(t, "phoenix_2024", report.ShadowID)

	truth := report.RevealedTruth
	assert.Equal(t, "2-6 years", truth.ProgrammingExperience)
	assert.Equal(t, "python", truth.PrimaryLanguage)
	assert.Equal(t, model.MasteryIntermediate, truth.SkillMastery)
	assert.Equal(t, model.LeadershipFabricated, truth.LeadershipClaims)
	assert.Equal(t, model.TeamIndividual, truth.TeamExperience)
	assert.Equal(t, []string{"flask", "python"}, truth.Skills)

	require.Len(t, report.DeceptionPatterns, 1)
	assert.Equal(t, model.LieExperienceInflation, report.DeceptionPatterns[0].LieType)
	assert.Equal(t, []string{"2 years", "6 years"}, report.DeceptionPatterns[0].Evidence)

	require.Len(t, result.Sessions, 3)
	assert.Equal(t, model.QualityClear, result.Sessions[0].Quality)
	assert.NotEmpty(t, result.Sessions[1].Error)
	assert.False(t, result.Sessions[1].Usable())
	assert.Equal(t, 3, result.Sessions[2].Index)
	assert.Equal(t, model.QualityModerate, result.Sessions[2].Quality)
	assert.Equal(t, 2, result.UsableSessions())

	assert.Equal(t, "Session 1:\n"+sessionOne+"\n\nSession 3:\n"+sessionThree+"\n\n", result.Transcript)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), result.ProcessedAt)
}

func TestProcessCaseNoFiles(t *testing.T) {
	result, err := newTestPipeline().ProcessCase(context.Background(), "ghost", nil)
	require.NoError(t, err)

	assert.Equal(t, model.DefaultTruthProfile(), result.Report.RevealedTruth)
	assert.Empty(t, result.Report.DeceptionPatterns)
	assert.NotNil(t, result.Report.DeceptionPatterns)
	assert.Empty(t, result.Transcript)
}

func TestProcessCaseAllFailed(t *testing.T) {
	result, err := newTestPipeline().ProcessCase(context.Background(), "ghost", []string{"s2.mp3"})
	require.NoError(t, err)

	assert.Equal(t, model.DefaultTruthProfile(), result.Report.RevealedTruth)
	assert.Equal(t, 0, result.UsableSessions())
}

func TestProcessCaseRequiresShadowID(t *testing.T) {
	_, err := newTestPipeline().ProcessCase(context.Background(), "  ", []string{"s1.mp3"})
	assert.Error(t, err)
}

func TestProcessCaseCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestPipeline().ProcessCase(ctx, "phoenix_2024", []string{"s1.mp3"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRenderResult(t *testing.T) {
	p := newTestPipeline()
	result, err := p.ProcessCase(context.Background(), "phoenix_2024", []string{"s1.mp3", "s2.mp3", "s3.mp3"})
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	paths, err := p.RenderResult(result, dir, true)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "phoenix_2024_analysis.json"), paths.JSON)
	assert.Equal(t, filepath.Join(dir, "phoenix_2024_transcript.txt"), paths.Transcript)
	assert.Equal(t, filepath.Join(dir, "phoenix_2024_analysis.md"), paths.Markdown)

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "phoenix_2024", decoded["shadow_id"])
	truth := decoded["revealed_truth"].(map[string]any)
	assert.Equal(t, "2-6 years", truth["programming_experience"])
	assert.Contains(t, truth, "skills and other keywords")
	patterns := decoded["deception_patterns"].([]any)
	assert.Equal(t, "experience_inflation", patterns[0].(map[string]any)["lie_type"])
	assert.Contains(t, string(data), "\n  \"revealed_truth\": {")

	transcript, err := os.ReadFile(paths.Transcript)
	require.NoError(t, err)
	assert.Equal(t, result.Transcript, string(transcript))

	md, err := os.ReadFile(paths.Markdown)
	require.NoError(t, err)
	assert.Contains(t, string(md), "# Truth Weaver Analysis: phoenix_2024")
	assert.Contains(t, string(md), "**experience_inflation**: 2 years; 6 years")
	assert.Contains(t, string(md), "failed: ")
}

func TestRenderResultWithoutMarkdown(t *testing.T) {
	p := newTestPipeline()
	result, err := p.ProcessCase(context.Background(), "ghost", nil)
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := p.RenderResult(result, dir, false)
	require.NoError(t, err)
	assert.Empty(t, paths.Markdown)

	_, err = os.Stat(filepath.Join(dir, "ghost_analysis.md"))
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(paths.JSON)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"shadow_id": "ghost",
		"revealed_truth": {
			"programming_experience": "unspecified",
			"programming_language": "unspecified",
			"skill_mastery": "beginner",
			"leadership_claims": "no claims made",
			"team_experience": "individual contributor",
			"skills and other keywords": []
		},
		"deception_patterns": []
	}`, string(data))
}

func TestRenderSummary(t *testing.T) {
	result, err := newTestPipeline().ProcessCase(context.Background(), "phoenix_2024", []string{"s1.mp3", "s2.mp3", "s3.mp3"})
	require.NoError(t, err)

	var buf bytes.Buffer
	NewRenderer().RenderSummary(&buf, result)

	out := buf.String()
	assert.Contains(t, out, "Case: phoenix_2024 (2/3 sessions usable)")
	assert.Contains(t, out, "experience_inflation: 2 years, 6 years")
}

func TestMarshalReportDoesNotEscapeHTML(t *testing.T) {
	data, err := MarshalReport(&model.CaseReport{
		ShadowID:          "a<b>&c",
		RevealedTruth:     model.DefaultTruthProfile(),
		DeceptionPatterns: []model.Contradiction{},
	})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"shadow_id": "a<b>&c"`)
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"phoenix_2024", "phoenix_2024"},
		{"../etc/passwd", "_etc_passwd"},
		{"agent: x?", "agent_-x_"},
		{"  ", "case"},
		{strings.Repeat("a", 120), strings.Repeat("a", 100)},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), "input %q", tt.in)
	}
}

func TestSanitizeFilenameKeepsRunesWhole(t *testing.T) {
	// 1 + 60*2 bytes; byte 100 falls inside an "é"
	id := "a" + strings.Repeat("é", 60)

	got := SanitizeFilename(id)

	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, "a"+strings.Repeat("é", 49), got)
	assert.LessOrEqual(t, len(got), 100)
}

package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/truthweaver/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "archive", "truthweaver.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleResult(shadowID string, at time.Time) *model.CaseResult {
	truth := model.DefaultTruthProfile()
	truth.ProgrammingExperience = "2-6 years"
	truth.Skills = []string{"go", "python"}

	return &model.CaseResult{
		Report: &model.CaseReport{
			ShadowID:      shadowID,
			RevealedTruth: truth,
			DeceptionPatterns: []model.Contradiction{
				{LieType: model.LieExperienceInflation, Evidence: []string{"2 years", "6 years"}},
			},
		},
		Sessions: []model.SessionRecord{
			{Index: 1, Source: "s1.mp3", Transcript: "I have 2 years of Go", Confidence: 0.9, Quality: model.QualityClear, Emotion: model.EmotionNeutral},
			{Index: 2, Source: "s2.mp3", Quality: model.QualityPoor, Emotion: model.EmotionNeutral, Error: "no transcript available"},
		},
		Transcript:  "Session 1:\nI have 2 years of Go\n\n",
		ProcessedAt: at,
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 500, time.UTC)

	id, err := s.Save(ctx, sampleResult("phoenix_2024", at))
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err)

	run, err := s.Get(ctx, id)
	require.NoError(t, err)

	assert.Equal(t, id, run.ID)
	assert.Equal(t, "phoenix_2024", run.ShadowID)
	assert.True(t, at.Equal(run.ProcessedAt))
	assert.Equal(t, 2, run.SessionCount)
	assert.Equal(t, 1, run.UsableSessions)
	assert.Equal(t, 1, run.Contradictions)
	assert.Equal(t, sampleResult("phoenix_2024", at).Report, run.Report)
	assert.Equal(t, "Session 1:\nI have 2 years of Go\n\n", run.Transcript)

	require.Len(t, run.Sessions, 2)
	assert.Equal(t, "s1.mp3", run.Sessions[0].Source)
	assert.Equal(t, model.QualityClear, run.Sessions[0].Quality)
	assert.Equal(t, "no transcript available", run.Sessions[1].Error)
}

func TestGetNotFound(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestList(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first, err := s.Save(ctx, sampleResult("phoenix_2024", base))
	require.NoError(t, err)
	_, err = s.Save(ctx, sampleResult("raven_7", base.Add(time.Minute)))
	require.NoError(t, err)
	latest, err := s.Save(ctx, sampleResult("phoenix_2024", base.Add(90*time.Second+time.Millisecond)))
	require.NoError(t, err)

	all, err := s.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, latest, all[0].ID)
	assert.Equal(t, "raven_7", all[1].ShadowID)
	assert.Equal(t, first, all[2].ID)

	phoenix, err := s.List(ctx, "phoenix_2024", 0)
	require.NoError(t, err)
	require.Len(t, phoenix, 2)
	assert.Equal(t, latest, phoenix[0].ID)

	limited, err := s.List(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := s.List(ctx, "nobody", 0)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSaveRejectsEmptyResult(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Save(context.Background(), nil)
	assert.Error(t, err)
	_, err = s.Save(context.Background(), &model.CaseResult{})
	assert.Error(t, err)
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "truthweaver.db")
	ctx := context.Background()

	s, err := Open(path, nil)
	require.NoError(t, err)
	id, err := s.Save(ctx, sampleResult("phoenix_2024", time.Now()))
	require.NoError(t, err)
	require.NoError(t, s.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "phoenix_2024", run.ShadowID)
}

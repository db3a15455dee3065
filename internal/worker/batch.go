package worker

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/truthweaver/internal/model"
	"gopkg.in/yaml.v3"
)

// CaseProcessor analyzes one subject's recordings
type CaseProcessor interface {
	ProcessCase(ctx context.Context, shadowID string, files []string) (*model.CaseResult, error)
}

// CaseSpec names a subject and its recordings in session order
type CaseSpec struct {
	ShadowID string   `yaml:"shadow_id"`
	Files    []string `yaml:"files"`
}

// Manifest lists the cases of a batch run
type Manifest struct {
	Cases []CaseSpec `yaml:"cases"`
}

// CaseJob represents one case analysis job
type CaseJob struct {
	Index     int
	Case      CaseSpec
	Processor CaseProcessor
}

// Execute executes the case job
func (j *CaseJob) Execute(ctx context.Context) Result {
	result, err := j.Processor.ProcessCase(ctx, j.Case.ShadowID, j.Case.Files)
	return &CaseOutcome{
		Index:    j.Index,
		ShadowID: j.Case.ShadowID,
		Result:   result,
		Error:    err,
	}
}

// CaseOutcome represents the result of a case job
type CaseOutcome struct {
	Index    int
	ShadowID string
	Result   *model.CaseResult
	Error    error
}

// GetError returns the error from the case outcome
func (r *CaseOutcome) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple cases concurrently
type BatchProcessor struct {
	processor   CaseProcessor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor CaseProcessor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessCases runs every case and returns outcomes in input order. Cases
// that never ran because ctx was cancelled carry the context error.
func (b *BatchProcessor) ProcessCases(ctx context.Context, cases []CaseSpec) []*CaseOutcome {
	outcomes := make([]*CaseOutcome, len(cases))
	if len(cases) == 0 {
		return outcomes
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, c := range cases {
		if !pool.Submit(&CaseJob{Index: i, Case: c, Processor: b.processor}) {
			break
		}
	}

	for _, r := range pool.Wait() {
		outcome := r.(*CaseOutcome)
		outcomes[outcome.Index] = outcome
	}

	for i, outcome := range outcomes {
		if outcome == nil {
			err := ctx.Err()
			if err == nil {
				err = context.Canceled
			}
			outcomes[i] = &CaseOutcome{Index: i, ShadowID: cases[i].ShadowID, Error: err}
		}
	}

	return outcomes
}

// ReadManifest reads a case manifest. Files ending in .yaml or .yml hold a
// "cases" list; anything else is read as text, one case per line:
//
//	shadow_id file1 file2 ...
//
// Relative recording paths are resolved against the manifest's directory.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}

	var manifest *Manifest
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		manifest = &Manifest{}
		if err := yaml.Unmarshal(data, manifest); err != nil {
			return nil, fmt.Errorf("parse manifest: %w", err)
		}
	default:
		manifest, err = parseTextManifest(data)
		if err != nil {
			return nil, err
		}
	}

	if err := manifest.normalize(filepath.Dir(path)); err != nil {
		return nil, err
	}
	return manifest, nil
}

func parseTextManifest(data []byte) (*Manifest, error) {
	manifest := &Manifest{}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		manifest.Cases = append(manifest.Cases, CaseSpec{
			ShadowID: fields[0],
			Files:    fields[1:],
		})
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan manifest: %w", err)
	}

	return manifest, nil
}

func (m *Manifest) normalize(baseDir string) error {
	seen := make(map[string]bool)

	for i := range m.Cases {
		c := &m.Cases[i]
		c.ShadowID = strings.TrimSpace(c.ShadowID)
		if c.ShadowID == "" {
			return fmt.Errorf("case %d: missing shadow_id", i+1)
		}
		if seen[c.ShadowID] {
			return fmt.Errorf("case %d: duplicate shadow_id %q", i+1, c.ShadowID)
		}
		seen[c.ShadowID] = true

		for j, f := range c.Files {
			if !filepath.IsAbs(f) {
				c.Files[j] = filepath.Join(baseDir, f)
			}
		}
	}

	return nil
}

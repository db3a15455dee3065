package pipeline

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ppiankov/truthweaver/internal/model"
)

// Renderer writes case artifacts
type Renderer struct{}

// NewRenderer creates a new renderer
func NewRenderer() *Renderer {
	return &Renderer{}
}

// MarshalReport encodes the report as 2-space indented JSON
func MarshalReport(report *model.CaseReport) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// RenderJSON writes the interoperable analysis artifact
func (r *Renderer) RenderJSON(report *model.CaseReport, path string) error {
	data, err := MarshalReport(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	return writeFile(path, data)
}

// RenderTranscript writes the combined session transcript
func (r *Renderer) RenderTranscript(transcript string, path string) error {
	return writeFile(path, []byte(transcript))
}

// RenderMarkdown writes a human-readable case report
func (r *Renderer) RenderMarkdown(result *model.CaseResult, path string) error {
	return writeFile(path, []byte(Markdown(result)))
}

// Markdown renders the case as a Markdown document
func Markdown(result *model.CaseResult) string {
	report := result.Report
	truth := report.RevealedTruth

	var b strings.Builder
	fmt.Fprintf(&b, "# Truth Weaver Analysis: %s\n\n", report.ShadowID)
	if !result.ProcessedAt.IsZero() {
		fmt.Fprintf(&b, "_Processed %s_\n\n", result.ProcessedAt.Format("2006-01-02 15:04:05 MST"))
	}

	b.WriteString("## Revealed Truth\n\n")
	b.WriteString("| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Programming experience | %s |\n", truth.ProgrammingExperience)
	fmt.Fprintf(&b, "| Primary language | %s |\n", truth.PrimaryLanguage)
	fmt.Fprintf(&b, "| Skill mastery | %s |\n", truth.SkillMastery)
	fmt.Fprintf(&b, "| Leadership claims | %s |\n", truth.LeadershipClaims)
	fmt.Fprintf(&b, "| Team experience | %s |\n", truth.TeamExperience)
	skills := "none"
	if len(truth.Skills) > 0 {
		skills = strings.Join(truth.Skills, ", ")
	}
	fmt.Fprintf(&b, "| Skills | %s |\n\n", skills)

	b.WriteString("## Deception Patterns\n\n")
	if len(report.DeceptionPatterns) == 0 {
		b.WriteString("No contradictions detected.\n\n")
	}
	for _, c := range report.DeceptionPatterns {
		fmt.Fprintf(&b, "- **%s**: %s\n", c.LieType, strings.Join(c.Evidence, "; "))
	}
	if len(report.DeceptionPatterns) > 0 {
		b.WriteString("\n")
	}

	if len(result.Sessions) > 0 {
		b.WriteString("## Sessions\n\n")
		b.WriteString("| # | Source | Confidence | Quality | Emotion | Status |\n|---|---|---|---|---|---|\n")
		for _, s := range result.Sessions {
			status := "ok"
			switch {
			case s.Error != "":
				status = "failed: " + escapeCell(s.Error)
			case !s.Usable():
				status = "empty"
			}
			fmt.Fprintf(&b, "| %d | %s | %.2f | %s | %s | %s |\n",
				s.Index, escapeCell(filepath.Base(s.Source)), s.Confidence, s.Quality, s.Emotion, status)
		}
	}

	return b.String()
}

// RenderSummary prints a short case summary
func (r *Renderer) RenderSummary(w io.Writer, result *model.CaseResult) {
	report := result.Report
	truth := report.RevealedTruth

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "Case: %s (%d/%d sessions usable)\n", report.ShadowID, result.UsableSessions(), len(result.Sessions))
	fmt.Fprintf(w, "%s\n", strings.Repeat("=", 60))
	fmt.Fprintf(w, "Experience:   %s\n", truth.ProgrammingExperience)
	fmt.Fprintf(w, "Language:     %s\n", truth.PrimaryLanguage)
	fmt.Fprintf(w, "Mastery:      %s\n", truth.SkillMastery)
	fmt.Fprintf(w, "Leadership:   %s\n", truth.LeadershipClaims)
	fmt.Fprintf(w, "Team:         %s\n", truth.TeamExperience)
	fmt.Fprintf(w, "Skills:       %d\n", len(truth.Skills))

	if len(report.DeceptionPatterns) == 0 {
		fmt.Fprintf(w, "Contradictions: none\n")
		return
	}
	fmt.Fprintf(w, "Contradictions:\n")
	for _, c := range report.DeceptionPatterns {
		fmt.Fprintf(w, "  - %s: %s\n", c.LieType, strings.Join(c.Evidence, ", "))
	}
}

// maxFilenameLen bounds the file name stem in bytes
const maxFilenameLen = 100

// SanitizeFilename makes a shadow id safe to use as a file name stem
func SanitizeFilename(s string) string {
	replacer := strings.NewReplacer(
		"/", "_",
		"\\", "_",
		":", "_",
		"*", "_",
		"?", "_",
		"\"", "_",
		"<", "_",
		">", "_",
		"|", "_",
		" ", "-",
	)
	s = replacer.Replace(strings.TrimSpace(s))
	s = strings.Trim(s, ".")
	if s == "" {
		s = "case"
	}

	// Limit length without splitting a multi-byte rune
	if len(s) > maxFilenameLen {
		cut := maxFilenameLen
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		s = s[:cut]
	}

	return s
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

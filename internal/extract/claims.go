package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/model"
)

var experiencePatterns = []struct {
	unit    model.DurationUnit
	pattern *regexp.Regexp
}{
	{model.UnitYears, regexp.MustCompile(`(\d+)\s*(?:years?|yrs?)`)},
	{model.UnitMonths, regexp.MustCompile(`(\d+)\s*(?:months?|mos?)`)},
}

// ClaimExtractor scans transcripts for experience, skill and confidence claims
type ClaimExtractor struct {
	lex     *lexicon.Lexicon
	matcher lexicon.Matcher
}

// NewClaimExtractor creates a claim extractor over the given lexicon.
// A nil lexicon selects the built-in vocabulary.
func NewClaimExtractor(lex *lexicon.Lexicon) *ClaimExtractor {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &ClaimExtractor{
		lex:     lex,
		matcher: lex.Matcher(),
	}
}

// Extract derives the full claim set of one transcript
func (e *ClaimExtractor) Extract(transcript string) model.ClaimSet {
	text := strings.ToLower(transcript)
	return model.ClaimSet{
		ExperienceMentions: e.experience(text),
		Skills:             e.skills(text),
		ConfidenceTally:    e.confidenceTally(text),
	}
}

// experience returns every duration mention in scan order: all year
// mentions first, then all month mentions
func (e *ClaimExtractor) experience(text string) []model.ExperienceMention {
	mentions := []model.ExperienceMention{}
	for _, p := range experiencePatterns {
		for _, match := range p.pattern.FindAllStringSubmatch(text, -1) {
			mentions = append(mentions, model.ExperienceMention{
				Value: match[1],
				Unit:  p.unit,
			})
		}
	}
	return mentions
}

// skills returns the distinct skills found in text, sorted
func (e *ClaimExtractor) skills(text string) []string {
	seen := make(map[string]bool)
	skills := []string{}

	for _, category := range e.lex.SkillCategories() {
		for _, term := range e.lex.Skills[category] {
			if seen[term] {
				continue
			}
			if e.matcher.Contains(text, term) {
				seen[term] = true
				skills = append(skills, term)
			}
		}
	}

	sort.Strings(skills)
	return skills
}

func (e *ClaimExtractor) confidenceTally(text string) map[model.ConfidenceLevel]int {
	tally := map[model.ConfidenceLevel]int{
		model.ConfidenceHigh:   0,
		model.ConfidenceMedium: 0,
		model.ConfidenceLow:    0,
	}

	for level, markers := range e.lex.Confidence {
		for _, marker := range markers {
			tally[level] += e.matcher.Count(text, marker)
		}
	}

	// Deception indicators lower confidence
	for _, indicators := range e.lex.Deception {
		for _, indicator := range indicators {
			tally[model.ConfidenceLow] += e.matcher.Count(text, indicator)
		}
	}

	return tally
}

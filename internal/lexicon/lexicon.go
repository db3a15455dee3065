// Package lexicon holds the trigger vocabularies used by the claim
// extractor and the truth reconciler. Vocabularies are data: the built-in
// set can be replaced or extended from a YAML file.
package lexicon

import (
	"fmt"
	"os"
	"sort"

	"github.com/ppiankov/truthweaver/internal/model"
	"gopkg.in/yaml.v3"
)

// Lexicon is the complete set of trigger phrases
type Lexicon struct {
	// Match selects how phrases are located in text
	Match MatchMode `yaml:"match"`

	// Skills maps a category (languages, frameworks, ...) to its terms
	Skills map[string][]string `yaml:"skills"`

	// LanguageCategory names the Skills category holding programming languages
	LanguageCategory string `yaml:"language_category"`

	// Confidence maps high/medium/low to their lexical markers
	Confidence map[model.ConfidenceLevel][]string `yaml:"confidence"`

	// Deception indicators count toward the low confidence bucket
	Deception map[string][]string `yaml:"deception"`

	// Emotion rules are evaluated in order; the first match wins
	Emotion []EmotionRule `yaml:"emotion"`

	Leadership SignalPhrases `yaml:"leadership"`
	Team       SignalPhrases `yaml:"team"`
}

// EmotionRule maps trigger phrases to an emotional state
type EmotionRule struct {
	State   model.EmotionalState `yaml:"state"`
	Phrases []string             `yaml:"phrases"`
}

// SignalPhrases yields a per-session boolean signal: Positive phrases are
// checked first, then Negative phrases
type SignalPhrases struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

// Default returns the built-in vocabulary
func Default() *Lexicon {
	return &Lexicon{
		Match: MatchSubstring,
		Skills: map[string][]string{
			"languages":    {"python", "java", "javascript", "c++", "c#", "go", "rust", "ruby"},
			"frameworks":   {"django", "flask", "react", "angular", "vue", "spring", "express"},
			"technologies": {"machine learning", "ai", "blockchain", "cloud", "docker", "kubernetes"},
			"databases":    {"mysql", "postgresql", "mongodb", "redis", "elasticsearch"},
		},
		LanguageCategory: "languages",
		Confidence: map[model.ConfidenceLevel][]string{
			model.ConfidenceHigh:   {"definitely", "absolutely", "certainly", "expert", "master", "proficient"},
			model.ConfidenceMedium: {"probably", "likely", "fairly", "quite", "decent", "good"},
			model.ConfidenceLow:    {"maybe", "perhaps", "kind of", "sort of", "not sure", "learning"},
		},
		Deception: map[string][]string{
			"hesitation":   {"um", "uh", "er", "well", "like", "you know"},
			"backtracking": {"actually", "correction", "wait", "no", "i mean"},
			"emotional":    {"crying", "sobbing", "shouting", "whispering", "nervous"},
		},
		Emotion: []EmotionRule{
			{State: model.EmotionDistressed, Phrases: []string{"crying", "sobbing", "sob"}},
			{State: model.EmotionAgitated, Phrases: []string{"shouting", "yelling", "!"}},
			{State: model.EmotionFearful, Phrases: []string{"whisper", "quiet", "barely"}},
			{State: model.EmotionConfident, Phrases: []string{"confident", "sure", "absolutely"}},
		},
		Leadership: SignalPhrases{
			Positive: []string{"lead", "team lead", "manager", "lead developer"},
			Negative: []string{"alone", "individual", "solo", "by myself"},
		},
		Team: SignalPhrases{
			Positive: []string{"team", "colleagues", "group", "collaborate"},
			Negative: []string{"alone", "individual", "solo"},
		},
	}
}

// Load reads a YAML lexicon from path layered over the defaults. Sections
// present in the file replace the default section of the same name; map
// sections are merged key by key.
func Load(path string) (*Lexicon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}

	lex := Default()
	if err := yaml.Unmarshal(data, lex); err != nil {
		return nil, fmt.Errorf("parse lexicon %s: %w", path, err)
	}

	if err := lex.Validate(); err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}

	return lex, nil
}

// Validate checks that the lexicon is internally consistent
func (l *Lexicon) Validate() error {
	switch l.Match {
	case MatchWord, MatchSubstring:
	case "":
		l.Match = MatchSubstring
	default:
		return fmt.Errorf("unknown match mode %q (supported: word, substring)", l.Match)
	}

	if l.LanguageCategory != "" {
		if _, ok := l.Skills[l.LanguageCategory]; !ok {
			return fmt.Errorf("language category %q is not a skills category", l.LanguageCategory)
		}
	}

	for level := range l.Confidence {
		switch level {
		case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
		default:
			return fmt.Errorf("unknown confidence level %q", level)
		}
	}

	return nil
}

// Marshal renders the lexicon as YAML
func (l *Lexicon) Marshal() ([]byte, error) {
	return yaml.Marshal(l)
}

// SkillCategories returns the skills categories in sorted order
func (l *Lexicon) SkillCategories() []string {
	categories := make([]string, 0, len(l.Skills))
	for category := range l.Skills {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	return categories
}

// Languages returns the set of terms in the language category
func (l *Lexicon) Languages() map[string]bool {
	languages := make(map[string]bool)
	for _, term := range l.Skills[l.LanguageCategory] {
		languages[term] = true
	}
	return languages
}

// Matcher returns a phrase matcher for the configured mode
func (l *Lexicon) Matcher() Matcher {
	return Matcher{Mode: l.Match}
}

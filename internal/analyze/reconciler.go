package analyze

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ppiankov/truthweaver/internal/lexicon"
	"github.com/ppiankov/truthweaver/internal/model"
)

var leadingNumber = regexp.MustCompile(`\d+`)

// Reconciler collapses the claims of all sessions into one TruthProfile
type Reconciler struct {
	lex     *lexicon.Lexicon
	matcher lexicon.Matcher
}

// NewReconciler creates a reconciler. A nil lexicon selects the built-in
// vocabulary.
func NewReconciler(lex *lexicon.Lexicon) *Reconciler {
	if lex == nil {
		lex = lexicon.Default()
	}
	return &Reconciler{
		lex:     lex,
		matcher: lex.Matcher(),
	}
}

// Reconcile produces the profile for a case. It never fails: every field
// falls back to its default when the sessions carry no evidence for it.
func (r *Reconciler) Reconcile(sessions []model.SessionEvidence) model.TruthProfile {
	skills := r.aggregateSkills(sessions)

	return model.TruthProfile{
		ProgrammingExperience: r.experienceRange(sessions),
		PrimaryLanguage:       r.primaryLanguage(skills),
		SkillMastery:          r.skillMastery(sessions),
		LeadershipClaims:      r.leadershipStatus(sessions),
		TeamExperience:        r.teamStatus(sessions),
		Skills:                skills,
	}
}

// experienceRange reports the global min and max of the leading number of
// every mention. The minimum is the least inflated claim and the maximum
// bounds the exaggeration.
func (r *Reconciler) experienceRange(sessions []model.SessionEvidence) string {
	var values []int
	for _, s := range sessions {
		for _, mention := range s.Claims.ExperienceMentions {
			token := leadingNumber.FindString(mention.String())
			if token == "" {
				continue
			}
			n, err := strconv.Atoi(token)
			if err != nil {
				continue
			}
			values = append(values, n)
		}
	}

	if len(values) == 0 {
		return model.Unspecified
	}

	minValue, maxValue := values[0], values[0]
	for _, v := range values[1:] {
		if v < minValue {
			minValue = v
		}
		if v > maxValue {
			maxValue = v
		}
	}

	return fmt.Sprintf("%d-%d years", minValue, maxValue)
}

// primaryLanguage picks the lexicographically first language mentioned in
// any session
func (r *Reconciler) primaryLanguage(skills []string) string {
	languages := r.lex.Languages()
	for _, skill := range skills {
		if languages[skill] {
			return skill
		}
	}
	return model.Unspecified
}

// skillMastery de-escalates self-reported confidence: high confidence
// anywhere caps at intermediate
func (r *Reconciler) skillMastery(sessions []model.SessionEvidence) string {
	levels := make(map[model.ConfidenceLevel]bool)
	for _, s := range sessions {
		levels[s.Claims.Dominant()] = true
	}

	switch {
	case levels[model.ConfidenceHigh]:
		return model.MasteryIntermediate
	case levels[model.ConfidenceMedium]:
		return model.MasteryBeginnerIntermediate
	default:
		return model.MasteryBeginner
	}
}

// leadershipStatus treats sessions that both claim and deny leadership as a
// fabrication
func (r *Reconciler) leadershipStatus(sessions []model.SessionEvidence) string {
	claimed, denied := r.signals(sessions, r.lex.Leadership)

	switch {
	case !claimed:
		return model.LeadershipNone
	case denied:
		return model.LeadershipFabricated
	default:
		return model.LeadershipClaimed
	}
}

// teamStatus collapses mixed or missing signals to individual contributor
func (r *Reconciler) teamStatus(sessions []model.SessionEvidence) string {
	claimed, denied := r.signals(sessions, r.lex.Team)

	if claimed && !denied {
		return model.TeamMember
	}
	return model.TeamIndividual
}

// signals reduces each session to at most one boolean signal, checking the
// positive phrases before the negative ones, and reports which values occurred
func (r *Reconciler) signals(sessions []model.SessionEvidence, phrases lexicon.SignalPhrases) (positive, negative bool) {
	for _, s := range sessions {
		text := strings.ToLower(s.Transcript)
		switch {
		case r.matcher.ContainsAny(text, phrases.Positive):
			positive = true
		case r.matcher.ContainsAny(text, phrases.Negative):
			negative = true
		}
	}
	return positive, negative
}

func (r *Reconciler) aggregateSkills(sessions []model.SessionEvidence) []string {
	seen := make(map[string]bool)
	skills := []string{}
	for _, s := range sessions {
		for _, skill := range s.Claims.Skills {
			if !seen[skill] {
				seen[skill] = true
				skills = append(skills, skill)
			}
		}
	}
	sort.Strings(skills)
	return skills
}

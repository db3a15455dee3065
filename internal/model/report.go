package model

import "time"

// LieType categorizes a detected contradiction
type LieType string

const (
	LieExperienceInflation LieType = "experience_inflation" // Distinct durations claimed across sessions
	LieSkillExaggeration   LieType = "skill_exaggeration"   // Skill counts vary widely across sessions
)

// Contradiction is one detected inconsistency across sessions
type Contradiction struct {
	LieType  LieType  `json:"lie_type"`
	Evidence []string `json:"contradictory_claims"`
}

// Mastery levels reported in the truth profile
const (
	MasteryBeginner             = "beginner"
	MasteryBeginnerIntermediate = "beginner-intermediate"
	MasteryIntermediate         = "intermediate"
)

// Leadership statuses
const (
	LeadershipNone       = "no claims made"
	LeadershipClaimed    = "claimed"
	LeadershipFabricated = "fabricated"
)

// Team statuses
const (
	TeamIndividual = "individual contributor"
	TeamMember     = "team member"
)

// Unspecified is reported when no evidence supports a field
const Unspecified = "unspecified"

// TruthProfile is the single reconciled profile for a subject
type TruthProfile struct {
	ProgrammingExperience string   `json:"programming_experience"`
	PrimaryLanguage       string   `json:"programming_language"`
	SkillMastery          string   `json:"skill_mastery"`
	LeadershipClaims      string   `json:"leadership_claims"`
	TeamExperience        string   `json:"team_experience"`
	Skills                []string `json:"skills and other keywords"`
}

// DefaultTruthProfile returns the profile reported when there is no evidence
func DefaultTruthProfile() TruthProfile {
	return TruthProfile{
		ProgrammingExperience: Unspecified,
		PrimaryLanguage:       Unspecified,
		SkillMastery:          MasteryBeginner,
		LeadershipClaims:      LeadershipNone,
		TeamExperience:        TeamIndividual,
		Skills:                []string{},
	}
}

// CaseReport is the interoperable analysis artifact for one subject
type CaseReport struct {
	ShadowID          string          `json:"shadow_id"`
	RevealedTruth     TruthProfile    `json:"revealed_truth"`
	DeceptionPatterns []Contradiction `json:"deception_patterns"`
}

// CaseResult carries the report together with the per-session detail
// that produced it
type CaseResult struct {
	Report      *CaseReport
	Sessions    []SessionRecord
	Transcript  string // Combined "Session N:" transcript
	ProcessedAt time.Time
}

// UsableSessions counts sessions that reached the analysis
func (r *CaseResult) UsableSessions() int {
	n := 0
	for _, s := range r.Sessions {
		if s.Usable() {
			n++
		}
	}
	return n
}

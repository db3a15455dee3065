// Package analyze cross-references the claims of every session of a case.
// The Detector surfaces contradictions and the Reconciler collapses the
// claims into one best-estimate profile. Both are pure: no I/O, and the
// same input always yields the same output.
package analyze

import (
	"fmt"
	"sort"

	"github.com/ppiankov/truthweaver/internal/model"
)

// DefaultSkillSpreadThreshold is the skill-count spread tolerated before
// skill_exaggeration fires
const DefaultSkillSpreadThreshold = 3

// Detector finds claims that conflict across sessions
type Detector struct {
	skillSpreadThreshold int
}

// NewDetector creates a detector. A non-positive threshold selects
// DefaultSkillSpreadThreshold.
func NewDetector(skillSpreadThreshold int) *Detector {
	if skillSpreadThreshold <= 0 {
		skillSpreadThreshold = DefaultSkillSpreadThreshold
	}
	return &Detector{skillSpreadThreshold: skillSpreadThreshold}
}

// Detect runs every category in a fixed order. Each category contributes
// at most one contradiction.
func (d *Detector) Detect(sessions []model.SessionEvidence) []model.Contradiction {
	contradictions := []model.Contradiction{}

	if c, ok := d.experienceInflation(sessions); ok {
		contradictions = append(contradictions, c)
	}

	if c, ok := d.skillExaggeration(sessions); ok {
		contradictions = append(contradictions, c)
	}

	return contradictions
}

// experienceInflation fires when more than one distinct duration is claimed
func (d *Detector) experienceInflation(sessions []model.SessionEvidence) (model.Contradiction, bool) {
	distinct := make(map[string]bool)
	for _, s := range sessions {
		for _, mention := range s.Claims.ExperienceMentions {
			distinct[mention.String()] = true
		}
	}

	if len(distinct) <= 1 {
		return model.Contradiction{}, false
	}

	evidence := make([]string, 0, len(distinct))
	for claim := range distinct {
		evidence = append(evidence, claim)
	}
	sort.Strings(evidence)

	return model.Contradiction{
		LieType:  model.LieExperienceInflation,
		Evidence: evidence,
	}, true
}

// skillExaggeration fires when per-session skill counts spread beyond the
// threshold. Sessions mentioning no skills do not take part.
func (d *Detector) skillExaggeration(sessions []model.SessionEvidence) (model.Contradiction, bool) {
	minCount, maxCount := 0, 0
	qualifying := 0

	for _, s := range sessions {
		n := len(distinctSkills(s.Claims.Skills))
		if n == 0 {
			continue
		}
		if qualifying == 0 || n < minCount {
			minCount = n
		}
		if qualifying == 0 || n > maxCount {
			maxCount = n
		}
		qualifying++
	}

	if qualifying == 0 || maxCount-minCount <= d.skillSpreadThreshold {
		return model.Contradiction{}, false
	}

	return model.Contradiction{
		LieType:  model.LieSkillExaggeration,
		Evidence: []string{fmt.Sprintf("claimed %d to %d skills", minCount, maxCount)},
	}, true
}

func distinctSkills(skills []string) map[string]bool {
	set := make(map[string]bool, len(skills))
	for _, s := range skills {
		set[s] = true
	}
	return set
}

package model

// DurationUnit is the unit attached to an experience mention
type DurationUnit string

const (
	UnitYears  DurationUnit = "years"
	UnitMonths DurationUnit = "months"
)

// ExperienceMention is a raw duration claim such as "3 years"
type ExperienceMention struct {
	Value string       `json:"value"` // Numeric text as it appeared in the transcript
	Unit  DurationUnit `json:"unit"`
}

// String renders the mention in its canonical "value unit" form
func (m ExperienceMention) String() string {
	return m.Value + " " + string(m.Unit)
}

// ConfidenceLevel is a self-reported confidence bucket
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// ConfidencePriority is the tie-break order used when buckets share the top tally
var ConfidencePriority = []ConfidenceLevel{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}

// ClaimSet holds the claims extracted from a single session
type ClaimSet struct {
	ExperienceMentions []ExperienceMention     `json:"experience_mentions"`
	Skills             []string                `json:"mentioned_skills"` // Deduplicated, sorted
	ConfidenceTally    map[ConfidenceLevel]int `json:"confidence_marker_tally"`
}

// Dominant returns the bucket with the highest tally. Ties, including an
// all-zero tally, resolve in ConfidencePriority order.
func (c ClaimSet) Dominant() ConfidenceLevel {
	best := ConfidencePriority[0]
	bestCount := c.ConfidenceTally[best]
	for _, level := range ConfidencePriority[1:] {
		if n := c.ConfidenceTally[level]; n > bestCount {
			best = level
			bestCount = n
		}
	}
	return best
}

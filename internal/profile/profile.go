package profile

// Depth controls how thorough the guidance assessment should be.
type Depth string

const (
	// DepthQuick produces a short answer with the top recommendations only.
	DepthQuick Depth = "quick"
	// DepthComprehensive is the default full assessment.
	DepthComprehensive Depth = "comprehensive"
)

// Mark is a subject result: either an exact percentage or a range.
// Exactly one of Exact or the Low/High pair is set.
type Mark struct {
	Exact *float64
	Low   *float64
	High  *float64
}

// Constraints are the named limits a student mentioned or supplied.
// Nil means the constraint was not expressed.
type Constraints struct {
	Budget   *string // "low", "medium", "high"
	Location *string // Province or city
	Deadline *string // Free-form, e.g. "2027" or "June 2026"
}

// StudentProfile is the normalized profile used by the retrieval pipeline.
// It is built once per request and never mutated afterwards.
type StudentProfile struct {
	Grade       *int // 10, 11 or 12; nil when unknown
	Subjects    []string
	Marks       map[string]Mark
	Interests   []string
	Constraints Constraints
	Depth       Depth
	APS         *int // Admission Point Score; surfaced to the prompt, ignored by ranking
}

// Fields are optional structured overrides supplied alongside the free-text
// query (e.g. from a form). Non-nil fields take precedence over anything
// extracted from the query text.
type Fields struct {
	Grade     *int               `json:"grade,omitempty"`
	Subjects  []string           `json:"subjects,omitempty"`
	Marks     map[string]float64 `json:"marks,omitempty"`
	Interests []string           `json:"interests,omitempty"`
	Budget    *string            `json:"budget,omitempty"`
	Location  *string            `json:"location,omitempty"`
	Deadline  *string            `json:"deadline,omitempty"`
	Depth     *string            `json:"depth,omitempty"`
	APS       *int               `json:"aps,omitempty"`
}

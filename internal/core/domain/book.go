package domain

// Candidate is a book proposed by the recommendation capability, not yet chosen.
type Candidate struct {
	Title    string `json:"title"`
	Author   string `json:"author"`
	Category string `json:"category"`
	Reason   string `json:"reason,omitempty"`
}

// ExecutiveSummary captures the question × answer × evidence shape the
// research contract requires.
type ExecutiveSummary struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Evidence string `json:"evidence"`
}

type KeyConcept struct {
	Name       string `json:"name"`
	Definition string `json:"definition"`
}

type RelatedBook struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	Relevance string `json:"relevance"`
}

// ResearchRecord is the validated structured output describing a book's core
// ideas and recommended actions. A malformed record never crosses this
// boundary: Validate rejects, it does not coerce.
type ResearchRecord struct {
	CoreMessage      string           `json:"core_message"`
	ExecutiveSummary ExecutiveSummary `json:"executive_summary"`
	KeyConcepts      []KeyConcept     `json:"key_concepts"`
	RelatedBooks     []RelatedBook    `json:"related_books"`
	TodayActions     []string         `json:"today_actions"`
}

const maxTodayActions = 3

// Validate enforces the structural contract on a record decoded at the
// research boundary. TodayActions must be non-empty: a note with zero
// actionable items is a quality failure, not a cosmetic one.
func (r *ResearchRecord) Validate() error {
	if r == nil {
		return WrapError(ErrResearchMalformed, "validate research", errNilRecord)
	}
	if r.CoreMessage == "" {
		return WrapError(ErrResearchMalformed, "validate research", errMissingField("core_message"))
	}
	if r.ExecutiveSummary.Question == "" || r.ExecutiveSummary.Answer == "" {
		return WrapError(ErrResearchMalformed, "validate research", errMissingField("executive_summary"))
	}
	if len(r.KeyConcepts) == 0 {
		return WrapError(ErrResearchMalformed, "validate research", errMissingField("key_concepts"))
	}
	if len(r.TodayActions) == 0 {
		return WrapError(ErrResearchMalformed, "validate research", errMissingField("today_actions"))
	}
	return nil
}

// ClampActions trims the checklist to the fixed size the note layout carries.
func (r *ResearchRecord) ClampActions() {
	if len(r.TodayActions) > maxTodayActions {
		r.TodayActions = r.TodayActions[:maxTodayActions]
	}
}

// RenderedArtifact is the standalone visual-summary document produced for a
// chosen book. Path is always set; PublicURL only when public publication
// succeeded.
type RenderedArtifact struct {
	Title     string `json:"title"`
	Path      string `json:"path"`
	PublicURL string `json:"public_url,omitempty"`
}

// Link returns the reference the note should carry: the public URL when
// available, the local path otherwise.
func (a RenderedArtifact) Link() string {
	if a.PublicURL != "" {
		return a.PublicURL
	}
	return a.Path
}

package domain

// SelectionPolicy configures the candidate selector: which categories to ask
// for, which title/category tokens disqualify a candidate, whether the
// language filter applies, and how many candidates to request.
type SelectionPolicy struct {
	Categories     []string `yaml:"categories"`
	Denylist       []string `yaml:"denylist"`
	LanguageFilter bool     `yaml:"language_filter"`
	CandidateCount int      `yaml:"candidate_count"`
}

// DefaultSelectionPolicy mirrors the operating policy of the daily feed:
// four active categories, fiction-family denylist, Japanese-only titles,
// five candidates per run.
func DefaultSelectionPolicy() SelectionPolicy {
	return SelectionPolicy{
		Categories:     []string{"ビジネス", "自己啓発", "ライフスタイル", "心理学"},
		Denylist:       []string{"小説", "文学", "novel", "fiction", "ライトノベル", "児童文学", "短編", "青春"},
		LanguageFilter: true,
		CandidateCount: 5,
	}
}

// Normalize fills zero values with defaults.
func (p SelectionPolicy) Normalize() SelectionPolicy {
	def := DefaultSelectionPolicy()
	if len(p.Categories) == 0 {
		p.Categories = def.Categories
	}
	if p.CandidateCount <= 0 {
		p.CandidateCount = def.CandidateCount
	}
	return p
}

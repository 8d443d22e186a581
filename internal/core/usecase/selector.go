package usecase

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/oshomadesse/shiori/internal/core/domain"
	"github.com/oshomadesse/shiori/internal/core/ports"
)

// CandidateSelector asks the recommendation capability for candidates and
// chooses one at random among the ones that survive filtering. The random
// pick is intentionally unseeded: repeating yesterday's choice order is
// explicitly undesired.
type CandidateSelector struct {
	recommender ports.Recommender
	policy      domain.SelectionPolicy
	pick        func(n int) int
}

func NewCandidateSelector(recommender ports.Recommender, policy domain.SelectionPolicy) *CandidateSelector {
	return &CandidateSelector{
		recommender: recommender,
		policy:      policy.Normalize(),
		pick:        rand.IntN,
	}
}

// WithPicker overrides the random choice, for tests.
func (s *CandidateSelector) WithPicker(pick func(n int) int) *CandidateSelector {
	s.pick = pick
	return s
}

// Choose requests candidates once, filters, and selects uniformly at random.
// Fewer than one survivor is fatal for the run: no relaxed-filter retry.
func (s *CandidateSelector) Choose(ctx context.Context, exclusions *domain.ExclusionSet) (domain.Candidate, error) {
	batch, err := s.recommender.Recommend(ctx, s.policy.Categories, exclusions.Titles(), s.policy.CandidateCount)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("request recommendations: %w", err)
	}

	survivors := s.filter(batch, exclusions)
	if len(survivors) == 0 {
		return domain.Candidate{}, domain.WrapError(
			domain.ErrNoViableCandidate,
			"select candidate",
			fmt.Errorf("%d recommended, 0 survived filtering", len(batch)),
		)
	}
	return survivors[s.pick(len(survivors))], nil
}

// filter applies, in order: the language/script filter, the denylist filter,
// then exclusion and in-batch de-duplication by normalized title.
func (s *CandidateSelector) filter(batch []domain.Candidate, exclusions *domain.ExclusionSet) []domain.Candidate {
	seen := make(map[string]struct{}, len(batch))
	out := make([]domain.Candidate, 0, len(batch))
	for _, c := range batch {
		if strings.TrimSpace(c.Title) == "" {
			continue
		}
		if s.policy.LanguageFilter && !languageOK(c) {
			continue
		}
		if s.denied(c) {
			continue
		}
		if exclusions.Contains(c.Title) {
			continue
		}
		norm := domain.NormalizeTitle(c.Title)
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		out = append(out, c)
	}
	return out
}

func languageOK(c domain.Candidate) bool {
	if !domain.JapaneseLike(c.Title) {
		return false
	}
	if c.Author != "" && !domain.JapaneseLike(c.Author) {
		return false
	}
	return true
}

func (s *CandidateSelector) denied(c domain.Candidate) bool {
	title := strings.ToLower(c.Title)
	category := strings.ToLower(c.Category)
	for _, word := range s.policy.Denylist {
		w := strings.ToLower(word)
		if w == "" {
			continue
		}
		if strings.Contains(title, w) || strings.Contains(category, w) {
			return true
		}
	}
	return false
}

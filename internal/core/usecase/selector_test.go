package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

type stubRecommender struct {
	batch []domain.Candidate
	err   error

	gotCategories []string
	gotExcluded   []string
	gotCount      int
	calls         int
}

func (s *stubRecommender) Recommend(_ context.Context, categories, excluded []string, count int) ([]domain.Candidate, error) {
	s.calls++
	s.gotCategories = categories
	s.gotExcluded = excluded
	s.gotCount = count
	return s.batch, s.err
}

func jpCandidate(title string) domain.Candidate {
	return domain.Candidate{Title: title, Author: "岸見一郎", Category: "心理学"}
}

func TestChoosePicksAmongSurvivors(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		jpCandidate("嫌われる勇気"),
		jpCandidate("反応しない練習"),
		jpCandidate("エッセンシャル思考"),
	}}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy()).WithPicker(func(n int) int { return n - 1 })

	chosen, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil))
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.Title != "エッセンシャル思考" {
		t.Errorf("chosen = %q", chosen.Title)
	}
	if rec.calls != 1 {
		t.Errorf("Recommend calls = %d, want 1", rec.calls)
	}
	if rec.gotCount != 5 {
		t.Errorf("requested count = %d, want 5", rec.gotCount)
	}
}

func TestChoosePassesExclusionsToRecommender(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{jpCandidate("反応しない練習")}}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy())
	exclusions := domain.NewExclusionSet([]string{"嫌われる勇気"})

	if _, err := selector.Choose(context.Background(), exclusions); err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if len(rec.gotExcluded) != 1 || rec.gotExcluded[0] != "嫌われる勇気" {
		t.Errorf("excluded passed to recommender = %v", rec.gotExcluded)
	}
}

func TestChooseFiltersExcludedTitles(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		jpCandidate("嫌われる勇気"),
		jpCandidate("嫌われる勇気（新装版）"),
		jpCandidate("反応しない練習"),
	}}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy()).WithPicker(func(int) int { return 0 })
	exclusions := domain.NewExclusionSet([]string{"嫌われる勇気"})

	chosen, err := selector.Choose(context.Background(), exclusions)
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.Title != "反応しない練習" {
		t.Errorf("chosen = %q, want the only non-excluded title", chosen.Title)
	}
}

func TestChooseFiltersLanguageAndDenylist(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		{Title: "Deep Work", Author: "Cal Newport", Category: "ビジネス"},
		{Title: "ある小説の話", Author: "佐藤太郎", Category: "小説"},
		jpCandidate("反応しない練習"),
	}}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy()).WithPicker(func(int) int { return 0 })

	chosen, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil))
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.Title != "反応しない練習" {
		t.Errorf("chosen = %q", chosen.Title)
	}
}

func TestChooseDedupesWithinBatch(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		jpCandidate("嫌われる勇気"),
		jpCandidate("嫌われる勇気（新装版）"),
	}}
	picked := -1
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy()).WithPicker(func(n int) int {
		picked = n
		return 0
	})

	if _, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil)); err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if picked != 1 {
		t.Errorf("survivor count = %d, want 1 after in-batch dedupe", picked)
	}
}

func TestChooseNoViableCandidate(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		{Title: "Deep Work", Author: "Cal Newport", Category: "ビジネス"},
	}}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy())

	_, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil))
	if !errors.Is(err, domain.ErrNoViableCandidate) {
		t.Fatalf("expected ErrNoViableCandidate, got %v", err)
	}
	if rec.calls != 1 {
		t.Errorf("Recommend calls = %d, want exactly 1 (no relaxed retry)", rec.calls)
	}
}

func TestChoosePropagatesRecommenderError(t *testing.T) {
	rec := &stubRecommender{err: errors.New("upstream down")}
	selector := NewCandidateSelector(rec, domain.DefaultSelectionPolicy())

	if _, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil)); err == nil {
		t.Fatal("expected error")
	}
}

func TestChooseLanguageFilterDisabled(t *testing.T) {
	rec := &stubRecommender{batch: []domain.Candidate{
		{Title: "Deep Work", Author: "Cal Newport", Category: "ビジネス"},
	}}
	policy := domain.DefaultSelectionPolicy()
	policy.LanguageFilter = false
	selector := NewCandidateSelector(rec, policy).WithPicker(func(int) int { return 0 })

	chosen, err := selector.Choose(context.Background(), domain.NewExclusionSet(nil))
	if err != nil {
		t.Fatalf("Choose() error = %v", err)
	}
	if chosen.Title != "Deep Work" {
		t.Errorf("chosen = %q", chosen.Title)
	}
}

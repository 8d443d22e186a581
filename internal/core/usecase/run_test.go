package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

type fakeLedger struct {
	titles    []string
	listErr   error
	appendErr error
	appended  []domain.LedgerEntry
}

func (f *fakeLedger) ListTitles(context.Context) ([]string, error) {
	return f.titles, f.listErr
}

func (f *fakeLedger) Append(_ context.Context, entry domain.LedgerEntry) error {
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, entry)
	return nil
}

type fakeResearcher struct {
	records []*domain.ResearchRecord
	errs    []error
	stricts []bool
	calls   int
}

func (f *fakeResearcher) Research(_ context.Context, _ domain.Candidate, strict bool) (*domain.ResearchRecord, error) {
	i := f.calls
	f.calls++
	f.stricts = append(f.stricts, strict)
	var record *domain.ResearchRecord
	if i < len(f.records) {
		record = f.records[i]
	}
	var err error
	if i < len(f.errs) {
		err = f.errs[i]
	}
	return record, err
}

type fakeRenderer struct {
	content []byte
	err     error
	calls   int
}

func (f *fakeRenderer) Render(_ context.Context, _ *domain.ResearchRecord, _ string) ([]byte, error) {
	f.calls++
	return f.content, f.err
}

type fakeArtifactStore struct {
	savedName  string
	savedBody  []byte
	saveErr    error
	publishErr error
	published  bool
}

func (f *fakeArtifactStore) Save(_ context.Context, filename string, content []byte) (string, error) {
	if f.saveErr != nil {
		return "", f.saveErr
	}
	f.savedName = filename
	f.savedBody = content
	return "/artifacts/" + filename, nil
}

func (f *fakeArtifactStore) Publish(_ context.Context, filename string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = true
	return "https://pages.example.com/" + filename, nil
}

type fakeNoteStore struct {
	savedName string
	savedBody []byte
	err       error
}

func (f *fakeNoteStore) Save(_ context.Context, name string, content []byte) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.savedName = name
	f.savedBody = content
	return "/notes/" + name, nil
}

type fakeNotifier struct {
	message string
	link    string
	err     error
	calls   int
}

func (f *fakeNotifier) Send(_ context.Context, message, link string) error {
	f.calls++
	f.message = message
	f.link = link
	return f.err
}

type fakeGraph struct {
	chosen  domain.Candidate
	related []domain.RelatedBook
	err     error
	calls   int
}

func (f *fakeGraph) RecordRelated(_ context.Context, candidate domain.Candidate, related []domain.RelatedBook) error {
	f.calls++
	f.chosen = candidate
	f.related = related
	return f.err
}

type fixture struct {
	ledger     *fakeLedger
	researcher *fakeResearcher
	renderer   *fakeRenderer
	artifacts  *fakeArtifactStore
	notes      *fakeNoteStore
	notifier   *fakeNotifier
	rec        *stubRecommender
}

func newFixture() *fixture {
	return &fixture{
		ledger:     &fakeLedger{},
		researcher: &fakeResearcher{records: []*domain.ResearchRecord{sampleRecord()}},
		renderer:   &fakeRenderer{content: []byte("<!DOCTYPE html><html></html>")},
		artifacts:  &fakeArtifactStore{},
		notes:      &fakeNoteStore{},
		notifier:   &fakeNotifier{},
		rec:        &stubRecommender{batch: []domain.Candidate{jpCandidate("嫌われる勇気")}},
	}
}

func (fx *fixture) build(opts RunOptions) *RunPipelineUseCase {
	selector := NewCandidateSelector(fx.rec, domain.DefaultSelectionPolicy()).WithPicker(func(int) int { return 0 })
	return NewRunPipelineUseCase(
		fx.ledger, selector, fx.researcher, fx.renderer,
		fx.artifacts, fx.notes, fx.notifier, opts,
	)
}

var runDate = time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)

func TestRunHappyPath(t *testing.T) {
	fx := newFixture()
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Status() != domain.RunSucceeded {
		t.Errorf("status = %s, want succeeded", state.Status())
	}
	if state.Stage != domain.StageDone {
		t.Errorf("stage = %s, want done", state.Stage)
	}
	if fx.artifacts.savedName != "嫌われる勇気_infographic.html" {
		t.Errorf("artifact name = %q", fx.artifacts.savedName)
	}
	if fx.notes.savedName != "Books-2026-08-30.md" {
		t.Errorf("note name = %q", fx.notes.savedName)
	}
	if state.NotePath != "/notes/Books-2026-08-30.md" {
		t.Errorf("note path = %q", state.NotePath)
	}
	if len(fx.ledger.appended) != 1 || fx.ledger.appended[0].Title != "嫌われる勇気" {
		t.Errorf("ledger appended = %+v", fx.ledger.appended)
	}
	if fx.notifier.calls != 1 || fx.notifier.link != state.NotePath {
		t.Errorf("notifier calls=%d link=%q", fx.notifier.calls, fx.notifier.link)
	}
	if fx.artifacts.published {
		t.Error("publish should be off by default")
	}
}

func TestRunLedgerFailureDegradesButNotifies(t *testing.T) {
	fx := newFixture()
	fx.ledger.appendErr = errors.New("sheet locked")
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v, degraded post-steps must not fail the run", err)
	}
	if state.Status() != domain.RunDegraded {
		t.Errorf("status = %s, want degraded", state.Status())
	}
	if len(state.Degraded) != 1 || state.Degraded[0] != domain.EffectLedgerUpdate {
		t.Errorf("degraded = %v", state.Degraded)
	}
	if fx.notifier.calls != 1 {
		t.Error("notification should still be attempted after ledger failure")
	}
}

func TestRunNotifierFailureDegrades(t *testing.T) {
	fx := newFixture()
	fx.notifier.err = errors.New("push rejected")
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(state.Degraded) != 1 || state.Degraded[0] != domain.EffectNotification {
		t.Errorf("degraded = %v", state.Degraded)
	}
	if len(fx.ledger.appended) != 1 {
		t.Error("ledger append should have happened before the notification attempt")
	}
}

func TestRunResearchRetriesOnceStrict(t *testing.T) {
	fx := newFixture()
	fx.researcher.records = []*domain.ResearchRecord{
		{CoreMessage: "x"}, // fails validation
		sampleRecord(),
	}
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if fx.researcher.calls != 2 {
		t.Fatalf("research calls = %d, want 2", fx.researcher.calls)
	}
	if fx.researcher.stricts[0] || !fx.researcher.stricts[1] {
		t.Errorf("stricts = %v, want [false true]", fx.researcher.stricts)
	}
	if state.Status() != domain.RunSucceeded {
		t.Errorf("status = %s", state.Status())
	}
}

func TestRunResearchMalformedTwiceAborts(t *testing.T) {
	fx := newFixture()
	fx.researcher.records = []*domain.ResearchRecord{
		{CoreMessage: "x"},
		{CoreMessage: "y"},
	}
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if !errors.Is(err, domain.ErrResearchMalformed) {
		t.Fatalf("expected ErrResearchMalformed, got %v", err)
	}
	if fx.researcher.calls != 2 {
		t.Errorf("research calls = %d, want exactly 2", fx.researcher.calls)
	}
	if state.Status() != domain.RunFailed {
		t.Errorf("status = %s, want failed", state.Status())
	}
	if fx.notes.savedName != "" {
		t.Error("no note should be written on a failed run")
	}
	if len(fx.ledger.appended) != 0 {
		t.Error("failed run must leave the ledger untouched so the title stays in the pool")
	}
	if fx.notifier.calls != 0 {
		t.Error("no notification on a failed run")
	}
}

func TestRunResearchTimeoutSkipsStrictRetry(t *testing.T) {
	fx := newFixture()
	fx.researcher.errs = []error{context.DeadlineExceeded}
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error to surface, got %v", err)
	}
	if errors.Is(err, domain.ErrResearchMalformed) {
		t.Error("timeout must not be reported as malformed research")
	}
	if fx.researcher.calls != 1 {
		t.Errorf("research calls = %d, want 1 (no strict retry after a timeout)", fx.researcher.calls)
	}
	if state.Status() != domain.RunFailed {
		t.Errorf("status = %s, want failed", state.Status())
	}
}

func TestRunResearchTransportFailureKeepsCause(t *testing.T) {
	fx := newFixture()
	transportErr := errors.New("dial tcp 127.0.0.1:443: connect: connection refused")
	fx.researcher.errs = []error{transportErr, transportErr}
	uc := fx.build(RunOptions{})

	_, err := uc.Run(context.Background(), runDate)
	if !errors.Is(err, transportErr) {
		t.Fatalf("expected transport error to surface, got %v", err)
	}
	if errors.Is(err, domain.ErrResearchMalformed) {
		t.Error("network failure must not be reported as malformed research")
	}
	if fx.researcher.calls != 2 {
		t.Errorf("research calls = %d, want 2", fx.researcher.calls)
	}
}

func TestRunNoViableCandidateFailsEarly(t *testing.T) {
	fx := newFixture()
	fx.rec.batch = nil
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if !errors.Is(err, domain.ErrNoViableCandidate) {
		t.Fatalf("expected ErrNoViableCandidate, got %v", err)
	}
	if state.Stage != domain.StageExclusionLoaded {
		t.Errorf("stage = %s", state.Stage)
	}
	if fx.researcher.calls != 0 || fx.renderer.calls != 0 {
		t.Error("no downstream calls after selection failure")
	}
}

func TestRunRenderFailureAborts(t *testing.T) {
	fx := newFixture()
	fx.renderer.err = errors.New("model refused")
	uc := fx.build(RunOptions{})

	state, err := uc.Run(context.Background(), runDate)
	if !errors.Is(err, domain.ErrRenderingFailed) {
		t.Fatalf("expected ErrRenderingFailed, got %v", err)
	}
	if state.Status() != domain.RunFailed {
		t.Errorf("status = %s", state.Status())
	}
	if fx.notes.savedName != "" {
		t.Error("no note on render failure")
	}
}

func TestRunPublishFailureIsDegradedOnly(t *testing.T) {
	fx := newFixture()
	fx.artifacts.publishErr = errors.New("pages down")
	uc := fx.build(RunOptions{PublishPublic: true})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Status() != domain.RunDegraded {
		t.Errorf("status = %s, want degraded", state.Status())
	}
	if state.Degraded[0] != domain.EffectPublicPublish {
		t.Errorf("degraded = %v", state.Degraded)
	}
	if state.Artifact.PublicURL != "" {
		t.Error("no public URL after failed publish")
	}
	if state.NotePath == "" {
		t.Error("note should still be written with the local artifact path")
	}
}

func TestRunPublishSuccessLinksPublicURL(t *testing.T) {
	fx := newFixture()
	uc := fx.build(RunOptions{PublishPublic: true})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := "https://pages.example.com/嫌われる勇気_infographic.html"
	if state.Artifact.PublicURL != want {
		t.Errorf("public URL = %q", state.Artifact.PublicURL)
	}
	if got := string(fx.notes.savedBody); !strings.Contains(got, "("+want+")") {
		t.Error("note should link the public URL")
	}
}

func TestRunGraphRecordingIsBestEffort(t *testing.T) {
	fx := newFixture()
	graph := &fakeGraph{err: errors.New("bolt down")}
	uc := fx.build(RunOptions{Graph: graph})

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if graph.calls != 1 {
		t.Errorf("graph calls = %d", graph.calls)
	}
	if len(state.Degraded) != 1 || state.Degraded[0] != domain.EffectGraphUpdate {
		t.Errorf("degraded = %v", state.Degraded)
	}
}

func TestRunGraphReceivesRelatedBooks(t *testing.T) {
	fx := newFixture()
	graph := &fakeGraph{}
	uc := fx.build(RunOptions{Graph: graph})

	if _, err := uc.Run(context.Background(), runDate); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if graph.chosen.Title != "嫌われる勇気" {
		t.Errorf("graph chosen = %q", graph.chosen.Title)
	}
	if len(graph.related) != 1 || graph.related[0].Title != "幸せになる勇気" {
		t.Errorf("graph related = %+v", graph.related)
	}
}

func TestRunClampsTodayActions(t *testing.T) {
	fx := newFixture()
	record := sampleRecord()
	record.TodayActions = []string{"a", "b", "c", "d", "e"}
	fx.researcher.records = []*domain.ResearchRecord{record}
	uc := fx.build(RunOptions{})

	if _, err := uc.Run(context.Background(), runDate); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	note := string(fx.notes.savedBody)
	if n := strings.Count(note, "- [ ]"); n != 3 {
		t.Errorf("checkbox count = %d, want 3", n)
	}
}

func TestRunEndToEndWithExclusions(t *testing.T) {
	fx := newFixture()
	fx.ledger.titles = []string{"Atomic Habits"}
	fx.rec.batch = []domain.Candidate{
		{Title: "Atomic Habits", Author: "James Clear", Category: "自己啓発"},
		{Title: "Deep Work", Author: "Cal Newport", Category: "ビジネス"},
	}
	policy := domain.DefaultSelectionPolicy()
	policy.LanguageFilter = false
	selector := NewCandidateSelector(fx.rec, policy).WithPicker(func(int) int { return 0 })
	uc := NewRunPipelineUseCase(
		fx.ledger, selector, fx.researcher, fx.renderer,
		fx.artifacts, fx.notes, fx.notifier, RunOptions{},
	)

	state, err := uc.Run(context.Background(), runDate)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if state.Candidate.Title != "Deep Work" {
		t.Fatalf("chosen = %q, excluded title must never be re-selected", state.Candidate.Title)
	}
	if fx.artifacts.savedName != "Deep_Work_infographic.html" {
		t.Errorf("artifact name = %q", fx.artifacts.savedName)
	}
	if len(fx.ledger.appended) != 1 || fx.ledger.appended[0].Title != "Deep Work" {
		t.Errorf("ledger appended = %+v", fx.ledger.appended)
	}
	if fx.notifier.calls != 1 {
		t.Errorf("notifications = %d, want 1", fx.notifier.calls)
	}
}

func TestRunStageObserverSeesStages(t *testing.T) {
	fx := newFixture()
	var stages []domain.RunStage
	uc := fx.build(RunOptions{
		StageObserver: func(stage domain.RunStage, _ time.Duration) {
			stages = append(stages, stage)
		},
	})

	if _, err := uc.Run(context.Background(), runDate); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	want := []domain.RunStage{
		domain.StageExclusionLoaded,
		domain.StageCandidateChosen,
		domain.StageResearched,
		domain.StageRendered,
	}
	if len(stages) != len(want) {
		t.Fatalf("observed stages = %v", stages)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage[%d] = %s, want %s", i, stages[i], want[i])
		}
	}
}


package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oshomadesse/shiori/internal/core/domain"
	"github.com/oshomadesse/shiori/internal/core/ports"
)

const artifactSuffix = "_infographic.html"

// ArtifactName derives the deterministic artifact filename from a title.
func ArtifactName(title string) string {
	return domain.TitleSlug(title) + artifactSuffix
}

// RunPipelineUseCase sequences the daily pipeline and owns the run's state
// record. Everything before the note exists is transactional-in-spirit: any
// failure aborts with the ledger untouched, as if the run never happened.
// Everything after is best-effort with per-effect degradation flags.
type RunPipelineUseCase struct {
	ledger     ports.ExclusionLedger
	selector   *CandidateSelector
	researcher ports.Researcher
	renderer   ports.Renderer
	artifacts  ports.ArtifactStore
	notes      ports.NoteStore
	notifier   ports.Notifier
	graph      ports.GraphRecorder

	stageTimeout  time.Duration
	publishPublic bool
	observeStage  func(stage domain.RunStage, duration time.Duration)
}

type RunOptions struct {
	StageTimeout  time.Duration
	PublishPublic bool
	// Graph is optional; nil skips the related-books recording post-step.
	Graph ports.GraphRecorder
	// StageObserver receives per-stage timings; nil disables observation.
	StageObserver func(stage domain.RunStage, duration time.Duration)
}

func NewRunPipelineUseCase(
	ledger ports.ExclusionLedger,
	selector *CandidateSelector,
	researcher ports.Researcher,
	renderer ports.Renderer,
	artifacts ports.ArtifactStore,
	notes ports.NoteStore,
	notifier ports.Notifier,
	opts RunOptions,
) *RunPipelineUseCase {
	if opts.StageTimeout <= 0 {
		opts.StageTimeout = 2 * time.Minute
	}
	return &RunPipelineUseCase{
		ledger:        ledger,
		selector:      selector,
		researcher:    researcher,
		renderer:      renderer,
		artifacts:     artifacts,
		notes:         notes,
		notifier:      notifier,
		graph:         opts.Graph,
		stageTimeout:  opts.StageTimeout,
		publishPublic: opts.PublishPublic,
		observeStage:  opts.StageObserver,
	}
}

// Run executes one pipeline invocation for the given date. The returned
// RunState is always non-nil and reports the terminal status, the stage
// reached, and any degraded post-steps.
func (uc *RunPipelineUseCase) Run(ctx context.Context, date time.Time) (*domain.RunState, error) {
	state := domain.NewRunState(uuid.NewString(), date)

	exclusions, err := uc.timedExclusions(ctx)
	if err != nil {
		state.Fail(domain.StageInit, err)
		return state, err
	}
	state.Advance(domain.StageExclusionLoaded)

	candidate, err := uc.timedChoose(ctx, exclusions)
	if err != nil {
		state.Fail(domain.StageExclusionLoaded, err)
		return state, err
	}
	state.Candidate = &candidate
	state.Advance(domain.StageCandidateChosen)

	record, err := uc.timedResearch(ctx, candidate)
	if err != nil {
		state.Fail(domain.StageCandidateChosen, err)
		return state, err
	}
	state.Advance(domain.StageResearched)

	artifact, err := uc.timedRender(ctx, state, record, candidate.Title)
	if err != nil {
		state.Fail(domain.StageResearched, err)
		return state, err
	}
	state.Artifact = &artifact
	state.Advance(domain.StageRendered)

	notePath, err := uc.composeAndStoreNote(ctx, candidate, record, artifact, date)
	if err != nil {
		state.Fail(domain.StageRendered, err)
		return state, err
	}
	state.NotePath = notePath
	state.Advance(domain.StageNoteComposed)

	uc.postProcess(ctx, state, candidate, record)

	state.Advance(domain.StageDone)
	return state, nil
}

func (uc *RunPipelineUseCase) stageCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, uc.stageTimeout)
}

func (uc *RunPipelineUseCase) timed(stage domain.RunStage) func() {
	if uc.observeStage == nil {
		return func() {}
	}
	start := time.Now()
	return func() { uc.observeStage(stage, time.Since(start)) }
}

func (uc *RunPipelineUseCase) timedExclusions(ctx context.Context) (*domain.ExclusionSet, error) {
	defer uc.timed(domain.StageExclusionLoaded)()
	return uc.loadExclusions(ctx)
}

func (uc *RunPipelineUseCase) timedChoose(ctx context.Context, exclusions *domain.ExclusionSet) (domain.Candidate, error) {
	defer uc.timed(domain.StageCandidateChosen)()
	return uc.chooseCandidate(ctx, exclusions)
}

func (uc *RunPipelineUseCase) timedResearch(ctx context.Context, candidate domain.Candidate) (*domain.ResearchRecord, error) {
	defer uc.timed(domain.StageResearched)()
	return uc.research(ctx, candidate)
}

func (uc *RunPipelineUseCase) timedRender(ctx context.Context, state *domain.RunState, record *domain.ResearchRecord, title string) (domain.RenderedArtifact, error) {
	defer uc.timed(domain.StageRendered)()
	return uc.render(ctx, state, record, title)
}

func (uc *RunPipelineUseCase) loadExclusions(ctx context.Context) (*domain.ExclusionSet, error) {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	titles, err := uc.ledger.ListTitles(sctx)
	if err != nil {
		return nil, fmt.Errorf("load exclusion ledger: %w", err)
	}
	return domain.NewExclusionSet(titles), nil
}

func (uc *RunPipelineUseCase) chooseCandidate(ctx context.Context, exclusions *domain.ExclusionSet) (domain.Candidate, error) {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	candidate, err := uc.selector.Choose(sctx, exclusions)
	if err != nil {
		return domain.Candidate{}, fmt.Errorf("choose candidate: %w", err)
	}
	return candidate, nil
}

// research performs the single call plus the one clarifying retry the
// pipeline allows. A second malformed result aborts the run; the title
// stays in the pool since nothing usable was learned.
func (uc *RunPipelineUseCase) research(ctx context.Context, candidate domain.Candidate) (*domain.ResearchRecord, error) {
	record, err := uc.researchOnce(ctx, candidate, false)
	if err == nil {
		return record, nil
	}
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	record, retryErr := uc.researchOnce(ctx, candidate, true)
	if retryErr == nil {
		return record, nil
	}
	if domain.IsKind(retryErr, domain.ErrResearchMalformed) || domain.IsKind(retryErr, domain.ErrInvalidInput) {
		return nil, domain.WrapError(domain.ErrResearchMalformed, "research book", retryErr)
	}
	return nil, retryErr
}

func (uc *RunPipelineUseCase) researchOnce(ctx context.Context, candidate domain.Candidate, strict bool) (*domain.ResearchRecord, error) {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	record, err := uc.researcher.Research(sctx, candidate, strict)
	if err != nil {
		return nil, fmt.Errorf("research call: %w", err)
	}
	if err := record.Validate(); err != nil {
		return nil, err
	}
	record.ClampActions()
	return record, nil
}

func (uc *RunPipelineUseCase) render(ctx context.Context, state *domain.RunState, record *domain.ResearchRecord, title string) (domain.RenderedArtifact, error) {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	content, err := uc.renderer.Render(sctx, record, title)
	if err != nil {
		return domain.RenderedArtifact{}, domain.WrapError(domain.ErrRenderingFailed, "render artifact", err)
	}

	name := ArtifactName(title)
	path, err := uc.artifacts.Save(sctx, name, content)
	if err != nil {
		return domain.RenderedArtifact{}, domain.WrapError(domain.ErrRenderingFailed, "store artifact", err)
	}

	artifact := domain.RenderedArtifact{Title: title, Path: path}
	if uc.publishPublic {
		url, err := uc.artifacts.Publish(sctx, name)
		if err != nil {
			// Informational value does not depend on public hosting.
			state.Flag(domain.EffectPublicPublish)
		} else {
			artifact.PublicURL = url
		}
	}
	return artifact, nil
}

func (uc *RunPipelineUseCase) composeAndStoreNote(ctx context.Context, candidate domain.Candidate, record *domain.ResearchRecord, artifact domain.RenderedArtifact, date time.Time) (string, error) {
	content, err := ComposeNote(candidate, record, artifact, date)
	if err != nil {
		return "", err
	}

	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	path, err := uc.notes.Save(sctx, NoteName(date), content)
	if err != nil {
		return "", fmt.Errorf("store note: %w", err)
	}
	return path, nil
}

// postProcess runs the independent best-effort side effects. Order matters
// only for reporting: ledger append commits the never-repeat invariant, the
// notification references the already-written note, the graph recording is
// purely additive. None of them can fail the run at this point.
func (uc *RunPipelineUseCase) postProcess(ctx context.Context, state *domain.RunState, candidate domain.Candidate, record *domain.ResearchRecord) {
	if err := uc.appendLedger(ctx, candidate, state.Date); err != nil {
		state.Flag(domain.EffectLedgerUpdate)
	} else {
		state.Advance(domain.StageLedgerUpdated)
	}

	if err := uc.notify(ctx, state, candidate, record); err != nil {
		state.Flag(domain.EffectNotification)
	} else {
		state.Advance(domain.StageNotified)
	}

	if uc.graph != nil {
		if err := uc.recordGraph(ctx, candidate, record); err != nil {
			state.Flag(domain.EffectGraphUpdate)
		}
	}
}

func (uc *RunPipelineUseCase) appendLedger(ctx context.Context, candidate domain.Candidate, date time.Time) error {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()
	return uc.ledger.Append(sctx, domain.NewLedgerEntry(date, candidate))
}

func (uc *RunPipelineUseCase) notify(ctx context.Context, state *domain.RunState, candidate domain.Candidate, record *domain.ResearchRecord) error {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()

	message := notificationMessage(candidate, record)
	return uc.notifier.Send(sctx, message, state.NotePath)
}

func (uc *RunPipelineUseCase) recordGraph(ctx context.Context, candidate domain.Candidate, record *domain.ResearchRecord) error {
	sctx, cancel := uc.stageCtx(ctx)
	defer cancel()
	return uc.graph.RecordRelated(sctx, candidate, record.RelatedBooks)
}

func notificationMessage(candidate domain.Candidate, record *domain.ResearchRecord) string {
	core := []rune(record.CoreMessage)
	if len(core) > 60 {
		core = append(core[:60], []rune("...")...)
	}
	return fmt.Sprintf("📚 今日の一冊: %s（%s）\n%s", candidate.Title, candidate.Author, string(core))
}

package domain

import "time"

// RunStage names the orchestrator's strictly sequential states. Transitions
// are one-directional; no stage re-enters an earlier one.
type RunStage string

const (
	StageInit            RunStage = "init"
	StageExclusionLoaded RunStage = "exclusion_loaded"
	StageCandidateChosen RunStage = "candidate_chosen"
	StageResearched      RunStage = "researched"
	StageRendered        RunStage = "rendered"
	StageNoteComposed    RunStage = "note_composed"
	StageLedgerUpdated   RunStage = "ledger_updated"
	StageNotified        RunStage = "notified"
	StageDone            RunStage = "done"
)

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunDegraded  RunStatus = "degraded"
	RunFailed    RunStatus = "failed"
)

// DegradedEffect flags a best-effort post-step that failed after the note
// already existed. Each is independent; none aborts the run.
type DegradedEffect string

const (
	EffectPublicPublish DegradedEffect = "public_publish_failed"
	EffectLedgerUpdate  DegradedEffect = "ledger_update_failed"
	EffectNotification  DegradedEffect = "notification_failed"
	EffectGraphUpdate   DegradedEffect = "graph_update_failed"
)

// RunState is the orchestrator's record of a single run. It lives only for
// the invocation; the exclusion ledger and produced artifacts are the sole
// cross-run state.
type RunState struct {
	ID        string
	Date      time.Time
	Stage     RunStage
	Candidate *Candidate
	Artifact  *RenderedArtifact
	NotePath  string
	Degraded  []DegradedEffect
	Err       error
}

func NewRunState(id string, date time.Time) *RunState {
	return &RunState{ID: id, Date: date, Stage: StageInit}
}

func (s *RunState) Advance(stage RunStage) {
	s.Stage = stage
}

// Fail records the failing stage and reason. Only reachable before the note
// exists; afterwards failures are degradations, not run failures.
func (s *RunState) Fail(stage RunStage, err error) {
	s.Stage = stage
	s.Err = err
}

func (s *RunState) Flag(effect DegradedEffect) {
	s.Degraded = append(s.Degraded, effect)
}

func (s *RunState) Status() RunStatus {
	if s.Err != nil {
		return RunFailed
	}
	if len(s.Degraded) > 0 {
		return RunDegraded
	}
	return RunSucceeded
}

// DateKey is the run's calendar-day identity used in note naming.
func (s *RunState) DateKey() string {
	return s.Date.Format("2006-01-02")
}

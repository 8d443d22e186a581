package ports

import (
	"context"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

// ExclusionLedger reads and appends the remote record of previously-chosen
// titles. Append must be durable before the post-step reports success.
// No caching across runs: concurrent-run races on append are an explicit,
// bounded risk, not a hidden shared variable.
type ExclusionLedger interface {
	ListTitles(ctx context.Context) ([]string, error)
	Append(ctx context.Context, entry domain.LedgerEntry) error
}

// Recommender requests candidate books constrained by category set and the
// exclusion list. May return fewer than requested.
type Recommender interface {
	Recommend(ctx context.Context, categories, excluded []string, count int) ([]domain.Candidate, error)
}

// Researcher produces the structured research record for a chosen book.
// strict requests a clarifying re-ask after a malformed first answer.
type Researcher interface {
	Research(ctx context.Context, candidate domain.Candidate, strict bool) (*domain.ResearchRecord, error)
}

// Renderer produces a single self-contained visual-summary document.
type Renderer interface {
	Render(ctx context.Context, record *domain.ResearchRecord, title string) ([]byte, error)
}

// ArtifactStore persists rendered artifacts under deterministic names with
// overwrite semantics, and optionally publishes them to a public location.
type ArtifactStore interface {
	Save(ctx context.Context, filename string, content []byte) (string, error)
	Publish(ctx context.Context, filename string) (string, error)
}

// NoteStore persists the composed note at the well-known run-date location.
type NoteStore interface {
	Save(ctx context.Context, name string, content []byte) (string, error)
}

// Notifier dispatches the end-of-run message with the note's resolvable link.
type Notifier interface {
	Send(ctx context.Context, message, link string) error
}

// GraphRecorder records the chosen book's related-books edges.
type GraphRecorder interface {
	RecordRelated(ctx context.Context, candidate domain.Candidate, related []domain.RelatedBook) error
}

// RunQueue publishes and consumes run-trigger events.
type RunQueue interface {
	PublishRunRequest(ctx context.Context, dateKey string) error
	SubscribeRunRequests(ctx context.Context, handler func(context.Context, string) error) error
}

package ports

import (
	"context"
	"time"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

// PipelineRunner is the inbound contract for executing one daily run.
type PipelineRunner interface {
	Run(ctx context.Context, date time.Time) (*domain.RunState, error)
}

package openai

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const researchTemperature = 0.2

// Researcher implements ports.Researcher on the shared client.
type Researcher struct {
	client *Client
}

func NewResearcher(client *Client) *Researcher {
	return &Researcher{client: client}
}

func (r *Researcher) Research(ctx context.Context, candidate domain.Candidate, strict bool) (*domain.ResearchRecord, error) {
	respText, err := r.client.chatJSON(
		ctx,
		r.client.models.Research,
		jsonOnlySystem,
		buildResearchPrompt(candidate.Title, candidate.Author, strict),
		researchTemperature,
	)
	if err != nil {
		return nil, err
	}

	raw := []byte(extractJSONObject(respText))
	if err := validateResearchJSON(raw); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "research output", err)
	}

	var record domain.ResearchRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("parse research json: %w", err)
	}
	return &record, nil
}

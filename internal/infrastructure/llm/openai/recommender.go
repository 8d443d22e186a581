package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const recommendTemperature = 0.35

// Recommender implements ports.Recommender on the shared client.
type Recommender struct {
	client *Client
}

func NewRecommender(client *Client) *Recommender {
	return &Recommender{client: client}
}

func (r *Recommender) Recommend(ctx context.Context, categories, excluded []string, count int) ([]domain.Candidate, error) {
	respText, err := r.client.chatJSON(
		ctx,
		r.client.models.Recommend,
		jsonOnlySystem,
		buildRecommendationPrompt(categories, excluded, count),
		recommendTemperature,
	)
	if err != nil {
		return nil, err
	}

	candidates, err := parseCandidates(respText)
	if err != nil {
		return nil, fmt.Errorf("parse recommendation json: %w", err)
	}

	out := make([]domain.Candidate, 0, len(candidates))
	for _, c := range candidates {
		c.Title = strings.TrimSpace(c.Title)
		c.Author = strings.TrimSpace(c.Author)
		c.Category = strings.TrimSpace(c.Category)
		if c.Title == "" {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

// parseCandidates accepts both the documented {"candidates": [...]} wrapper
// and a bare array, which some models still emit despite the contract.
func parseCandidates(raw string) ([]domain.Candidate, error) {
	var wrapper struct {
		Candidates []domain.Candidate `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &wrapper); err == nil && len(wrapper.Candidates) > 0 {
		return wrapper.Candidates, nil
	}

	var bare []domain.Candidate
	if err := json.Unmarshal([]byte(extractJSONArray(raw)), &bare); err != nil {
		return nil, err
	}
	return bare, nil
}

// Package neo4j records chosen books and their related titles as a graph,
// so recommendations can later be explored by proximity.
package neo4j

import (
	"context"
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

// Recorder persists RELATED_TO edges between a chosen book and the related
// books surfaced by research.
type Recorder struct {
	driver   neo4j.DriverWithContext
	database string
}

// New connects to a Neo4j instance with basic auth and verifies connectivity.
func New(ctx context.Context, uri, user, password, database string) (*Recorder, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "neo4j.New", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, domain.WrapError(domain.ErrTemporary, "neo4j.New", err)
	}
	return &Recorder{driver: driver, database: database}, nil
}

// Close releases the underlying driver.
func (r *Recorder) Close(ctx context.Context) error {
	return r.driver.Close(ctx)
}

// RecordRelated merges the chosen book node and one RELATED_TO edge per
// related book. Nodes are keyed by normalized title so repeat runs do not
// duplicate them.
func (r *Recorder) RecordRelated(ctx context.Context, chosen domain.Candidate, related []domain.RelatedBook) error {
	if strings.TrimSpace(chosen.Title) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "neo4j.RecordRelated", fmt.Errorf("chosen title is empty"))
	}

	session := r.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: r.database,
	})
	defer session.Close(ctx)

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, `
			MERGE (b:Book {norm_title: $norm})
			SET b.title = $title, b.author = $author, b.category = $category
		`, map[string]any{
			"norm":     domain.NormalizeTitle(chosen.Title),
			"title":    chosen.Title,
			"author":   chosen.Author,
			"category": chosen.Category,
		})
		if err != nil {
			return nil, err
		}
		for _, rb := range related {
			if strings.TrimSpace(rb.Title) == "" {
				continue
			}
			_, err := tx.Run(ctx, `
				MATCH (b:Book {norm_title: $norm})
				MERGE (o:Book {norm_title: $relatedNorm})
				ON CREATE SET o.title = $relatedTitle, o.author = $relatedAuthor
				MERGE (b)-[e:RELATED_TO]->(o)
				SET e.relevance = $relevance
			`, map[string]any{
				"norm":          domain.NormalizeTitle(chosen.Title),
				"relatedNorm":   domain.NormalizeTitle(rb.Title),
				"relatedTitle":  rb.Title,
				"relatedAuthor": rb.Author,
				"relevance":     rb.Relevance,
			})
			if err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "neo4j.RecordRelated", err)
	}
	return nil
}

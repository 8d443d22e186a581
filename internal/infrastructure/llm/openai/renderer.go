package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const renderSystem = "あなたはインフォグラフィックデザイナーです。出力は完全なHTMLドキュメント1つのみ。"

// Renderer implements ports.Renderer on the shared client. Output is
// verified to be a self-contained document before it leaves this boundary.
type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

func (r *Renderer) Render(ctx context.Context, record *domain.ResearchRecord, title string) ([]byte, error) {
	respText, err := r.client.chatText(
		ctx,
		r.client.models.Render,
		renderSystem,
		buildRenderPrompt(record, title),
		0,
	)
	if err != nil {
		return nil, err
	}

	html := extractHTML(respText)
	if html == "" {
		return nil, fmt.Errorf("render output contains no html document")
	}
	if err := ensureSelfContained([]byte(html)); err != nil {
		return nil, fmt.Errorf("render output: %w", err)
	}
	return []byte(html), nil
}

// extractHTML unwraps a fenced code block if the model ignored the
// no-fences instruction, then trims to the document boundaries.
func extractHTML(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```html")
		s = strings.TrimPrefix(s, "```")
		if idx := strings.LastIndex(s, "```"); idx >= 0 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	start := indexASCIIFold(s, "<!doctype")
	if start < 0 {
		start = indexASCIIFold(s, "<html")
	}
	if start < 0 {
		return ""
	}
	return s[start:]
}

// indexASCIIFold is a case-insensitive strings.Index that keeps byte
// offsets valid in s. strings.ToLower would shift offsets when the
// surrounding prose contains length-changing case folds.
func indexASCIIFold(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}

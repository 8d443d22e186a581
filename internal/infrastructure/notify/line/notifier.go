// Package line delivers run notifications through the LINE Messaging API.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oshomadesse/shiori/internal/core/domain"
)

const (
	defaultEndpoint = "https://api.line.me/v2/bot/message/push"
	defaultTimeout  = 15 * time.Second

	// maxMessageRunes is the LINE push API limit for a text message.
	maxMessageRunes = 5000
)

// Notifier pushes text messages to a single LINE recipient.
type Notifier struct {
	endpoint   string
	token      string
	to         string
	httpClient *http.Client
}

// Options tunes the notifier transport.
type Options struct {
	Endpoint string
	Timeout  time.Duration
}

// New creates a Notifier for the given channel access token and recipient ID.
func New(token, to string, opts Options) (*Notifier, error) {
	if token == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "line.New", fmt.Errorf("channel access token is empty"))
	}
	if to == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "line.New", fmt.Errorf("recipient id is empty"))
	}
	endpoint := opts.Endpoint
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Notifier{
		endpoint:   endpoint,
		token:      token,
		to:         to,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type pushRequest struct {
	To       string        `json:"to"`
	Messages []pushMessage `json:"messages"`
}

type pushMessage struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Send pushes a text message. When link is non-empty it is appended on its
// own line. The combined body is truncated to the API's character limit.
func (n *Notifier) Send(ctx context.Context, message, link string) error {
	body := message
	if link != "" {
		body = body + "\n" + link
	}
	body = truncateRunes(body, maxMessageRunes)
	if strings.TrimSpace(body) == "" {
		return domain.WrapError(domain.ErrInvalidInput, "line.Send", fmt.Errorf("message is empty"))
	}

	payload, err := json.Marshal(pushRequest{
		To:       n.to,
		Messages: []pushMessage{{Type: "text", Text: body}},
	})
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "line.Send", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(payload))
	if err != nil {
		return domain.WrapError(domain.ErrInvalidInput, "line.Send", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+n.token)

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "line.Send", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		err := fmt.Errorf("line push returned %s: %s", resp.Status, strings.TrimSpace(string(detail)))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return domain.WrapError(domain.ErrTemporary, "line.Send", err)
		}
		return domain.WrapError(domain.ErrInvalidInput, "line.Send", err)
	}
	return nil
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

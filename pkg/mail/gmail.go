package mail

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const gmailBase = "https://gmail.googleapis.com/gmail/v1/users/me"

// Gmail talks to the Gmail REST API with a bearer token.
type Gmail struct {
	Token   string
	BaseURL string
	Client  *http.Client

	labelID string
}

// NewGmail returns a provider for the given OAuth access token.
func NewGmail(token string) *Gmail {
	return &Gmail{
		Token:   token,
		BaseURL: gmailBase,
		Client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Search lists message IDs matching query and fetches each in full.
func (g *Gmail) Search(ctx context.Context, query string) ([]Message, error) {
	var list struct {
		Messages []struct {
			ID string `json:"id"`
		} `json:"messages"`
	}
	q := url.Values{"q": {query}, "maxResults": {"25"}}
	if err := g.get(ctx, "/messages?"+q.Encode(), &list); err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}
	var messages []Message
	for _, m := range list.Messages {
		raw, err := g.getRaw(ctx, "/messages/"+m.ID+"?format=full")
		if err != nil {
			return messages, fmt.Errorf("fetch message %s: %w", m.ID, err)
		}
		msg, err := DecodeMessage(raw)
		if err != nil {
			return messages, err
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// MarkProcessed adds the processed label, creating it on first use.
func (g *Gmail) MarkProcessed(ctx context.Context, id string) error {
	labelID, err := g.ensureLabel(ctx)
	if err != nil {
		return err
	}
	body := map[string]any{"addLabelIds": []string{labelID}}
	return g.post(ctx, "/messages/"+id+"/modify", body, nil)
}

// SendReply sends a plain-text reply on the original thread.
func (g *Gmail) SendReply(ctx context.Context, id, to, subject, body string) error {
	var meta struct {
		ThreadID string `json:"threadId"`
	}
	if err := g.get(ctx, "/messages/"+id+"?format=minimal", &meta); err != nil {
		return fmt.Errorf("resolve thread for %s: %w", id, err)
	}
	rfc822 := fmt.Sprintf("To: %s\r\nSubject: %s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s", to, subject, body)
	payload := map[string]any{
		"raw":      base64.RawURLEncoding.EncodeToString([]byte(rfc822)),
		"threadId": meta.ThreadID,
	}
	return g.post(ctx, "/messages/send", payload, nil)
}

func (g *Gmail) ensureLabel(ctx context.Context) (string, error) {
	if g.labelID != "" {
		return g.labelID, nil
	}
	var labels struct {
		Labels []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"labels"`
	}
	if err := g.get(ctx, "/labels", &labels); err != nil {
		return "", fmt.Errorf("list labels: %w", err)
	}
	for _, l := range labels.Labels {
		if l.Name == ProcessedLabel {
			g.labelID = l.ID
			return l.ID, nil
		}
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := g.post(ctx, "/labels", map[string]string{"name": ProcessedLabel}, &created); err != nil {
		return "", fmt.Errorf("create label: %w", err)
	}
	g.labelID = created.ID
	return created.ID, nil
}

func (g *Gmail) get(ctx context.Context, path string, out any) error {
	raw, err := g.getRaw(ctx, path)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

func (g *Gmail) getRaw(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return g.do(req)
}

func (g *Gmail) post(ctx context.Context, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	raw, err := g.do(req)
	if err != nil {
		return err
	}
	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

func (g *Gmail) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Authorization", "Bearer "+g.Token)
	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return raw, nil
}

package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// TwitterLimit is the platform's character cap. Longer content is
// truncated with an ellipsis.
const TwitterLimit = 280

func defaultClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

// LinkedIn posts UGC shares for a member URN.
type LinkedIn struct {
	Token    string
	AuthorID string
	Endpoint string
	Client   *http.Client
}

func (l *LinkedIn) Platform() string { return "linkedin" }

func (l *LinkedIn) Validate() error {
	if l.Token == "" || l.AuthorID == "" {
		return errors.New("linkedin: access token and author id required")
	}
	return nil
}

func (l *LinkedIn) Post(ctx context.Context, content string) (string, error) {
	endpoint := l.Endpoint
	if endpoint == "" {
		endpoint = "https://api.linkedin.com/v2/ugcPosts"
	}
	payload := map[string]any{
		"author":         "urn:li:person:" + l.AuthorID,
		"lifecycleState": "PUBLISHED",
		"specificContent": map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary":    map[string]string{"text": content},
				"shareMediaCategory": "NONE",
			},
		},
		"visibility": map[string]string{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := postJSON(ctx, l.Client, endpoint, l.Token, payload, &out); err != nil {
		return "", fmt.Errorf("linkedin post: %w", err)
	}
	return out.ID, nil
}

// Facebook posts to a page feed.
type Facebook struct {
	Token    string
	PageID   string
	Endpoint string
	Client   *http.Client
}

func (f *Facebook) Platform() string { return "facebook" }

func (f *Facebook) Validate() error {
	if f.Token == "" || f.PageID == "" {
		return errors.New("facebook: access token and page id required")
	}
	return nil
}

func (f *Facebook) Post(ctx context.Context, content string) (string, error) {
	endpoint := f.Endpoint
	if endpoint == "" {
		endpoint = "https://graph.facebook.com/v19.0"
	}
	form := url.Values{"message": {content}, "access_token": {f.Token}}
	client := f.Client
	if client == nil {
		client = defaultClient()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		fmt.Sprintf("%s/%s/feed", endpoint, f.PageID),
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	var out struct {
		ID string `json:"id"`
	}
	if err := doJSON(client, req, &out); err != nil {
		return "", fmt.Errorf("facebook post: %w", err)
	}
	return out.ID, nil
}

// Twitter posts tweets, truncating over-long content.
type Twitter struct {
	Token    string
	Endpoint string
	Client   *http.Client
}

func (t *Twitter) Platform() string { return "twitter" }

func (t *Twitter) Validate() error {
	if t.Token == "" {
		return errors.New("twitter: bearer token required")
	}
	return nil
}

func (t *Twitter) Post(ctx context.Context, content string) (string, error) {
	endpoint := t.Endpoint
	if endpoint == "" {
		endpoint = "https://api.twitter.com/2/tweets"
	}
	var out struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	payload := map[string]string{"text": Truncate(content)}
	if err := postJSON(ctx, t.Client, endpoint, t.Token, payload, &out); err != nil {
		return "", fmt.Errorf("twitter post: %w", err)
	}
	return out.Data.ID, nil
}

// Truncate caps content at TwitterLimit runes, replacing the tail with
// "..." so the result is exactly the limit.
func Truncate(content string) string {
	runes := []rune(content)
	if len(runes) <= TwitterLimit {
		return content
	}
	return string(runes[:TwitterLimit-3]) + "..."
}

func postJSON(ctx context.Context, client *http.Client, endpoint, token string, payload, out any) error {
	if client == nil {
		client = defaultClient()
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	return doJSON(client, req, out)
}

func doJSON(client *http.Client, req *http.Request, out any) error {
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil && len(raw) > 0 {
		return json.Unmarshal(raw, out)
	}
	return nil
}

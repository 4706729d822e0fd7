package mail

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
)

// gmailMessage mirrors the subset of the Gmail API message resource the
// pipeline needs.
type gmailMessage struct {
	ID      string       `json:"id"`
	Payload gmailPayload `json:"payload"`
}

type gmailPayload struct {
	MimeType string        `json:"mimeType"`
	Headers  []gmailHeader `json:"headers"`
	Body     gmailBody     `json:"body"`
	Parts    []gmailPayload `json:"parts"`
}

type gmailHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type gmailBody struct {
	Data string `json:"data"`
}

// DecodeMessage parses a raw Gmail API message into a Message. The
// plain-text body is taken from the first text/plain part, searched
// depth-first through multipart nesting; body data is base64url.
func DecodeMessage(raw []byte) (Message, error) {
	var gm gmailMessage
	if err := json.Unmarshal(raw, &gm); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", err)
	}
	msg := Message{ID: gm.ID}
	for _, h := range gm.Payload.Headers {
		switch strings.ToLower(h.Name) {
		case "from":
			msg.From = h.Value
		case "subject":
			msg.Subject = h.Value
		case "date":
			msg.Date = h.Value
		}
	}
	msg.Body = plainText(gm.Payload)
	return msg, nil
}

func plainText(p gmailPayload) string {
	if strings.HasPrefix(p.MimeType, "text/plain") || (p.MimeType == "" && len(p.Parts) == 0) {
		if text := decodeBody(p.Body.Data); text != "" {
			return text
		}
	}
	for _, part := range p.Parts {
		if text := plainText(part); text != "" {
			return text
		}
	}
	return ""
}

func decodeBody(data string) string {
	if data == "" {
		return ""
	}
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// Address extracts the bare address from a "Name <addr>" header value.
func Address(from string) string {
	if start := strings.LastIndex(from, "<"); start >= 0 {
		if end := strings.LastIndex(from, ">"); end > start {
			return strings.TrimSpace(from[start+1 : end])
		}
	}
	return strings.TrimSpace(from)
}

// ReplySubject prefixes "Re: " unless one is already there.
func ReplySubject(subject string) string {
	if strings.HasPrefix(strings.ToLower(subject), "re:") {
		return subject
	}
	return "Re: " + subject
}

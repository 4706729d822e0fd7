package planner

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/deskhand/deskhand/pkg/types"
)

// Reply payload delimiters. Text between them is sent verbatim.
const (
	ReplyBegin = "---BEGIN REPLY---"
	ReplyEnd   = "---END REPLY---"
)

// BuildPrompt assembles the planning prompt from the handbook, the
// agent memory, and the artifact under consideration.
func BuildPrompt(handbook, memory string, header types.Header, body string) string {
	var b strings.Builder
	b.WriteString("You are an operations assistant drafting an action plan for one incoming item.\n\n")
	if handbook != "" {
		b.WriteString("# Company Handbook\n\n")
		b.WriteString(strings.TrimSpace(handbook))
		b.WriteString("\n\n")
	}
	if memory != "" {
		b.WriteString("# Lessons From Past Rejections\n\n")
		b.WriteString(strings.TrimSpace(memory))
		b.WriteString("\n\n")
	}
	b.WriteString("# Item\n\n")
	fmt.Fprintf(&b, "Type: %s\n", header.Type)
	if header.From != "" {
		fmt.Fprintf(&b, "From: %s\n", header.From)
	}
	if header.Subject != "" {
		fmt.Fprintf(&b, "Subject: %s\n", header.Subject)
	}
	if header.Filename != "" {
		fmt.Fprintf(&b, "Filename: %s\n", header.Filename)
	}
	b.WriteString("\n")
	b.WriteString(strings.TrimSpace(body))
	b.WriteString("\n\n# Instructions\n\n")
	b.WriteString("Respond with exactly these sections:\n")
	b.WriteString("## Analysis\n## Recommended Actions\n## Requires Approval\n")
	fmt.Fprintf(&b, "If a reply should be sent, include it verbatim between lines %s and %s.\n", ReplyBegin, ReplyEnd)
	b.WriteString("Finish with a line: Confidence: <number between 0.0 and 1.0>\n")
	return b.String()
}

// Response is the parsed assistant output.
type Response struct {
	Text          string
	Confidence    float64
	HasConfidence bool
	HasReply      bool
	Reply         string
}

var confidencePattern = regexp.MustCompile(`(?im)^\s*#*\s*confidence\s*[:=]?\s*([01](?:\.\d+)?)\s*$`)

// ParseResponse extracts the confidence value and any reply block. An
// unparseable confidence is reported absent (treated as 0).
func ParseResponse(text string) Response {
	resp := Response{Text: text}
	if m := confidencePattern.FindStringSubmatch(text); m != nil {
		var f float64
		if _, err := fmt.Sscanf(m[1], "%g", &f); err == nil && f >= 0 && f <= 1 {
			resp.Confidence = f
			resp.HasConfidence = true
		}
	}
	if reply, ok := ExtractReply(text); ok {
		resp.HasReply = true
		resp.Reply = reply
	}
	return resp
}

// ExtractReply returns the text between the reply markers, trimmed.
func ExtractReply(text string) (string, bool) {
	start := strings.Index(text, ReplyBegin)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(ReplyBegin):]
	end := strings.Index(rest, ReplyEnd)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(rest[:end]), true
}

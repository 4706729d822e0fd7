package watcher

import (
	"strings"

	"github.com/deskhand/deskhand/pkg/types"
)

var urgencyKeywords = []string{"urgent", "asap", "deadline", "overdue"}

var newsletterPrefixes = []string{
	"newsletter@", "no-reply@", "noreply@",
	"notifications@", "updates@", "digest@",
}

// ClassifyPriority applies the ordered priority rules: urgency keyword
// beats VIP sender beats newsletter pattern; everything else is normal.
// Matching is case-insensitive throughout.
func ClassifyPriority(from, subject, body string, vips []string) types.Priority {
	haystack := strings.ToLower(subject + " " + body)
	for _, kw := range urgencyKeywords {
		if strings.Contains(haystack, kw) {
			return types.PriorityHigh
		}
	}
	sender := strings.ToLower(strings.TrimSpace(from))
	for _, vip := range vips {
		if sender == strings.ToLower(vip) {
			return types.PriorityHigh
		}
	}
	for _, prefix := range newsletterPrefixes {
		if strings.Contains(sender, prefix) {
			return types.PriorityLow
		}
	}
	return types.PriorityNormal
}

package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// HeaderDelimiter opens and closes the key/value block at the top of
// every artifact.
const HeaderDelimiter = "---"

// Header is the typed view of an artifact's leading key/value block.
// Well-known keys get fields; anything else lands in Extra. Multi-line
// values are not supported.
type Header struct {
	Type      string
	Created   string
	From      string
	To        string
	Subject   string
	Date      string
	MailID    string
	Source    string
	Status    string
	Action    string
	Platform  string
	Filename  string
	Extension string
	SizeBytes int64
	Extracted bool
	Priority  Priority

	// Confidence is only meaningful when HasConfidence is set; a plan
	// without a parseable confidence is treated as 0.
	Confidence    float64
	HasConfidence bool

	QuarantineError string
	QuarantineTime  string

	Extra map[string]string
}

// Get returns the raw value for a key, consulting typed fields first.
func (h *Header) Get(key string) string {
	switch key {
	case "type":
		return h.Type
	case "created":
		return h.Created
	case "from":
		return h.From
	case "to":
		return h.To
	case "subject":
		return h.Subject
	case "date":
		return h.Date
	case "gmail_id":
		return h.MailID
	case "source":
		return h.Source
	case "status":
		return h.Status
	case "action":
		return h.Action
	case "platform":
		return h.Platform
	case "filename":
		return h.Filename
	case "extension":
		return h.Extension
	case "size_bytes":
		if h.SizeBytes == 0 {
			return ""
		}
		return strconv.FormatInt(h.SizeBytes, 10)
	case "extracted":
		if h.Type != TypeFile {
			return ""
		}
		return strconv.FormatBool(h.Extracted)
	case "priority":
		return string(h.Priority)
	case "confidence":
		if !h.HasConfidence {
			return ""
		}
		return strconv.FormatFloat(h.Confidence, 'f', 2, 64)
	case "quarantine_error":
		return h.QuarantineError
	case "quarantine_time":
		return h.QuarantineTime
	default:
		return h.Extra[key]
	}
}

func (h *Header) set(key, value string) {
	switch key {
	case "type":
		h.Type = value
	case "created":
		h.Created = value
	case "from":
		h.From = value
	case "to":
		h.To = value
	case "subject":
		h.Subject = value
	case "date":
		h.Date = value
	case "gmail_id":
		h.MailID = value
	case "source":
		h.Source = value
	case "status":
		h.Status = value
	case "action":
		h.Action = value
	case "platform":
		h.Platform = value
	case "filename":
		h.Filename = value
	case "extension":
		h.Extension = value
	case "size_bytes":
		h.SizeBytes, _ = strconv.ParseInt(value, 10, 64)
	case "extracted":
		h.Extracted = value == "true"
	case "priority":
		if value != "" {
			h.Priority = ParsePriority(value)
		}
	case "confidence":
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			h.Confidence = f
			h.HasConfidence = true
		}
	case "quarantine_error":
		h.QuarantineError = value
	case "quarantine_time":
		h.QuarantineTime = value
	default:
		if h.Extra == nil {
			h.Extra = make(map[string]string)
		}
		h.Extra[key] = value
	}
}

// renderOrder fixes the emission order of well-known keys so written
// artifacts are stable and diffable.
var renderOrder = []string{
	"type", "source", "created", "status", "confidence", "action",
	"platform", "from", "to", "subject", "date", "gmail_id", "priority",
	"filename", "extension", "size_bytes", "extracted",
	"quarantine_error", "quarantine_time",
}

// Render serializes the header block including both delimiter lines.
// Zero-valued fields are omitted; extra keys follow in sorted order.
func (h *Header) Render() string {
	var b strings.Builder
	b.WriteString(HeaderDelimiter)
	b.WriteByte('\n')
	for _, key := range renderOrder {
		v := h.Get(key)
		if v == "" {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", key, quoteIfNeeded(v))
	}
	extras := make([]string, 0, len(h.Extra))
	for k := range h.Extra {
		extras = append(extras, k)
	}
	sort.Strings(extras)
	for _, k := range extras {
		fmt.Fprintf(&b, "%s: %s\n", k, quoteIfNeeded(h.Extra[k]))
	}
	b.WriteString(HeaderDelimiter)
	b.WriteByte('\n')
	return b.String()
}

func quoteIfNeeded(v string) string {
	if strings.Contains(v, ": ") || strings.HasPrefix(v, " ") || strings.HasSuffix(v, " ") {
		return strconv.Quote(v)
	}
	return v
}

// ParseDocument splits an artifact into its header and body. A missing
// or unterminated header block yields an empty header and the full
// content as body.
func ParseDocument(content string) (Header, string) {
	var h Header
	if !strings.HasPrefix(content, HeaderDelimiter+"\n") {
		return h, content
	}
	rest := content[len(HeaderDelimiter)+1:]
	var block, body string
	if end := strings.Index(rest, "\n"+HeaderDelimiter+"\n"); end >= 0 {
		block = rest[:end]
		body = rest[end+len(HeaderDelimiter)+2:]
	} else if strings.HasSuffix(rest, "\n"+HeaderDelimiter) {
		block = rest[:len(rest)-len(HeaderDelimiter)-1]
	} else {
		return h, content
	}
	body = strings.TrimPrefix(body, "\n")
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		if unquoted, err := strconv.Unquote(value); err == nil && strings.HasPrefix(value, `"`) {
			value = unquoted
		}
		h.set(key, value)
	}
	return h, body
}

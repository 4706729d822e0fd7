// Package mail defines the mail provider boundary: listing unprocessed
// messages, labelling them as handled, and sending replies. The Gmail
// implementation lives in gmail.go; tests use in-package fakes.
package mail

import "context"

// ProcessedLabel tags remote messages the watcher has materialized so
// the search query stops returning them.
const ProcessedLabel = "Processed-by-Deskhand"

// Message is the decoded view of one inbound mail.
type Message struct {
	ID      string
	From    string
	Subject string
	Date    string
	Body    string
}

// Provider is the mail backend contract.
type Provider interface {
	// Search returns messages matching the provider's query syntax.
	Search(ctx context.Context, query string) ([]Message, error)

	// MarkProcessed labels a message as handled, creating the label on
	// first use.
	MarkProcessed(ctx context.Context, id string) error

	// SendReply sends body to the original sender on the message's
	// thread.
	SendReply(ctx context.Context, id, to, subject, body string) error
}

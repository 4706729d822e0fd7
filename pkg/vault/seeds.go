package vault

const defaultHandbook = `# Company Handbook

## About
This handbook contains rules and preferences that guide how incoming
items are processed. Edit this file to customize plan drafting.

## Email Processing Rules
- Prioritize emails from known contacts
- Flag invoices and payment requests for approval
- Archive newsletters after summarizing
- Urgent keywords: "urgent", "asap", "deadline", "overdue"

## Approval Thresholds
- All email replies: require approval
- All payment-related actions: require approval
- Archiving/labeling: auto-approve

## Tone & Style
- Professional and concise in all drafted responses
- Match the sender's formality level
- Always acknowledge receipt of important items
`

const defaultMemory = `# Agent Memory

Learnings from past decisions. This file is read alongside the Company
Handbook when generating plans.

## Patterns
<!-- New learnings are appended here automatically -->
`

// Package types defines the shared data model for the deskhand
// pipeline: artifact priorities, work zones, plan states, and the typed
// header block carried at the top of every vault artifact.
package types

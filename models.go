package main

import (
	"strings"
	"time"
)

const (
	ActionContinue = "continue"
	ActionSwitch   = "switch"
)

// ContextSummary is the classified description of what the user is doing
// right now: a stable kebab-case tag plus a short human-readable sentence.
// App is the frontmost application name when the platform can tell us.
type ContextSummary struct {
	Tag    string // e.g. "vscode-coding", "chrome-docs", "terminal-build"
	Detail string
	App    string
}

// DecisionEvent is emitted once per tick with the detector's verdict.
type DecisionEvent struct {
	CurrentContext  ContextSummary
	PreviousContext *ContextSummary
	IsSimilar       bool
	Action          string // ActionContinue or ActionSwitch
	Distance        int    // fingerprint distance that drove the decision
	DecidedAt       time.Time
}

// GenerationRecord tracks one music-generation attempt from request to
// terminal outcome.
type GenerationRecord struct {
	ID          int64
	AttemptID   string
	Tag         string
	Topic       string
	Tags        string
	Status      string // "pending", "done", or "failed"
	ResultURL   string
	Error       string
	RequestedAt time.Time
	CompletedAt time.Time
}

func tagsDiffer(a, b ContextSummary) bool {
	return !strings.EqualFold(a.Tag, b.Tag)
}

package main

import (
	"database/sql"
	"log"
)

// EventSink receives the events the detector core emits. Implementations
// must not block for long; the tick path calls Decision synchronously.
type EventSink interface {
	Decision(evt DecisionEvent)
	GenerationResult(resultURL string)
	GenerationError(message string)
}

// logSink writes every event to the process log.
type logSink struct{}

func (logSink) Decision(evt DecisionEvent) {
	prev := ""
	if evt.PreviousContext != nil {
		prev = evt.PreviousContext.Tag
	}
	log.Printf("decision action=%s tag=%s prev=%s distance=%d similar=%t",
		evt.Action, evt.CurrentContext.Tag, prev, evt.Distance, evt.IsSimilar)
}

func (logSink) GenerationResult(resultURL string) {
	log.Printf("generation result url=%s", resultURL)
}

func (logSink) GenerationError(message string) {
	log.Printf("generation error: %s", message)
}

// dbSink records decisions in the history store. Write failures are logged,
// never propagated: history is advisory and must not disturb the tick loop.
type dbSink struct {
	db *sql.DB
}

func (s *dbSink) Decision(evt DecisionEvent) {
	if err := InsertDecision(s.db, evt); err != nil {
		log.Printf("db sink decision error: %v", err)
	}
}

func (s *dbSink) GenerationResult(resultURL string) {}

func (s *dbSink) GenerationError(message string) {}

// multiSink fans one event out to several sinks in order.
type multiSink []EventSink

func (m multiSink) Decision(evt DecisionEvent) {
	for _, s := range m {
		s.Decision(evt)
	}
}

func (m multiSink) GenerationResult(resultURL string) {
	for _, s := range m {
		s.GenerationResult(resultURL)
	}
}

func (m multiSink) GenerationError(message string) {
	for _, s := range m {
		s.GenerationError(message)
	}
}

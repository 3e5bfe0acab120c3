package main

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// runGeneration drives one switch decision through request building, submit,
// poll-until-done, and bookkeeping. It runs on its own goroutine per switch;
// the poller bounds how long each attempt can take.
func runGeneration(cfg Config, db *sql.DB, poller *Poller, sink EventSink, current ContextSummary) {
	attemptID := uuid.NewString()

	recent, err := RecentGenres(db, maxRecentGenres)
	if err != nil {
		log.Printf("generation recent-genres error: %v", err)
	}
	req := BuildGenerateRequest(cfg, current, recent)

	rec := GenerationRecord{
		AttemptID:   attemptID,
		Tag:         current.Tag,
		Topic:       req.Topic,
		Tags:        req.Tags,
		Status:      "pending",
		RequestedAt: time.Now(),
	}
	if err := InsertGeneration(db, rec); err != nil {
		log.Printf("generation record error attempt=%s: %v", attemptID, err)
	}
	if genres := extractPrimaryGenres(req.Tags); len(genres) > 0 {
		if err := RecordGenres(db, genres, time.Now()); err != nil {
			log.Printf("generation genre-history error attempt=%s: %v", attemptID, err)
		}
	}

	log.Printf("generation start attempt=%s tag=%s tags=%q", attemptID, current.Tag, req.Tags)
	resultURL, err := poller.SubmitAndAwait(req)
	if err != nil {
		if dbErr := MarkGenerationFailed(db, attemptID, err.Error(), time.Now()); dbErr != nil {
			log.Printf("generation record error attempt=%s: %v", attemptID, dbErr)
		}
		sink.GenerationError(fmt.Sprintf("generation for %s failed: %v", current.Tag, err))
		return
	}

	if dbErr := MarkGenerationDone(db, attemptID, resultURL, time.Now()); dbErr != nil {
		log.Printf("generation record error attempt=%s: %v", attemptID, dbErr)
	}
	sink.GenerationResult(resultURL)
}

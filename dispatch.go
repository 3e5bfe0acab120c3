package main

import (
	"context"
	"fmt"
	"log"
)

// requestClassification is a single-flight dispatch with coalescing: at most
// one classification call is ever outstanding, and any number of requests
// arriving while one is in flight collapse into exactly one rerun against the
// latest sample.
func (d *Detector) requestClassification(ctx context.Context) {
	d.mu.Lock()
	d.st.rerunRequested = true
	if d.st.classifyInFlight {
		d.mu.Unlock()
		return
	}
	d.st.classifyInFlight = true
	d.mu.Unlock()

	go d.classifyLoop(ctx)
}

// classifyLoop consumes rerun requests until none are pending, then releases
// the in-flight flag. A failed call leaves the stored classification alone
// but still re-checks the rerun flag, so one bad call never starves later
// attempts.
func (d *Detector) classifyLoop(ctx context.Context) {
	for {
		d.mu.Lock()
		if !d.st.rerunRequested {
			d.st.classifyInFlight = false
			d.mu.Unlock()
			return
		}
		d.st.rerunRequested = false
		sample := d.st.latestSample
		d.mu.Unlock()

		summary, err := d.classify(ctx, sample)
		if err != nil {
			log.Printf("detector classify error: %v", err)
			d.sink.GenerationError(fmt.Sprintf("classify failed: %v", err))
			continue
		}
		if summary.App == "" && sample != nil {
			summary.App = sample.App
		}

		d.mu.Lock()
		if d.st.current != nil && tagsDiffer(*d.st.current, summary) {
			d.st.previous = d.st.current
		}
		s := summary
		d.st.current = &s
		d.mu.Unlock()
	}
}

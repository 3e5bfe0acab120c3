package main

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"
)

// ClassifyFunc labels one sample. The dispatcher guarantees at most one call
// is in flight at a time.
type ClassifyFunc func(ctx context.Context, sample *Sample) (ContextSummary, error)

// GenerateFunc is invoked on its own goroutine for every switch decision.
type GenerateFunc func(current ContextSummary)

// DistanceFunc compares two fingerprints; 0 means identical.
type DistanceFunc func(a, b Fingerprint) int

type DetectorConfig struct {
	Interval     time.Duration
	DiffRatio    float64 // fraction of FingerprintBits above which a tick counts as different
	LargeRatio   float64 // fraction above which a change overrides the cooldown
	ConfirmCount int     // consecutive different ticks required before switching
	Cooldown     time.Duration
}

// schedulerState is the single piece of shared mutable state. Every field is
// guarded by Detector.mu, including the dispatcher flags, so the tick path and
// the classification completion path can never interleave a read-modify-write.
type schedulerState struct {
	prevFingerprint  Fingerprint
	hasFingerprint   bool
	current          *ContextSummary // latest completed classification
	previous         *ContextSummary // the classification before that
	debounceCount    int
	lastSwitchAt     time.Time
	classifyInFlight bool
	rerunRequested   bool
	latestSample     *Sample
}

// Detector owns the sampling cadence, fingerprint history, debounce counter,
// and cooldown timer, and decides continue-vs-switch for each tick.
type Detector struct {
	cfg      DetectorConfig
	capturer Capturer
	classify ClassifyFunc
	generate GenerateFunc
	distance DistanceFunc
	sink     EventSink
	now      func() time.Time

	mu sync.Mutex
	st schedulerState
}

func NewDetector(cfg DetectorConfig, capturer Capturer, classify ClassifyFunc, generate GenerateFunc, sink EventSink) *Detector {
	if cfg.ConfirmCount < 1 {
		cfg.ConfirmCount = 1
	}
	return &Detector{
		cfg:      cfg,
		capturer: capturer,
		classify: classify,
		generate: generate,
		distance: HammingDistance,
		sink:     sink,
		now:      time.Now,
	}
}

// Run drives the tick loop until ctx is cancelled. Classification and
// generation run on their own goroutines; a tick never waits on either.
func (d *Detector) Run(ctx context.Context) {
	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()
	log.Printf("detector started interval=%s confirm=%d cooldown=%s",
		d.cfg.Interval, d.cfg.ConfirmCount, d.cfg.Cooldown)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one observation cycle: capture, compare against the previous
// fingerprint, decide, and kick off classification or generation as needed.
func (d *Detector) Tick(ctx context.Context) {
	sample, err := d.capturer.Capture()
	if err != nil {
		// Transient. State is untouched; the next tick resumes from the
		// last good fingerprint.
		log.Printf("detector capture error: %v", err)
		return
	}
	fp := ComputeFingerprint(sample.Image)
	now := d.now()

	d.mu.Lock()
	st := &d.st

	distance := FingerprintBits
	if st.hasFingerprint {
		distance = d.distance(fp, st.prevFingerprint)
	}
	threshold := int(d.cfg.DiffRatio * FingerprintBits)
	isDifferent := distance > threshold

	// An app change forces a difference no matter how similar the pixels
	// look: two full-screen editors can hash nearly identically.
	forced := false
	if sample.App != "" && st.current != nil && st.current.App != "" &&
		!strings.EqualFold(sample.App, st.current.App) {
		isDifferent = true
		forced = true
	}

	action := ActionContinue
	if !isDifferent {
		st.debounceCount = 0
	} else {
		st.debounceCount++
		if st.debounceCount >= d.cfg.ConfirmCount {
			action = ActionSwitch
		}
	}

	// Cooldown suppresses rapid re-switching unless the change is large or
	// the frontmost app itself changed.
	if action == ActionSwitch && !st.lastSwitchAt.IsZero() {
		large := distance > int(d.cfg.LargeRatio*FingerprintBits)
		if now.Sub(st.lastSwitchAt) < d.cfg.Cooldown && !large && !forced {
			action = ActionContinue
		}
	}

	if action == ActionSwitch {
		st.lastSwitchAt = now
		st.debounceCount = 0
	}

	st.prevFingerprint = fp
	st.hasFingerprint = true
	st.latestSample = sample

	needClassify := isDifferent || st.current == nil

	current := ContextSummary{Tag: "unknown", App: sample.App}
	if st.current != nil {
		current = *st.current
	}
	var previous *ContextSummary
	if st.previous != nil {
		p := *st.previous
		previous = &p
	}
	d.mu.Unlock()

	d.sink.Decision(DecisionEvent{
		CurrentContext:  current,
		PreviousContext: previous,
		IsSimilar:       action != ActionSwitch,
		Action:          action,
		Distance:        distance,
		DecidedAt:       now,
	})

	if needClassify {
		d.requestClassification(ctx)
	}
	if action == ActionSwitch && d.generate != nil {
		go d.generate(current)
	}
}

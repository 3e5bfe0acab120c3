package main

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// JobHandle identifies one submitted generation job.
type JobHandle struct {
	ID string
}

// JobStatus is one poll observation of a submitted job.
type JobStatus struct {
	Status    string // backend-reported state, e.g. "PENDING" or "FAILED"
	ResultURL string // non-empty once a playable track exists
}

// GenerationBackend is the remote job API the poller drives.
type GenerationBackend interface {
	Submit(req GenerateRequest) (JobHandle, error)
	Poll(handle JobHandle) (JobStatus, error)
}

var (
	ErrJobFailed  = errors.New("generation job failed")
	ErrJobTimeout = errors.New("timed out waiting for generation result")
)

// Poller turns a one-shot submit into a bounded await-completion. Each
// SubmitAndAwait call owns its handle exclusively; there are never concurrent
// polls for the same job.
type Poller struct {
	Backend  GenerationBackend
	Interval time.Duration // between polls
	MaxPolls int
	// Consecutive poll-transport failures tolerated before giving up. The
	// MaxPolls cap bounds the whole wait regardless.
	TransportTries int

	sleep func(time.Duration)
}

func NewPoller(backend GenerationBackend, interval time.Duration, maxPolls int) *Poller {
	return &Poller{
		Backend:        backend,
		Interval:       interval,
		MaxPolls:       maxPolls,
		TransportTries: 3,
		sleep:          time.Sleep,
	}
}

// SubmitAndAwait submits once and polls until a terminal outcome. Submission
// failure is terminal (submission itself is never retried). A result URL is
// authoritative: it wins even when the backend still reports an in-progress
// status. An explicit FAILED status without a result is terminal.
func (p *Poller) SubmitAndAwait(req GenerateRequest) (string, error) {
	handle, err := p.Backend.Submit(req)
	if err != nil {
		return "", fmt.Errorf("submitting generation: %w", err)
	}
	log.Printf("poller submitted job=%s interval=%s max_polls=%d", handle.ID, p.Interval, p.MaxPolls)

	transportFailures := 0
	for i := 1; i <= p.MaxPolls; i++ {
		if i > 1 {
			p.sleep(p.Interval)
		}
		status, err := p.Backend.Poll(handle)
		if err != nil {
			transportFailures++
			log.Printf("poller poll error job=%s poll=%d: %v", handle.ID, i, err)
			if transportFailures >= p.TransportTries {
				return "", fmt.Errorf("polling job %s: %w", handle.ID, err)
			}
			continue
		}
		transportFailures = 0

		if status.ResultURL != "" {
			log.Printf("poller job=%s done polls=%d", handle.ID, i)
			return status.ResultURL, nil
		}
		if strings.EqualFold(status.Status, "FAILED") {
			return "", fmt.Errorf("job %s reported %s: %w", handle.ID, status.Status, ErrJobFailed)
		}
	}
	return "", fmt.Errorf("job %s after %d polls: %w", handle.ID, p.MaxPolls, ErrJobTimeout)
}

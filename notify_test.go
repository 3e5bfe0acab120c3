package main

import (
	"testing"
	"time"
)

func TestNewSlackNotifierUnconfigured(t *testing.T) {
	if sink := NewSlackNotifier(nil, "C123"); sink != nil {
		t.Fatal("expected nil sink without a client")
	}
}

func TestFormatSwitchMessage(t *testing.T) {
	tests := []struct {
		name string
		evt  DecisionEvent
		want string
	}{
		{
			name: "full switch",
			evt: DecisionEvent{
				CurrentContext:  ContextSummary{Tag: "chrome-docs", Detail: "Reading API docs."},
				PreviousContext: &ContextSummary{Tag: "vscode-coding"},
				Action:          ActionSwitch,
				DecidedAt:       time.Now(),
			},
			want: "Context switch: vscode-coding → chrome-docs (Reading API docs.)",
		},
		{
			name: "no previous context",
			evt: DecisionEvent{
				CurrentContext: ContextSummary{Tag: "terminal-build"},
				Action:         ActionSwitch,
			},
			want: "Context switch: (none) → terminal-build",
		},
		{
			name: "unclassified current context",
			evt: DecisionEvent{
				PreviousContext: &ContextSummary{Tag: "figma-design"},
				Action:          ActionSwitch,
			},
			want: "Context switch: figma-design → unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatSwitchMessage(tt.evt); got != tt.want {
				t.Errorf("formatSwitchMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMultiSinkFansOut(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{}
	sink := multiSink{a, b}

	sink.Decision(DecisionEvent{CurrentContext: ContextSummary{Tag: "x"}, Action: ActionContinue})
	sink.GenerationResult("https://cdn/a.mp3")
	sink.GenerationError("boom")

	for i, s := range []*recordSink{a, b} {
		s.mu.Lock()
		decisions, results, errs := len(s.decisions), len(s.results), len(s.errors)
		s.mu.Unlock()
		if decisions != 1 || results != 1 || errs != 1 {
			t.Fatalf("sink %d saw %d/%d/%d events, want 1/1/1", i, decisions, results, errs)
		}
	}
}

package scan

import (
	"time"

	"claimpoints/internal/log"
)

// WorldScanner harvests the distinct world names appearing in a claim list
// report. It shares the Session gating and termination mechanics but keeps
// only the world group of each claim line, deduplicated in insertion order
// so the result is stable for autocompletion.
type WorldScanner struct {
	patterns *PatternSet
	state    SessionState
	started  time.Time

	seen   map[string]bool
	worlds []string
}

// NewWorldScanner creates a world catalog scan bound to one invocation.
func NewWorldScanner(ps *PatternSet, now time.Time) *WorldScanner {
	return &WorldScanner{
		patterns: ps,
		state:    StateAwaitingStart,
		started:  now,
		seen:     make(map[string]bool),
	}
}

// FeedLine advances the scanner with one chat line.
func (w *WorldScanner) FeedLine(line string) {
	switch w.state {
	case StateAwaitingStart:
		class, _, _ := w.patterns.Classify(line)
		if class == LineStart {
			w.state = StateCollecting
		}

	case StateCollecting:
		class, rec, err := w.patterns.Classify(line)
		switch class {
		case LineClaimData:
			if err != nil || rec == nil {
				return
			}
			if !w.seen[rec.World] {
				w.seen[rec.World] = true
				w.worlds = append(w.worlds, rec.World)
			}
		case LineEnd:
			w.state = StateCompleted
			log.Debug("World scan completed", "worlds", len(w.worlds))
		}
	}
}

// PollTimeout transitions the scanner to TimedOut when the report never
// finished. Returns true exactly once, on the transition.
func (w *WorldScanner) PollTimeout(now time.Time) bool {
	if w.state != StateAwaitingStart && w.state != StateCollecting {
		return false
	}
	if now.Sub(w.started) < ScanTimeout {
		return false
	}
	w.state = StateTimedOut
	return true
}

// State returns the current scanner state.
func (w *WorldScanner) State() SessionState { return w.state }

// Worlds returns the harvested world names in first-seen order.
func (w *WorldScanner) Worlds() []string { return w.worlds }

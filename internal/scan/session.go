package scan

import (
	"time"

	"claimpoints/internal/log"
)

// ScanKind selects the reconciliation policy run once a scan completes.
type ScanKind int

const (
	KindAdd ScanKind = iota
	KindClean
	KindUpdate
)

func (k ScanKind) String() string {
	switch k {
	case KindAdd:
		return "add"
	case KindClean:
		return "clean"
	case KindUpdate:
		return "update"
	default:
		return "unknown"
	}
}

// SessionState tracks a scan session through its lifecycle.
type SessionState int

const (
	StateAwaitingStart SessionState = iota
	StateCollecting
	StateCompleted
	StateTimedOut
)

func (s SessionState) String() string {
	switch s {
	case StateAwaitingStart:
		return "awaiting_start"
	case StateCollecting:
		return "collecting"
	case StateCompleted:
		return "completed"
	case StateTimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ScanTimeout bounds how long a session waits for the report to finish.
// The session holds no timer; the owner polls PollTimeout on its own tick.
const ScanTimeout = 5 * time.Second

// Session consumes chat lines one at a time and accumulates the claim
// records for one world. It is purely reactive and single-owner: lines
// arrive in order from a shared chat channel, so the owner must not run
// two sessions at once.
type Session struct {
	world    string
	kind     ScanKind
	patterns *PatternSet
	state    SessionState
	started  time.Time

	records      []ClaimRecord
	unrecognized int
	dropped      int
}

// NewSession creates a session for one scan invocation. The session keeps
// the pattern set it was created with even if the config changes mid-scan.
func NewSession(world string, kind ScanKind, ps *PatternSet, now time.Time) *Session {
	return &Session{
		world:    world,
		kind:     kind,
		patterns: ps,
		state:    StateAwaitingStart,
		started:  now,
	}
}

// FeedLine advances the session with one chat line. Lines before the report
// header are discarded; that gating keeps stale chat from an earlier,
// unrelated scan out of the result set.
func (s *Session) FeedLine(line string) {
	switch s.state {
	case StateAwaitingStart:
		class, _, _ := s.patterns.Classify(line)
		if class == LineStart {
			s.state = StateCollecting
			log.Debug("Scan collecting", "world", s.world, "kind", s.kind.String())
		}

	case StateCollecting:
		class, rec, err := s.patterns.Classify(line)
		switch class {
		case LineClaimData:
			if err != nil {
				// One malformed line must not abort an otherwise-valid scan.
				s.dropped++
				log.Warn("Dropped claim line", "line", line, "error", err)
				return
			}
			if rec.World != s.world {
				return
			}
			rec.World = s.world
			s.records = append(s.records, *rec)
		case LineEnd:
			s.state = StateCompleted
			log.Debug("Scan completed", "world", s.world,
				"claims", len(s.records), "unrecognized", s.unrecognized)
		case LineUnrecognized:
			s.unrecognized++
		}

	default:
		// Terminal; the owner should have discarded this session already.
	}
}

// PollTimeout transitions the session to TimedOut when no terminator arrived
// within the timeout window. Returns true exactly once, on the transition.
func (s *Session) PollTimeout(now time.Time) bool {
	if s.state != StateAwaitingStart && s.state != StateCollecting {
		return false
	}
	if now.Sub(s.started) < ScanTimeout {
		return false
	}
	s.state = StateTimedOut
	log.Warn("Scan timed out", "world", s.world, "state", s.state.String())
	return true
}

// State returns the current session state.
func (s *Session) State() SessionState { return s.state }

// World returns the world this session was started for.
func (s *Session) World() string { return s.world }

// Kind returns the scan kind this session was started with.
func (s *Session) Kind() ScanKind { return s.kind }

// Records returns the accumulated claim records in arrival order.
func (s *Session) Records() []ClaimRecord { return s.records }

// UnrecognizedCount returns how many lines matched nothing. Diagnostic only.
func (s *Session) UnrecognizedCount() int { return s.unrecognized }

// DroppedCount returns how many claim lines were dropped for bad numerics.
func (s *Session) DroppedCount() int { return s.dropped }

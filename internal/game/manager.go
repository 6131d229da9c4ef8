package game

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"claimpoints/internal/config"
	"claimpoints/internal/log"
	"claimpoints/internal/reconcile"
	"claimpoints/internal/scan"
	"claimpoints/internal/streaming"
	"claimpoints/internal/waypoint"
)

// ErrScanInProgress is returned when a scan is requested while another one
// is still collecting. The chat channel is shared and unaddressed, so two
// interleaved reports cannot be told apart.
var ErrScanInProgress = errors.New("a scan is already in progress")

// ScanResult is the EventScanCompleted payload.
type ScanResult struct {
	World        string
	Kind         scan.ScanKind
	Claims       int
	Unrecognized int
	Summary      string
}

// ScanTimedOut is the EventScanTimedOut payload.
type ScanTimedOut struct {
	World     string
	WorldScan bool
}

// Manager owns the engine state: the validated configuration, the compiled
// pattern set, the waypoint store, and at most one active scan. The TUI
// talks to it through method calls; it talks back through the event bus.
type Manager struct {
	mu sync.Mutex

	cfg      *config.Config
	cfgPath  string
	patterns *scan.PatternSet

	store waypoint.Store
	bus   *streaming.EventBus

	session   *scan.Session
	worldScan *scan.WorldScanner

	worldSeen   map[string]bool
	knownWorlds []string
}

// NewManager loads the configuration at cfgPath, compiles the pattern set,
// and falls back to (and persists) the defaults when the loaded values do
// not validate. The store must already be open.
func NewManager(cfgPath string, store waypoint.Store, bus *streaming.EventBus) *Manager {
	cfg := config.Load(cfgPath)
	patterns, err := scan.NewPatternSet(cfg)
	if err != nil {
		log.Warn("Invalid config, reverting to defaults", "error", err)
		cfg = config.Default()
		patterns, _ = scan.NewPatternSet(cfg)
	}
	if err := cfg.Save(cfgPath); err != nil {
		log.Error("Unable to persist config", "path", cfgPath, "error", err)
	}

	return &Manager{
		cfg:       cfg,
		cfgPath:   cfgPath,
		patterns:  patterns,
		store:     store,
		bus:       bus,
		worldSeen: make(map[string]bool),
	}
}

// Config returns the current configuration.
func (m *Manager) Config() *config.Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg
}

// Patterns returns the current compiled pattern set.
func (m *Manager) Patterns() *scan.PatternSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patterns
}

// Store returns the waypoint store.
func (m *Manager) Store() waypoint.Store { return m.store }

// ScanActive reports whether a claim or world scan is collecting.
func (m *Manager) ScanActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil || m.worldScan != nil
}

// StartClaimScan begins a claim scan for one world. The caller is expected
// to have already sent the claim list query to the server.
func (m *Manager) StartClaimScan(world string, kind scan.ScanKind, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil || m.worldScan != nil {
		return ErrScanInProgress
	}

	m.session = scan.NewSession(world, kind, m.patterns, now)
	log.Info("Claim scan started", "world", world, "kind", kind.String())
	return nil
}

// StartWorldScan begins a world catalog scan.
func (m *Manager) StartWorldScan(now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil || m.worldScan != nil {
		return ErrScanInProgress
	}

	m.worldScan = scan.NewWorldScanner(m.patterns, now)
	log.Info("World scan started")
	return nil
}

// FeedLine pushes one chat line into the active scan, if any. Completion is
// handled inline: the reconciliation diff is computed, applied to the store,
// and the outcome fired on the bus.
func (m *Manager) FeedLine(line string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.FeedLine(line)
		if m.session.State() == scan.StateCompleted {
			m.finishClaimScanLocked()
		}
		return
	}

	if m.worldScan != nil {
		m.worldScan.FeedLine(line)
		if m.worldScan.State() == scan.StateCompleted {
			m.finishWorldScanLocked()
		}
	}
}

// PollTimeout drives the cooperative timeout check. The UI calls this once
// per tick; a session that outlived the scan window is discarded and the
// timeout reported on the bus.
func (m *Manager) PollTimeout(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil && m.session.PollTimeout(now) {
		world := m.session.World()
		m.session = nil
		m.bus.Fire(streaming.Event{
			Type: streaming.EventScanTimedOut,
			Data: ScanTimedOut{World: world},
		})
		return
	}

	if m.worldScan != nil && m.worldScan.PollTimeout(now) {
		m.worldScan = nil
		m.bus.Fire(streaming.Event{
			Type: streaming.EventScanTimedOut,
			Data: ScanTimedOut{WorldScan: true},
		})
	}
}

// KnownWorlds returns the world names harvested so far, in first-seen order.
func (m *Manager) KnownWorlds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.knownWorlds...)
}

func (m *Manager) finishClaimScanLocked() {
	session := m.session
	m.session = nil

	records := session.Records()
	m.mergeWorldsLocked(records)

	wps, err := m.store.ListWaypoints()
	if err != nil {
		log.Error("Unable to list waypoints for reconciliation", "error", err)
		m.fireStatus(fmt.Sprintf("Scan failed: %v", err))
		return
	}

	diff := reconcile.ForKind(session.Kind(), records, m.patterns, wps)
	if err := m.applyDiff(diff); err != nil {
		log.Error("Unable to apply reconciliation diff", "error", err)
		m.fireStatus(fmt.Sprintf("Scan failed: %v", err))
		return
	}

	summary := diff.Summary(session.Kind(), session.World())
	if len(records) == 0 {
		summary = fmt.Sprintf("No claims found in world '%s'. %s", session.World(), summary)
	}

	m.bus.Fire(streaming.Event{
		Type: streaming.EventScanCompleted,
		Data: ScanResult{
			World:        session.World(),
			Kind:         session.Kind(),
			Claims:       len(records),
			Unrecognized: session.UnrecognizedCount(),
			Summary:      summary,
		},
	})
	if !diff.Empty() {
		m.bus.Fire(streaming.Event{Type: streaming.EventWaypointsChanged})
	}
}

func (m *Manager) finishWorldScanLocked() {
	worlds := m.worldScan.Worlds()
	m.worldScan = nil

	for _, w := range worlds {
		if !m.worldSeen[w] {
			m.worldSeen[w] = true
			m.knownWorlds = append(m.knownWorlds, w)
		}
	}

	m.bus.Fire(streaming.Event{
		Type: streaming.EventWorldsUpdated,
		Data: append([]string(nil), m.knownWorlds...),
	})
	if len(worlds) == 0 {
		m.fireStatus("No claims found in any world.")
	} else {
		m.fireStatus(fmt.Sprintf("Worlds with claims: %s", strings.Join(worlds, ", ")))
	}
}

// mergeWorldsLocked folds the worlds seen in a claim scan into the catalog,
// so autocompletion improves even without an explicit world scan.
func (m *Manager) mergeWorldsLocked(records []scan.ClaimRecord) {
	for _, rec := range records {
		if !m.worldSeen[rec.World] {
			m.worldSeen[rec.World] = true
			m.knownWorlds = append(m.knownWorlds, rec.World)
		}
	}
}

// applyDiff applies a reconciliation diff inside one store transaction.
func (m *Manager) applyDiff(diff reconcile.Diff) error {
	if diff.Empty() {
		return nil
	}

	if err := m.store.BeginTransaction(); err != nil {
		return err
	}

	for _, op := range diff.Ops {
		var err error
		switch op.Kind {
		case reconcile.OpCreate:
			_, err = m.store.CreateWaypoint(waypoint.Waypoint{
				X:        op.X,
				Z:        op.Z,
				Label:    op.Label,
				Alias:    op.Alias,
				ColorIdx: op.ColorIdx,
				Visible:  true,
			})
		case reconcile.OpDelete:
			err = m.store.DeleteWaypoint(op.WaypointID)
		case reconcile.OpRelabel:
			err = m.store.RelabelWaypoint(op.WaypointID, op.Label)
		}
		if err != nil {
			m.store.RollbackTransaction()
			return err
		}
	}

	return m.store.CommitTransaction()
}

func (m *Manager) fireStatus(msg string) {
	m.bus.Fire(streaming.Event{Type: streaming.EventStatusMessage, Data: msg})
}

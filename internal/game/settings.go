package game

import (
	"fmt"
	"strings"

	"claimpoints/internal/config"
	"claimpoints/internal/log"
	"claimpoints/internal/scan"
	"claimpoints/internal/streaming"
	"claimpoints/internal/waypoint"
)

// SetNameFormat changes the ClaimPoint label format, relabelling every
// existing ClaimPoint to the new format with its size preserved. The format
// must contain %d exactly once.
func (m *Manager) SetNameFormat(nameFormat string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if strings.Count(nameFormat, "%d") != 1 {
		return fmt.Errorf("name format %q: %w", nameFormat, scan.ErrMissingPlaceholder)
	}

	old := m.patterns
	next := *m.cfg
	next.ClaimPoint.NameFormat = nameFormat
	patterns, err := scan.NewPatternSet(&next)
	if err != nil {
		return err
	}

	// Relabel using the old pattern set to recognize existing ClaimPoints.
	if err := m.forEachClaimPointLocked(old, func(wp waypoint.Waypoint, size uint) error {
		return m.store.RelabelWaypoint(wp.ID, patterns.FormatLabel(size))
	}); err != nil {
		return err
	}

	m.commitSettingsLocked(&next, patterns)
	return nil
}

// SetAlias changes the ClaimPoint alias on the config and every existing
// ClaimPoint. Values longer than 2 characters are truncated, matching the
// interactive command behavior.
func (m *Manager) SetAlias(alias string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if runes := []rune(alias); len(runes) > 2 {
		alias = string(runes[:2])
	}

	old := m.patterns
	next := *m.cfg
	next.ClaimPoint.Alias = alias
	patterns, err := scan.NewPatternSet(&next)
	if err != nil {
		return "", err
	}

	if err := m.forEachClaimPointLocked(old, func(wp waypoint.Waypoint, size uint) error {
		return m.store.SetAlias(wp.ID, alias)
	}); err != nil {
		return "", err
	}

	m.commitSettingsLocked(&next, patterns)
	return alias, nil
}

// SetColor changes the ClaimPoint color on the config and every existing
// ClaimPoint. The name must be a valid waypoint color.
func (m *Manager) SetColor(color string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := waypoint.ColorIndex(color)
	if idx == -1 {
		return fmt.Errorf("color %q: %w", color, scan.ErrUnknownColor)
	}

	old := m.patterns
	next := *m.cfg
	next.ClaimPoint.Color = color
	patterns, err := scan.NewPatternSet(&next)
	if err != nil {
		return err
	}

	if err := m.forEachClaimPointLocked(old, func(wp waypoint.Waypoint, size uint) error {
		return m.store.SetColor(wp.ID, idx)
	}); err != nil {
		return err
	}

	m.commitSettingsLocked(&next, patterns)
	return nil
}

// ShowClaimPoints makes every ClaimPoint visible. Returns the count touched.
func (m *Manager) ShowClaimPoints() (int, error) {
	return m.setClaimPointVisibility(true)
}

// HideClaimPoints hides every ClaimPoint. Returns the count touched.
func (m *Manager) HideClaimPoints() (int, error) {
	return m.setClaimPointVisibility(false)
}

func (m *Manager) setClaimPointVisibility(visible bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	err := m.forEachClaimPointLocked(m.patterns, func(wp waypoint.Waypoint, size uint) error {
		count++
		return m.store.SetVisible(wp.ID, visible)
	})
	if err != nil {
		return 0, err
	}

	m.bus.Fire(streaming.Event{Type: streaming.EventWaypointsChanged})
	return count, nil
}

// ClearClaimPoints permanently deletes every ClaimPoint from the store.
// Unrelated waypoints are untouched. Returns the count removed.
func (m *Manager) ClearClaimPoints() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	err := m.forEachClaimPointLocked(m.patterns, func(wp waypoint.Waypoint, size uint) error {
		count++
		return m.store.DeleteWaypoint(wp.ID)
	})
	if err != nil {
		return 0, err
	}

	m.bus.Fire(streaming.Event{Type: streaming.EventWaypointsChanged})
	return count, nil
}

// forEachClaimPointLocked runs fn for every waypoint that is claim-shaped
// under ps, inside one store transaction.
func (m *Manager) forEachClaimPointLocked(ps *scan.PatternSet, fn func(wp waypoint.Waypoint, size uint) error) error {
	wps, err := m.store.ListWaypoints()
	if err != nil {
		return err
	}

	if err := m.store.BeginTransaction(); err != nil {
		return err
	}
	for _, wp := range wps {
		if wp.Alias != ps.Alias() || wp.ColorIdx != ps.ColorIdx() {
			continue
		}
		size, ok := ps.ParseLabelSize(wp.Label)
		if !ok {
			continue
		}
		if err := fn(wp, size); err != nil {
			m.store.RollbackTransaction()
			return err
		}
	}
	return m.store.CommitTransaction()
}

// commitSettingsLocked swaps in the new config and pattern set as one unit
// and persists the config. Any scan already running keeps the pattern set it
// started with.
func (m *Manager) commitSettingsLocked(cfg *config.Config, ps *scan.PatternSet) {
	m.cfg = cfg
	m.patterns = ps
	if err := cfg.Save(m.cfgPath); err != nil {
		log.Error("Unable to persist config", "path", m.cfgPath, "error", err)
	}
	m.bus.Fire(streaming.Event{Type: streaming.EventWaypointsChanged})
}

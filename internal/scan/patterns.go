package scan

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"claimpoints/internal/config"
	"claimpoints/internal/waypoint"
)

// Configuration validation errors. Any of these makes the loaded config
// unusable; the caller is expected to fall back to the defaults.
var (
	ErrMissingPlaceholder = errors.New("name format requires exactly one %d for claim size")
	ErrBadAlias           = errors.New("alias is longer than 2 characters")
	ErrUnknownColor       = errors.New("color is not a valid waypoint color")
	ErrBadPattern         = errors.New("pattern does not compile")
)

// ErrNumericOverflow marks a claim line whose coordinates or size do not fit
// the native integer types. The line is dropped; the scan continues.
var ErrNumericOverflow = errors.New("numeric field overflows")

// PatternSet is an immutable bundle of compiled matchers built from one
// validated configuration. A config edit produces a whole new PatternSet;
// an in-flight scan keeps the set it started with.
type PatternSet struct {
	start   *regexp.Regexp
	claim   *regexp.Regexp
	ignored []*regexp.Regexp
	ending  []*regexp.Regexp
	name    *regexp.Regexp

	nameFormat  string
	namePattern string
	alias       string
	colorIdx    int
}

// NewPatternSet compiles the matchers described by cfg. It fails with
// ErrMissingPlaceholder, ErrBadAlias, ErrUnknownColor or ErrBadPattern and
// has no side effects; callers persist the validated strings, not this.
func NewPatternSet(cfg *config.Config) (*PatternSet, error) {
	ps := &PatternSet{}

	if strings.Count(cfg.ClaimPoint.NameFormat, "%d") != 1 {
		return nil, fmt.Errorf("name format %q: %w", cfg.ClaimPoint.NameFormat, ErrMissingPlaceholder)
	}
	ps.nameFormat = cfg.ClaimPoint.NameFormat

	// Split the format around the size placeholder and escape both halves, so
	// the derived pattern recovers the size from any label the format produces.
	idx := strings.Index(ps.nameFormat, "%d")
	ps.namePattern = "^" + regexp.QuoteMeta(ps.nameFormat[:idx]) +
		`(\d+)` + regexp.QuoteMeta(ps.nameFormat[idx+2:]) + "$"
	var err error
	ps.name, err = regexp.Compile(ps.namePattern)
	if err != nil {
		return nil, fmt.Errorf("derived name pattern %q: %w", ps.namePattern, ErrBadPattern)
	}

	if len([]rune(cfg.ClaimPoint.Alias)) > 2 {
		return nil, fmt.Errorf("alias %q: %w", cfg.ClaimPoint.Alias, ErrBadAlias)
	}
	ps.alias = cfg.ClaimPoint.Alias

	ps.colorIdx = waypoint.ColorIndex(cfg.ClaimPoint.Color)
	if ps.colorIdx == -1 {
		return nil, fmt.Errorf("color %q: %w", cfg.ClaimPoint.Color, ErrUnknownColor)
	}

	ps.start, err = compileAnchored(cfg.GriefPrevention.FirstLinePattern)
	if err != nil {
		return nil, err
	}

	ps.claim, err = compileAnchored(cfg.GriefPrevention.ClaimLinePattern)
	if err != nil {
		return nil, err
	}
	if ps.claim.NumSubexp() != 4 {
		return nil, fmt.Errorf("claim pattern %q needs 4 capture groups (world, x, z, size): %w",
			cfg.GriefPrevention.ClaimLinePattern, ErrBadPattern)
	}

	for _, p := range cfg.GriefPrevention.IgnoredLinePatterns {
		re, err := compileAnchored(p)
		if err != nil {
			return nil, err
		}
		ps.ignored = append(ps.ignored, re)
	}

	for _, p := range cfg.GriefPrevention.EndingLinePatterns {
		re, err := compileAnchored(p)
		if err != nil {
			return nil, err
		}
		ps.ending = append(ps.ending, re)
	}

	return ps, nil
}

// compileAnchored compiles a user pattern forced to match a whole line, so a
// loose pattern cannot fire on a fragment of unrelated chat.
func compileAnchored(pattern string) (*regexp.Regexp, error) {
	re, err := regexp.Compile("^(?:" + pattern + ")$")
	if err != nil {
		return nil, fmt.Errorf("pattern %q: %w", pattern, ErrBadPattern)
	}
	return re, nil
}

// Alias returns the configured ClaimPoint alias.
func (ps *PatternSet) Alias() string { return ps.alias }

// ColorIdx returns the configured ClaimPoint color index.
func (ps *PatternSet) ColorIdx() int { return ps.colorIdx }

// NameFormat returns the configured label format.
func (ps *PatternSet) NameFormat() string { return ps.nameFormat }

// NamePattern returns the derived label-matching pattern text.
func (ps *PatternSet) NamePattern() string { return ps.namePattern }

// FormatLabel renders a ClaimPoint label for the given claim size.
func (ps *PatternSet) FormatLabel(size uint) string {
	return fmt.Sprintf(ps.nameFormat, size)
}

// ParseLabelSize recovers the claim size encoded in a ClaimPoint label.
// The second return is false when the label was not produced by the
// configured name format.
func (ps *PatternSet) ParseLabelSize(label string) (uint, bool) {
	m := ps.name.FindStringSubmatch(label)
	if m == nil {
		return 0, false
	}
	size, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(size), true
}

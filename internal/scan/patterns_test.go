package scan

import (
	"errors"
	"testing"

	"claimpoints/internal/config"
)

func TestNewPatternSet_Defaults(t *testing.T) {
	ps, err := NewPatternSet(config.Default())
	if err != nil {
		t.Fatalf("NewPatternSet(defaults) failed: %v", err)
	}

	if ps.Alias() != "CP" {
		t.Errorf("Alias() = %q, want %q", ps.Alias(), "CP")
	}
	if ps.NameFormat() != "Claim (%d)" {
		t.Errorf("NameFormat() = %q, want %q", ps.NameFormat(), "Claim (%d)")
	}
	if ps.NamePattern() != `^Claim \((\d+)\)$` {
		t.Errorf("NamePattern() = %q, want %q", ps.NamePattern(), `^Claim \((\d+)\)$`)
	}
}

func TestNewPatternSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *config.Config)
		wantErr error
	}{
		{
			name:    "no size placeholder",
			mutate:  func(cfg *config.Config) { cfg.ClaimPoint.NameFormat = "Claim" },
			wantErr: ErrMissingPlaceholder,
		},
		{
			name:    "two size placeholders",
			mutate:  func(cfg *config.Config) { cfg.ClaimPoint.NameFormat = "%d and %d" },
			wantErr: ErrMissingPlaceholder,
		},
		{
			name:    "alias too long",
			mutate:  func(cfg *config.Config) { cfg.ClaimPoint.Alias = "CLM" },
			wantErr: ErrBadAlias,
		},
		{
			name:    "unknown color",
			mutate:  func(cfg *config.Config) { cfg.ClaimPoint.Color = "mauve" },
			wantErr: ErrUnknownColor,
		},
		{
			name:    "first line pattern does not compile",
			mutate:  func(cfg *config.Config) { cfg.GriefPrevention.FirstLinePattern = "(" },
			wantErr: ErrBadPattern,
		},
		{
			name:    "claim pattern does not compile",
			mutate:  func(cfg *config.Config) { cfg.GriefPrevention.ClaimLinePattern = "[" },
			wantErr: ErrBadPattern,
		},
		{
			name: "claim pattern missing capture groups",
			mutate: func(cfg *config.Config) {
				cfg.GriefPrevention.ClaimLinePattern = `^(.+): x(-?\d+)$`
			},
			wantErr: ErrBadPattern,
		},
		{
			name: "ignored pattern does not compile",
			mutate: func(cfg *config.Config) {
				cfg.GriefPrevention.IgnoredLinePatterns = []string{"*bad"}
			},
			wantErr: ErrBadPattern,
		},
		{
			name: "ending pattern does not compile",
			mutate: func(cfg *config.Config) {
				cfg.GriefPrevention.EndingLinePatterns = []string{"(?P<"}
			},
			wantErr: ErrBadPattern,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, err := NewPatternSet(cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("NewPatternSet() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPatternSet_TwoCharacterAliasAllowed(t *testing.T) {
	cfg := config.Default()
	cfg.ClaimPoint.Alias = "C"
	if _, err := NewPatternSet(cfg); err != nil {
		t.Errorf("single-character alias rejected: %v", err)
	}

	cfg.ClaimPoint.Alias = ""
	if _, err := NewPatternSet(cfg); err != nil {
		t.Errorf("empty alias rejected: %v", err)
	}
}

func TestPatternSet_LabelRoundTrip(t *testing.T) {
	formats := []string{
		"Claim (%d)",
		"%d blocks",
		"[claim] %d",
		"a.b*c %d (x)", // regex metacharacters in the literal halves
	}

	for _, format := range formats {
		cfg := config.Default()
		cfg.ClaimPoint.NameFormat = format
		ps, err := NewPatternSet(cfg)
		if err != nil {
			t.Fatalf("NewPatternSet(%q) failed: %v", format, err)
		}

		label := ps.FormatLabel(1452)
		size, ok := ps.ParseLabelSize(label)
		if !ok {
			t.Errorf("format %q: ParseLabelSize(%q) did not match", format, label)
			continue
		}
		if size != 1452 {
			t.Errorf("format %q: round-trip size = %d, want 1452", format, size)
		}
	}
}

func TestPatternSet_ParseLabelSizeRejectsForeignLabels(t *testing.T) {
	ps, err := NewPatternSet(config.Default())
	if err != nil {
		t.Fatalf("NewPatternSet failed: %v", err)
	}

	for _, label := range []string{
		"Home Base",
		"Claim (abc)",
		"Claim (12) extra",
		"prefix Claim (12)",
		"Claim (99999999999999999999)", // overflows uint32
	} {
		if _, ok := ps.ParseLabelSize(label); ok {
			t.Errorf("ParseLabelSize(%q) matched, want no match", label)
		}
	}
}

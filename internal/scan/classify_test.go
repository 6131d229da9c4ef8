package scan

import (
	"errors"
	"testing"

	"claimpoints/internal/config"
)

func defaultPatterns(t *testing.T) *PatternSet {
	t.Helper()
	ps, err := NewPatternSet(config.Default())
	if err != nil {
		t.Fatalf("NewPatternSet(defaults) failed: %v", err)
	}
	return ps
}

func TestClassify_DefaultReportLines(t *testing.T) {
	ps := defaultPatterns(t)

	tests := []struct {
		name string
		line string
		want LineClass
	}{
		{"report header", "5 blocks from play + 0 bonus = 5 total.", LineStart},
		{"negative totals header", "-10 blocks from play + -2 bonus = -12 total.", LineStart},
		{"claims separator", "Claims:", LineIgnored},
		{"claim line", "World1: x10, z20 (100 blocks)", LineClaimData},
		{"negative coordinates", "the_nether: x-320, z-44 (1452 blocks)", LineClaimData},
		{"terminator", " = 900 blocks left to spend", LineEnd},
		{"terminator without number", " =  blocks left to spend", LineEnd},
		{"player chat", "<steve> anyone near spawn?", LineUnrecognized},
		{"claim fragment inside chat", "he said World1: x10, z20 (100 blocks) earlier", LineUnrecognized},
		{"empty", "", LineUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, _ := ps.Classify(tt.line)
			if got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.line, got, tt.want)
			}
		})
	}
}

func TestClassify_ClaimRecordFields(t *testing.T) {
	ps := defaultPatterns(t)

	class, rec, err := ps.Classify("creative world: x-15, z1024 (2500 blocks)")
	if class != LineClaimData {
		t.Fatalf("class = %v, want LineClaimData", class)
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.World != "creative world" {
		t.Errorf("World = %q, want %q", rec.World, "creative world")
	}
	if rec.X != -15 || rec.Z != 1024 {
		t.Errorf("position = (%d, %d), want (-15, 1024)", rec.X, rec.Z)
	}
	if rec.Size != 2500 {
		t.Errorf("Size = %d, want 2500", rec.Size)
	}
}

func TestClassify_NumericOverflow(t *testing.T) {
	ps := defaultPatterns(t)

	class, rec, err := ps.Classify("World1: x10, z20 (99999999999999999999 blocks)")
	if class != LineClaimData {
		t.Fatalf("class = %v, want LineClaimData", class)
	}
	if rec != nil {
		t.Errorf("record = %+v, want nil on overflow", rec)
	}
	if !errors.Is(err, ErrNumericOverflow) {
		t.Errorf("error = %v, want ErrNumericOverflow", err)
	}
}

// A line matching both an ending and an ignored pattern must terminate the
// scan. Otherwise an overlapping ignore pattern makes the session hang until
// the timeout.
func TestClassify_EndingBeatsIgnored(t *testing.T) {
	cfg := config.Default()
	cfg.GriefPrevention.IgnoredLinePatterns = []string{`^---.*$`}
	cfg.GriefPrevention.EndingLinePatterns = []string{`^--- end of claims ---$`}

	ps, err := NewPatternSet(cfg)
	if err != nil {
		t.Fatalf("NewPatternSet failed: %v", err)
	}

	class, _, _ := ps.Classify("--- end of claims ---")
	if class != LineEnd {
		t.Errorf("Classify() = %v, want LineEnd", class)
	}

	class, _, _ = ps.Classify("--- page 2 ---")
	if class != LineIgnored {
		t.Errorf("Classify() = %v, want LineIgnored", class)
	}
}

// Claim data is checked before the start pattern, so a loose start pattern
// cannot swallow claim lines.
func TestClassify_ClaimBeatsStart(t *testing.T) {
	cfg := config.Default()
	cfg.GriefPrevention.FirstLinePattern = `^.+$`

	ps, err := NewPatternSet(cfg)
	if err != nil {
		t.Fatalf("NewPatternSet failed: %v", err)
	}

	class, rec, _ := ps.Classify("World1: x10, z20 (100 blocks)")
	if class != LineClaimData {
		t.Errorf("Classify() = %v, want LineClaimData", class)
	}
	if rec == nil {
		t.Error("record is nil, want claim record")
	}
}

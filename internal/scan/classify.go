package scan

import (
	"fmt"
	"strconv"
)

// LineClass is the classification of one chat line against a PatternSet.
type LineClass int

const (
	LineUnrecognized LineClass = iota
	LineStart
	LineClaimData
	LineIgnored
	LineEnd
)

func (lc LineClass) String() string {
	switch lc {
	case LineStart:
		return "start"
	case LineClaimData:
		return "claim"
	case LineIgnored:
		return "ignored"
	case LineEnd:
		return "end"
	default:
		return "unrecognized"
	}
}

// ClaimRecord is one claim as reported by the server: the world it belongs
// to, the north-west corner coordinate, and the claimed area in blocks.
type ClaimRecord struct {
	World string
	X     int
	Z     int
	Size  uint
}

// Classify evaluates one chat line against the pattern set. Ending patterns
// are checked before ignored ones: some report formats reuse a separator
// token that an ignore pattern would swallow, and termination must win.
// For LineClaimData the record is returned; if a numeric field does not fit,
// the record is nil and the error wraps ErrNumericOverflow.
func (ps *PatternSet) Classify(line string) (LineClass, *ClaimRecord, error) {
	for _, re := range ps.ending {
		if re.MatchString(line) {
			return LineEnd, nil, nil
		}
	}

	for _, re := range ps.ignored {
		if re.MatchString(line) {
			return LineIgnored, nil, nil
		}
	}

	if m := ps.claim.FindStringSubmatch(line); m != nil {
		rec, err := parseClaimGroups(m)
		return LineClaimData, rec, err
	}

	if ps.start.MatchString(line) {
		return LineStart, nil, nil
	}

	return LineUnrecognized, nil, nil
}

// parseClaimGroups converts the four claim-line capture groups into a
// record. The groups are (world, x, z, size) by contract.
func parseClaimGroups(m []string) (*ClaimRecord, error) {
	x, err := strconv.Atoi(m[2])
	if err != nil {
		return nil, fmt.Errorf("x coordinate %q: %w", m[2], ErrNumericOverflow)
	}
	z, err := strconv.Atoi(m[3])
	if err != nil {
		return nil, fmt.Errorf("z coordinate %q: %w", m[3], ErrNumericOverflow)
	}
	size, err := strconv.ParseUint(m[4], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("size %q: %w", m[4], ErrNumericOverflow)
	}

	return &ClaimRecord{
		World: m[1],
		X:     x,
		Z:     z,
		Size:  uint(size),
	}, nil
}

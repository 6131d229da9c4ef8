package waypoint

// Waypoint is one persistent map marker in the active waypoint list.
// ClaimPoints are ordinary waypoints distinguished only by their label,
// alias and color matching the configured ClaimPoint settings.
type Waypoint struct {
	ID       int64
	X        int
	Z        int
	Label    string
	Alias    string
	ColorIdx int
	Visible  bool
}

// ColorNames lists the valid waypoint color identifiers, in palette order.
// Color values stored on waypoints are indexes into this list.
var ColorNames = []string{
	"black",
	"dark_blue",
	"dark_green",
	"dark_aqua",
	"dark_red",
	"dark_purple",
	"gold",
	"gray",
	"dark_gray",
	"blue",
	"green",
	"aqua",
	"red",
	"light_purple",
	"yellow",
	"white",
}

// DefaultColor is the color assigned to new ClaimPoints when the user has
// not configured one.
var DefaultColor = ColorNames[len(ColorNames)-1]

// ColorIndex returns the palette index for a color name, or -1 if the name
// is not a valid waypoint color.
func ColorIndex(name string) int {
	for i, c := range ColorNames {
		if c == name {
			return i
		}
	}
	return -1
}

package tui

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"claimpoints/internal/log"
	"claimpoints/internal/scan"
	"claimpoints/internal/tui/components"
	"claimpoints/internal/waypoint"
)

const helpText = `ClaimPoints commands:
  /cp worlds                          list worlds that have claims
  /cp add <world>                     add waypoints for claims in a world
  /cp clean <world>                   remove waypoints for claims that no longer exist
  /cp update <world>                  add, clean, and resize in one pass
  /cp map                             draw a map of all ClaimPoints
  /cp waypoints show                  show all ClaimPoints
  /cp waypoints hide                  hide all ClaimPoints
  /cp waypoints clear                 delete all ClaimPoints
  /cp waypoints set nameformat <fmt>  change the label format (must contain %d)
  /cp waypoints set alias <alias>     change the alias (max 2 characters)
  /cp waypoints set color <color>     change the waypoint color
  /connect [host:port]                connect to the chat bridge
  /disconnect                         drop the bridge connection
  /quit                               exit
Anything else is sent to the server as chat.`

// dispatch routes one line of input: local commands are handled here,
// everything else goes to the server as chat.
func (a *App) dispatch(text string) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return
	}

	switch fields[0] {
	case "/cp":
		a.handleClaimPoints(fields[1:])
	case "/connect":
		addr := a.manager.Config().Bridge.Address
		if len(fields) > 1 {
			addr = fields[1]
		}
		if err := a.bridge.Connect(addr); err != nil {
			a.systemMessage(fmt.Sprintf("Connect failed: %v", err))
			return
		}
		a.setStatus(fmt.Sprintf("[green]Connected to %s", addr))
	case "/disconnect":
		a.bridge.Disconnect()
		a.setStatus("[gray]Not connected")
	case "/quit", "/exit":
		a.app.Stop()
	default:
		if strings.HasPrefix(fields[0], "/") {
			a.systemMessage(fmt.Sprintf("Unknown command %s. Try /cp help.", fields[0]))
			return
		}
		if err := a.bridge.SendCommand(text); err != nil {
			a.systemMessage(fmt.Sprintf("Send failed: %v", err))
		}
	}
}

func (a *App) handleClaimPoints(args []string) {
	if len(args) == 0 {
		a.systemMessage(helpText)
		return
	}

	switch args[0] {
	case "help":
		if a.version != "" {
			a.systemMessage("ClaimPoints " + a.version)
		}
		a.systemMessage(helpText)

	case "worlds":
		a.startWorldScan()

	case "add", "clean", "update":
		if len(args) < 2 {
			a.systemMessage(fmt.Sprintf("Usage: /cp %s <world>", args[0]))
			return
		}
		kind := map[string]scan.ScanKind{
			"add":    scan.KindAdd,
			"clean":  scan.KindClean,
			"update": scan.KindUpdate,
		}[args[0]]
		a.startClaimScan(strings.Join(args[1:], " "), kind)

	case "map":
		a.showClaimMap()

	case "waypoints":
		a.handleWaypoints(args[1:])

	default:
		a.systemMessage(fmt.Sprintf("Unknown subcommand %q. Try /cp help.", args[0]))
	}
}

func (a *App) handleWaypoints(args []string) {
	if len(args) == 0 {
		a.systemMessage("Usage: /cp waypoints show|hide|clear|set ...")
		return
	}

	switch args[0] {
	case "show":
		count, err := a.manager.ShowClaimPoints()
		a.reportCount("Showing", count, err)
	case "hide":
		count, err := a.manager.HideClaimPoints()
		a.reportCount("Hiding", count, err)
	case "clear":
		count, err := a.manager.ClearClaimPoints()
		a.reportCount("Deleted", count, err)
	case "set":
		a.handleSet(args[1:])
	default:
		a.systemMessage(fmt.Sprintf("Unknown waypoints subcommand %q.", args[0]))
	}
}

func (a *App) handleSet(args []string) {
	if len(args) < 2 {
		a.systemMessage("Usage: /cp waypoints set nameformat|alias|color <value>")
		return
	}

	value := strings.Join(args[1:], " ")
	switch args[0] {
	case "nameformat":
		if err := a.manager.SetNameFormat(value); err != nil {
			a.systemMessage(fmt.Sprintf("Invalid name format: %v", err))
			return
		}
		a.systemMessage(fmt.Sprintf("Name format is now %q.", value))
	case "alias":
		applied, err := a.manager.SetAlias(value)
		if err != nil {
			a.systemMessage(fmt.Sprintf("Invalid alias: %v", err))
			return
		}
		if applied != value {
			a.systemMessage(fmt.Sprintf("Alias truncated to %q.", applied))
		} else {
			a.systemMessage(fmt.Sprintf("Alias is now %q.", applied))
		}
	case "color":
		if err := a.manager.SetColor(value); err != nil {
			a.systemMessage(fmt.Sprintf("Invalid color: %v", err))
			return
		}
		a.systemMessage(fmt.Sprintf("Color is now %q.", value))
	default:
		a.systemMessage(fmt.Sprintf("Unknown setting %q.", args[0]))
	}
}

// startClaimScan sends the claim list query and opens a scan session for
// its reply.
func (a *App) startClaimScan(world string, kind scan.ScanKind) {
	if !a.bridge.Connected() {
		a.systemMessage("Not connected to the chat bridge.")
		return
	}
	if a.manager.ScanActive() {
		a.systemMessage("A scan is already in progress.")
		return
	}

	cmd := fmt.Sprintf("%s %s", a.manager.Config().Bridge.ClaimListCommand, world)
	if err := a.bridge.SendCommand(cmd); err != nil {
		a.systemMessage(fmt.Sprintf("Send failed: %v", err))
		return
	}
	if err := a.manager.StartClaimScan(world, kind, time.Now()); err != nil {
		a.systemMessage(err.Error())
		return
	}
	a.setStatus(fmt.Sprintf("[yellow]Scanning world '%s'...", world))
}

// startWorldScan queries the full claim list and harvests world names from
// the reply.
func (a *App) startWorldScan() {
	if !a.bridge.Connected() {
		a.systemMessage("Not connected to the chat bridge.")
		return
	}
	if a.manager.ScanActive() {
		a.systemMessage("A scan is already in progress.")
		return
	}

	if err := a.bridge.SendCommand(a.manager.Config().Bridge.ClaimListCommand); err != nil {
		a.systemMessage(fmt.Sprintf("Send failed: %v", err))
		return
	}
	if err := a.manager.StartWorldScan(time.Now()); err != nil {
		a.systemMessage(err.Error())
		return
	}
	a.setStatus("[yellow]Scanning for worlds...")
}

// showClaimMap suspends the TUI and draws the claim map directly on the
// terminal, since the inline-image protocols bypass tview entirely.
func (a *App) showClaimMap() {
	wps, err := a.manager.Store().ListWaypoints()
	if err != nil {
		a.systemMessage(fmt.Sprintf("Unable to list waypoints: %v", err))
		return
	}

	ps := a.manager.Patterns()
	var nodes []components.ClaimNode
	for _, wp := range wps {
		if wp.Alias != ps.Alias() || wp.ColorIdx != ps.ColorIdx() {
			continue
		}
		if _, ok := ps.ParseLabelSize(wp.Label); !ok {
			continue
		}
		nodes = append(nodes, components.ClaimNode{X: wp.X, Z: wp.Z, Label: wp.Label})
	}

	a.app.Suspend(func() {
		if err := components.RenderClaimMap(os.Stdout, nodes); err != nil {
			log.Error("Claim map render failed", "error", err)
			fmt.Fprintf(os.Stdout, "Unable to render claim map: %v\n", err)
		}
		fmt.Fprint(os.Stdout, "\nPress Enter to return...")
		bufio.NewReader(os.Stdin).ReadString('\n')
	})
}

func (a *App) reportCount(verb string, count int, err error) {
	if err != nil {
		a.systemMessage(fmt.Sprintf("Waypoint update failed: %v", err))
		return
	}
	a.systemMessage(fmt.Sprintf("%s %d ClaimPoints.", verb, count))
}

// autocomplete completes world names for scan commands and color names for
// the color setting.
func (a *App) autocomplete(current string) []string {
	for _, prefix := range []string{"/cp add ", "/cp clean ", "/cp update "} {
		if strings.HasPrefix(current, prefix) {
			return complete(prefix, current, a.manager.KnownWorlds())
		}
	}
	if strings.HasPrefix(current, "/cp waypoints set color ") {
		return complete("/cp waypoints set color ", current, colorNames())
	}
	return nil
}

func colorNames() []string {
	return waypoint.ColorNames
}

func complete(prefix, current string, candidates []string) []string {
	partial := strings.ToLower(current[len(prefix):])
	var out []string
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c), partial) {
			out = append(out, prefix+c)
		}
	}
	return out
}

package tui

import (
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"claimpoints/internal/bridge"
	"claimpoints/internal/game"
	"claimpoints/internal/log"
	"claimpoints/internal/streaming"
	"claimpoints/internal/theme"
	"claimpoints/internal/waypoint"
)

// pollInterval drives the cooperative scan timeout check.
const pollInterval = 250 * time.Millisecond

// App is the main tview application: a chat view fed by the bridge, a
// waypoint table, a status bar, and a command input line.
type App struct {
	app     *tview.Application
	manager *game.Manager
	bridge  *bridge.Bridge

	chatView *tview.TextView
	wpTable  *tview.Table
	status   *tview.TextView
	input    *tview.InputField

	stopPolling chan struct{}

	version string
}

// NewApplication creates and wires the tview application. The bridge is
// attached afterwards with SetBridge, since it needs the pipeline and the
// pipeline needs this app as its chat writer.
func NewApplication(manager *game.Manager, bus *streaming.EventBus) *App {
	a := &App{
		app:         tview.NewApplication(),
		manager:     manager,
		stopPolling: make(chan struct{}),
	}

	th := theme.Current()

	a.chatView = tview.NewTextView().
		SetDynamicColors(true).
		SetScrollable(true).
		SetWordWrap(true)
	a.chatView.SetBorder(true).SetTitle(" Chat ")
	a.chatView.SetBorderColor(th.Panel.Border).SetTitleColor(th.Panel.Title)

	a.wpTable = tview.NewTable().SetBorders(false)
	a.wpTable.SetBorder(true).SetTitle(" Waypoints ")
	a.wpTable.SetBorderColor(th.Panel.Border).SetTitleColor(th.Panel.Title)

	a.status = tview.NewTextView().SetDynamicColors(true)
	a.status.SetBackgroundColor(th.Status.Background)
	a.status.SetText("[gray]Not connected")

	a.input = tview.NewInputField().SetLabel("> ").SetLabelColor(th.InputLabelFg)
	a.input.SetDoneFunc(func(key tcell.Key) {
		if key != tcell.KeyEnter {
			return
		}
		text := a.input.GetText()
		a.input.SetText("")
		if text != "" {
			a.dispatch(text)
		}
	})
	a.input.SetAutocompleteFunc(a.autocomplete)

	grid := tview.NewGrid().
		SetRows(0, 1, 1).
		SetColumns(0, 46).
		AddItem(a.chatView, 0, 0, 1, 1, 0, 0, false).
		AddItem(a.wpTable, 0, 1, 1, 1, 0, 0, false).
		AddItem(a.status, 1, 0, 1, 2, 0, 0, false).
		AddItem(a.input, 2, 0, 1, 2, 0, 0, true)

	a.app.SetRoot(grid, true).SetFocus(a.input)

	a.subscribe(bus)
	return a
}

// SetBridge attaches the chat bridge. Must be called before Run.
func (a *App) SetBridge(br *bridge.Bridge) {
	a.bridge = br
}

// SetVersionInfo records build metadata shown by /cp help.
func (a *App) SetVersionInfo(version string) {
	a.version = version
}

// Run connects the bridge and runs the UI loop until quit.
func (a *App) Run() error {
	cfg := a.manager.Config()
	if err := a.bridge.Connect(cfg.Bridge.Address); err != nil {
		log.Warn("Initial bridge connection failed", "error", err)
		a.systemMessage(fmt.Sprintf("Not connected: %v. Use /connect <host:port>.", err))
	} else {
		a.setStatus(fmt.Sprintf("[green]Connected to %s", cfg.Bridge.Address))
	}

	a.bridge.SetDisconnectHandler(func(err error) {
		a.queueUpdate(func() {
			a.setStatus("[red]Disconnected")
			a.systemMessage("Lost connection to chat bridge. Use /connect to retry.")
		})
	})

	go a.pollLoop()
	defer close(a.stopPolling)

	a.refreshWaypoints()
	a.systemMessage("ClaimPoints ready. Type /cp help for commands.")

	return a.app.Run()
}

// pollLoop ticks the scan timeout check. Sessions hold no timers of their
// own.
func (a *App) pollLoop() {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.manager.PollTimeout(time.Now())
		case <-a.stopPolling:
			return
		}
	}
}

// AppendChatLine implements streaming.ChatWriter: every decoded chat line
// lands in the chat view.
func (a *App) AppendChatLine(line string) {
	a.queueUpdate(func() {
		fmt.Fprintf(a.chatView, "%s\n", tview.Escape(line))
		a.chatView.ScrollToEnd()
	})
}

func (a *App) subscribe(bus *streaming.EventBus) {
	bus.Subscribe(streaming.EventStatusMessage, func(ev streaming.Event) {
		if msg, ok := ev.Data.(string); ok {
			a.queueUpdate(func() { a.systemMessage(msg) })
		}
	})

	bus.Subscribe(streaming.EventScanCompleted, func(ev streaming.Event) {
		result, ok := ev.Data.(game.ScanResult)
		if !ok {
			return
		}
		a.queueUpdate(func() {
			a.systemMessage(result.Summary)
			a.setStatus(fmt.Sprintf("[green]Scan of '%s' complete: %d claims", result.World, result.Claims))
		})
	})

	bus.Subscribe(streaming.EventScanTimedOut, func(ev streaming.Event) {
		timeout, ok := ev.Data.(game.ScanTimedOut)
		if !ok {
			return
		}
		a.queueUpdate(func() {
			if timeout.WorldScan {
				a.systemMessage("No response to world scan. Is the server reachable?")
			} else {
				a.systemMessage(fmt.Sprintf("No response scanning world '%s'. Is the server reachable?", timeout.World))
			}
			a.setStatus("[red]Scan timed out")
		})
	})

	bus.Subscribe(streaming.EventWorldsUpdated, func(ev streaming.Event) {
		worlds, ok := ev.Data.([]string)
		if !ok {
			return
		}
		a.queueUpdate(func() {
			a.setStatus(fmt.Sprintf("[green]%d worlds known", len(worlds)))
		})
	})

	bus.Subscribe(streaming.EventWaypointsChanged, func(ev streaming.Event) {
		a.queueUpdate(a.refreshWaypoints)
	})
}

// queueUpdate schedules a UI mutation without blocking the caller. Events
// can fire on the UI goroutine itself, where a direct QueueUpdateDraw would
// deadlock.
func (a *App) queueUpdate(fn func()) {
	go a.app.QueueUpdateDraw(fn)
}

func (a *App) systemMessage(msg string) {
	fmt.Fprintf(a.chatView, "[yellow]%s[-]\n", tview.Escape(msg))
	a.chatView.ScrollToEnd()
}

func (a *App) setStatus(msg string) {
	a.status.SetText(msg)
}

// refreshWaypoints redraws the waypoint table from the store.
func (a *App) refreshWaypoints() {
	wps, err := a.manager.Store().ListWaypoints()
	if err != nil {
		log.Error("Unable to list waypoints for table", "error", err)
		return
	}

	a.wpTable.Clear()
	headers := []string{"X", "Z", "Label", "Alias", "Color", "Shown"}
	for col, h := range headers {
		a.wpTable.SetCell(0, col, tview.NewTableCell(h).
			SetTextColor(theme.Current().Panel.Header).
			SetSelectable(false))
	}

	for row, wp := range wps {
		shown := "yes"
		if !wp.Visible {
			shown = "no"
		}
		colorName := ""
		if wp.ColorIdx >= 0 && wp.ColorIdx < len(waypoint.ColorNames) {
			colorName = waypoint.ColorNames[wp.ColorIdx]
		}
		cells := []string{
			fmt.Sprintf("%d", wp.X),
			fmt.Sprintf("%d", wp.Z),
			wp.Label,
			wp.Alias,
			colorName,
			shown,
		}
		for col, text := range cells {
			a.wpTable.SetCell(row+1, col, tview.NewTableCell(tview.Escape(text)))
		}
	}
	a.wpTable.SetTitle(fmt.Sprintf(" Waypoints (%d) ", len(wps)))
}

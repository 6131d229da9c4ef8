package main

import (
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/mattn/go-isatty"

	"claimpoints/internal/bridge"
	"claimpoints/internal/config"
	"claimpoints/internal/game"
	"claimpoints/internal/log"
	"claimpoints/internal/streaming"
	"claimpoints/internal/tui"
	"claimpoints/internal/waypoint"
)

var version = "dev"

func main() {
	// Set up global panic handler first
	defer func() {
		if r := recover(); r != nil {
			log.Error("GLOBAL PANIC recovered", "error", r, "stack", string(debug.Stack()))
			fmt.Fprintf(os.Stderr, "Application crashed. See claimpoints_debug.log for details.\n")
			os.Exit(1)
		}
	}()

	if err := log.SetFileOutput("claimpoints_debug.log"); err != nil {
		fmt.Printf("Warning: Could not configure debug logging to file: %v\n", err)
	}

	signalChan := make(chan os.Signal, 1)
	signal.Notify(signalChan, syscall.SIGSEGV, syscall.SIGABRT, syscall.SIGTERM)
	go func() {
		sig := <-signalChan
		log.Error("SIGNAL RECEIVED", "signal", sig.String(), "stack", string(debug.Stack()))
		fmt.Fprintf(os.Stderr, "Application received signal %s. See claimpoints_debug.log for details.\n", sig.String())
		os.Exit(1)
	}()

	if !isatty.IsTerminal(os.Stdout.Fd()) {
		fmt.Println("ClaimPoints Client")
		fmt.Println("This application requires a terminal/TTY to run properly.")
		os.Exit(1)
	}

	cfgPath := config.DefaultFileName
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	bus := streaming.NewEventBus()

	store := waypoint.NewStore()
	storeFile := config.Load(cfgPath).Bridge.StoreFile
	if err := store.OpenStore(storeFile); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open waypoint store %s: %v\n", storeFile, err)
		os.Exit(1)
	}
	defer store.CloseStore()

	manager := game.NewManager(cfgPath, store, bus)

	app := tui.NewApplication(manager, bus)
	pipeline := streaming.NewPipeline(manager.Config().Bridge.Encoding, manager, app)
	pipeline.Start()
	defer pipeline.Stop()

	br := bridge.New(pipeline)
	app.SetBridge(br)
	defer br.Disconnect()

	app.SetVersionInfo(version)
	if err := app.Run(); err != nil {
		fmt.Printf("Error running program: %v\n", err)
		os.Exit(1)
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"claimpoints/internal/log"
	"claimpoints/internal/waypoint"
)

const DefaultFileName = "claimpoints.json"

// Defaults for the GriefPrevention claim list report shape. These are plain
// regular expressions the user can edit at runtime; every pattern is matched
// against a whole chat line.
const (
	DefaultClaimPointFormat = "Claim (%d)"
	DefaultClaimPointAlias  = "CP"

	DefaultFirstLinePattern = `^-?\d+ blocks from play \+ -?\d+ bonus = -?\d+ total.$`
	DefaultClaimLinePattern = `^(.+): x(-?\d+), z(-?\d+) \(-?(\d+) blocks\)$`
)

var DefaultIgnoredLinePatterns = []string{
	`^Claims:$`,
}

var DefaultEndingLinePatterns = []string{
	`^ = -?\d* blocks left to spend$`,
}

// ClaimPointSettings controls how ClaimPoint waypoints are named and drawn.
type ClaimPointSettings struct {
	NameFormat string `json:"name_format"`
	Alias      string `json:"alias"`
	Color      string `json:"color"`
}

// GriefPreventionSettings holds the patterns that describe the server's
// claim list report.
type GriefPreventionSettings struct {
	FirstLinePattern    string   `json:"first_line_pattern"`
	ClaimLinePattern    string   `json:"claim_line_pattern"`
	IgnoredLinePatterns []string `json:"ignored_line_patterns"`
	EndingLinePatterns  []string `json:"ending_line_patterns"`
}

// BridgeSettings holds connection parameters for the chat bridge socket.
type BridgeSettings struct {
	Address          string `json:"address"`
	Encoding         string `json:"encoding"`
	ClaimListCommand string `json:"claim_list_command"`
	StoreFile        string `json:"store_file"`
}

// Config is the full on-disk configuration record. Validation happens when a
// pattern set is compiled from it, not here; this package only persists the
// raw values.
type Config struct {
	ClaimPoint      ClaimPointSettings      `json:"claim_point"`
	GriefPrevention GriefPreventionSettings `json:"grief_prevention"`
	Bridge          BridgeSettings          `json:"bridge"`
}

// Default returns a fresh configuration with known-good values.
func Default() *Config {
	return &Config{
		ClaimPoint: ClaimPointSettings{
			NameFormat: DefaultClaimPointFormat,
			Alias:      DefaultClaimPointAlias,
			Color:      waypoint.DefaultColor,
		},
		GriefPrevention: GriefPreventionSettings{
			FirstLinePattern:    DefaultFirstLinePattern,
			ClaimLinePattern:    DefaultClaimLinePattern,
			IgnoredLinePatterns: append([]string(nil), DefaultIgnoredLinePatterns...),
			EndingLinePatterns:  append([]string(nil), DefaultEndingLinePatterns...),
		},
		Bridge: BridgeSettings{
			Address:          "localhost:25585",
			Encoding:         "utf8",
			ClaimListCommand: "claimlist",
			StoreFile:        "waypoints.db",
		},
	}
}

// Load reads the configuration at path. A missing or unreadable file yields
// the defaults (and a logged warning); the caller decides whether the loaded
// values actually compile.
func Load(path string) *Config {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			log.Warn("Config file not found, using defaults", "path", path)
		} else {
			log.Error("Unable to read config file, using defaults", "path", path, "error", err)
		}
		return Default()
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		log.Error("Unable to parse config file, using defaults", "path", path, "error", err)
		return Default()
	}
	return cfg
}

// Save writes the configuration to path atomically: the file is written to a
// temporary sibling and then renamed over the destination, so a crash cannot
// leave a half-written config behind.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace config: %w", err)
	}
	return nil
}

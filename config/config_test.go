package config

import (
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Game.BuildPhaseDuration != 30*time.Second {
		t.Errorf("Expected 30s build phase, got %v", cfg.Game.BuildPhaseDuration)
	}
	if cfg.Game.TurnDuration != 30*time.Second {
		t.Errorf("Expected 30s turns, got %v", cfg.Game.TurnDuration)
	}
	if cfg.Game.BlocksPerType != 3 {
		t.Errorf("Expected 3 blocks per type, got %d", cfg.Game.BlocksPerType)
	}

	// The two placement bands must not overlap.
	p1End := cfg.World.Player1Area.X + cfg.World.Player1Area.Width
	if p1End > cfg.World.Player2Area.X {
		t.Errorf("Placement bands overlap: player 1 ends at %v, player 2 starts at %v", p1End, cfg.World.Player2Area.X)
	}
	p2End := cfg.World.Player2Area.X + cfg.World.Player2Area.Width
	if p2End > cfg.World.Width {
		t.Errorf("Player 2 band ends at %v, beyond the %v wide world", p2End, cfg.World.Width)
	}

	if cfg.RateLimit.Placement.MaxCount <= 0 || cfg.RateLimit.Placement.Window <= 0 {
		t.Error("Placement rate limit must have a positive budget and window")
	}
	if cfg.Database.Enabled {
		t.Error("The database should be opt-in")
	}
}

func TestLoadConfig_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	if err != nil {
		t.Fatalf("A missing config file should not be an error: %v", err)
	}
	if cfg.Server.HTTPAddress == "" {
		t.Error("Defaults should fill in the HTTP address")
	}
	if cfg.Game.ReconnectGrace <= 0 {
		t.Error("Defaults should set a positive reconnect grace window")
	}
}

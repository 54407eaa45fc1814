package config

import "testing"

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("PAISSA_BASE_URL", "")
	t.Setenv("UPDATE_INTERVAL_MINUTES", "")
	t.Setenv("CHANNEL_DELAY_SECONDS", "")
	t.Setenv("LOG_LEVEL", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.DatabasePath != "./data/bot.db" {
		t.Errorf("DatabasePath = %q", cfg.DatabasePath)
	}
	if cfg.UpdateIntervalMinutes != 30 {
		t.Errorf("UpdateIntervalMinutes = %d, want 30", cfg.UpdateIntervalMinutes)
	}
	if cfg.ChannelDelaySeconds != 30 {
		t.Errorf("ChannelDelaySeconds = %d, want 30", cfg.ChannelDelaySeconds)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
}

func TestLoad_RequiresToken(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "")

	if _, err := Load(); err == nil {
		t.Fatal("Load should fail without DISCORD_BOT_TOKEN")
	}
}

func TestLoad_RejectsBadInterval(t *testing.T) {
	t.Setenv("DISCORD_BOT_TOKEN", "token")

	t.Setenv("UPDATE_INTERVAL_MINUTES", "soon")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a non-numeric interval")
	}

	t.Setenv("UPDATE_INTERVAL_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatal("Load should reject a non-positive interval")
	}
}

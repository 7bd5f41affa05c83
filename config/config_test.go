package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bot_config.json")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, `{"bot_settings": {`)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoadWithDefaultsFillsGaps(t *testing.T) {
	path := writeConfig(t, `{"bot_settings": {"command_prefix": "?"}}`)

	s, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}

	if s.BotSettings.CommandPrefix != "?" {
		t.Errorf("command prefix = %q, want %q", s.BotSettings.CommandPrefix, "?")
	}
	if s.BotSettings.Description == "" {
		t.Error("description default not applied")
	}
	if s.BotSettings.ActivityType != "playing" {
		t.Errorf("activity type = %q, want %q", s.BotSettings.ActivityType, "playing")
	}
	if s.Logger.Level != "info" {
		t.Errorf("logger level = %q, want %q", s.Logger.Level, "info")
	}
	if s.Store.Path == "" {
		t.Error("store path default not applied")
	}
	if s.Messages == nil || s.Features == nil {
		t.Error("maps not initialized")
	}
}

func TestLoadWithDefaultsKeepsFileValues(t *testing.T) {
	path := writeConfig(t, `{
		"bot_settings": {
			"command_prefix": "vm!",
			"description": "custom",
			"activity_type": "watching",
			"activity_name": "the channels"
		},
		"messages": {"no_permission": "denied"},
		"features": {"allow_self_mute": false},
		"logger": {"level": "debug"},
		"store": {"path": "custom.db"}
	}`)

	s, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults: %v", err)
	}

	if s.BotSettings.CommandPrefix != "vm!" {
		t.Errorf("command prefix = %q, want %q", s.BotSettings.CommandPrefix, "vm!")
	}
	if s.Message(MsgNoPermission) != "denied" {
		t.Errorf("message override not applied, got %q", s.Message(MsgNoPermission))
	}
	if s.Feature(FeatureAllowSelfMute) {
		t.Error("allow_self_mute override not applied")
	}
	if s.Logger.Level != "debug" {
		t.Errorf("logger level = %q, want %q", s.Logger.Level, "debug")
	}
	if s.Store.Path != "custom.db" {
		t.Errorf("store path = %q, want %q", s.Store.Path, "custom.db")
	}
}

func TestMessageFallbacks(t *testing.T) {
	s := &Settings{Messages: map[string]string{
		"mute_all_success": "all quiet",
		"empty_override":   "",
	}}

	tests := []struct {
		name string
		key  string
		want string
	}{
		{"configured", "mute_all_success", "all quiet"},
		{"default", MsgNoVoiceChannel, defaultMessages[MsgNoVoiceChannel]},
		{"empty value falls back", "empty_override", defaultMessages[MsgErrorOccurred]},
		{"unknown key", "no_such_key", defaultMessages[MsgErrorOccurred]},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Message(tt.key); got != tt.want {
				t.Errorf("Message(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestFeatureDefaults(t *testing.T) {
	s := &Settings{Features: map[string]bool{FeatureLogActions: true}}

	if !s.Feature(FeatureLogActions) {
		t.Error("configured flag not honored")
	}
	if !s.Feature(FeatureAllowSelfMute) {
		t.Error("allow_self_mute should default to true")
	}
	if s.Feature(FeatureAutoUnmuteOnLeave) {
		t.Error("auto_unmute_on_leave should default to false")
	}
	if s.Feature("unknown_flag") {
		t.Error("unknown flag should be false")
	}
}

func TestWithGuildIDCopiesMaps(t *testing.T) {
	orig := &Settings{
		Messages: map[string]string{"k": "v"},
		Features: map[string]bool{FeatureLogActions: true},
	}

	next := orig.WithGuildID("guild-1")
	if next.GuildID != "guild-1" {
		t.Fatalf("guild id = %q, want %q", next.GuildID, "guild-1")
	}
	if orig.GuildID != "" {
		t.Error("original snapshot mutated")
	}

	next.Messages["k"] = "changed"
	next.Features[FeatureLogActions] = false
	if orig.Messages["k"] != "v" {
		t.Error("messages map shared between snapshots")
	}
	if !orig.Features[FeatureLogActions] {
		t.Error("features map shared between snapshots")
	}
}

func TestHolderReplace(t *testing.T) {
	first := &Settings{GuildID: "a"}
	h := NewHolder(first)

	if h.Current() != first {
		t.Fatal("Current did not return initial snapshot")
	}

	second := first.WithGuildID("b")
	h.Replace(second)
	if h.Current().GuildID != "b" {
		t.Errorf("guild id after replace = %q, want %q", h.Current().GuildID, "b")
	}
}

func TestPersistEnvVar(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")

	if err := PersistEnvVar(path, "DISCORD_GUILD_ID", "123"); err != nil {
		t.Fatalf("PersistEnvVar create: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}
	if got := strings.TrimSpace(string(raw)); got != "DISCORD_GUILD_ID=123" {
		t.Errorf("env file = %q, want %q", got, "DISCORD_GUILD_ID=123")
	}

	// Updating replaces the existing entry and preserves other lines.
	if err := os.WriteFile(path, []byte("DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=123\n"), 0o600); err != nil {
		t.Fatalf("seed env file: %v", err)
	}
	if err := PersistEnvVar(path, "DISCORD_GUILD_ID", "456"); err != nil {
		t.Fatalf("PersistEnvVar update: %v", err)
	}
	raw, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("read env file: %v", err)
	}
	want := "DISCORD_BOT_TOKEN=abc\nDISCORD_GUILD_ID=456\n"
	if string(raw) != want {
		t.Errorf("env file = %q, want %q", string(raw), want)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Run("from process environment", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token-1")
		t.Setenv("DISCORD_GUILD_ID", "guild-1")

		e, err := LoadEnv("")
		if err != nil {
			t.Fatalf("LoadEnv: %v", err)
		}
		if e.Token != "token-1" || e.GuildID != "guild-1" {
			t.Errorf("env = %+v, want token-1/guild-1", e)
		}
	})

	t.Run("missing token", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "")
		if _, err := LoadEnv(""); err == nil {
			t.Fatal("expected error for empty token")
		}
	})

	t.Run("from env file", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "placeholder")
		t.Setenv("DISCORD_GUILD_ID", "placeholder")
		os.Unsetenv("DISCORD_BOT_TOKEN")
		os.Unsetenv("DISCORD_GUILD_ID")

		path := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(path, []byte("DISCORD_BOT_TOKEN=file-token\n"), 0o600); err != nil {
			t.Fatalf("write env file: %v", err)
		}

		e, err := LoadEnv(path)
		if err != nil {
			t.Fatalf("LoadEnv: %v", err)
		}
		if e.Token != "file-token" {
			t.Errorf("token = %q, want %q", e.Token, "file-token")
		}
		if e.GuildID != "" {
			t.Errorf("guild id = %q, want empty", e.GuildID)
		}
	})

	t.Run("missing env file is not an error", func(t *testing.T) {
		t.Setenv("DISCORD_BOT_TOKEN", "token-2")
		if _, err := LoadEnv(filepath.Join(t.TempDir(), "nope.env")); err != nil {
			t.Fatalf("LoadEnv: %v", err)
		}
	})
}

package config

import (
	"fmt"
	"os"

	"github.com/lordswift/discord-voice-moderator/clock"
	"github.com/lordswift/discord-voice-moderator/logger"
	"github.com/lordswift/discord-voice-moderator/store"
	"go.uber.org/config"
)

// Feature flag names recognized in the features block.
const (
	FeatureAllowSelfMute     = "allow_self_mute"
	FeatureLogActions        = "log_actions"
	FeatureAutoUnmuteOnLeave = "auto_unmute_on_leave"
)

// Message template keys used outside the per-action success messages.
const (
	MsgNoVoiceChannel  = "no_voice_channel"
	MsgNoPermission    = "no_permission"
	MsgBotNoPermission = "bot_no_permission"
	MsgErrorOccurred   = "error_occurred"
)

// BotSettings holds the bot_settings block of the configuration file.
type BotSettings struct {
	CommandPrefix string `yaml:"command_prefix"`
	Description   string `yaml:"description"`
	ActivityType  string `yaml:"activity_type"`
	ActivityName  string `yaml:"activity_name"`
}

// Settings is the immutable configuration snapshot shared by all handlers.
// A new snapshot is built (never mutated in place) when the sync command
// persists a guild id; see Holder.
type Settings struct {
	BotSettings BotSettings       `yaml:"bot_settings"`
	Messages    map[string]string `yaml:"messages"`
	Features    map[string]bool   `yaml:"features"`
	Logger      logger.Config     `yaml:"logger"`
	Clock       clock.Config      `yaml:"clock"`
	Store       store.Config      `yaml:"store"`

	// GuildID is the guild commands are registered to for immediate
	// availability. Sourced from the environment or the store, not from
	// the configuration file.
	GuildID string `yaml:"-"`
}

var defaultMessages = map[string]string{
	"mute_all_success":           "🔇 Muted all members in voice channel",
	"unmute_all_success":         "🔊 Unmuted all members in voice channel",
	"deafen_all_success":         "🔇 Deafened all members in voice channel",
	"undeafen_all_success":       "🔊 Undeafened all members in voice channel",
	"mutedeafen_all_success":     "🔇 Muted and deafened all members in voice channel",
	"muteundeafen_all_success":   "🔇 Muted and undeafened all members in voice channel",
	"unmuteundeafen_all_success": "🔊 Unmuted and undeafened all members in voice channel",
	"unmutedeafen_all_success":   "🔊 Unmuted and deafened all members in voice channel",
	MsgNoVoiceChannel:            "❌ You must be in a voice channel to use this command",
	MsgNoPermission:              "❌ You don't have permission to mute/unmute members",
	MsgBotNoPermission:           "❌ Bot doesn't have permission to mute/unmute members",
	MsgErrorOccurred:             "❌ An error occurred while processing the command",
}

var defaultFeatures = map[string]bool{
	FeatureAllowSelfMute:     true,
	FeatureLogActions:        false,
	FeatureAutoUnmuteOnLeave: false,
}

// Message returns the template for key, falling back to the built-in default.
func (s *Settings) Message(key string) string {
	if msg, ok := s.Messages[key]; ok && msg != "" {
		return msg
	}
	if msg, ok := defaultMessages[key]; ok {
		return msg
	}
	return defaultMessages[MsgErrorOccurred]
}

// Feature reports whether the named flag is enabled. Flags absent from the
// configuration use the built-in default.
func (s *Settings) Feature(name string) bool {
	if v, ok := s.Features[name]; ok {
		return v
	}
	return defaultFeatures[name]
}

// WithGuildID returns a copy of the settings with the guild id replaced.
// The maps are copied so the new snapshot shares nothing mutable with the old.
func (s *Settings) WithGuildID(guildID string) *Settings {
	next := *s
	next.GuildID = guildID
	next.Messages = make(map[string]string, len(s.Messages))
	for k, v := range s.Messages {
		next.Messages[k] = v
	}
	next.Features = make(map[string]bool, len(s.Features))
	for k, v := range s.Features {
		next.Features[k] = v
	}
	return &next
}

// Load reads the bot configuration from the given JSON files. Files are
// merged in order, with later files overriding earlier ones. A missing or
// malformed file is an error: the bot refuses to start without its config.
func Load(files ...string) (*Settings, error) {
	opts := make([]config.YAMLOption, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return nil, fmt.Errorf("config file %s: %w", f, err)
		}
		opts = append(opts, config.File(f))
	}

	if len(opts) == 0 {
		return nil, os.ErrNotExist
	}

	provider, err := config.NewYAML(opts...)
	if err != nil {
		return nil, err
	}

	var s Settings
	if err := provider.Get(config.Root).Populate(&s); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadWithDefaults loads configuration and fills in defaults for anything
// the file leaves out.
func LoadWithDefaults(files ...string) (*Settings, error) {
	s, err := Load(files...)
	if err != nil {
		return nil, err
	}

	if s.BotSettings.CommandPrefix == "" {
		s.BotSettings.CommandPrefix = "!"
	}
	if s.BotSettings.Description == "" {
		s.BotSettings.Description = "Voice Channel Mute Manager Bot"
	}
	if s.BotSettings.ActivityType == "" {
		s.BotSettings.ActivityType = "playing"
	}
	if s.BotSettings.ActivityName == "" {
		s.BotSettings.ActivityName = "with voice channels"
	}
	if s.Messages == nil {
		s.Messages = map[string]string{}
	}
	if s.Features == nil {
		s.Features = map[string]bool{}
	}
	if s.Logger.Level == "" {
		s.Logger.Level = "info"
	}
	if len(s.Logger.OutputPaths) == 0 {
		s.Logger.OutputPaths = []string{"stdout"}
	}
	if s.Store.Path == "" {
		s.Store.Path = "data/voice_moderator.db"
	}

	return s, nil
}

package store

import (
	"context"

	"github.com/lordswift/discord-voice-moderator/models"
)

// Config holds store configuration.
type Config struct {
	Path string `yaml:"path"`
}

// Store persists the small amount of state the bot keeps across restarts:
// the guild id commands are synced to, and the moderation action audit log.
type Store interface {
	Open(ctx context.Context) error
	Close() error

	SaveGuildID(ctx context.Context, guildID string) error
	GuildID(ctx context.Context) (string, error)

	RecordAction(ctx context.Context, rec models.ActionRecord) error
	ListRecentActions(ctx context.Context, guildID string, limit int) ([]models.ActionRecord, error)
}

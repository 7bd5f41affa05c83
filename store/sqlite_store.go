package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lordswift/discord-voice-moderator/clock"
	"github.com/lordswift/discord-voice-moderator/logger"
	"github.com/lordswift/discord-voice-moderator/models"
)

var _ Store = (*SQLiteStore)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS guild_settings (
	id           INTEGER PRIMARY KEY CHECK (id = 1),
	guild_id     TEXT NOT NULL,
	updated_at   TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS action_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	guild_id     TEXT NOT NULL,
	channel_id   TEXT NOT NULL,
	moderator_id TEXT NOT NULL,
	action       TEXT NOT NULL,
	succeeded    INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_action_log_guild ON action_log (guild_id, id);
`

// SQLiteStore is a file-backed Store.
type SQLiteStore struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	clock  clock.Clock
	logger logger.Logger
}

type Params struct {
	Path   string
	Clock  clock.Clock
	Logger logger.Logger
}

func NewSQLiteStore(p Params) *SQLiteStore {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	ck := p.Clock
	if ck == nil {
		ck = clock.System()
	}
	return &SQLiteStore{
		path:   p.Path,
		clock:  ck,
		logger: log,
	}
}

func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}
	if s.path == "" {
		return errors.New("store path is empty")
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create store directory: %w", err)
		}
	}

	database, err := sql.Open("sqlite3", sqliteFileDSN(s.path))
	if err != nil {
		return err
	}
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)

	if err = database.PingContext(ctx); err != nil {
		_ = database.Close()
		return err
	}

	if _, err = database.ExecContext(ctx, schema); err != nil {
		_ = database.Close()
		return fmt.Errorf("apply schema: %w", err)
	}

	s.db = database
	return nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveGuildID stores the guild id the sync command registered commands to.
// A single row holds the most recent value; last write wins.
func (s *SQLiteStore) SaveGuildID(ctx context.Context, guildID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New("store is not open")
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO guild_settings (id, guild_id, updated_at)
VALUES (1, ?, strftime('%Y-%m-%dT%H:%M:%SZ','now'))
ON CONFLICT (id) DO UPDATE SET
	guild_id = excluded.guild_id,
	updated_at = excluded.updated_at
`, guildID)
	if err != nil {
		s.logger.ErrorW("failed to save guild id", "guild", guildID, "error", err)
		return err
	}

	s.logger.InfoW("saved guild id", "guild", guildID)
	return nil
}

// GuildID returns the stored guild id, or "" when none has been saved.
func (s *SQLiteStore) GuildID(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return "", errors.New("store is not open")
	}

	var guildID string
	err := s.db.QueryRowContext(ctx, `SELECT guild_id FROM guild_settings WHERE id = 1`).Scan(&guildID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return guildID, nil
}

func (s *SQLiteStore) RecordAction(ctx context.Context, rec models.ActionRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errors.New("store is not open")
	}

	rec = rec.Stamp(s.clock.Now())
	_, err := s.db.ExecContext(ctx, `
INSERT INTO action_log (guild_id, channel_id, moderator_id, action, succeeded, failed, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
`, rec.GuildID, rec.ChannelID, rec.ModeratorID, rec.Action, rec.Succeeded, rec.Failed, rec.CreatedAt)
	if err != nil {
		s.logger.ErrorW("failed to record action", "action", rec.Action, "error", err)
		return err
	}

	s.logger.DebugW("recorded action", "summary", rec.Summary())
	return nil
}

// ListRecentActions returns the most recent audit records for a guild,
// newest first.
func (s *SQLiteStore) ListRecentActions(ctx context.Context, guildID string, limit int) ([]models.ActionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errors.New("store is not open")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT guild_id, channel_id, moderator_id, action, succeeded, failed, created_at
FROM action_log
WHERE guild_id = ?
ORDER BY id DESC
LIMIT ?
`, guildID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ActionRecord
	for rows.Next() {
		var rec models.ActionRecord
		if err := rows.Scan(&rec.GuildID, &rec.ChannelID, &rec.ModeratorID, &rec.Action, &rec.Succeeded, &rec.Failed, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func sqliteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

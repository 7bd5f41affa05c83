package models

import (
	"fmt"
	"strings"
	"time"
)

// ActionRecord is one completed moderation dispatch, written to the audit
// log when the log_actions feature is enabled.
type ActionRecord struct {
	GuildID     string `json:"guild_id" yaml:"guild_id"`
	ChannelID   string `json:"channel_id" yaml:"channel_id"`
	ModeratorID string `json:"moderator_id" yaml:"moderator_id"`
	Action      string `json:"action" yaml:"action"`
	Succeeded   int    `json:"succeeded" yaml:"succeeded"`
	Failed      int    `json:"failed" yaml:"failed"`
	CreatedAt   string `json:"created_at" yaml:"created_at"`
}

// Summary renders the record as a single log-friendly line.
func (r ActionRecord) Summary() string {
	return fmt.Sprintf("%s by %s in %s: %d ok, %d failed",
		r.Action, r.ModeratorID, r.ChannelID, r.Succeeded, r.Failed)
}

// Stamp fills CreatedAt with the given time (UTC) when it is unset.
func (r ActionRecord) Stamp(t time.Time) ActionRecord {
	if strings.TrimSpace(r.CreatedAt) == "" {
		r.CreatedAt = t.UTC().Format(time.RFC3339)
	}
	return r
}

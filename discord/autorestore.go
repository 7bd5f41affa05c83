package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/config"
	"github.com/lordswift/discord-voice-moderator/voice"
)

// restoreTracker remembers members who left voice while server-muted or
// server-deafened. The platform rejects member edits for users not connected
// to voice, so the flags are cleared when the member next joins a voice
// channel in the same guild.
type restoreTracker struct {
	mu      sync.Mutex
	pending map[string]voice.Toggles // guildID|userID -> flags to clear
}

func newRestoreTracker() *restoreTracker {
	return &restoreTracker{pending: make(map[string]voice.Toggles)}
}

func restoreKey(guildID, userID string) string {
	return guildID + "|" + userID
}

// NoteLeave records which server flags were set when the member left voice.
// Members with no flags set are forgotten.
func (t *restoreTracker) NoteLeave(guildID, userID string, muted, deafened bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := restoreKey(guildID, userID)
	if !muted && !deafened {
		delete(t.pending, key)
		return
	}

	toggles := voice.Toggles{}
	if muted {
		toggles.Mute = voice.Bool(false)
	}
	if deafened {
		toggles.Deafen = voice.Bool(false)
	}
	t.pending[key] = toggles
}

// TakeJoin returns and clears the pending restore for a member joining
// voice, if any.
func (t *restoreTracker) TakeJoin(guildID, userID string) (voice.Toggles, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := restoreKey(guildID, userID)
	toggles, ok := t.pending[key]
	if ok {
		delete(t.pending, key)
	}
	return toggles, ok
}

func (c *Client) handleVoiceStateUpdate(s *discordgo.Session, vsu *discordgo.VoiceStateUpdate) {
	if vsu == nil || vsu.VoiceState == nil {
		return
	}
	if !c.settings.Current().Feature(config.FeatureAutoUnmuteOnLeave) {
		return
	}

	// Leaving voice: remember the server flags so they can be cleared later.
	if vsu.ChannelID == "" {
		c.restore.NoteLeave(vsu.GuildID, vsu.UserID, vsu.Mute, vsu.Deaf)
		return
	}

	// Joining (or moving within) voice: clear any flags noted at leave time.
	toggles, ok := c.restore.TakeJoin(vsu.GuildID, vsu.UserID)
	if !ok {
		return
	}

	res := c.mutator.Apply(vsu.GuildID, vsu.UserID, toggles)
	if !res.OK() {
		c.logger.WarnW("auto-unmute failed", "guild", vsu.GuildID, "user", vsu.UserID, "error", res.Err)
		return
	}
	c.logger.InfoW("auto-unmute applied", "guild", vsu.GuildID, "user", vsu.UserID)
}

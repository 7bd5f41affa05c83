package permissions

import (
	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/logger"
)

// Capability names a permission a user must hold for an action to proceed.
type Capability int

const (
	// CapMuteMembers gates mute/unmute actions.
	CapMuteMembers Capability = iota
	// CapDeafenMembers gates deafen/undeafen actions.
	CapDeafenMembers
	// CapMuteDeafenMembers gates combined actions; both permissions are
	// required.
	CapMuteDeafenMembers
	// CapAdministrator gates administrative commands such as command sync.
	CapAdministrator
)

func (c Capability) String() string {
	switch c {
	case CapMuteMembers:
		return "mute_members"
	case CapDeafenMembers:
		return "deafen_members"
	case CapMuteDeafenMembers:
		return "mute_and_deafen_members"
	case CapAdministrator:
		return "administrator"
	default:
		return "unknown"
	}
}

// bits returns the permission bits the capability requires. All listed bits
// must be present (combined actions need both mute and deafen).
func (c Capability) bits() []int64 {
	switch c {
	case CapMuteMembers:
		return []int64{discordgo.PermissionVoiceMuteMembers}
	case CapDeafenMembers:
		return []int64{discordgo.PermissionVoiceDeafenMembers}
	case CapMuteDeafenMembers:
		return []int64{discordgo.PermissionVoiceMuteMembers, discordgo.PermissionVoiceDeafenMembers}
	case CapAdministrator:
		return []int64{discordgo.PermissionAdministrator}
	default:
		return nil
	}
}

// Allowed reports whether the given permission bitmask satisfies the
// capability. Administrators satisfy everything.
func Allowed(perms int64, c Capability) bool {
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	required := c.bits()
	if len(required) == 0 {
		return false
	}
	for _, bit := range required {
		if perms&bit == 0 {
			return false
		}
	}
	return true
}

// Source supplies a user's effective permissions in a channel.
type Source interface {
	MemberPermissions(guildID, channelID, userID string) (int64, error)
}

// Gate answers allow/deny for an invoking user and a required capability.
// It fails closed: if permissions cannot be read, the action is denied.
type Gate struct {
	source Source
	logger logger.Logger
}

type Params struct {
	Source Source
	Logger logger.Logger
}

func New(p Params) *Gate {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Gate{
		source: p.Source,
		logger: log,
	}
}

// Authorize reports whether the user holds the capability in the channel.
func (g *Gate) Authorize(guildID, channelID, userID string, c Capability) bool {
	if g.source == nil || guildID == "" || userID == "" {
		return false
	}

	perms, err := g.source.MemberPermissions(guildID, channelID, userID)
	if err != nil {
		g.logger.WarnW("permission lookup failed, denying",
			"guild", guildID,
			"user", userID,
			"capability", c.String(),
			"error", err,
		)
		return false
	}

	return Allowed(perms, c)
}

// SessionSource reads permissions through a discordgo session, preferring
// the state cache and falling back to the REST API.
type SessionSource struct {
	Session *discordgo.Session
}

var _ Source = (*SessionSource)(nil)

func (s *SessionSource) MemberPermissions(guildID, channelID, userID string) (int64, error) {
	if perms, err := s.Session.State.UserChannelPermissions(userID, channelID); err == nil {
		return perms, nil
	}
	return s.Session.UserChannelPermissions(userID, channelID)
}

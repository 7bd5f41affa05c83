package voice

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/logger"
)

// StateReader supplies the guild voice state and member data the resolver
// needs. *discordgo.Session is adapted through SessionReader.
type StateReader interface {
	GuildVoiceStates(guildID string) ([]*discordgo.VoiceState, error)
	Member(guildID, userID string) (*discordgo.Member, error)
}

// Resolver finds the voice channel an invoking user currently occupies.
// Voice state is authoritative at read time; nothing is cached across calls.
type Resolver struct {
	reader StateReader
	logger logger.Logger
}

type ResolverParams struct {
	Reader StateReader
	Logger logger.Logger
}

func NewResolver(p ResolverParams) *Resolver {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Resolver{
		reader: p.Reader,
		logger: log,
	}
}

// Resolve returns the invoker's current voice channel with its occupants, or
// ErrNotInVoiceChannel when the invoker has no live voice state.
func (r *Resolver) Resolve(guildID, userID string) (*Channel, error) {
	states, err := r.reader.GuildVoiceStates(guildID)
	if err != nil {
		return nil, fmt.Errorf("read voice states: %w", err)
	}

	channelID := ""
	for _, vs := range states {
		if vs.UserID == userID {
			channelID = vs.ChannelID
			break
		}
	}
	if channelID == "" {
		return nil, ErrNotInVoiceChannel
	}

	ch := &Channel{
		ID:      channelID,
		GuildID: guildID,
	}
	for _, vs := range states {
		if vs.ChannelID != channelID {
			continue
		}
		occupant := Occupant{
			UserID:   vs.UserID,
			Muted:    vs.Mute,
			Deafened: vs.Deaf,
		}
		if member, err := r.reader.Member(guildID, vs.UserID); err == nil && member.User != nil {
			occupant.Bot = member.User.Bot
		} else if err != nil {
			r.logger.DebugW("member lookup failed, assuming non-bot",
				"guild", guildID,
				"user", vs.UserID,
				"error", err,
			)
		}
		ch.Occupants = append(ch.Occupants, occupant)
	}

	return ch, nil
}

// SessionReader adapts a discordgo session to StateReader, preferring the
// state cache and falling back to the REST API for member lookups.
type SessionReader struct {
	Session *discordgo.Session
}

var _ StateReader = (*SessionReader)(nil)

func (s *SessionReader) GuildVoiceStates(guildID string) ([]*discordgo.VoiceState, error) {
	guild, err := s.Session.State.Guild(guildID)
	if err != nil {
		return nil, err
	}
	return guild.VoiceStates, nil
}

func (s *SessionReader) Member(guildID, userID string) (*discordgo.Member, error) {
	if member, err := s.Session.State.Member(guildID, userID); err == nil {
		return member, nil
	}
	return s.Session.GuildMember(guildID, userID)
}

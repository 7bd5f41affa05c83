package command

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lordswift/discord-voice-moderator/config"
	"github.com/lordswift/discord-voice-moderator/logger"
	"github.com/lordswift/discord-voice-moderator/models"
	"github.com/lordswift/discord-voice-moderator/permissions"
	"github.com/lordswift/discord-voice-moderator/voice"
)

// Gate answers allow/deny for a user and a required capability.
type Gate interface {
	Authorize(guildID, channelID, userID string, c permissions.Capability) bool
}

// ChannelResolver finds the voice channel a user currently occupies.
type ChannelResolver interface {
	Resolve(guildID, userID string) (*voice.Channel, error)
}

// StateMutator applies voice state changes to members.
type StateMutator interface {
	ApplyAll(guildID string, targets []voice.Occupant, t voice.Toggles) voice.Outcome
}

// Recorder persists completed dispatches to the action audit log.
type Recorder interface {
	RecordAction(ctx context.Context, rec models.ActionRecord) error
}

// Request is one inbound command invocation, already parsed from either the
// slash or the prefix surface.
type Request struct {
	ActionName string
	GuildID    string
	ChannelID  string // text channel the command was issued in
	InvokerID  string
	BotID      string
	TargetID   string // mentioned user, per-user actions only
}

// Reply is the single user-facing response to an invocation.
type Reply struct {
	Message   string
	Ephemeral bool
}

// Empty reports whether there is nothing to send (unknown command).
func (r Reply) Empty() bool {
	return r.Message == ""
}

// Dispatcher maps command invocations onto permission checks, voice channel
// resolution, target selection, and per-member state mutations. It is
// stateless across calls; every invocation resolves fresh voice state.
type Dispatcher struct {
	settings *config.Holder
	gate     Gate
	resolver ChannelResolver
	mutator  StateMutator
	recorder Recorder
	logger   logger.Logger
}

type Params struct {
	Settings *config.Holder
	Gate     Gate
	Resolver ChannelResolver
	Mutator  StateMutator
	Recorder Recorder
	Logger   logger.Logger
}

func NewDispatcher(p Params) *Dispatcher {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Dispatcher{
		settings: p.Settings,
		gate:     p.Gate,
		resolver: p.Resolver,
		mutator:  p.Mutator,
		recorder: p.Recorder,
		logger:   log,
	}
}

// Dispatch runs one invocation to completion and returns the aggregate
// reply. Unknown action names produce an empty reply so callers can ignore
// unrelated prefix messages. No error escapes: every failure mode maps to a
// configured message.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) Reply {
	action, ok := Lookup(req.ActionName)
	if !ok {
		return Reply{}
	}

	s := d.settings.Current()
	capability := action.Capability()

	if !d.gate.Authorize(req.GuildID, req.ChannelID, req.InvokerID, capability) {
		return Reply{Message: s.Message(config.MsgNoPermission), Ephemeral: true}
	}
	if !d.gate.Authorize(req.GuildID, req.ChannelID, req.BotID, capability) {
		return Reply{Message: s.Message(config.MsgBotNoPermission), Ephemeral: true}
	}

	if action.ChannelWide {
		return d.dispatchChannelWide(ctx, s, action, req)
	}
	return d.dispatchSingleTarget(ctx, s, action, req)
}

func (d *Dispatcher) dispatchChannelWide(ctx context.Context, s *config.Settings, action Action, req Request) Reply {
	channel, reply := d.resolveChannel(s, req)
	if channel == nil {
		return reply
	}

	targets := channel.Targets(req.InvokerID, action.Toggles, s.Feature(config.FeatureAllowSelfMute))
	if len(targets) == 0 {
		return Reply{
			Message:   fmt.Sprintf("%s All members in the voice channel are already %s!", action.Emoji, strings.ToLower(action.Verb)),
			Ephemeral: true,
		}
	}

	outcome := d.mutator.ApplyAll(req.GuildID, targets, action.Toggles)
	d.record(ctx, s, action, req, channel.ID, outcome)

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d members)", s.Message(action.MessageKey), outcome.Succeeded())
	for _, f := range outcome.Failures() {
		fmt.Fprintf(&sb, "\n⚠️ <@%s>: %v", f.UserID, f.Err)
	}
	return Reply{Message: sb.String()}
}

func (d *Dispatcher) dispatchSingleTarget(ctx context.Context, s *config.Settings, action Action, req Request) Reply {
	if req.TargetID == "" {
		usage := fmt.Sprintf("❌ Usage: %s%s @user", s.BotSettings.CommandPrefix, action.Name)
		return Reply{Message: usage, Ephemeral: true}
	}

	channel, reply := d.resolveChannel(s, req)
	if channel == nil {
		return reply
	}

	occupant, ok := channel.Occupant(req.TargetID)
	if !ok {
		return Reply{
			Message:   "❌ The specified user is not in your voice channel!",
			Ephemeral: true,
		}
	}
	if action.Toggles.Satisfied(occupant.Muted, occupant.Deafened) {
		return Reply{
			Message:   fmt.Sprintf("❌ <@%s> is already %s!", req.TargetID, strings.ToLower(action.Verb)),
			Ephemeral: true,
		}
	}

	outcome := d.mutator.ApplyAll(req.GuildID, []voice.Occupant{occupant}, action.Toggles)
	d.record(ctx, s, action, req, channel.ID, outcome)

	if failures := outcome.Failures(); len(failures) > 0 {
		return Reply{
			Message:   fmt.Sprintf("❌ Could not update <@%s>: %v", req.TargetID, failures[0].Err),
			Ephemeral: true,
		}
	}
	return Reply{Message: fmt.Sprintf("%s %s <@%s>", action.Emoji, action.Verb, req.TargetID)}
}

// resolveChannel looks up the invoker's voice channel. A nil channel means
// the returned reply should be sent as-is.
func (d *Dispatcher) resolveChannel(s *config.Settings, req Request) (*voice.Channel, Reply) {
	channel, err := d.resolver.Resolve(req.GuildID, req.InvokerID)
	if err != nil {
		if errors.Is(err, voice.ErrNotInVoiceChannel) {
			return nil, Reply{Message: s.Message(config.MsgNoVoiceChannel), Ephemeral: true}
		}
		d.logger.ErrorW("voice channel resolution failed",
			"guild", req.GuildID,
			"invoker", req.InvokerID,
			"error", err,
		)
		return nil, Reply{Message: s.Message(config.MsgErrorOccurred), Ephemeral: true}
	}
	return channel, Reply{}
}

func (d *Dispatcher) record(ctx context.Context, s *config.Settings, action Action, req Request, voiceChannelID string, outcome voice.Outcome) {
	d.logger.InfoW("action dispatched",
		"action", action.Name,
		"guild", req.GuildID,
		"channel", voiceChannelID,
		"moderator", req.InvokerID,
		"succeeded", outcome.Succeeded(),
		"failed", len(outcome.Failures()),
	)

	if d.recorder == nil || !s.Feature(config.FeatureLogActions) {
		return
	}

	// CreatedAt is stamped by the store's clock.
	rec := models.ActionRecord{
		GuildID:     req.GuildID,
		ChannelID:   voiceChannelID,
		ModeratorID: req.InvokerID,
		Action:      action.Name,
		Succeeded:   outcome.Succeeded(),
		Failed:      len(outcome.Failures()),
	}

	if err := d.recorder.RecordAction(ctx, rec); err != nil {
		d.logger.WarnW("failed to record action", "action", action.Name, "error", err)
	}
}

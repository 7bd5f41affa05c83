package command

import (
	"strings"

	"github.com/lordswift/discord-voice-moderator/permissions"
	"github.com/lordswift/discord-voice-moderator/voice"
)

// Action is one entry of the fixed dispatch table: a named command bound to
// the voice toggles it applies and whether it targets the whole channel or a
// single mentioned user.
type Action struct {
	Name        string
	Description string
	Toggles     voice.Toggles
	ChannelWide bool

	// MessageKey is the configured success template for channel-wide
	// actions.
	MessageKey string

	// Verb is the past-tense phrase used in replies ("Muted and deafened").
	Verb string

	// Emoji leads user-facing success messages.
	Emoji string
}

// Capability returns the permission the invoker (and the bot) must hold.
// Combined actions require both mute and deafen permissions.
func (a Action) Capability() permissions.Capability {
	switch {
	case a.Toggles.Mute != nil && a.Toggles.Deafen != nil:
		return permissions.CapMuteDeafenMembers
	case a.Toggles.Deafen != nil:
		return permissions.CapDeafenMembers
	default:
		return permissions.CapMuteMembers
	}
}

// toggleCombo is one of the 8 combinations of the mute/deafen toggles the
// bot exposes. Each combo yields a per-user action and a channel-wide
// "<name>all" action.
type toggleCombo struct {
	name   string
	phrase string // imperative, for descriptions
	verb   string // past tense, for replies
	emoji  string
	mute   *bool
	deafen *bool
}

var combos = []toggleCombo{
	{"mute", "Mute", "Muted", "🔇", voice.Bool(true), nil},
	{"unmute", "Unmute", "Unmuted", "🔊", voice.Bool(false), nil},
	{"deafen", "Deafen", "Deafened", "🔇", nil, voice.Bool(true)},
	{"undeafen", "Undeafen", "Undeafened", "🔊", nil, voice.Bool(false)},
	{"mutedeafen", "Mute and deafen", "Muted and deafened", "🔇", voice.Bool(true), voice.Bool(true)},
	{"muteundeafen", "Mute and undeafen", "Muted and undeafened", "🔇", voice.Bool(true), voice.Bool(false)},
	{"unmuteundeafen", "Unmute and undeafen", "Unmuted and undeafened", "🔊", voice.Bool(false), voice.Bool(false)},
	{"unmutedeafen", "Unmute and deafen", "Unmuted and deafened", "🔊", voice.Bool(false), voice.Bool(true)},
}

// Actions is the complete dispatch table, channel-wide actions first.
var Actions = buildActions()

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(Actions))
	for _, a := range Actions {
		m[a.Name] = a
	}
	return m
}()

func buildActions() []Action {
	actions := make([]Action, 0, 2*len(combos))
	for _, c := range combos {
		actions = append(actions, Action{
			Name:        c.name + "all",
			Description: c.phrase + " all members in your voice channel",
			Toggles:     voice.Toggles{Mute: c.mute, Deafen: c.deafen},
			ChannelWide: true,
			MessageKey:  c.name + "_all_success",
			Verb:        c.verb,
			Emoji:       c.emoji,
		})
	}
	for _, c := range combos {
		actions = append(actions, Action{
			Name:        c.name,
			Description: c.phrase + " a specific user in your voice channel",
			Toggles:     voice.Toggles{Mute: c.mute, Deafen: c.deafen},
			ChannelWide: false,
			Verb:        c.verb,
			Emoji:       c.emoji,
		})
	}
	return actions
}

// Lookup resolves a command name to its action, case-insensitively. Slash
// and prefix invocations share the same names.
func Lookup(name string) (Action, bool) {
	a, ok := actionsByName[strings.ToLower(strings.TrimSpace(name))]
	return a, ok
}

package voice

import "errors"

// ErrNotInVoiceChannel is returned when the invoking user has no live voice
// state in the guild.
var ErrNotInVoiceChannel = errors.New("not in a voice channel")

// Toggles describes a desired voice state change. A nil field means "leave
// unchanged". Both toggles travel in a single member update; the platform
// treats mute and deafen as independent flags, so no ordering applies.
type Toggles struct {
	Mute   *bool
	Deafen *bool
}

// Empty reports whether the toggles change nothing.
func (t Toggles) Empty() bool {
	return t.Mute == nil && t.Deafen == nil
}

// Satisfied reports whether an occupant with the given server mute/deafen
// state already matches the desired state.
func (t Toggles) Satisfied(muted, deafened bool) bool {
	if t.Mute != nil && muted != *t.Mute {
		return false
	}
	if t.Deafen != nil && deafened != *t.Deafen {
		return false
	}
	return true
}

// Bool is a convenience for building toggle literals.
func Bool(v bool) *bool {
	return &v
}

// Occupant is one member currently connected to a voice channel.
type Occupant struct {
	UserID   string
	Bot      bool
	Muted    bool // server mute
	Deafened bool // server deafen
}

// Channel is a voice channel and its occupants at resolution time. Occupant
// order follows the platform-reported voice state order.
type Channel struct {
	ID        string
	GuildID   string
	Occupants []Occupant
}

// Contains reports whether the user is currently in the channel.
func (c *Channel) Contains(userID string) bool {
	for _, o := range c.Occupants {
		if o.UserID == userID {
			return true
		}
	}
	return false
}

// Occupant returns the channel occupant with the given user id, if present.
func (c *Channel) Occupant(userID string) (Occupant, bool) {
	for _, o := range c.Occupants {
		if o.UserID == userID {
			return o, true
		}
	}
	return Occupant{}, false
}

// Targets selects the occupants a channel-wide action applies to: bots are
// always skipped, the invoker is skipped unless includeInvoker, and occupants
// already in the desired state are skipped so repeated invocations converge.
func (c *Channel) Targets(invokerID string, t Toggles, includeInvoker bool) []Occupant {
	var targets []Occupant
	for _, o := range c.Occupants {
		if o.Bot {
			continue
		}
		if o.UserID == invokerID && !includeInvoker {
			continue
		}
		if t.Satisfied(o.Muted, o.Deafened) {
			continue
		}
		targets = append(targets, o)
	}
	return targets
}

// Result is the outcome of one member update.
type Result struct {
	UserID string
	Err    error
}

// OK reports whether the update succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// Outcome aggregates per-target results for one invocation.
type Outcome struct {
	Results []Result
}

// Succeeded counts successful updates.
func (o Outcome) Succeeded() int {
	n := 0
	for _, r := range o.Results {
		if r.OK() {
			n++
		}
	}
	return n
}

// Failures returns the failed updates in order.
func (o Outcome) Failures() []Result {
	var failed []Result
	for _, r := range o.Results {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

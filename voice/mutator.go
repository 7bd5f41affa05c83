package voice

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/logger"
)

// MemberEditor issues member updates. *discordgo.Session satisfies it.
type MemberEditor interface {
	GuildMemberEdit(guildID, userID string, data *discordgo.GuildMemberParams, options ...discordgo.RequestOption) (*discordgo.Member, error)
}

// Mutator applies voice state changes to members. Each application is one
// independent request; failures are captured per member and never abort
// the remaining targets.
type Mutator struct {
	editor MemberEditor
	logger logger.Logger
}

type MutatorParams struct {
	Editor MemberEditor
	Logger logger.Logger
}

func NewMutator(p MutatorParams) *Mutator {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Mutator{
		editor: p.Editor,
		logger: log,
	}
}

// Apply issues one state-update request for the member. Empty toggles are a
// no-op success.
func (m *Mutator) Apply(guildID, userID string, t Toggles) Result {
	if t.Empty() {
		return Result{UserID: userID}
	}

	params := &discordgo.GuildMemberParams{
		Mute: t.Mute,
		Deaf: t.Deafen,
	}

	if _, err := m.editor.GuildMemberEdit(guildID, userID, params); err != nil {
		m.logger.WarnW("member update failed",
			"guild", guildID,
			"user", userID,
			"error", err,
		)
		return Result{UserID: userID, Err: fmt.Errorf("update member: %w", err)}
	}

	return Result{UserID: userID}
}

// ApplyAll applies the toggles to each target in order and aggregates the
// per-target results. Partial failure is expected: every target is attempted.
func (m *Mutator) ApplyAll(guildID string, targets []Occupant, t Toggles) Outcome {
	outcome := Outcome{Results: make([]Result, 0, len(targets))}
	for _, target := range targets {
		outcome.Results = append(outcome.Results, m.Apply(guildID, target.UserID, t))
	}
	return outcome
}

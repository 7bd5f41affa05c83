package voice

import (
	"errors"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type editCall struct {
	guildID string
	userID  string
	params  *discordgo.GuildMemberParams
}

type fakeEditor struct {
	calls   []editCall
	failFor map[string]error
}

func (f *fakeEditor) GuildMemberEdit(guildID, userID string, data *discordgo.GuildMemberParams, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	f.calls = append(f.calls, editCall{guildID: guildID, userID: userID, params: data})
	if err, ok := f.failFor[userID]; ok {
		return nil, err
	}
	return &discordgo.Member{User: &discordgo.User{ID: userID}}, nil
}

func TestMutatorApply(t *testing.T) {
	tests := []struct {
		name       string
		toggles    Toggles
		wantMute   *bool
		wantDeafen *bool
	}{
		{
			name:     "mute only",
			toggles:  Toggles{Mute: Bool(true)},
			wantMute: Bool(true),
		},
		{
			name:       "deafen only",
			toggles:    Toggles{Deafen: Bool(false)},
			wantDeafen: Bool(false),
		},
		{
			name:       "mute and deafen in one request",
			toggles:    Toggles{Mute: Bool(true), Deafen: Bool(true)},
			wantMute:   Bool(true),
			wantDeafen: Bool(true),
		},
		{
			name:       "unmute and deafen",
			toggles:    Toggles{Mute: Bool(false), Deafen: Bool(true)},
			wantMute:   Bool(false),
			wantDeafen: Bool(true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			editor := &fakeEditor{}
			m := NewMutator(MutatorParams{Editor: editor})

			res := m.Apply("guild", "bob", tt.toggles)
			if !res.OK() {
				t.Fatalf("Apply() error = %v", res.Err)
			}
			if len(editor.calls) != 1 {
				t.Fatalf("edit calls = %d, want 1", len(editor.calls))
			}

			params := editor.calls[0].params
			if !boolPtrEqual(params.Mute, tt.wantMute) {
				t.Errorf("params.Mute = %v, want %v", boolPtrString(params.Mute), boolPtrString(tt.wantMute))
			}
			if !boolPtrEqual(params.Deaf, tt.wantDeafen) {
				t.Errorf("params.Deaf = %v, want %v", boolPtrString(params.Deaf), boolPtrString(tt.wantDeafen))
			}
		})
	}
}

func TestMutatorApply_EmptyTogglesIssueNoRequest(t *testing.T) {
	editor := &fakeEditor{}
	m := NewMutator(MutatorParams{Editor: editor})

	res := m.Apply("guild", "bob", Toggles{})
	if !res.OK() {
		t.Fatalf("Apply() error = %v", res.Err)
	}
	if len(editor.calls) != 0 {
		t.Errorf("edit calls = %d, want 0", len(editor.calls))
	}
}

func TestMutatorApplyAll_PartialFailure(t *testing.T) {
	editor := &fakeEditor{
		failFor: map[string]error{
			"bob": errors.New("missing permissions"),
			"eve": errors.New("member left"),
		},
	}
	m := NewMutator(MutatorParams{Editor: editor})

	targets := []Occupant{
		{UserID: "alice"},
		{UserID: "bob"},
		{UserID: "carol"},
		{UserID: "dave"},
		{UserID: "eve"},
	}

	outcome := m.ApplyAll("guild", targets, Toggles{Mute: Bool(true)})

	if len(editor.calls) != 5 {
		t.Fatalf("edit calls = %d, want 5 (no early abort)", len(editor.calls))
	}
	if got := outcome.Succeeded(); got != 3 {
		t.Errorf("Succeeded() = %d, want 3", got)
	}

	failures := outcome.Failures()
	if len(failures) != 2 {
		t.Fatalf("Failures() = %d, want 2", len(failures))
	}
	if failures[0].UserID != "bob" || failures[1].UserID != "eve" {
		t.Errorf("failures = [%s %s], want [bob eve]", failures[0].UserID, failures[1].UserID)
	}
}

func TestMutatorApplyAll_PreservesTargetOrder(t *testing.T) {
	editor := &fakeEditor{}
	m := NewMutator(MutatorParams{Editor: editor})

	targets := []Occupant{{UserID: "carol"}, {UserID: "alice"}, {UserID: "bob"}}
	m.ApplyAll("guild", targets, Toggles{Deafen: Bool(true)})

	for i, want := range []string{"carol", "alice", "bob"} {
		if editor.calls[i].userID != want {
			t.Errorf("call %d user = %s, want %s", i, editor.calls[i].userID, want)
		}
	}
}

func boolPtrEqual(a, b *bool) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func boolPtrString(p *bool) string {
	if p == nil {
		return "nil"
	}
	if *p {
		return "true"
	}
	return "false"
}

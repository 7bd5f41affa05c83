package discord

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/command"
	"github.com/lordswift/discord-voice-moderator/config"
	"github.com/lordswift/discord-voice-moderator/logger"
	"github.com/lordswift/discord-voice-moderator/store"
	"github.com/lordswift/discord-voice-moderator/voice"
)

var _ Discord = (*Client)(nil)

// StateMutator applies a voice state change to a single member. Used by the
// auto-restore handler; command dispatch goes through the dispatcher.
type StateMutator interface {
	Apply(guildID, userID string, t voice.Toggles) voice.Result
}

// Client wires the command dispatcher to a discordgo session: it handles
// both the slash and the prefix command surfaces, registers the application
// commands, and runs the voice-state side handlers.
type Client struct {
	session    *discordgo.Session
	settings   *config.Holder
	dispatcher *command.Dispatcher
	gate       command.Gate
	mutator    StateMutator
	store      store.Store
	envFile    string
	logger     logger.Logger

	restore        *restoreTracker
	removeHandlers []func()
}

type Params struct {
	Session    *discordgo.Session
	Settings   *config.Holder
	Dispatcher *command.Dispatcher
	Gate       command.Gate
	Mutator    StateMutator
	Store      store.Store
	EnvFile    string
	Logger     logger.Logger
}

func New(p Params) *Client {
	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		session:    p.Session,
		settings:   p.Settings,
		dispatcher: p.Dispatcher,
		gate:       p.Gate,
		mutator:    p.Mutator,
		store:      p.Store,
		envFile:    p.EnvFile,
		logger:     log,
		restore:    newRestoreTracker(),
	}
}

// Start registers handlers, sets the configured presence, and registers the
// application commands. The session must already be open.
func (c *Client) Start(ctx context.Context) error {
	c.removeHandlers = append(c.removeHandlers,
		c.session.AddHandler(c.handleInteraction),
		c.session.AddHandler(c.handleMessage),
		c.session.AddHandler(c.handleVoiceStateUpdate),
	)

	s := c.settings.Current()
	if err := c.setPresence(s); err != nil {
		c.logger.WarnW("failed to set presence", "error", err)
	}

	return c.registerCommands(ctx, s.GuildID)
}

// Stop detaches the handlers. The session itself is closed by the caller.
func (c *Client) Stop() error {
	for _, remove := range c.removeHandlers {
		remove()
	}
	c.removeHandlers = nil
	return nil
}

func (c *Client) setPresence(s *config.Settings) error {
	name := s.BotSettings.ActivityName
	switch strings.ToLower(s.BotSettings.ActivityType) {
	case "listening":
		return c.session.UpdateListeningStatus(name)
	case "watching":
		return c.session.UpdateWatchStatus(0, name)
	case "streaming":
		return c.session.UpdateStreamingStatus(0, name, "")
	default:
		return c.session.UpdateGameStatus(0, name)
	}
}

func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	if i.Member == nil || i.Member.User == nil {
		// Voice moderation only makes sense inside a guild.
		return
	}

	data := i.ApplicationCommandData()
	switch data.Name {
	case "help":
		c.respondEmbed(s, i, c.helpEmbed())
		return
	case "sync_commands":
		c.handleSync(s, i, data)
		return
	}

	req := command.Request{
		ActionName: data.Name,
		GuildID:    i.GuildID,
		ChannelID:  i.ChannelID,
		InvokerID:  i.Member.User.ID,
		BotID:      s.State.User.ID,
		TargetID:   mentionedUserID(data),
	}

	reply := c.dispatcher.Dispatch(context.Background(), req)
	if reply.Empty() {
		return
	}
	c.respond(s, i, reply)
}

func (c *Client) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || m.GuildID == "" {
		return
	}

	settings := c.settings.Current()
	name, ok := parsePrefixCommand(m.Content, settings.BotSettings.CommandPrefix)
	if !ok {
		return
	}
	if _, known := command.Lookup(name); !known {
		return
	}

	targetID := ""
	if len(m.Mentions) > 0 {
		targetID = m.Mentions[0].ID
	}

	req := command.Request{
		ActionName: name,
		GuildID:    m.GuildID,
		ChannelID:  m.ChannelID,
		InvokerID:  m.Author.ID,
		BotID:      s.State.User.ID,
		TargetID:   targetID,
	}

	reply := c.dispatcher.Dispatch(context.Background(), req)
	if reply.Empty() {
		return
	}
	if _, err := s.ChannelMessageSend(m.ChannelID, reply.Message); err != nil {
		c.logger.ErrorW("failed to send reply", "channel", m.ChannelID, "error", err)
	}
}

// parsePrefixCommand extracts the command name from a prefix message.
// "!muteall" and "!mute @user" both yield their first token without the
// prefix; non-prefixed or empty messages yield ok=false.
func parsePrefixCommand(content, prefix string) (string, bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToLower(fields[0]), true
}

// mentionedUserID returns the id of the user option, if the invocation
// carries one.
func mentionedUserID(data discordgo.ApplicationCommandInteractionData) string {
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(nil).ID
		}
	}
	return ""
}

func (c *Client) respond(s *discordgo.Session, i *discordgo.InteractionCreate, reply command.Reply) {
	var flags discordgo.MessageFlags
	if reply.Ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: reply.Message,
			Flags:   flags,
		},
	})
	if err != nil {
		c.logger.ErrorW("failed to respond to interaction", "error", err)
	}
}

func (c *Client) respondEmbed(s *discordgo.Session, i *discordgo.InteractionCreate, embed *discordgo.MessageEmbed) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
			Flags:  discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		c.logger.ErrorW("failed to respond with embed", "error", err)
	}
}

func (c *Client) helpEmbed() *discordgo.MessageEmbed {
	s := c.settings.Current()

	var wide, single strings.Builder
	for _, a := range command.Actions {
		if a.ChannelWide {
			fmt.Fprintf(&wide, "`/%s` — %s\n", a.Name, a.Description)
		} else {
			fmt.Fprintf(&single, "`/%s @user` — %s\n", a.Name, a.Description)
		}
	}

	return &discordgo.MessageEmbed{
		Title:       "Voice Moderation Commands",
		Description: s.BotSettings.Description,
		Color:       0x5865F2,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name:  "🎯 Channel-wide Commands",
				Value: wide.String(),
			},
			{
				Name:  "👤 Per-user Commands",
				Value: single.String(),
			},
			{
				Name: "⚠️ Requirements",
				Value: "You must be in a voice channel. Mute commands need the " +
					"Mute Members permission, deafen commands need Deafen Members, " +
					"combined commands need both. Every command also works with the `" +
					s.BotSettings.CommandPrefix + "` prefix.",
			},
		},
	}
}

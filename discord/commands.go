package discord

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/command"
	"github.com/lordswift/discord-voice-moderator/config"
	"github.com/lordswift/discord-voice-moderator/permissions"
)

// applicationCommands builds the slash command set from the dispatch table,
// plus help and the administrative sync command.
func applicationCommands() []*discordgo.ApplicationCommand {
	cmds := make([]*discordgo.ApplicationCommand, 0, len(command.Actions)+2)
	for _, a := range command.Actions {
		cmd := &discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        a.Name,
			Description: a.Description,
		}
		if !a.ChannelWide {
			cmd.Options = []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionUser,
					Name:        "user",
					Description: "The member to apply the action to",
					Required:    true,
				},
			}
		}
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds,
		&discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "help",
			Description: "Show available commands and their usage",
		},
		&discordgo.ApplicationCommand{
			Type:        discordgo.ChatApplicationCommand,
			Name:        "sync_commands",
			Description: "(Admin) Sync application commands globally or to a guild",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "guild_id",
					Description: "Optional guild id to sync to (for immediate registration)",
					Required:    false,
				},
			},
		},
	)
	return cmds
}

// registerCommands overwrites the global command set and, when a guild id is
// configured, the guild command set for immediate availability. Global
// registration can take up to an hour to propagate.
func (c *Client) registerCommands(ctx context.Context, guildID string) error {
	cmds := applicationCommands()
	appID := c.session.State.User.ID

	synced, err := c.session.ApplicationCommandBulkOverwrite(appID, "", cmds)
	if err != nil {
		return fmt.Errorf("register global commands: %w", err)
	}
	c.logger.InfoW("registered global commands", "count", len(synced))

	if guildID != "" {
		syncedGuild, err := c.session.ApplicationCommandBulkOverwrite(appID, guildID, cmds)
		if err != nil {
			c.logger.ErrorW("failed to register guild commands", "guild", guildID, "error", err)
		} else {
			c.logger.InfoW("registered guild commands", "guild", guildID, "count", len(syncedGuild))
		}
	}
	return nil
}

// handleSync implements the administrative sync_commands action: it
// re-registers commands for the target guild, persists the guild id, and
// publishes a new settings snapshot carrying it.
func (c *Client) handleSync(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !c.gate.Authorize(i.GuildID, i.ChannelID, i.Member.User.ID, permissions.CapAdministrator) {
		c.respond(s, i, command.Reply{
			Message:   "You must be an administrator to use this command.",
			Ephemeral: true,
		})
		return
	}

	targetGuild := ""
	for _, opt := range data.Options {
		if opt.Name == "guild_id" && opt.Type == discordgo.ApplicationCommandOptionString {
			targetGuild = opt.StringValue()
		}
	}
	if targetGuild == "" {
		targetGuild = i.GuildID
	}

	cmds := applicationCommands()
	appID := s.State.User.ID

	if targetGuild == "" {
		synced, err := s.ApplicationCommandBulkOverwrite(appID, "", cmds)
		if err != nil {
			c.logger.ErrorW("global command sync failed", "error", err)
			c.respond(s, i, command.Reply{Message: fmt.Sprintf("Failed to sync commands: %v", err), Ephemeral: true})
			return
		}
		c.respond(s, i, command.Reply{
			Message:   fmt.Sprintf("Globally synced %d command(s). Global propagation may take up to an hour.", len(synced)),
			Ephemeral: true,
		})
		return
	}

	synced, err := s.ApplicationCommandBulkOverwrite(appID, targetGuild, cmds)
	if err != nil {
		c.logger.ErrorW("guild command sync failed", "guild", targetGuild, "error", err)
		c.respond(s, i, command.Reply{Message: fmt.Sprintf("Failed to sync commands: %v", err), Ephemeral: true})
		return
	}

	c.persistGuildID(targetGuild)

	c.respond(s, i, command.Reply{
		Message:   fmt.Sprintf("Synced %d command(s) to guild %s", len(synced), targetGuild),
		Ephemeral: true,
	})
}

// persistGuildID records the synced guild id in the store and the env file,
// then atomically replaces the shared settings snapshot with one carrying
// the new id. Persistence failures are logged, not surfaced: the sync
// itself already succeeded.
func (c *Client) persistGuildID(guildID string) {
	if c.store != nil {
		if err := c.store.SaveGuildID(context.Background(), guildID); err != nil {
			c.logger.WarnW("could not persist guild id to store", "guild", guildID, "error", err)
		}
	}
	if c.envFile != "" {
		if err := config.PersistEnvVar(c.envFile, "DISCORD_GUILD_ID", guildID); err != nil {
			c.logger.WarnW("could not persist guild id to env file", "guild", guildID, "error", err)
		}
	}
	c.settings.Replace(c.settings.Current().WithGuildID(guildID))
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/bwmarrin/discordgo"
	"github.com/lordswift/discord-voice-moderator/clock"
	"github.com/lordswift/discord-voice-moderator/command"
	"github.com/lordswift/discord-voice-moderator/config"
	"github.com/lordswift/discord-voice-moderator/discord"
	"github.com/lordswift/discord-voice-moderator/logger"
	"github.com/lordswift/discord-voice-moderator/permissions"
	"github.com/lordswift/discord-voice-moderator/store"
	"github.com/lordswift/discord-voice-moderator/voice"
)

const (
	configFile = "config/bot_config.json"
	envFile    = ".env"
)

func main() {
	params, err := build()
	if err != nil {
		log.Fatal(err)
	}

	if err = run(params); err != nil {
		log.Fatal(err)
	}
}

func build() (runParams, error) {
	settings, err := config.LoadWithDefaults(configFile)
	if err != nil {
		return runParams{}, fmt.Errorf("load config: %w", err)
	}

	appLogger, err := logger.New(settings.Logger)
	if err != nil {
		return runParams{}, fmt.Errorf("initialize logger: %w", err)
	}

	environment, err := config.LoadEnv(envFile)
	if err != nil {
		return runParams{}, fmt.Errorf("load environment: %w", err)
	}
	settings.GuildID = environment.GuildID

	session, err := discordgo.New("Bot " + environment.Token)
	if err != nil {
		return runParams{}, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildVoiceStates |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent

	holder := config.NewHolder(settings)
	auditClock := clock.New(settings.Clock, appLogger)
	st := store.NewSQLiteStore(store.Params{
		Path:   settings.Store.Path,
		Clock:  auditClock,
		Logger: appLogger,
	})

	gate := permissions.New(permissions.Params{
		Source: &permissions.SessionSource{Session: session},
		Logger: appLogger,
	})
	resolver := voice.NewResolver(voice.ResolverParams{
		Reader: &voice.SessionReader{Session: session},
		Logger: appLogger,
	})
	mutator := voice.NewMutator(voice.MutatorParams{
		Editor: session,
		Logger: appLogger,
	})

	dispatcher := command.NewDispatcher(command.Params{
		Settings: holder,
		Gate:     gate,
		Resolver: resolver,
		Mutator:  mutator,
		Recorder: st,
		Logger:   appLogger,
	})

	client := discord.New(discord.Params{
		Session:    session,
		Settings:   holder,
		Dispatcher: dispatcher,
		Gate:       gate,
		Mutator:    mutator,
		Store:      st,
		EnvFile:    envFile,
		Logger:     appLogger,
	})

	return runParams{
		Settings: holder,
		Logger:   appLogger,
		Session:  session,
		Clock:    auditClock,
		Store:    st,
		Client:   client,
	}, nil
}

type runParams struct {
	Settings *config.Holder
	Logger   logger.Logger
	Session  *discordgo.Session
	Clock    clock.Clock
	Store    *store.SQLiteStore
	Client   discord.Discord
}

// run starts all components and runs the bot until shutdown.
func run(p runParams) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer p.Logger.Sync()

	if ntpClock, ok := p.Clock.(*clock.NTPClock); ok {
		if err := ntpClock.Start(ctx); err != nil {
			return fmt.Errorf("start ntp clock: %w", err)
		}
		defer ntpClock.Stop()
	}

	if err := p.Store.Open(ctx); err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	// The environment takes precedence; otherwise fall back to the guild
	// id a previous sync persisted.
	if p.Settings.Current().GuildID == "" {
		if guildID, err := p.Store.GuildID(ctx); err == nil && guildID != "" {
			p.Settings.Replace(p.Settings.Current().WithGuildID(guildID))
			p.Logger.InfoW("using stored guild id", "guild", guildID)
		}
	}

	if err := p.Session.Open(); err != nil {
		return fmt.Errorf("open discord connection: %w", err)
	}
	defer p.Session.Close()

	if err := p.Client.Start(ctx); err != nil {
		return fmt.Errorf("start discord client: %w", err)
	}
	p.Logger.InfoW("bot is running", "user", p.Session.State.User.Username)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	if err := p.Client.Stop(); err != nil {
		p.Logger.ErrorW("stop discord client", "error", err)
	}
	cancel()

	return p.Store.Close()
}

package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/config"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/paissa"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/reconciler"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/storage"
)

// Bot represents the Discord bot instance
type Bot struct {
	config   *config.Config
	session  *discordgo.Session
	repo     *storage.Repository
	paissa   *paissa.Client
	engine   *reconciler.Engine
	commands []*discordgo.ApplicationCommand
}

// New creates a new Bot instance
func New(cfg *config.Config) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Set intents
	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMessages

	// Initialize storage
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	// PaissaDB client
	client := paissa.NewClient(cfg.PaissaBaseURL)

	// Reconciliation engine
	engineCfg := reconciler.DefaultConfig()
	engineCfg.Interval = time.Duration(cfg.UpdateIntervalMinutes) * time.Minute
	engineCfg.ChannelDelay = time.Duration(cfg.ChannelDelaySeconds) * time.Second
	engine := reconciler.New(engineCfg, repo, client, NewPublisher(session), slog.Default())

	b := &Bot{
		config:  cfg,
		session: session,
		repo:    repo,
		paissa:  client,
		engine:  engine,
	}

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// Start the housing update engine
	b.engine.Start(ctx)

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Stop the engine
	if b.engine != nil {
		b.engine.Stop()
	}

	// Close storage
	if b.repo != nil {
		b.repo.Close()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command and component interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		data := i.ApplicationCommandData()
		slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

		switch data.Name {
		case "housing-check":
			b.handleHousingCheck(s, i)
		case "watch-channel":
			b.handleWatchChannel(s, i)
		case "subscriptions":
			b.handleSubscriptions(s, i)
		case "clear-subscriptions":
			b.handleClearSubscriptions(s, i)
		case "housing-status":
			b.handleHousingStatus(s, i)
		case "housing-help":
			b.handleHousingHelp(s, i)
		case "clear-houses":
			b.handleClearHouses(s, i)
		default:
			slog.Warn("Unknown command", "command", data.Name)
		}
	case discordgo.InteractionMessageComponent:
		b.handleComponent(s, i)
	}
}

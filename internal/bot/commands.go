package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/paissa"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/storage"
)

// checkDisplayWindow is how long on-demand query results stay visible
// before the bot removes them.
const checkDisplayWindow = time.Minute

func sizeChoices() []*discordgo.ApplicationCommandOptionChoice {
	return []*discordgo.ApplicationCommandOptionChoice{
		{Name: "Small", Value: "small"},
		{Name: "Medium", Value: "medium"},
		{Name: "Large", Value: "large"},
	}
}

func districtChoices() []*discordgo.ApplicationCommandOptionChoice {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(housing.Districts))
	for _, d := range housing.Districts {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  d.Name(),
			Value: strings.ToLower(d.Name()),
		})
	}
	return choices
}

func dataCenterChoices() []*discordgo.ApplicationCommandOptionChoice {
	centers := paissa.DataCenters()
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(centers))
	for _, dc := range centers {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  capitalize(dc),
			Value: dc,
		})
	}
	return choices
}

// Slash command definitions
func (b *Bot) getCommandDefinitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "housing-check",
			Description: "Look up open lottery plots with optional filters",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "datacenter",
					Description: "Data center of the world (e.g., primal)",
					Required:    true,
					Choices:     dataCenterChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "world",
					Description: "World to search (e.g., behemoth)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "size",
					Description: "Filter by plot size",
					Required:    false,
					Choices:     sizeChoices(),
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "district",
					Description: "Filter by district",
					Required:    false,
					Choices:     districtChoices(),
				},
			},
		},
		{
			Name:        "watch-channel",
			Description: "Post open lottery plots to a channel on a schedule",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to post updates to",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "world",
					Description: "World to watch (e.g., behemoth)",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "district",
					Description: "Only post plots of this district",
					Required:    false,
					Choices:     districtChoices(),
				},
			},
		},
		{
			Name:        "subscriptions",
			Description: "Show the plots you are watching",
		},
		{
			Name:        "clear-subscriptions",
			Description: "Stop watching all plots",
		},
		{
			Name:        "housing-status",
			Description: "Show the state of the housing update loop",
		},
		{
			Name:        "housing-help",
			Description: "Explain the housing commands",
		},
		{
			Name:        "clear-houses",
			Description: "Delete all messages in a channel (admin)",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionChannel,
					Name:        "channel",
					Description: "Channel to clear",
					Required:    true,
					ChannelTypes: []discordgo.ChannelType{
						discordgo.ChannelTypeGuildText,
					},
				},
			},
		},
	}
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	commandDefinitions := b.getCommandDefinitions()
	registeredCommands := make([]*discordgo.ApplicationCommand, 0, len(commandDefinitions))

	for _, cmd := range commandDefinitions {
		registered, err := b.session.ApplicationCommandCreate(
			b.session.State.User.ID,
			"", // Empty string = global command
			cmd,
		)
		if err != nil {
			return fmt.Errorf("failed to register command %s: %w", cmd.Name, err)
		}
		registeredCommands = append(registeredCommands, registered)
		slog.Debug("Registered command", "name", cmd.Name)
	}

	b.commands = registeredCommands
	slog.Info("Slash commands registered", "count", len(registeredCommands))
	return nil
}

// handleHousingCheck handles the /housing-check command
func (b *Bot) handleHousingCheck(s *discordgo.Session, i *discordgo.InteractionCreate) {
	options := optionMap(i)
	dataCenter := strings.ToLower(options["datacenter"].StringValue())
	world := strings.ToLower(options["world"].StringValue())

	var size *housing.HouseSize
	if opt, ok := options["size"]; ok {
		parsed, valid := housing.ParseSize(opt.StringValue())
		if !valid {
			respondWithMessage(s, i, fmt.Sprintf("Invalid size `%s`. Sizes: small, medium, large.", opt.StringValue()))
			return
		}
		size = &parsed
	}

	district := ""
	if opt, ok := options["district"]; ok {
		district = opt.StringValue()
	}

	if _, ok := paissa.DataCenterWorlds(dataCenter); !ok {
		respondWithMessage(s, i, fmt.Sprintf("Invalid data center `%s`. Data centers: %s.",
			dataCenter, strings.Join(paissa.DataCenters(), ", ")))
		return
	}
	if !paissa.WorldInDataCenter(dataCenter, world) {
		worlds, _ := paissa.DataCenterWorlds(dataCenter)
		respondWithMessage(s, i, fmt.Sprintf("Invalid world for %s. Worlds: %s.",
			capitalize(dataCenter), strings.Join(worlds, ", ")))
		return
	}

	// Respond immediately to avoid timeout
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	listings, err := b.paissa.OpenListings(ctx, world)
	if err != nil {
		if errors.Is(err, paissa.ErrUnknownWorld) {
			b.editResponse(s, i, fmt.Sprintf("World `%s` is not known.", world))
			return
		}
		slog.Error("Failed to fetch listings", "world", world, "error", err)
		b.editResponse(s, i, "Could not reach the housing API. Please try again later.")
		return
	}

	filtered := housing.Filter(housing.LotteryOnly(listings), size, district)
	if len(filtered) == 0 {
		b.editResponse(s, i, "No plots found with the given filters.")
		return
	}

	groups := housing.GroupByDistrict(filtered)

	var sent []*discordgo.Message
	for _, group := range groups {
		embed := districtEmbed(world, group)
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "⏳ Expires",
			Value:  fmt.Sprintf("<t:%d:R>", time.Now().Add(checkDisplayWindow).Unix()),
			Inline: false,
		})
		msg, err := s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
			Embeds:     []*discordgo.MessageEmbed{embed},
			Components: subscribeRows(group.Listings),
		})
		if err != nil {
			slog.Error("Failed to send query result", "world", world, "error", err)
			continue
		}
		sent = append(sent, msg)
	}

	// Query results are transient; remove them after the window.
	go func() {
		time.Sleep(checkDisplayWindow)
		for _, msg := range sent {
			if err := s.FollowupMessageDelete(i.Interaction, msg.ID); err != nil {
				slog.Debug("Failed to delete query result", "messageID", msg.ID, "error", err)
			}
		}
	}()
}

// handleWatchChannel handles the /watch-channel command
func (b *Bot) handleWatchChannel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionManageChannels) {
		respondEphemeral(s, i, "You need the Manage Channels permission to use this command.")
		return
	}

	options := optionMap(i)
	channel := options["channel"].ChannelValue(s)
	world := strings.ToLower(options["world"].StringValue())

	district := ""
	if opt, ok := options["district"]; ok {
		district = opt.StringValue()
	}

	if !paissa.KnownWorld(world) {
		respondEphemeral(s, i, fmt.Sprintf("World `%s` is not known. Please pick a valid world.", world))
		return
	}

	watch := &storage.Watch{
		GuildID:   i.GuildID,
		ChannelID: channel.ID,
		World:     world,
		District:  district,
	}

	if err := b.repo.UpsertWatch(watch); err != nil {
		slog.Error("Failed to save watch", "channelID", channel.ID, "error", err)
		respondEphemeral(s, i, "Failed to save the watch. Please try again.")
		return
	}

	message := fmt.Sprintf("Channel <#%s> will now receive open lottery plots for %s", channel.ID, capitalize(world))
	if district != "" {
		message += fmt.Sprintf(" in %s", capitalize(district))
	}
	respondEphemeral(s, i, message+".")
}

// handleSubscriptions handles the /subscriptions command
func (b *Bot) handleSubscriptions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		respondEphemeral(s, i, "Could not identify you, please try again.")
		return
	}

	keys, err := b.repo.ListSubscriptions(userID)
	if err != nil {
		slog.Error("Failed to list subscriptions", "userID", userID, "error", err)
		respondEphemeral(s, i, "Failed to load your subscriptions.")
		return
	}

	if len(keys) == 0 {
		respondEphemeral(s, i, "You are not watching any plots.\nPress a 🔔 button under a listing to start!")
		return
	}

	var sb strings.Builder
	sb.WriteString("**Plots you are watching:**\n\n")
	for idx, key := range keys {
		fmt.Fprintf(&sb, "%d. %s — Ward %d • Plot %d (%s)\n",
			idx+1, key.District.Name(), key.Ward, key.Plot, capitalize(key.World))
	}

	respondEphemeral(s, i, sb.String())
}

// handleClearSubscriptions handles the /clear-subscriptions command
func (b *Bot) handleClearSubscriptions(s *discordgo.Session, i *discordgo.InteractionCreate) {
	userID := interactionUserID(i)
	if userID == "" {
		respondEphemeral(s, i, "Could not identify you, please try again.")
		return
	}

	removed, err := b.repo.UnsubscribeAll(userID)
	if err != nil {
		slog.Error("Failed to clear subscriptions", "userID", userID, "error", err)
		respondEphemeral(s, i, "Failed to clear your subscriptions. Please try again.")
		return
	}

	respondEphemeral(s, i, fmt.Sprintf("Removed %d subscription(s).", removed))
}

// handleHousingStatus handles the /housing-status command
func (b *Bot) handleHousingStatus(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionAdministrator) && !hasPermission(i, discordgo.PermissionManageChannels) {
		respondEphemeral(s, i, "You need the Administrator or Manage Channels permission to use this command.")
		return
	}

	watchCount, err := b.repo.CountWatches()
	if err != nil {
		slog.Error("Failed to count watches", "error", err)
		watchCount = -1
	}

	isRunning := b.engine.IsRunning()
	statusText := "💤 Idle"
	if isRunning {
		statusText = "✅ Running"
	}

	embed := &discordgo.MessageEmbed{
		Title: "🏰 Housing Update Status",
		Color: colorMist,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Update Pass", Value: statusText, Inline: false},
			{Name: "Watched Channels", Value: fmt.Sprintf("%d", watchCount), Inline: false},
		},
	}

	response := &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{embed},
	}

	// Offer a manual trigger when nothing is in flight.
	if !isRunning {
		response.Components = []discordgo.MessageComponent{
			discordgo.ActionsRow{
				Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Run update now",
						Style:    discordgo.SuccessButton,
						CustomID: restartCustomID,
					},
				},
			},
		}
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: response,
	})
}

// handleHousingHelp handles the /housing-help command
func (b *Bot) handleHousingHelp(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionAdministrator) {
		respondEphemeral(s, i, "You need the Administrator permission to use this command.")
		return
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🏰 Housing Commands",
		Description: "How to use the housing lottery commands",
		Color:       colorMist,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🔍 /housing-check",
				Value: "Look up open lottery plots right now.\n" +
					"Required: `datacenter`, `world`. Optional: `size`, `district`.\n" +
					"Results disappear after one minute.",
				Inline: false,
			},
			{
				Name: "📡 /watch-channel",
				Value: "Post open plots to a channel every half hour.\n" +
					"Required: `channel`, `world`. Optional: `district`.\n" +
					"Needs the Manage Channels permission.",
				Inline: false,
			},
			{
				Name: "🔔 Subscriptions",
				Value: "Press the 🔔 button under any listing to get a DM when its " +
					"lottery status changes. `/subscriptions` lists yours, " +
					"`/clear-subscriptions` removes them all.",
				Inline: false,
			},
			{
				Name: "📊 Status values",
				Value: "✅ Available: accepting lottery entries\n" +
					"📊 Results: lottery resolving\n" +
					"❌ Unavailable: not open",
				Inline: false,
			},
			{
				Name:   "📝 Example",
				Value:  "`/housing-check datacenter:primal world:behemoth size:small district:shirogane`",
				Inline: false,
			},
		},
	}

	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{embed},
		},
	})
}

// handleClearHouses handles the /clear-houses command
func (b *Bot) handleClearHouses(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !hasPermission(i, discordgo.PermissionAdministrator) {
		respondEphemeral(s, i, "You need the Administrator permission to use this command.")
		return
	}

	channel := optionMap(i)["channel"].ChannelValue(s)
	respondEphemeral(s, i, fmt.Sprintf("Clearing all messages in <#%s>...", channel.ID))

	deleted := 0
	for {
		messages, err := s.ChannelMessages(channel.ID, 100, "", "", "")
		if err != nil {
			slog.Error("Failed to list channel messages", "channelID", channel.ID, "error", err)
			break
		}
		if len(messages) == 0 {
			break
		}

		ids := make([]string, 0, len(messages))
		for _, msg := range messages {
			ids = append(ids, msg.ID)
		}

		// Bulk delete only covers messages younger than two weeks;
		// fall back to deleting one by one.
		deletedThisBatch := 0
		if err := s.ChannelMessagesBulkDelete(channel.ID, ids); err != nil {
			for _, id := range ids {
				if err := s.ChannelMessageDelete(channel.ID, id); err != nil {
					slog.Debug("Failed to delete message", "messageID", id, "error", err)
					continue
				}
				deletedThisBatch++
			}
		} else {
			deletedThisBatch = len(ids)
		}

		deleted += deletedThisBatch
		if deletedThisBatch == 0 {
			break
		}
	}

	followupEphemeral(s, i, fmt.Sprintf("Deleted %d message(s) from <#%s>.", deleted, channel.ID))
}

// Helper functions

func optionMap(i *discordgo.InteractionCreate) map[string]*discordgo.ApplicationCommandInteractionDataOption {
	options := i.ApplicationCommandData().Options
	m := make(map[string]*discordgo.ApplicationCommandInteractionDataOption, len(options))
	for _, opt := range options {
		m[opt.Name] = opt
	}
	return m
}

func hasPermission(i *discordgo.InteractionCreate, permission int64) bool {
	if i.Member == nil {
		return false
	}
	return i.Member.Permissions&permission != 0
}

func respondWithMessage(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
		},
	})
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.FollowupMessageCreate(i.Interaction, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, content string) {
	s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
}

package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/storage"
)

// Discord caps action rows at five buttons and messages at five rows.
const maxSubscribeButtons = 25

// Publisher adapts a discordgo session to the reconciler's collaborator
// interface.
type Publisher struct {
	session *discordgo.Session
}

// NewPublisher wraps a Discord session.
func NewPublisher(session *discordgo.Session) *Publisher {
	return &Publisher{session: session}
}

// ChannelExists reports whether the channel still resolves, preferring
// the session's state cache over a REST call.
func (p *Publisher) ChannelExists(guildID, channelID string) bool {
	if _, err := p.session.State.Channel(channelID); err == nil {
		return true
	}
	_, err := p.session.Channel(channelID)
	return err == nil
}

// DeleteMessage removes one previously posted message.
func (p *Publisher) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return p.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// PostListings posts the header and one message per district. Each
// district message carries subscribe buttons for its listings. The ids
// of everything posted so far are returned even when a later send
// fails, so the caller can track them for the next cycle's cleanup.
func (p *Publisher) PostListings(ctx context.Context, watch *storage.Watch, groups []housing.DistrictGroup) ([]string, error) {
	var messageIDs []string

	header, err := p.session.ChannelMessageSendEmbed(watch.ChannelID, headerEmbed(watch.World), discordgo.WithContext(ctx))
	if err != nil {
		return messageIDs, fmt.Errorf("failed to send header: %w", err)
	}
	messageIDs = append(messageIDs, header.ID)

	for _, group := range groups {
		msg, err := p.session.ChannelMessageSendComplex(watch.ChannelID, &discordgo.MessageSend{
			Embeds:     []*discordgo.MessageEmbed{districtEmbed(watch.World, group)},
			Components: subscribeRows(group.Listings),
		}, discordgo.WithContext(ctx))
		if err != nil {
			return messageIDs, fmt.Errorf("failed to send %s listings: %w", group.District.Name(), err)
		}
		messageIDs = append(messageIDs, msg.ID)
	}

	return messageIDs, nil
}

// NotifyUser delivers a status-change notification as a direct message.
func (p *Publisher) NotifyUser(ctx context.Context, userID string, listing housing.Listing) error {
	channel, err := p.session.UserChannelCreate(userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("failed to open DM channel: %w", err)
	}
	if _, err := p.session.ChannelMessageSendEmbed(channel.ID, notificationEmbed(listing), discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("failed to send DM: %w", err)
	}
	return nil
}

// subscribeRows builds one button per listing, five per row, capped at the
// Discord component limit.
func subscribeRows(listings []housing.Listing) []discordgo.MessageComponent {
	if len(listings) > maxSubscribeButtons {
		listings = listings[:maxSubscribeButtons]
	}

	var rows []discordgo.MessageComponent
	var buttons []discordgo.MessageComponent
	for _, l := range listings {
		buttons = append(buttons, discordgo.Button{
			Label:    fmt.Sprintf("🔔 W%d P%d", l.Ward, l.Plot),
			Style:    discordgo.SecondaryButton,
			CustomID: encodeSubscribeID(l),
		})
		if len(buttons) == 5 {
			rows = append(rows, discordgo.ActionsRow{Components: buttons})
			buttons = nil
		}
	}
	if len(buttons) > 0 {
		rows = append(rows, discordgo.ActionsRow{Components: buttons})
	}
	return rows
}

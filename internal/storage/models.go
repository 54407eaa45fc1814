package storage

import (
	"time"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

// Watch is a channel-level standing query: the bot periodically posts
// the open lottery plots for the watch's world (optionally narrowed to
// one district) into the channel.
type Watch struct {
	GuildID   string
	ChannelID string
	World     string
	District  string // optional district filter, "" means all districts
	// MessageIDs are the ids of the messages currently posted for this
	// watch, oldest first. Fully replaced each reconciliation cycle.
	MessageIDs []string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Subscription links a Discord user to one plot they want direct
// notifications for.
type Subscription struct {
	UserID    string
	Key       housing.PlotKey
	CreatedAt time.Time
}

package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

const (
	colorGold     = 0xf1c40f
	colorMist     = 0x3498db
	colorLavender = 0x9b59b6
	colorGoblet   = 0xe67e22
	colorShiro    = 0xffb6c1
	colorEmpyreum = 0x87ceeb
)

var districtColors = map[housing.District]int{
	housing.Mist:         colorMist,
	housing.LavenderBeds: colorLavender,
	housing.Goblet:       colorGoblet,
	housing.Shirogane:    colorShiro,
	housing.Empyreum:     colorEmpyreum,
}

var districtEmojis = map[housing.District]string{
	housing.Mist:         "🌊",
	housing.LavenderBeds: "🌸",
	housing.Goblet:       "🏺",
	housing.Shirogane:    "🎋",
	housing.Empyreum:     "❄️",
}

var sizeEmojis = map[housing.HouseSize]string{
	housing.SizeSmall:  "🏠",
	housing.SizeMedium: "🏡",
	housing.SizeLarge:  "🏰",
}

var phaseEmojis = map[housing.LottoPhase]string{
	housing.PhaseAvailable:   "✅",
	housing.PhaseResults:     "📊",
	housing.PhaseUnavailable: "❌",
}

// formatGil renders a price the way players read it: grouped digits
// below one million ("500,000 gil"), shortened above ("2.5M gil").
func formatGil(price int64) string {
	if price >= 1_000_000 {
		return fmt.Sprintf("%.1fM gil", float64(price)/1_000_000)
	}
	return groupDigits(price) + " gil"
}

func groupDigits(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var sb strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		sb.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if sb.Len() > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(s[i : i+3])
	}
	return sb.String()
}

// phaseLabel renders the lottery phase with its emoji; nil means the
// API did not report one.
func phaseLabel(phase *housing.LottoPhase) string {
	if phase == nil {
		return "❓ Unknown"
	}
	emoji, ok := phaseEmojis[*phase]
	if !ok {
		emoji = "❓"
	}
	return emoji + " " + (*phase).Label()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fieldName renders the field title for one listing.
func fieldName(l housing.Listing) string {
	return fmt.Sprintf("Ward %d • Plot %d", l.Ward, l.Plot)
}

// fieldValue renders the body for one listing: size, price and lottery
// status.
func fieldValue(l housing.Listing) string {
	entries := "?"
	if l.LottoEntries != nil {
		entries = strconv.FormatInt(*l.LottoEntries, 10)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s **%s**\n", sizeEmojis[l.Size], l.Size.Name())
	fmt.Fprintf(&sb, "💰 %s\n", formatGil(l.Price))
	fmt.Fprintf(&sb, "📍 🎫 Lottery (Entries: %s)\n", entries)
	fmt.Fprintf(&sb, "📌 Status: %s", phaseLabel(l.LottoPhase))
	if l.PhaseUntil != nil {
		fmt.Fprintf(&sb, "\n⏰ Until: <t:%d:f>", *l.PhaseUntil)
	}
	return sb.String()
}

// headerEmbed is the leading message of a watch update.
func headerEmbed(world string) *discordgo.MessageEmbed {
	now := time.Now().UTC()
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("🏰 %s", capitalize(world)),
		Description: fmt.Sprintf("Open housing plots on %s:", capitalize(world)),
		Color:       colorGold,
		Timestamp:   now.Format(time.RFC3339),
	}
}

// districtEmbed renders one district's sorted listings.
func districtEmbed(world string, group housing.DistrictGroup) *discordgo.MessageEmbed {
	emoji, ok := districtEmojis[group.District]
	if !ok {
		emoji = "🏘️"
	}
	color, ok := districtColors[group.District]
	if !ok {
		color = colorMist
	}

	embed := &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("%s %s", emoji, group.District.Name()),
		Description: fmt.Sprintf("World: **%s**", capitalize(world)),
		Color:       color,
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Open plots: %d", len(group.Listings)),
		},
	}

	for _, l := range group.Listings {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   fieldName(l),
			Value:  fieldValue(l),
			Inline: false,
		})
	}

	if dist := sizeDistribution(group.Listings); dist != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "📊 Distribution",
			Value:  dist,
			Inline: false,
		})
	}

	return embed
}

func sizeDistribution(listings []housing.Listing) string {
	counts := housing.CountBySize(listings)
	var parts []string
	for _, size := range []housing.HouseSize{housing.SizeSmall, housing.SizeMedium, housing.SizeLarge} {
		if counts[size] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", sizeEmojis[size], counts[size]))
		}
	}
	return strings.Join(parts, " • ")
}

// notificationEmbed is the direct message sent to a subscriber when a
// plot's lottery status changes.
func notificationEmbed(l housing.Listing) *discordgo.MessageEmbed {
	color, ok := districtColors[l.District]
	if !ok {
		color = colorMist
	}
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("🔔 %s — Ward %d • Plot %d", l.District.Name(), l.Ward, l.Plot),
		Description: fmt.Sprintf("The lottery status of a plot you watch on **%s** changed.",
			capitalize(l.World)),
		Color:     color,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Fields: []*discordgo.MessageEmbedField{
			{Name: fieldName(l), Value: fieldValue(l), Inline: false},
		},
	}
}

package bot

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/reconciler"
)

const (
	subscribePrefix = "housing-sub"
	restartCustomID = "housing-restart"
)

// encodeSubscribeID packs a listing's identity and its status as
// observed at post time into a button custom id. The observed status
// seeds the change-detection baseline when the press creates the
// plot's first subscription.
func encodeSubscribeID(l housing.Listing) string {
	parts := []string{
		subscribePrefix,
		l.World,
		strconv.Itoa(int(l.District)),
		strconv.Itoa(l.Ward),
		strconv.Itoa(l.Plot),
		encodeOptional(phaseAsInt64(l.LottoPhase)),
		encodeOptional(l.LottoEntries),
		encodeOptional(l.PhaseUntil),
	}
	return strings.Join(parts, "|")
}

// decodeSubscribeID reverses encodeSubscribeID.
func decodeSubscribeID(customID string) (housing.PlotKey, housing.PlotStatus, error) {
	parts := strings.Split(customID, "|")
	if len(parts) != 8 || parts[0] != subscribePrefix {
		return housing.PlotKey{}, housing.PlotStatus{}, fmt.Errorf("malformed subscribe id: %q", customID)
	}

	districtID, err := strconv.Atoi(parts[2])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, fmt.Errorf("bad district in %q: %w", customID, err)
	}
	district, ok := housing.DistrictByID(districtID)
	if !ok {
		return housing.PlotKey{}, housing.PlotStatus{}, fmt.Errorf("unknown district %d in %q", districtID, customID)
	}
	ward, err := strconv.Atoi(parts[3])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, fmt.Errorf("bad ward in %q: %w", customID, err)
	}
	plot, err := strconv.Atoi(parts[4])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, fmt.Errorf("bad plot in %q: %w", customID, err)
	}

	key := housing.PlotKey{World: parts[1], District: district, Ward: ward, Plot: plot}

	phaseRaw, err := decodeOptional(parts[5])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, err
	}
	entries, err := decodeOptional(parts[6])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, err
	}
	until, err := decodeOptional(parts[7])
	if err != nil {
		return housing.PlotKey{}, housing.PlotStatus{}, err
	}

	status := housing.PlotStatus{Entries: entries, PhaseUntil: until}
	if phaseRaw != nil {
		phase := housing.LottoPhase(*phaseRaw)
		status.Phase = &phase
	}
	return key, status, nil
}

func phaseAsInt64(p *housing.LottoPhase) *int64 {
	if p == nil {
		return nil
	}
	v := int64(*p)
	return &v
}

func encodeOptional(v *int64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatInt(*v, 10)
}

func decodeOptional(s string) (*int64, error) {
	if s == "-" {
		return nil, nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad optional value %q: %w", s, err)
	}
	return &v, nil
}

// handleComponent routes button presses.
func (b *Bot) handleComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	customID := i.MessageComponentData().CustomID

	switch {
	case strings.HasPrefix(customID, subscribePrefix+"|"):
		b.handleSubscribeButton(s, i, customID)
	case customID == restartCustomID:
		b.handleRestartButton(s, i)
	default:
		slog.Warn("Unknown component", "customID", customID)
	}
}

// handleSubscribeButton subscribes the pressing user to the plot the
// button encodes.
func (b *Bot) handleSubscribeButton(s *discordgo.Session, i *discordgo.InteractionCreate, customID string) {
	key, status, err := decodeSubscribeID(customID)
	if err != nil {
		slog.Error("Failed to decode subscribe button", "error", err)
		respondEphemeral(s, i, "This button is no longer valid.")
		return
	}

	userID := interactionUserID(i)
	if userID == "" {
		respondEphemeral(s, i, "Could not identify you, please try again.")
		return
	}

	added, err := b.repo.Subscribe(userID, key, status)
	if err != nil {
		slog.Error("Failed to save subscription", "userID", userID, "plot", key, "error", err)
		respondEphemeral(s, i, "Failed to save your subscription. Please try again.")
		return
	}

	plotName := fmt.Sprintf("%s Ward %d Plot %d (%s)", key.District.Name(), key.Ward, key.Plot, capitalize(key.World))
	if !added {
		respondEphemeral(s, i, fmt.Sprintf("You are already watching %s.", plotName))
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("🔔 You will be notified when the lottery status of %s changes.", plotName))
}

// handleRestartButton starts a reconciliation pass when none is running.
func (b *Bot) handleRestartButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if err := b.engine.Trigger(); err != nil {
		if errors.Is(err, reconciler.ErrAlreadyRunning) {
			respondEphemeral(s, i, "❌ An update is already running!")
			return
		}
		slog.Error("Failed to trigger update", "error", err)
		respondEphemeral(s, i, "Failed to start the update. Please try again.")
		return
	}
	respondEphemeral(s, i, "✅ Update started!")
}

func interactionUserID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

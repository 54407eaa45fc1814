package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
	"github.com/n0way02/FFXIV-Housing-Bot/internal/storage"
)

// ErrAlreadyRunning is returned when a pass is triggered while another
// pass is still in flight.
var ErrAlreadyRunning = errors.New("reconciliation pass already running")

// Fetcher provides the open listings of a world.
type Fetcher interface {
	OpenListings(ctx context.Context, world string) ([]housing.Listing, error)
}

// Publisher is the Discord-facing collaborator: it resolves channels,
// posts and deletes listing messages, and delivers direct notifications.
type Publisher interface {
	// ChannelExists reports whether the watched channel still resolves.
	ChannelExists(guildID, channelID string) bool

	// PostListings posts the header and per-district messages for a
	// watch and returns the ids of everything it managed to post, in
	// order, even when it also returns an error.
	PostListings(ctx context.Context, watch *storage.Watch, groups []housing.DistrictGroup) ([]string, error)

	// DeleteMessage removes one previously posted message.
	DeleteMessage(ctx context.Context, channelID, messageID string) error

	// NotifyUser sends a direct notification about a plot's new status.
	NotifyUser(ctx context.Context, userID string, listing housing.Listing) error
}

// Config holds engine configuration.
type Config struct {
	Interval       time.Duration // time between passes (default: 30m)
	ChannelDelay   time.Duration // pause between channels within a pass (default: 30s)
	ChannelTimeout time.Duration // hard cap on one channel's work (default: 5m)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:       30 * time.Minute,
		ChannelDelay:   30 * time.Second,
		ChannelTimeout: 5 * time.Minute,
	}
}

// Engine runs the periodic reconciliation of watched channels: fetch
// the current listings, repost the channel's messages, and notify
// subscribers whose plots changed status.
type Engine struct {
	cfg       Config
	repo      *storage.Repository
	fetcher   Fetcher
	publisher Publisher
	logger    *slog.Logger

	running atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Engine.
func New(cfg Config, repo *storage.Repository, fetcher Fetcher, publisher Publisher, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		cfg:       cfg,
		repo:      repo,
		fetcher:   fetcher,
		publisher: publisher,
		logger:    logger,
	}
}

// Start begins the periodic loop. An initial pass runs immediately so
// watched channels are fresh right after startup.
func (e *Engine) Start(ctx context.Context) {
	e.ctx, e.cancel = context.WithCancel(ctx)

	e.wg.Add(1)
	go e.run()

	e.logger.Info("reconciliation engine started",
		"interval", e.cfg.Interval,
		"channelDelay", e.cfg.ChannelDelay,
	)
}

// Stop cancels the loop and waits for an in-flight pass to finish.
func (e *Engine) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
	e.wg.Wait()
	e.logger.Info("reconciliation engine stopped")
}

// IsRunning reports whether a pass is currently in flight.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Trigger starts a pass immediately, outside the schedule. It returns
// ErrAlreadyRunning when a pass is in flight; it never starts a second
// concurrent pass.
func (e *Engine) Trigger() error {
	if e.running.Load() {
		return ErrAlreadyRunning
	}

	ctx := e.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		if err := e.RunPass(ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) {
			e.logger.Error("triggered pass failed", "error", err)
		}
	}()
	return nil
}

func (e *Engine) run() {
	defer e.wg.Done()

	ticker := time.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	// Initial pass
	e.pass()

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-ticker.C:
			e.pass()
		}
	}
}

func (e *Engine) pass() {
	if err := e.RunPass(e.ctx); err != nil && !errors.Is(err, ErrAlreadyRunning) && !errors.Is(err, context.Canceled) {
		e.logger.Error("reconciliation pass failed", "error", err)
	}
}

// RunPass executes one full reconciliation pass over all watches. Only
// one pass may be in flight at a time: a pass requested while another
// is running is skipped entirely, and the schedule continues unshifted.
func (e *Engine) RunPass(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		e.logger.Warn("pass already in flight, skipping")
		return ErrAlreadyRunning
	}
	defer e.running.Store(false)

	watches, err := e.repo.GetAllWatches()
	if err != nil {
		return fmt.Errorf("failed to load watches: %w", err)
	}

	if len(watches) == 0 {
		e.logger.Debug("no watches configured")
		return nil
	}

	e.logger.Info("reconciliation pass started", "watches", len(watches))

	// Channels run in sequence with a fixed delay between them to
	// respect upstream rate limits.
	for i, watch := range watches {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.cfg.ChannelDelay):
			}
		}

		channelCtx, cancel := context.WithTimeout(ctx, e.cfg.ChannelTimeout)
		err := e.reconcileChannel(channelCtx, watch)
		cancel()

		// One broken watch never halts the batch.
		if err != nil {
			e.logger.Error("failed to reconcile channel",
				"guildID", watch.GuildID,
				"channelID", watch.ChannelID,
				"world", watch.World,
				"error", err,
			)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	e.logger.Info("reconciliation pass finished")
	return nil
}

// reconcileChannel runs the per-channel algorithm: fetch and filter the
// world's listings, replace the channel's posted messages, diff each
// posted plot against its status baseline, and notify subscribers.
func (e *Engine) reconcileChannel(ctx context.Context, watch *storage.Watch) error {
	if !e.publisher.ChannelExists(watch.GuildID, watch.ChannelID) {
		e.logger.Info("watched channel no longer resolves, skipping",
			"guildID", watch.GuildID, "channelID", watch.ChannelID)
		return nil
	}

	listings, err := e.fetcher.OpenListings(ctx, watch.World)
	if err != nil {
		// Leave the previous messages in place; the next tick retries.
		return fmt.Errorf("fetch failed for %s: %w", watch.World, err)
	}

	filtered := housing.Filter(housing.LotteryOnly(listings), nil, watch.District)
	if len(filtered) == 0 {
		e.logger.Debug("no open lottery plots, keeping previous messages",
			"world", watch.World, "channelID", watch.ChannelID)
		return nil
	}

	// Best-effort cleanup of the previous cycle's messages. A message
	// already deleted by hand is not an error worth surfacing.
	for _, messageID := range watch.MessageIDs {
		if err := e.publisher.DeleteMessage(ctx, watch.ChannelID, messageID); err != nil {
			e.logger.Debug("failed to delete old message",
				"channelID", watch.ChannelID, "messageID", messageID, "error", err)
		}
	}

	groups := housing.GroupByDistrict(filtered)
	messageIDs, postErr := e.publisher.PostListings(ctx, watch, groups)

	// Record whatever was actually posted, even on partial failure, so
	// the next cycle can clean it up.
	if err := e.repo.ReplaceWatchMessages(watch.ChannelID, messageIDs); err != nil {
		e.logger.Error("failed to persist posted messages",
			"channelID", watch.ChannelID, "error", err)
	}

	if postErr != nil {
		return fmt.Errorf("failed to post listings: %w", postErr)
	}

	for _, group := range groups {
		for _, listing := range group.Listings {
			e.detectChange(ctx, listing)
		}
	}

	return nil
}

// detectChange compares one posted listing against its stored baseline
// and, on a change, persists the new status before notifying each
// subscriber, so a crash mid-notification cannot repeat notifications
// on the next pass.
func (e *Engine) detectChange(ctx context.Context, listing housing.Listing) {
	key := listing.Key()

	previous, found, err := e.repo.PlotStatusFor(key)
	if err != nil {
		e.logger.Error("failed to load plot status", "plot", key, "error", err)
		return
	}
	if !found {
		// Baselines exist only for plots someone subscribed to.
		return
	}

	current := listing.Status()
	if current.Equal(previous) {
		return
	}

	if err := e.repo.SetPlotStatus(key, current); err != nil {
		e.logger.Error("failed to persist plot status", "plot", key, "error", err)
		return
	}

	subscribers, err := e.repo.Subscribers(key)
	if err != nil {
		e.logger.Error("failed to load subscribers", "plot", key, "error", err)
		return
	}

	e.logger.Info("plot status changed",
		"world", key.World,
		"district", key.District.Name(),
		"ward", key.Ward,
		"plot", key.Plot,
		"subscribers", len(subscribers),
	)

	for _, userID := range subscribers {
		// A subscriber who cannot be reached never aborts the rest.
		if err := e.publisher.NotifyUser(ctx, userID, listing); err != nil {
			e.logger.Error("failed to notify subscriber",
				"userID", userID, "plot", key, "error", err)
		}
	}
}

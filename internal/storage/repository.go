package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

// Repository handles all database operations
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new repository with SQLite. A database file
// that cannot be opened or migrated is moved aside and replaced with a
// fresh one instead of failing startup.
func NewRepository(dbPath string) (*Repository, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	repo, err := open(dbPath)
	if err == nil {
		return repo, nil
	}

	slog.Warn("Database unusable, reinitializing", "path", dbPath, "error", err)
	if renameErr := os.Rename(dbPath, dbPath+".corrupt"); renameErr != nil && !os.IsNotExist(renameErr) {
		return nil, fmt.Errorf("failed to move corrupt database aside: %w", renameErr)
	}

	return open(dbPath)
}

func open(dbPath string) (*Repository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows one writer; serialize access from the command
	// handlers and the reconciliation loop through a single connection.
	db.SetMaxOpenConns(1)

	// Test connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	repo := &Repository{db: db}

	// Run migrations
	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// Close closes the database connection
func (r *Repository) Close() error {
	return r.db.Close()
}

// migrate creates the database schema
func (r *Repository) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS watches (
			channel_id VARCHAR(20) PRIMARY KEY,
			guild_id VARCHAR(20) NOT NULL,
			world VARCHAR(30) NOT NULL,
			district VARCHAR(30) NOT NULL DEFAULT '',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS watch_messages (
			channel_id VARCHAR(20) NOT NULL,
			position INTEGER NOT NULL,
			message_id VARCHAR(20) NOT NULL,
			PRIMARY KEY (channel_id, position),
			FOREIGN KEY (channel_id) REFERENCES watches(channel_id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS plot_subscriptions (
			user_id VARCHAR(20) NOT NULL,
			world VARCHAR(30) NOT NULL,
			district_id INTEGER NOT NULL,
			ward INTEGER NOT NULL,
			plot INTEGER NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (user_id, world, district_id, ward, plot)
		)`,
		`CREATE TABLE IF NOT EXISTS plot_status (
			world VARCHAR(30) NOT NULL,
			district_id INTEGER NOT NULL,
			ward INTEGER NOT NULL,
			plot INTEGER NOT NULL,
			lotto_phase INTEGER,
			lotto_entries INTEGER,
			lotto_phase_until INTEGER,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (world, district_id, ward, plot)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_plot
			ON plot_subscriptions(world, district_id, ward, plot)`,
	}

	for _, migration := range migrations {
		if _, err := r.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// Watch operations

// UpsertWatch creates or replaces the watch for a channel. Changing the
// world or district of an existing watch replaces it rather than adding
// a second one, and always clears the tracked message list.
func (r *Repository) UpsertWatch(w *Watch) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO watches (channel_id, guild_id, world, district) VALUES (?, ?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET
			guild_id = excluded.guild_id,
			world = excluded.world,
			district = excluded.district,
			updated_at = CURRENT_TIMESTAMP`,
		w.ChannelID, w.GuildID, w.World, w.District,
	)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(`DELETE FROM watch_messages WHERE channel_id = ?`, w.ChannelID); err != nil {
		return err
	}

	return tx.Commit()
}

// DeleteWatch removes a channel's watch and its tracked messages.
func (r *Repository) DeleteWatch(channelID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watch_messages WHERE channel_id = ?`, channelID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM watches WHERE channel_id = ?`, channelID); err != nil {
		return err
	}

	return tx.Commit()
}

// ReplaceWatchMessages swaps the tracked message list for a channel in
// one transaction, so readers never see a mix of old and new ids.
func (r *Repository) ReplaceWatchMessages(channelID string, messageIDs []string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM watch_messages WHERE channel_id = ?`, channelID); err != nil {
		return err
	}

	for i, id := range messageIDs {
		_, err := tx.Exec(
			`INSERT INTO watch_messages (channel_id, position, message_id) VALUES (?, ?, ?)`,
			channelID, i, id,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetAllWatches returns a snapshot of every configured watch with its
// tracked messages. The returned slice is independent of later
// mutations, so it is safe to iterate during a reconciliation pass.
func (r *Repository) GetAllWatches() ([]*Watch, error) {
	rows, err := r.db.Query(
		`SELECT channel_id, guild_id, world, district, created_at, updated_at FROM watches ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var watches []*Watch
	byChannel := make(map[string]*Watch)
	for rows.Next() {
		w := &Watch{}
		if err := rows.Scan(&w.ChannelID, &w.GuildID, &w.World, &w.District, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		watches = append(watches, w)
		byChannel[w.ChannelID] = w
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	msgRows, err := r.db.Query(
		`SELECT channel_id, message_id FROM watch_messages ORDER BY channel_id, position`,
	)
	if err != nil {
		return nil, err
	}
	defer msgRows.Close()

	for msgRows.Next() {
		var channelID, messageID string
		if err := msgRows.Scan(&channelID, &messageID); err != nil {
			return nil, err
		}
		if w, ok := byChannel[channelID]; ok {
			w.MessageIDs = append(w.MessageIDs, messageID)
		}
	}

	return watches, msgRows.Err()
}

// CountWatches returns how many channels have a watch configured.
func (r *Repository) CountWatches() (int, error) {
	var count int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM watches`).Scan(&count)
	return count, err
}

// Subscription operations

// Subscribe adds a plot subscription for a user. It reports false when
// the user was already subscribed (nothing is mutated). On a fresh
// subscribe it also seeds the status baseline for the plot, but only
// when no baseline exists yet: the first subscriber across all users
// establishes it, later subscribers leave it untouched.
func (r *Repository) Subscribe(userID string, key housing.PlotKey, current housing.PlotStatus) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		`INSERT OR IGNORE INTO plot_subscriptions (user_id, world, district_id, ward, plot) VALUES (?, ?, ?, ?, ?)`,
		userID, key.World, int(key.District), key.Ward, key.Plot,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	_, err = tx.Exec(
		`INSERT INTO plot_status (world, district_id, ward, plot, lotto_phase, lotto_entries, lotto_phase_until)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(world, district_id, ward, plot) DO NOTHING`,
		key.World, int(key.District), key.Ward, key.Plot,
		phaseValue(current.Phase), int64Value(current.Entries), int64Value(current.PhaseUntil),
	)
	if err != nil {
		return false, err
	}

	return true, tx.Commit()
}

// UnsubscribeAll removes every subscription of a user and returns how
// many were removed. Status baselines are kept even when the plot loses
// its last subscriber; the leak is bounded by listing churn.
func (r *Repository) UnsubscribeAll(userID string) (int64, error) {
	result, err := r.db.Exec(`DELETE FROM plot_subscriptions WHERE user_id = ?`, userID)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListSubscriptions returns the plots a user is subscribed to.
func (r *Repository) ListSubscriptions(userID string) ([]housing.PlotKey, error) {
	rows, err := r.db.Query(
		`SELECT world, district_id, ward, plot FROM plot_subscriptions WHERE user_id = ? ORDER BY created_at`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []housing.PlotKey
	for rows.Next() {
		var key housing.PlotKey
		var districtID int
		if err := rows.Scan(&key.World, &districtID, &key.Ward, &key.Plot); err != nil {
			return nil, err
		}
		key.District = housing.District(districtID)
		keys = append(keys, key)
	}

	return keys, rows.Err()
}

// Subscribers returns the users subscribed to a plot.
func (r *Repository) Subscribers(key housing.PlotKey) ([]string, error) {
	rows, err := r.db.Query(
		`SELECT user_id FROM plot_subscriptions WHERE world = ? AND district_id = ? AND ward = ? AND plot = ? ORDER BY created_at`,
		key.World, int(key.District), key.Ward, key.Plot,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		users = append(users, userID)
	}

	return users, rows.Err()
}

// Status cache operations

// PlotStatusFor returns the last known status of a plot. The second
// return value is false when no baseline exists for the plot.
func (r *Repository) PlotStatusFor(key housing.PlotKey) (housing.PlotStatus, bool, error) {
	var phase, entries, until sql.NullInt64
	err := r.db.QueryRow(
		`SELECT lotto_phase, lotto_entries, lotto_phase_until FROM plot_status
		 WHERE world = ? AND district_id = ? AND ward = ? AND plot = ?`,
		key.World, int(key.District), key.Ward, key.Plot,
	).Scan(&phase, &entries, &until)
	if errors.Is(err, sql.ErrNoRows) {
		return housing.PlotStatus{}, false, nil
	}
	if err != nil {
		return housing.PlotStatus{}, false, err
	}

	status := housing.PlotStatus{
		Entries:    nullableInt64(entries),
		PhaseUntil: nullableInt64(until),
	}
	if phase.Valid {
		p := housing.LottoPhase(phase.Int64)
		status.Phase = &p
	}
	return status, true, nil
}

// SetPlotStatus records the current status of a plot, creating or
// replacing the baseline.
func (r *Repository) SetPlotStatus(key housing.PlotKey, status housing.PlotStatus) error {
	_, err := r.db.Exec(
		`INSERT INTO plot_status (world, district_id, ward, plot, lotto_phase, lotto_entries, lotto_phase_until, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(world, district_id, ward, plot) DO UPDATE SET
			lotto_phase = excluded.lotto_phase,
			lotto_entries = excluded.lotto_entries,
			lotto_phase_until = excluded.lotto_phase_until,
			updated_at = excluded.updated_at`,
		key.World, int(key.District), key.Ward, key.Plot,
		phaseValue(status.Phase), int64Value(status.Entries), int64Value(status.PhaseUntil),
		time.Now(),
	)
	return err
}

// Nullable column helpers

func phaseValue(p *housing.LottoPhase) any {
	if p == nil {
		return nil
	}
	return int64(*p)
}

func int64Value(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	value := v.Int64
	return &value
}

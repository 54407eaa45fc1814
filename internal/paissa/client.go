package paissa

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/n0way02/FFXIV-Housing-Bot/internal/housing"
)

// DefaultBaseURL is the public PaissaDB instance.
const DefaultBaseURL = "https://paissadb.zhu.codes"

// ErrUnknownWorld is returned when a world name does not resolve to a
// numeric world id. This is a configuration problem, not a transient
// fetch failure, and no network call is made.
var ErrUnknownWorld = errors.New("unknown world")

// Client is a PaissaDB API client with basic rate limiting
type Client struct {
	baseURL    string
	httpClient *http.Client

	// Simple rate limiter
	mu          sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

// NewClient creates a new PaissaDB client. An empty baseURL selects the
// public instance.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		minInterval: 500 * time.Millisecond,
	}
}

// Wire types for GET /worlds/{id}.

type worldDetail struct {
	Districts []districtDetail `json:"districts"`
}

type districtDetail struct {
	ID        int          `json:"id"`
	OpenPlots []plotDetail `json:"open_plots"`
}

type plotDetail struct {
	WardNumber     *int   `json:"ward_number"`
	PlotNumber     *int   `json:"plot_number"`
	Size           *int   `json:"size"`
	Price          *int64 `json:"price"`
	LottoEntries   *int64 `json:"lotto_entries"`
	PurchaseSystem int    `json:"purchase_system"`
	LottoPhase     *int   `json:"lotto_phase"`
	LottoPhaseEnd  *int64 `json:"lotto_phase_until"`
}

// OpenListings fetches all plots currently open for purchase in the
// given world. Zero listings is a valid empty result. Individual
// malformed plot records are skipped rather than failing the fetch.
func (c *Client) OpenListings(ctx context.Context, world string) ([]housing.Listing, error) {
	worldID, ok := WorldID(world)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWorld, world)
	}

	endpoint := fmt.Sprintf("%s/worlds/%d", c.baseURL, worldID)

	var detail worldDetail
	if err := c.get(ctx, endpoint, &detail); err != nil {
		return nil, fmt.Errorf("failed to fetch open plots for %s: %w", world, err)
	}

	var listings []housing.Listing
	for _, d := range detail.Districts {
		district, ok := housing.DistrictByID(d.ID)
		if !ok {
			slog.Warn("Skipping unknown district", "world", world, "districtID", d.ID)
			continue
		}

		for _, p := range d.OpenPlots {
			listing, err := toListing(world, district, p)
			if err != nil {
				slog.Warn("Skipping malformed plot record", "world", world, "district", district.Name(), "error", err)
				continue
			}
			listings = append(listings, listing)
		}
	}

	return listings, nil
}

// toListing converts one wire record, converting the API's 0-based ward
// and plot numbers to the 1-based numbers players see in game.
func toListing(world string, district housing.District, p plotDetail) (housing.Listing, error) {
	if p.WardNumber == nil || p.PlotNumber == nil {
		return housing.Listing{}, fmt.Errorf("missing ward or plot number")
	}
	if *p.WardNumber < 0 || *p.PlotNumber < 0 {
		return housing.Listing{}, fmt.Errorf("negative ward or plot number")
	}
	if p.Size == nil {
		return housing.Listing{}, fmt.Errorf("missing size")
	}
	size := housing.HouseSize(*p.Size)
	if size < housing.SizeSmall || size > housing.SizeLarge {
		return housing.Listing{}, fmt.Errorf("size out of range: %d", *p.Size)
	}
	if p.Price == nil || *p.Price < 0 {
		return housing.Listing{}, fmt.Errorf("missing or negative price")
	}

	listing := housing.Listing{
		World:          world,
		District:       district,
		Ward:           *p.WardNumber + 1,
		Plot:           *p.PlotNumber + 1,
		Size:           size,
		Price:          *p.Price,
		PurchaseSystem: p.PurchaseSystem,
		LottoEntries:   p.LottoEntries,
		PhaseUntil:     p.LottoPhaseEnd,
	}
	if p.LottoPhase != nil {
		phase := housing.LottoPhase(*p.LottoPhase)
		listing.LottoPhase = &phase
	}
	return listing, nil
}

// get performs a GET request and decodes the JSON response, retrying
// transient failures with exponential backoff.
func (c *Client) get(ctx context.Context, url string, result any) error {
	operation := func() error {
		return c.getOnce(ctx, url, result)
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 3), ctx)
	return backoff.Retry(operation, policy)
}

func (c *Client) getOnce(ctx context.Context, url string, result any) error {
	// Keep a minimum spacing between requests to be polite to the
	// upstream API.
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < c.minInterval {
		time.Sleep(c.minInterval - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("API error: status %d", resp.StatusCode)
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return backoff.Permanent(fmt.Errorf("API error: status %d, body: %s", resp.StatusCode, string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

package categories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ledgerchat/internal/domain"
	"github.com/dvloznov/ledgerchat/internal/events"
)

// Lister is the category listing boundary.
type Lister interface {
	ListCategories(ctx context.Context, trackerID string) ([]domain.Category, error)
}

// Creator is the category creation boundary, used by the quick-add flow.
type Creator interface {
	CreateCategory(ctx context.Context, trackerID, name string) error
}

// listResponse is the wire shape of the listing boundary.
type listResponse struct {
	Categories []domain.Category `json:"categories"`
}

// HTTPLister fetches the taxonomy over HTTP.
type HTTPLister struct {
	baseURL string
	client  *http.Client
}

// NewHTTPLister creates a lister against the given boundary base URL.
func NewHTTPLister(baseURL string, timeout time.Duration) *HTTPLister {
	return &HTTPLister{baseURL: baseURL, client: &http.Client{Timeout: timeout}}
}

// ListCategories implements Lister.
func (l *HTTPLister) ListCategories(ctx context.Context, trackerID string) ([]domain.Category, error) {
	u := fmt.Sprintf("%s/api/categories?tracker_id=%s", l.baseURL, url.QueryEscape(trackerID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: building request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ListCategories: boundary unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ListCategories: status %d", resp.StatusCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("ListCategories: decoding response: %w", err)
	}
	return body.Categories, nil
}

// createRequest is the wire shape of the creation boundary.
type createRequest struct {
	TrackerID string `json:"tracker_id"`
	Name      string `json:"name"`
}

// CreateCategory implements Creator.
func (l *HTTPLister) CreateCategory(ctx context.Context, trackerID, name string) error {
	payload, err := json.Marshal(createRequest{TrackerID: trackerID, Name: name})
	if err != nil {
		return fmt.Errorf("CreateCategory: encoding request: %w", err)
	}

	u := l.baseURL + "/api/categories"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("CreateCategory: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return fmt.Errorf("CreateCategory: boundary unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("CreateCategory: status %d", resp.StatusCode)
	}
	return nil
}

// Cache holds the tracker's taxonomy locally and refreshes it whenever a
// categories-changed signal fires, so parses after a quick-add see the
// updated taxonomy.
type Cache struct {
	lister    Lister
	trackerID string
	log       zerolog.Logger

	mu    sync.RWMutex
	items []domain.Category
}

// NewCache creates a cache subscribed to categories-changed on the bus.
func NewCache(lister Lister, trackerID string, bus *events.Bus, log zerolog.Logger) *Cache {
	c := &Cache{lister: lister, trackerID: trackerID, log: log}
	bus.Subscribe(events.TopicCategoriesChanged, func(string) {
		if err := c.Refresh(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Category cache refresh failed")
		}
	})
	return c
}

// Refresh re-reads the taxonomy from the boundary.
func (c *Cache) Refresh(ctx context.Context) error {
	items, err := c.lister.ListCategories(ctx, c.trackerID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.items = items
	c.mu.Unlock()

	c.log.Debug().Int("count", len(items)).Msg("Category cache refreshed")
	return nil
}

// Categories returns a copy of the cached taxonomy.
func (c *Cache) Categories() []domain.Category {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]domain.Category, len(c.items))
	copy(out, c.items)
	return out
}

package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// MaxPriceAgeSecs is the default freshness window enforced when consuming a
// quote for round settlement.
const MaxPriceAgeSecs = 60

// Quote captures a price observation for an asset together with the timestamp
// reported by the upstream feed and the feed identifier.
type Quote struct {
	// Price is the asset price scaled to eight decimal places.
	Price     uint64
	Timestamp int64
	Source    string
}

// Age returns how old the quote is relative to now (unix seconds).
func (q Quote) Age(now int64) int64 {
	if now < q.Timestamp {
		return 0
	}
	return now - q.Timestamp
}

// PriceFeed resolves the current price for the supplied asset symbol.
type PriceFeed interface {
	GetPrice(symbol string) (Quote, error)
}

// ErrNoFreshQuote indicates that no registered feed could produce a quote
// within the configured freshness window.
var ErrNoFreshQuote = errors.New("oracle: no fresh quote available")

// Aggregator consults a list of registered feeds in priority order until a
// fresh quote is obtained.
type Aggregator struct {
	mu       sync.RWMutex
	priority []string
	feeds    map[string]PriceFeed
	maxAge   time.Duration
	nowFn    func() time.Time
}

// NewAggregator constructs an aggregator with the provided priority and
// freshness window. When priority is nil a zero-length slice is initialised so
// that Register can safely append identifiers.
func NewAggregator(priority []string, maxAge time.Duration) *Aggregator {
	prio := append([]string{}, priority...)
	return &Aggregator{
		priority: prio,
		feeds:    make(map[string]PriceFeed),
		maxAge:   maxAge,
		nowFn:    time.Now,
	}
}

// SetMaxAge updates the freshness window used when filtering quotes.
func (a *Aggregator) SetMaxAge(maxAge time.Duration) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.maxAge = maxAge
	a.mu.Unlock()
}

// SetNowFunc overrides the clock. Tests use this to pin freshness decisions.
func (a *Aggregator) SetNowFunc(now func() time.Time) {
	if a == nil || now == nil {
		return
	}
	a.mu.Lock()
	a.nowFn = now
	a.mu.Unlock()
}

// Register adds or replaces a feed under the supplied identifier. Identifiers
// are stored in lowercase so lookups stay consistent regardless of the
// configuration casing.
func (a *Aggregator) Register(name string, feed PriceFeed) {
	if a == nil {
		return
	}
	trimmed := strings.ToLower(strings.TrimSpace(name))
	if trimmed == "" {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.feeds[trimmed] = feed
	for _, entry := range a.priority {
		if strings.EqualFold(entry, trimmed) {
			return
		}
	}
	a.priority = append(a.priority, trimmed)
}

// GetPrice fetches a price from the configured feeds respecting the priority
// ordering, enforcing the freshness window on each candidate.
func (a *Aggregator) GetPrice(symbol string) (Quote, error) {
	if a == nil {
		return Quote{}, fmt.Errorf("oracle aggregator not configured")
	}
	a.mu.RLock()
	priority := append([]string{}, a.priority...)
	maxAge := a.maxAge
	now := a.nowFn()
	a.mu.RUnlock()

	sym := normaliseSymbol(symbol)
	if sym == "" {
		return Quote{}, fmt.Errorf("oracle: symbol required")
	}

	var lastErr error
	for _, name := range priority {
		a.mu.RLock()
		feed := a.feeds[strings.ToLower(name)]
		a.mu.RUnlock()
		if feed == nil {
			continue
		}
		quote, err := feed.GetPrice(sym)
		if err != nil {
			lastErr = err
			continue
		}
		if quote.Price == 0 {
			lastErr = fmt.Errorf("oracle: feed %s returned zero price", name)
			continue
		}
		if maxAge > 0 && quote.Age(now.Unix()) > int64(maxAge/time.Second) {
			lastErr = ErrNoFreshQuote
			continue
		}
		if strings.TrimSpace(quote.Source) == "" {
			quote.Source = strings.ToLower(name)
		}
		return quote, nil
	}
	if lastErr == nil {
		lastErr = ErrNoFreshQuote
	}
	return Quote{}, lastErr
}

// ManualFeed provides an in-memory feed used for tests and manual overrides
// during incident response.
type ManualFeed struct {
	mu     sync.RWMutex
	quotes map[string]Quote
}

// NewManualFeed constructs an empty manual feed.
func NewManualFeed() *ManualFeed {
	return &ManualFeed{quotes: make(map[string]Quote)}
}

// Set stores the supplied price for the symbol with the given timestamp.
func (m *ManualFeed) Set(symbol string, price uint64, ts int64) {
	if m == nil {
		return
	}
	sym := normaliseSymbol(symbol)
	if sym == "" {
		return
	}
	m.mu.Lock()
	m.quotes[sym] = Quote{Price: price, Timestamp: ts, Source: "manual"}
	m.mu.Unlock()
}

// GetPrice retrieves the stored price for the symbol.
func (m *ManualFeed) GetPrice(symbol string) (Quote, error) {
	if m == nil {
		return Quote{}, fmt.Errorf("manual feed not configured")
	}
	m.mu.RLock()
	quote, ok := m.quotes[normaliseSymbol(symbol)]
	m.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("manual feed: quote for %s not found", symbol)
	}
	return quote, nil
}

// HTTPDoer abstracts http.Client for ease of testing.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// HTTPFeed fetches prices from a JSON quote endpoint of the form
// {"price": <uint>, "timestamp": <unix seconds>}.
type HTTPFeed struct {
	client   HTTPDoer
	endpoint string
	apiKey   string
}

// NewHTTPFeed constructs an HTTP feed adapter. When the client is nil
// http.DefaultClient is used. The API key is optional and only added to the
// request headers when supplied.
func NewHTTPFeed(client HTTPDoer, endpoint, apiKey string) *HTTPFeed {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPFeed{client: client, endpoint: strings.TrimSpace(endpoint), apiKey: strings.TrimSpace(apiKey)}
}

func (f *HTTPFeed) GetPrice(symbol string) (Quote, error) {
	if f == nil {
		return Quote{}, fmt.Errorf("http feed not configured")
	}
	req, err := http.NewRequest(http.MethodGet, f.endpoint, nil)
	if err != nil {
		return Quote{}, err
	}
	values := url.Values{}
	values.Set("symbol", normaliseSymbol(symbol))
	req.URL.RawQuery = values.Encode()
	if f.apiKey != "" {
		req.Header.Set("x-api-key", f.apiKey)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Quote{}, err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return Quote{}, fmt.Errorf("http feed: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var payload struct {
		Price     uint64 `json:"price"`
		Timestamp int64  `json:"timestamp"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return Quote{}, fmt.Errorf("http feed: decode: %w", err)
	}
	if payload.Price == 0 {
		return Quote{}, fmt.Errorf("http feed: empty price")
	}
	ts := payload.Timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	return Quote{Price: payload.Price, Timestamp: ts, Source: "http"}, nil
}

func normaliseSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type feedFunc func(symbol string) (Quote, error)

func (f feedFunc) GetPrice(symbol string) (Quote, error) {
	return f(symbol)
}

func TestManualFeedProvidesQuotes(t *testing.T) {
	manual := NewManualFeed()
	now := time.Now().Unix()
	manual.Set("SOL", 15_000_000_000, now)
	quote, err := manual.GetPrice("sol")
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if quote.Price != 15_000_000_000 {
		t.Fatalf("unexpected price: %d", quote.Price)
	}
	if quote.Timestamp != now {
		t.Fatalf("unexpected timestamp: %d", quote.Timestamp)
	}
}

func TestAggregatorRejectsStaleQuote(t *testing.T) {
	manual := NewManualFeed()
	agg := NewAggregator([]string{"manual"}, MaxPriceAgeSecs*time.Second)
	agg.Register("manual", manual)
	base := time.Unix(1_700_000_000, 0)
	agg.SetNowFunc(func() time.Time { return base })
	manual.Set("SOL", 15_000_000_000, base.Unix()-MaxPriceAgeSecs-1)
	if _, err := agg.GetPrice("SOL"); !errors.Is(err, ErrNoFreshQuote) {
		t.Fatalf("expected stale quote rejection, got %v", err)
	}
	manual.Set("SOL", 15_000_000_000, base.Unix()-MaxPriceAgeSecs)
	if _, err := agg.GetPrice("SOL"); err != nil {
		t.Fatalf("quote at the window boundary should pass: %v", err)
	}
}

func TestAggregatorPriorityFallback(t *testing.T) {
	manual := NewManualFeed()
	agg := NewAggregator([]string{"primary", "manual"}, 5*time.Minute)
	agg.Register("primary", feedFunc(func(string) (Quote, error) {
		return Quote{}, fmt.Errorf("primary down")
	}))
	agg.Register("manual", manual)
	manual.Set("SOL", 20_000_000_000, time.Now().Unix())
	quote, err := agg.GetPrice("SOL")
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if quote.Source != "manual" {
		t.Fatalf("expected manual source, got %s", quote.Source)
	}
}

func TestAggregatorRejectsZeroPrice(t *testing.T) {
	agg := NewAggregator([]string{"bad"}, 0)
	agg.Register("bad", feedFunc(func(string) (Quote, error) {
		return Quote{Price: 0, Timestamp: time.Now().Unix()}, nil
	}))
	if _, err := agg.GetPrice("SOL"); err == nil {
		t.Fatalf("expected error for zero price")
	}
}

func TestHTTPFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("symbol"); got != "SOL" {
			t.Fatalf("expected symbol=SOL, got %s", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"price": 15_000_000_000, "timestamp": time.Now().Unix()})
	}))
	defer server.Close()
	feed := NewHTTPFeed(server.Client(), server.URL, "")
	quote, err := feed.GetPrice("sol")
	if err != nil {
		t.Fatalf("get price: %v", err)
	}
	if quote.Price != 15_000_000_000 {
		t.Fatalf("unexpected price: %d", quote.Price)
	}
}

func TestHTTPFeedSurfacesUpstreamErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()
	feed := NewHTTPFeed(server.Client(), server.URL, "")
	if _, err := feed.GetPrice("SOL"); err == nil {
		t.Fatalf("expected error for non-200 response")
	}
}

package marketdata

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/premarket-signals/pkg/httputil"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
	"github.com/wonny/premarket-signals/pkg/redis"
)

// Universe sources
const (
	SourceWatchlist  = "watchlist"
	SourceMostActive = "most_active"
)

// mostActiveFallback is how many watchlist names stand in for a failed screener scrape
const mostActiveFallback = 20

// DefaultWatchlist is the built-in large-cap universe
var DefaultWatchlist = []string{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "BRK.B",
	"LLY", "AVGO", "WMT", "JPM", "XOM", "UNH", "V", "PG",
	"MA", "JNJ", "HD", "CVX", "ABBV", "PEP", "KO", "BAC",
	"TMO", "COST", "MRK", "NFLX", "CRM", "ACN", "LIN", "ABT",
	"ADBE", "CSCO", "DHR", "VZ", "TXN", "NKE", "WFC", "PM",
	"RTX", "INTC", "UPS", "CMCSA", "NEE", "T", "COP", "ORCL",
}

var symbolRe = regexp.MustCompile(`^[A-Z][A-Z0-9]{0,5}([.\-][A-Z]{1,2})?$`)

// UniverseConfig selects where the symbol list comes from
type UniverseConfig struct {
	Source      string
	Watchlist   []string // overrides DefaultWatchlist when non-empty
	MaxSymbols  int
	ScreenerURL string
}

// Universe resolves the list of symbols to analyze
type Universe struct {
	cfg        UniverseConfig
	httpClient *httputil.Client
	cache      *redis.Cache
	now        func() time.Time
	logger     *logger.Logger
}

// NewUniverse creates a universe source. httpClient and cache may be nil for the watchlist source.
func NewUniverse(cfg UniverseConfig, httpClient *httputil.Client, cache *redis.Cache, log *logger.Logger) *Universe {
	if cfg.Source == "" {
		cfg.Source = SourceWatchlist
	}
	return &Universe{
		cfg:        cfg,
		httpClient: httpClient,
		cache:      cache,
		now:        time.Now,
		logger:     log,
	}
}

// Symbols returns the configured universe, capped at MaxSymbols
func (u *Universe) Symbols(ctx context.Context) ([]string, error) {
	switch u.cfg.Source {
	case SourceWatchlist:
		return u.capped(u.watchlist()), nil
	case SourceMostActive:
		symbols, err := u.mostActive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			u.logger.WithError(err).Warn("Most active scrape failed, using watchlist")
			return u.capped(headOf(u.watchlist(), mostActiveFallback)), nil
		}
		return u.capped(symbols), nil
	default:
		return nil, fmt.Errorf("unknown universe source %q", u.cfg.Source)
	}
}

func (u *Universe) watchlist() []string {
	if len(u.cfg.Watchlist) > 0 {
		return u.cfg.Watchlist
	}
	return DefaultWatchlist
}

func (u *Universe) capped(symbols []string) []string {
	out := make([]string, len(symbols))
	copy(out, symbols)
	return headOf(out, u.cfg.MaxSymbols)
}

// mostActive scrapes the screener page, caching the list for the day
func (u *Universe) mostActive(ctx context.Context) ([]string, error) {
	cacheKey := redis.MostActiveKey(u.now().Format("2006-01-02"))

	if u.cache != nil {
		var cached []string
		found, err := u.cache.Get(ctx, cacheKey, &cached)
		if err != nil {
			u.logger.WithError(err).Debug("Most active cache read failed")
		}
		if found && len(cached) > 0 {
			return cached, nil
		}
	}

	if u.httpClient == nil {
		return nil, fmt.Errorf("most active: no http client")
	}

	body, err := u.httpClient.GetBody(ctx, u.cfg.ScreenerURL)
	if err != nil {
		metrics.MarketDataRequests.WithLabelValues("screener", "error").Inc()
		return nil, fmt.Errorf("fetch screener: %w", err)
	}
	metrics.MarketDataRequests.WithLabelValues("screener", "ok").Inc()

	symbols, err := ParseMostActive(body)
	if err != nil {
		return nil, err
	}

	if u.cache != nil {
		if err := u.cache.Set(ctx, cacheKey, symbols, redis.TTLMedium); err != nil {
			u.logger.WithError(err).Debug("Most active cache write failed")
		}
	}

	u.logger.WithField("count", len(symbols)).Info("Loaded most active symbols")
	return symbols, nil
}

// ParseMostActive extracts ticker symbols from a screener results table
func ParseMostActive(html []byte) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse screener html: %w", err)
	}

	seen := make(map[string]bool)
	var symbols []string

	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		text := ""
		if link := row.Find(`a[href^="/quote/"]`).First(); link.Length() > 0 {
			if href, ok := link.Attr("href"); ok {
				text = strings.TrimPrefix(href, "/quote/")
				text = strings.SplitN(strings.Trim(text, "/"), "/", 2)[0]
				text = strings.SplitN(text, "?", 2)[0]
			}
		}
		if text == "" {
			text = row.Find("td").First().Text()
		}

		symbol := strings.ToUpper(strings.TrimSpace(text))
		if !symbolRe.MatchString(symbol) || seen[symbol] {
			return
		}
		seen[symbol] = true
		symbols = append(symbols, symbol)
	})

	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: screener table had no symbols", ErrNoData)
	}
	return symbols, nil
}

func headOf(symbols []string, n int) []string {
	if n > 0 && len(symbols) > n {
		return symbols[:n]
	}
	return symbols
}

package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/premarket-signals/internal/contracts"
	"github.com/wonny/premarket-signals/pkg/httputil"
	"github.com/wonny/premarket-signals/pkg/logger"
	"github.com/wonny/premarket-signals/pkg/metrics"
)

const sourceYahoo = "yahoo"

// YahooProvider builds snapshots from the Yahoo Finance chart API
// ⭐ SSOT: Yahoo Finance calls are made by this client only
type YahooProvider struct {
	httpClient    *httputil.Client
	baseURL       string
	maxConcurrent int
	now           func() time.Time
	logger        *logger.Logger
}

// NewYahooProvider creates a provider; the http client carries rate limiting
func NewYahooProvider(httpClient *httputil.Client, baseURL string, maxConcurrent int, log *logger.Logger) *YahooProvider {
	if maxConcurrent <= 0 {
		maxConcurrent = 5
	}
	return &YahooProvider{
		httpClient:    httpClient,
		baseURL:       strings.TrimRight(baseURL, "/"),
		maxConcurrent: maxConcurrent,
		now:           time.Now,
		logger:        log,
	}
}

// Fetch fetches every symbol concurrently. Symbols that fail are logged and skipped.
// Output order follows input order.
func (p *YahooProvider) Fetch(ctx context.Context, symbols []string) ([]contracts.MarketSnapshot, error) {
	slots := make([]*contracts.MarketSnapshot, len(symbols))
	var failed int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.maxConcurrent)
	for i, symbol := range symbols {
		i, symbol := i, symbol
		g.Go(func() error {
			snap, err := p.fetchSymbol(gctx, symbol)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				atomic.AddInt32(&failed, 1)
				metrics.MarketDataRequests.WithLabelValues(sourceYahoo, "error").Inc()
				p.logger.WithFields(map[string]interface{}{
					"symbol": symbol,
					"error":  err.Error(),
				}).Warn("Failed to fetch quote, skipping")
				return nil
			}
			metrics.MarketDataRequests.WithLabelValues(sourceYahoo, "ok").Inc()
			slots[i] = snap
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshots := make([]contracts.MarketSnapshot, 0, len(symbols))
	for _, s := range slots {
		if s != nil {
			snapshots = append(snapshots, *s)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"requested": len(symbols),
		"fetched":   len(snapshots),
		"failed":    failed,
	}).Info("Fetched market snapshots")

	if len(snapshots) == 0 && len(symbols) > 0 {
		return nil, ErrNoData
	}
	return snapshots, nil
}

// fetchSymbol combines today's intraday chart with the daily volume baseline
func (p *YahooProvider) fetchSymbol(ctx context.Context, symbol string) (*contracts.MarketSnapshot, error) {
	intraday, err := p.chart(ctx, symbol, "1d", "1m")
	if err != nil {
		return nil, fmt.Errorf("intraday chart: %w", err)
	}

	snap, err := intraday.snapshot(symbol)
	if err != nil {
		return nil, err
	}
	snap.Timestamp = p.now()

	if intraday.Meta.AverageDailyVolume3M > 0 {
		snap.AverageVolume = intraday.Meta.AverageDailyVolume3M
		return snap, nil
	}

	// baseline is optional: without it volume confirmation is skipped
	daily, err := p.chart(ctx, symbol, "3mo", "1d")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.WithFields(map[string]interface{}{
			"symbol": symbol,
			"error":  err.Error(),
		}).Debug("No daily volume baseline")
	} else {
		snap.AverageVolume = daily.averageVolume()
	}

	return snap, nil
}

func (p *YahooProvider) chart(ctx context.Context, symbol, rangeParam, interval string) (*chartResult, error) {
	params := url.Values{}
	params.Set("region", "US")
	params.Set("lang", "en-US")
	params.Set("includePrePost", "true")
	params.Set("interval", interval)
	params.Set("range", rangeParam)

	fullURL := fmt.Sprintf("%s/v8/finance/chart/%s?%s", p.baseURL, url.PathEscape(symbol), params.Encode())

	body, err := p.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return nil, err
	}

	return parseChart(body)
}

// chartResponse is the subset of /v8/finance/chart we read
type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol               string   `json:"symbol"`
		RegularMarketPrice   *float64 `json:"regularMarketPrice"`
		PreviousClose        *float64 `json:"previousClose"`
		ChartPreviousClose   *float64 `json:"chartPreviousClose"`
		RegularMarketVolume  int64    `json:"regularMarketVolume"`
		AverageDailyVolume3M float64  `json:"averageDailyVolume3Month"`
		CurrentTradingPeriod struct {
			Pre     tradingPeriod `json:"pre"`
			Regular tradingPeriod `json:"regular"`
		} `json:"currentTradingPeriod"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close  []*float64 `json:"close"`
			Volume []*int64   `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

type tradingPeriod struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

func parseChart(body []byte) (*chartResult, error) {
	var resp chartResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", resp.Chart.Error.Code, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, ErrNoData
	}
	return &resp.Chart.Result[0], nil
}

// snapshot converts an intraday chart into a snapshot.
// Bars before the regular session are premarket; the latest one sets the premarket price.
func (r *chartResult) snapshot(symbol string) (*contracts.MarketSnapshot, error) {
	if r.Meta.RegularMarketPrice == nil {
		return nil, fmt.Errorf("%w: missing regularMarketPrice", ErrNoData)
	}

	prev := 0.0
	switch {
	case r.Meta.ChartPreviousClose != nil:
		prev = *r.Meta.ChartPreviousClose
	case r.Meta.PreviousClose != nil:
		prev = *r.Meta.PreviousClose
	}

	snap := &contracts.MarketSnapshot{
		Symbol:        strings.ToUpper(symbol),
		CurrentPrice:  *r.Meta.RegularMarketPrice,
		PreviousClose: prev,
		RegularVolume: r.Meta.RegularMarketVolume,
	}

	pre := r.Meta.CurrentTradingPeriod.Pre
	regularStart := r.Meta.CurrentTradingPeriod.Regular.Start
	if len(r.Indicators.Quote) > 0 && regularStart > 0 {
		q := r.Indicators.Quote[0]
		var pmPrice *float64
		var pmVolume int64
		for i, ts := range r.Timestamp {
			if ts >= regularStart || (pre.Start > 0 && ts < pre.Start) {
				continue
			}
			if i < len(q.Close) && q.Close[i] != nil {
				pmPrice = q.Close[i]
			}
			if i < len(q.Volume) && q.Volume[i] != nil {
				pmVolume += *q.Volume[i]
			}
		}
		if pmPrice != nil {
			snap.PremarketPrice = contracts.Float64Ptr(*pmPrice)
			snap.PremarketVolume = pmVolume
			// before the open, the premarket trade is the current price
			if lastTimestamp(r.Timestamp) < regularStart {
				snap.CurrentPrice = *pmPrice
			}
		}
	}

	snap.GapPercent = contracts.ComputeGapPercent(snap.CurrentPrice, snap.PreviousClose)
	return snap, nil
}

// averageVolume averages daily volumes, excluding the current (partial) day
func (r *chartResult) averageVolume() float64 {
	if len(r.Indicators.Quote) == 0 {
		return 0
	}
	volumes := r.Indicators.Quote[0].Volume
	if len(volumes) > 1 {
		volumes = volumes[:len(volumes)-1]
	}

	var sum float64
	var n int
	for _, v := range volumes {
		if v == nil || *v <= 0 {
			continue
		}
		sum += float64(*v)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

func lastTimestamp(ts []int64) int64 {
	if len(ts) == 0 {
		return 0
	}
	return ts[len(ts)-1]
}

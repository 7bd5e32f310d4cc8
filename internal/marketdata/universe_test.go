package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/premarket-signals/pkg/httputil"
	"github.com/wonny/premarket-signals/pkg/logger"
)

const screenerHTML = `<html><body>
<table>
  <thead><tr><th>Symbol</th><th>Name</th></tr></thead>
  <tbody>
    <tr><td><a href="/quote/NVDA/">NVDA</a></td><td>NVIDIA</td></tr>
    <tr><td><a href="/quote/BRK-B?p=BRK-B">BRK-B</a></td><td>Berkshire</td></tr>
    <tr><td>pltr</td><td>Palantir</td></tr>
    <tr><td><a href="/quote/NVDA/">NVDA</a></td><td>dup</td></tr>
    <tr><td>not a ticker</td><td>junk</td></tr>
  </tbody>
</table>
</body></html>`

func TestParseMostActive(t *testing.T) {
	symbols, err := ParseMostActive([]byte(screenerHTML))
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "BRK-B", "PLTR"}, symbols)
}

func TestParseMostActiveEmpty(t *testing.T) {
	_, err := ParseMostActive([]byte(`<html><table><tbody></tbody></table></html>`))
	assert.ErrorIs(t, err, ErrNoData)
}

func TestUniverseWatchlist(t *testing.T) {
	u := NewUniverse(UniverseConfig{MaxSymbols: 5}, nil, nil, logger.Nop())

	symbols, err := u.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultWatchlist[:5], symbols)

	// the returned slice must not alias the default list
	symbols[0] = "ZZZ"
	assert.Equal(t, "AAPL", DefaultWatchlist[0])
}

func TestUniverseCustomWatchlist(t *testing.T) {
	u := NewUniverse(UniverseConfig{
		Source:    SourceWatchlist,
		Watchlist: []string{"AMD", "PLTR"},
	}, nil, nil, logger.Nop())

	symbols, err := u.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"AMD", "PLTR"}, symbols)
}

func TestUniverseMostActive(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(screenerHTML))
	}))
	defer server.Close()

	client := httputil.New(logger.Nop()).DisableRetry()
	u := NewUniverse(UniverseConfig{
		Source:      SourceMostActive,
		MaxSymbols:  2,
		ScreenerURL: server.URL,
	}, client, nil, logger.Nop())

	symbols, err := u.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "BRK-B"}, symbols)
}

func TestUniverseMostActiveFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := httputil.New(logger.Nop()).DisableRetry()
	u := NewUniverse(UniverseConfig{
		Source:      SourceMostActive,
		MaxSymbols:  50,
		ScreenerURL: server.URL,
	}, client, nil, logger.Nop())

	symbols, err := u.Symbols(context.Background())
	require.NoError(t, err)
	assert.Equal(t, DefaultWatchlist[:mostActiveFallback], symbols)
}

func TestUniverseUnknownSource(t *testing.T) {
	u := NewUniverse(UniverseConfig{Source: "sp500"}, nil, nil, logger.Nop())

	_, err := u.Symbols(context.Background())
	assert.Error(t, err)
}

package rates

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/the-spread-must-flow/internal/common"
)

func yahooServer(t *testing.T, prices map[string]float64) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		symbol := strings.TrimPrefix(r.URL.Path, "/")
		price, ok := prices[symbol]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			_, _ = fmt.Fprint(w, `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found"}}}`)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = fmt.Fprintf(w, `{"chart":{"result":[{"meta":{"currency":"X","symbol":%q,"regularMarketPrice":%v}}],"error":null}}`, symbol, price)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestYahooSource_FetchRates(t *testing.T) {
	srv := yahooServer(t, map[string]float64{
		"USDIDR=X": 16250,
		"USDRUB=X": 92.1,
		"IDRRUB=X": 0.00567,
	})
	src := NewYahooSource(WithYahooBaseURL(srv.URL))

	got, err := src.FetchRates(context.Background(), "IDR", "RUB")
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/IDR": 16250, "USD/RUB": 92.1, "IDR/RUB": 0.00567}, got)
	assert.Equal(t, "yahoo", src.Name())
}

func TestYahooSource_PartialResults(t *testing.T) {
	srv := yahooServer(t, map[string]float64{"USDTHB=X": 34.7})
	src := NewYahooSource(WithYahooBaseURL(srv.URL))

	got, err := src.FetchRates(context.Background(), "THB", "GEL")
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/THB": 34.7}, got)
}

func TestYahooSource_AllFail(t *testing.T) {
	srv := yahooServer(t, nil)
	src := NewYahooSource(WithYahooBaseURL(srv.URL))

	_, err := src.FetchRates(context.Background(), "IDR", "RUB")
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrRateSource)
	assert.ErrorIs(t, err, common.ErrNoRates)
}

func TestYahooSource_USDLeg(t *testing.T) {
	srv := yahooServer(t, map[string]float64{"USDRUB=X": 90})
	src := NewYahooSource(WithYahooBaseURL(srv.URL), WithYahooHTTPClient(srv.Client()))

	got, err := src.FetchRates(context.Background(), "USD", "RUB")
	require.NoError(t, err)
	assert.Equal(t, Table{"USD/RUB": 90}, got)
}

func TestYahooSource_CanceledContext(t *testing.T) {
	srv := yahooServer(t, map[string]float64{"USDRUB=X": 90})
	src := NewYahooSource(WithYahooBaseURL(srv.URL))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := src.FetchRates(ctx, "IDR", "RUB")
	assert.Error(t, err)
}

package tradingview

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"coinexbot/src/timeframes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyRating(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected Recommendation
	}{
		{"strong buy at threshold", 0.5, StrongBuy},
		{"strong buy above", 0.9, StrongBuy},
		{"buy at threshold", 0.1, Buy},
		{"buy below strong", 0.49, Buy},
		{"neutral zero", 0.0, Neutral},
		{"neutral upper edge", 0.09, Neutral},
		{"neutral lower edge", -0.09, Neutral},
		{"sell", -0.3, Sell},
		{"sell at boundary", -0.1, Sell},
		{"strong sell at threshold", -0.5, StrongSell},
		{"strong sell below", -1.0, StrongSell},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, classifyRating(tt.value))
		})
	}
}

func TestClient_GetSummary(t *testing.T) {
	t.Run("strong buy summary", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/crypto/scan", r.URL.Path)

			body, _ := io.ReadAll(r.Body)
			var req scanRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, []string{"COINEX:FOOUSDT"}, req.Symbols.Tickers)
			assert.Equal(t, []string{"Recommend.All|5", "Recommend.MA|5", "Recommend.Other|5"}, req.Columns)

			w.Write([]byte(`{"data":[{"s":"COINEX:FOOUSDT","d":[0.62,0.73,0.05]}],"totalCount":1}`))
		}))
		defer server.Close()

		client := NewClient("crypto", "COINEX", server.URL)
		summary, err := client.GetSummary(context.Background(), "FOOUSDT", timeframes.Timeframe5min)
		require.NoError(t, err)

		assert.Equal(t, StrongBuy, summary.Recommendation)
		assert.Equal(t, 2, summary.Buy)
		assert.Equal(t, 0, summary.Sell)
		assert.Equal(t, 1, summary.Neutral)
	})

	t.Run("daily interval has no suffix", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			body, _ := io.ReadAll(r.Body)
			var req scanRequest
			require.NoError(t, json.Unmarshal(body, &req))
			assert.Equal(t, []string{"Recommend.All", "Recommend.MA", "Recommend.Other"}, req.Columns)

			w.Write([]byte(`{"data":[{"s":"COINEX:BTCUSDT","d":[-0.2,-0.6,0.0]}],"totalCount":1}`))
		}))
		defer server.Close()

		client := NewClient("crypto", "COINEX", server.URL)
		summary, err := client.GetSummary(context.Background(), "BTCUSDT", timeframes.Timeframe1day)
		require.NoError(t, err)

		assert.Equal(t, Sell, summary.Recommendation)
		assert.Equal(t, 2, summary.Sell)
		assert.Equal(t, 1, summary.Neutral)
	})

	t.Run("unsupported timeframe", func(t *testing.T) {
		client := NewClient("crypto", "COINEX", "http://unused")
		_, err := client.GetSummary(context.Background(), "BTCUSDT", timeframes.Timeframe3min)
		assert.Error(t, err)
	})

	t.Run("no data for symbol", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"data":[],"totalCount":0}`))
		}))
		defer server.Close()

		client := NewClient("crypto", "COINEX", server.URL)
		_, err := client.GetSummary(context.Background(), "GONEUSDT", timeframes.Timeframe1hour)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no scanner data")
	})
}

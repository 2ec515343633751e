package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// stablecoins are always priced at 1.0 without a network call.
var stablecoins = map[string]bool{
	"USDC": true,
	"USDT": true,
	"DAI":  true,
}

// coinGeckoIDs maps token symbols to CoinGecko ids. WETH tracks ETH.
var coinGeckoIDs = map[string]string{
	"ETH":  "ethereum",
	"WETH": "ethereum",
	"WBTC": "wrapped-bitcoin",
}

// CoinGeckoClient fetches USD token prices from the CoinGecko simple-price
// endpoint.
type CoinGeckoClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewCoinGeckoClient creates a price client.
func NewCoinGeckoClient(baseURL string, timeout time.Duration, logger *zap.Logger) *CoinGeckoClient {
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("CoinGeckoClient"),
	}
}

// Price returns the USD price for a token symbol. Stablecoins and unknown
// symbols resolve to 1.0 without touching the network; only a failed remote
// call for a known symbol returns an error.
func (c *CoinGeckoClient) Price(ctx context.Context, symbol string) (float64, error) {
	symbol = strings.ToUpper(symbol)

	if stablecoins[symbol] {
		return 1.0, nil
	}

	id, ok := coinGeckoIDs[symbol]
	if !ok {
		c.logger.Warn("No CoinGecko id for symbol, defaulting to $1", zap.String("symbol", symbol))
		return 1.0, nil
	}

	reqURL := fmt.Sprintf("%s/simple/price?ids=%s&vs_currencies=usd", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build price request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch price for %s: %w", symbol, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("price API returned status %d for %s", resp.StatusCode, symbol)
	}

	var data map[string]struct {
		USD float64 `json:"usd"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return 0, fmt.Errorf("failed to decode price response: %w", err)
	}

	entry, ok := data[id]
	if !ok || entry.USD == 0 {
		c.logger.Warn("Price missing in response, defaulting to $1", zap.String("symbol", symbol))
		return 1.0, nil
	}

	return entry.USD, nil
}

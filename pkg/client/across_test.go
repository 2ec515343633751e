package client

import (
	"context"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"banny-bridge/pkg/apperrors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const suggestedFeesFixture = `{
	"estimatedFillTimeSec": 4,
	"timestamp": "1714000000",
	"isAmountTooLow": false,
	"quoteBlock": "19000000",
	"spokePoolAddress": "0x09aea4b2242abC8bb4BB78D537A67a245A7bEC64",
	"destinationSpokePoolAddress": "0xe35e9842fceaCA96570B734083f4a58e8F7C5f2A",
	"exclusiveRelayer": "0x0000000000000000000000000000000000000000",
	"exclusivityDeadline": 0,
	"fillDeadline": "1714010800",
	"outputAmount": "99750000",
	"totalRelayFee": {"pct": "2500000000000000", "total": "250000"},
	"relayerGasFee": {"pct": "1000000000000000", "total": "100000"},
	"relayerCapitalFee": {"pct": "1000000000000000", "total": "100000"},
	"lpFee": {"pct": "500000000000000", "total": "50000"},
	"limits": {
		"minDeposit": "1000000",
		"maxDeposit": "5000000000000",
		"maxDepositInstant": "250000000000",
		"maxDepositShortDelay": "1000000000000",
		"recommendedDepositInstant": "100000000000"
	}
}`

func TestGetSuggestedFees(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/suggested-fees", r.URL.Path)
		gotQuery = r.URL.RawQuery
		w.Write([]byte(suggestedFeesFixture))
	}))
	defer srv.Close()

	c := NewAcrossClient(srv.URL, time.Second, zap.NewNop())

	input := common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	output := common.HexToAddress("0xaf88d065e77c8cC2239327C5EDb3A432268e5831")
	quote, err := c.GetSuggestedFees(context.Background(), 8453, 42161, input, output, big.NewInt(100000000))
	require.NoError(t, err)

	assert.Equal(t, big.NewInt(99750000), quote.OutputAmount)
	assert.Equal(t, big.NewInt(250000), quote.TotalRelayFee.Total)
	assert.Equal(t, big.NewInt(100000), quote.RelayerGasFee.Total)
	require.NotNil(t, quote.LpFee)
	assert.Equal(t, big.NewInt(50000), quote.LpFee.Total)
	assert.Equal(t, uint32(1714000000), quote.Timestamp)
	assert.Equal(t, uint32(1714010800), quote.FillDeadline)
	assert.False(t, quote.IsAmountTooLow)
	assert.Equal(t, big.NewInt(1000000), quote.Limits.MinDeposit)

	assert.Contains(t, gotQuery, "originChainId=8453")
	assert.Contains(t, gotQuery, "destinationChainId=42161")
	assert.Contains(t, gotQuery, "amount=100000000")
}

func TestQuoteErrorClassification(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"unsupported route", 400, `{"message":"Unsupported route for these tokens"}`, apperrors.ErrRouteUnsupported},
		{"amount too low", 400, `{"message":"Sent amount is too low relative to fees"}`, apperrors.ErrAmountTooLow},
		{"invalid token", 400, `{"message":"Invalid token address on origin chain"}`, apperrors.ErrInvalidToken},
		{"generic failure", 500, `upstream exploded`, apperrors.ErrExternalServiceFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewAcrossClient(srv.URL, time.Second, zap.NewNop())
			_, err := c.GetSuggestedFees(context.Background(), 1, 10, common.Address{}, common.Address{}, big.NewInt(1))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestPriceStablecoinSkipsNetwork(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("stablecoin lookup must not reach the network")
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL, time.Second, zap.NewNop())

	for _, sym := range []string{"USDC", "usdt", "DAI"} {
		price, err := c.Price(context.Background(), sym)
		require.NoError(t, err)
		assert.Equal(t, 1.0, price)
	}
}

func TestPriceUnknownSymbolDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("unknown symbol must not reach the network")
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL, time.Second, zap.NewNop())
	price, err := c.Price(context.Background(), "DOGE")
	require.NoError(t, err)
	assert.Equal(t, 1.0, price)
}

func TestPriceFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "ids=ethereum")
		w.Write([]byte(`{"ethereum":{"usd":3150.42}}`))
	}))
	defer srv.Close()

	c := NewCoinGeckoClient(srv.URL, time.Second, zap.NewNop())

	price, err := c.Price(context.Background(), "ETH")
	require.NoError(t, err)
	assert.Equal(t, 3150.42, price)

	// WETH tracks the ETH price.
	price, err = c.Price(context.Background(), "WETH")
	require.NoError(t, err)
	assert.Equal(t, 3150.42, price)
}

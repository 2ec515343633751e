package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"banny-bridge/pkg/apperrors"
	"banny-bridge/pkg/types"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"
)

// AcrossClient talks to the Across suggested-fees API.
type AcrossClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewAcrossClient creates a quote client. The timeout bounds every request;
// a zero timeout disables the bound.
func NewAcrossClient(baseURL string, timeout time.Duration, logger *zap.Logger) *AcrossClient {
	return &AcrossClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.Named("AcrossClient"),
	}
}

// suggestedFeesResponse mirrors the wire shape of /suggested-fees.
type suggestedFeesResponse struct {
	EstimatedFillTimeSec int    `json:"estimatedFillTimeSec"`
	Timestamp            string `json:"timestamp"`
	IsAmountTooLow       bool   `json:"isAmountTooLow"`
	QuoteBlock           string `json:"quoteBlock"`
	SpokePoolAddress     string `json:"spokePoolAddress"`
	ExclusiveRelayer     string `json:"exclusiveRelayer"`
	ExclusivityDeadline  int64  `json:"exclusivityDeadline"`
	FillDeadline         string `json:"fillDeadline"`
	OutputAmount         string `json:"outputAmount"`

	TotalRelayFee     feeDTO  `json:"totalRelayFee"`
	RelayerGasFee     feeDTO  `json:"relayerGasFee"`
	RelayerCapitalFee feeDTO  `json:"relayerCapitalFee"`
	LpFee             *feeDTO `json:"lpFee"`

	DestinationSpokePoolAddress string `json:"destinationSpokePoolAddress"`

	Limits struct {
		MinDeposit                string `json:"minDeposit"`
		MaxDeposit                string `json:"maxDeposit"`
		MaxDepositInstant         string `json:"maxDepositInstant"`
		MaxDepositShortDelay      string `json:"maxDepositShortDelay"`
		RecommendedDepositInstant string `json:"recommendedDepositInstant"`
	} `json:"limits"`
}

type feeDTO struct {
	Pct   string `json:"pct"`
	Total string `json:"total"`
}

type apiError struct {
	Message string `json:"message"`
}

// GetSuggestedFees fetches a bridging quote for a route and raw input
// amount. Token addresses must already be wrapped-native substituted by the
// caller; this client sends exactly what it is given.
func (c *AcrossClient) GetSuggestedFees(ctx context.Context, originChainID, destinationChainID int64, inputToken, outputToken common.Address, amount *big.Int) (*types.Quote, error) {
	q := url.Values{}
	q.Set("inputToken", inputToken.Hex())
	q.Set("outputToken", outputToken.Hex())
	q.Set("originChainId", strconv.FormatInt(originChainID, 10))
	q.Set("destinationChainId", strconv.FormatInt(destinationChainID, 10))
	q.Set("amount", amount.String())

	reqURL := c.baseURL + "/suggested-fees?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build quote request: %w", err)
	}

	c.logger.Debug("Fetching quote",
		zap.Int64("originChainId", originChainID),
		zap.Int64("destinationChainId", destinationChainID),
		zap.String("amount", amount.String()),
	)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrExternalServiceFailure, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read quote response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyQuoteError(resp.StatusCode, body)
	}

	var dto suggestedFeesResponse
	if err := json.Unmarshal(body, &dto); err != nil {
		return nil, fmt.Errorf("failed to decode quote response: %w", err)
	}

	return dto.toQuote()
}

// classifyQuoteError maps the remote error text into the quote error
// taxonomy so the session can show a distinct message per cause.
func classifyQuoteError(status int, body []byte) error {
	msg := string(body)
	var apiErr apiError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Message != "" {
		msg = apiErr.Message
	}

	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "route") || strings.Contains(lower, "unsupported"):
		return fmt.Errorf("%w: %s", apperrors.ErrRouteUnsupported, msg)
	case strings.Contains(lower, "too low") || strings.Contains(lower, "minimum"):
		return fmt.Errorf("%w: %s", apperrors.ErrAmountTooLow, msg)
	case strings.Contains(lower, "invalid token") || strings.Contains(lower, "token address"):
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidToken, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", apperrors.ErrExternalServiceFailure, status, msg)
	}
}

func (d *suggestedFeesResponse) toQuote() (*types.Quote, error) {
	out, err := parseBig(d.OutputAmount, "outputAmount")
	if err != nil {
		return nil, err
	}

	totalFee, err := d.TotalRelayFee.toFee("totalRelayFee")
	if err != nil {
		return nil, err
	}
	gasFee, err := d.RelayerGasFee.toFee("relayerGasFee")
	if err != nil {
		return nil, err
	}
	capitalFee, err := d.RelayerCapitalFee.toFee("relayerCapitalFee")
	if err != nil {
		return nil, err
	}

	var lpFee *types.Fee
	if d.LpFee != nil {
		f, err := d.LpFee.toFee("lpFee")
		if err != nil {
			return nil, err
		}
		lpFee = &f
	}

	timestamp, err := parseUint32(d.Timestamp, "timestamp")
	if err != nil {
		return nil, err
	}
	fillDeadline, err := parseUint32(d.FillDeadline, "fillDeadline")
	if err != nil {
		return nil, err
	}

	quoteBlock, _ := strconv.ParseUint(d.QuoteBlock, 10, 64)

	return &types.Quote{
		OutputAmount:      out,
		TotalRelayFee:     totalFee,
		RelayerGasFee:     gasFee,
		RelayerCapitalFee: capitalFee,
		LpFee:             lpFee,

		Timestamp:           timestamp,
		FillDeadline:        fillDeadline,
		ExclusivityDeadline: uint32(d.ExclusivityDeadline),
		ExclusiveRelayer:    common.HexToAddress(d.ExclusiveRelayer),

		IsAmountTooLow: d.IsAmountTooLow,

		SpokePoolAddress:            common.HexToAddress(d.SpokePoolAddress),
		DestinationSpokePoolAddress: common.HexToAddress(d.DestinationSpokePoolAddress),

		EstimatedFillTimeSec: d.EstimatedFillTimeSec,
		QuoteBlock:           quoteBlock,
		Limits: types.DepositLimits{
			MinDeposit:                parseBigOrNil(d.Limits.MinDeposit),
			MaxDeposit:                parseBigOrNil(d.Limits.MaxDeposit),
			MaxDepositInstant:         parseBigOrNil(d.Limits.MaxDepositInstant),
			MaxDepositShortDelay:      parseBigOrNil(d.Limits.MaxDepositShortDelay),
			RecommendedDepositInstant: parseBigOrNil(d.Limits.RecommendedDepositInstant),
		},
	}, nil
}

func (f feeDTO) toFee(field string) (types.Fee, error) {
	pct, err := parseBig(f.Pct, field+".pct")
	if err != nil {
		return types.Fee{}, err
	}
	total, err := parseBig(f.Total, field+".total")
	if err != nil {
		return types.Fee{}, err
	}
	return types.Fee{Pct: pct, Total: total}, nil
}

func parseBig(s, field string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("quote response: invalid %s %q", field, s)
	}
	return v, nil
}

func parseBigOrNil(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil
	}
	return v
}

func parseUint32(s, field string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("quote response: invalid %s %q: %w", field, s, err)
	}
	return uint32(v), nil
}

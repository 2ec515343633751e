package cmd

import (
	"fmt"

	"go.uber.org/zap"

	"banny-bridge/config"
	"banny-bridge/pkg/bridge"
	"banny-bridge/pkg/client"
	"banny-bridge/pkg/evm"
	"banny-bridge/pkg/logger"
	"banny-bridge/pkg/pricecache"
	"banny-bridge/pkg/registry"
	"banny-bridge/pkg/types"
	"banny-bridge/pkg/wallet"
)

// app bundles the collaborators every command wires up from configuration.
type app struct {
	cfg    *config.Config
	log    *zap.Logger
	reg    *registry.Registry
	across *client.AcrossClient
	prices *pricecache.Cache
}

func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, err
	}

	reg, err := registry.New(cfg.IncludeTestnets)
	if err != nil {
		return nil, err
	}

	gecko := client.NewCoinGeckoClient(cfg.CoinGeckoAPIURL, cfg.RequestTimeout, log)

	return &app{
		cfg:    cfg,
		log:    log,
		reg:    reg,
		across: client.NewAcrossClient(cfg.AcrossAPIURL, cfg.RequestTimeout, log),
		prices: pricecache.New(gecko, log),
	}, nil
}

// newWalletSession builds a session backed by the configured private key.
// Commands that submit transactions go through here; read-only commands use
// the clients on app directly.
func (a *app) newWalletSession(from, to bridge.Selection) (*bridge.Session, *wallet.KeyWallet, error) {
	if a.cfg.PrivateKey == "" {
		return nil, nil, fmt.Errorf("no private key configured: set BANNY_BRIDGE_PRIVATE_KEY or private_key in .banny-bridge.yaml")
	}

	rpcs := make(map[int64]string)
	for _, n := range a.cfg.Networks {
		if n.RPCUrl != "" {
			rpcs[n.ChainID] = n.RPCUrl
		}
	}

	w, err := wallet.NewKeyWallet(a.cfg.PrivateKey, rpcs, a.log)
	if err != nil {
		return nil, nil, err
	}

	session := bridge.NewSession(bridge.Collaborators{
		Registry:  a.reg,
		Quotes:    a.across,
		Prices:    a.prices,
		Reader:    evm.NewReader(w, a.log),
		Submitter: evm.NewSubmitter(w, a.log),
		Wallet:    w,
	}, from, to, a.log)

	return session, w, nil
}

// resolveRoute turns a parsed request into concrete selections, applying the
// configured defaults for chains the user left out.
func (a *app) resolveRoute(req *types.BridgeRequest) (from, to bridge.Selection, err error) {
	fromChain, ok := a.chainFor(req.FromChain, a.cfg.DefaultFromChainID)
	if !ok {
		return from, to, fmt.Errorf("unknown source chain: %s", req.FromChain)
	}
	toChain, ok := a.chainFor(req.ToChain, a.cfg.DefaultToChainID)
	if !ok {
		return from, to, fmt.Errorf("unknown destination chain: %s", req.ToChain)
	}

	fromToken, ok := a.reg.Token(fromChain.ID, req.TokenSymbol)
	if !ok {
		return from, to, fmt.Errorf("token %s is not available on %s", req.TokenSymbol, fromChain.Name)
	}
	toToken, ok := a.reg.Token(toChain.ID, req.ToTokenSymbol)
	if !ok {
		return from, to, fmt.Errorf("token %s is not available on %s", req.ToTokenSymbol, toChain.Name)
	}

	if !registry.RouteAvailable(fromToken, toToken) {
		return from, to, fmt.Errorf("cannot bridge %s on %s to %s on %s",
			fromToken.Symbol, fromChain.Name, toToken.Symbol, toChain.Name)
	}

	return bridge.Selection{Chain: fromChain, Token: fromToken},
		bridge.Selection{Chain: toChain, Token: toToken}, nil
}

func (a *app) chainFor(name string, defaultID int64) (registry.Chain, bool) {
	if name == "" {
		return a.reg.Chain(defaultID)
	}
	return a.reg.ChainByName(name)
}

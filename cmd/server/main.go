package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"guardswap/internal/infrastructure/erc20"
	"guardswap/internal/infrastructure/ethereum"
	"guardswap/internal/infrastructure/guard"
	"guardswap/internal/infrastructure/market"
	"guardswap/internal/infrastructure/wallet"
	httppresentation "guardswap/internal/presentation/http"
	"guardswap/internal/shared/config"
	"guardswap/internal/shared/logger"
	"guardswap/internal/shared/utils"
	"guardswap/internal/usecases"

	"github.com/ethereum/go-ethereum/common"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

func main() {
	log := logger.NewLogger()
	defer log.Sync()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	if !utils.IsAddress(strings.ToLower(cfg.Blockchain.GuardAddress)) {
		log.Fatal("Invalid guard contract address", zap.String("address", cfg.Blockchain.GuardAddress))
	}
	guardAddress := common.HexToAddress(cfg.Blockchain.GuardAddress)

	ethClient, err := ethereum.NewEthereumClient(cfg.Blockchain.EthereumRPCURL, cfg.Blockchain.ConnectionPoolSize, log)
	if err != nil {
		log.Fatal("Failed to create Ethereum connection pool", zap.Error(err))
	}
	defer ethClient.Close()

	// The wallet provider is optional: without it the data endpoints keep
	// working and swap attempts fail with NO_WALLET_FOUND.
	var provider wallet.Provider
	if cfg.Blockchain.WalletRPCURL != "" {
		rpcProvider, err := wallet.NewRPCProvider(cfg.Blockchain.WalletRPCURL, log)
		if err != nil {
			log.Fatal("Failed to connect wallet provider", zap.Error(err))
		}
		defer rpcProvider.Close()
		provider = rpcProvider
	} else {
		log.Warn("No wallet provider configured, swaps disabled")
	}

	chainParams := wallet.ChainParams{
		ChainID:   wallet.ChainIDHex(cfg.Blockchain.ChainID),
		ChainName: cfg.Blockchain.ChainName,
		RPCURLs:   []string{cfg.Blockchain.EthereumRPCURL},
		NativeCurrency: wallet.NativeCurrency{
			Name:     cfg.Blockchain.NativeSymbol,
			Symbol:   cfg.Blockchain.NativeSymbol,
			Decimals: 18,
		},
		BlockExplorerURLs: []string{cfg.Blockchain.ExplorerWebURL},
	}
	sessionManager := wallet.NewManager(provider, cfg.Blockchain.ChainID, chainParams, log)

	erc20Client, err := erc20.NewERC20Client(ethClient, provider, log)
	if err != nil {
		log.Fatal("Failed to create ERC-20 client", zap.Error(err))
	}

	guardClient, err := guard.NewGuardClient(guardAddress, ethClient, provider, log)
	if err != nil {
		log.Fatal("Failed to create guard client", zap.Error(err))
	}

	marketClient := market.NewClient(cfg.Sources, log)

	tokenService := usecases.NewTokenService(marketClient, log)
	quoteService := usecases.NewQuoteService(marketClient, erc20Client, cfg.Swap.FeePct, log)
	swapService := usecases.NewSwapService(
		sessionManager, erc20Client, guardClient, quoteService,
		guardAddress, cfg.Blockchain.ExplorerWebURL, log)

	handler := httppresentation.NewHandler(tokenService, quoteService, swapService, marketClient, log, cfg)

	router := setupRouter(handler, log)

	server := &fasthttp.Server{
		Handler: router,
	}

	serverError := make(chan error, 1)
	go func() {
		log.Info("Starting server", zap.String("address", cfg.Server.Address))
		if err := server.ListenAndServe(cfg.Server.Address); err != nil {
			serverError <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	healthCheckDone := make(chan struct{})
	go func() {
		defer close(healthCheckDone)
		ticker := time.NewTicker(cfg.Server.HealthCheckPeriod)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				health := ethClient.CheckConnectionsHealth(ctx)
				cancel()

				healthyCount := 0
				for _, isHealthy := range health {
					if isHealthy {
						healthyCount++
					}
				}

				log.Info("Ethereum connection pool health check",
					zap.Int("healthy", healthyCount),
					zap.Int("total", ethClient.GetConnectionCount()),
					zap.Float64("health_percentage", float64(healthyCount)/float64(ethClient.GetConnectionCount())*100))
			case <-quit:
				log.Info("Health check goroutine stopping")
				return
			}
		}
	}()

	select {
	case <-quit:
		log.Info("Received shutdown signal, starting graceful shutdown")
	case err := <-serverError:
		log.Error("Server error occurred", zap.Error(err))
		log.Info("Starting graceful shutdown due to server error")
	}

	log.Info("Stopping server from accepting new connections")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", zap.Error(err))
	} else {
		log.Info("Server shutdown completed successfully")
	}

	log.Info("Waiting for health check goroutine to finish")
	select {
	case <-healthCheckDone:
		log.Info("Health check goroutine finished")
	case <-time.After(5 * time.Second):
		log.Warn("Health check goroutine did not finish within timeout")
	}

	log.Info("Closing Ethereum connection pool")
	if err := ethClient.Close(); err != nil {
		log.Error("Error closing Ethereum connection pool", zap.Error(err))
	}
}

func setupRouter(handler *httppresentation.Handler, logger *zap.Logger) fasthttp.RequestHandler {
	routes := func(ctx *fasthttp.RequestCtx) {
		path := string(ctx.Path())

		switch {
		case path == "/api/tokens":
			handler.Tokens(ctx)
		case strings.HasPrefix(path, "/api/market/"):
			handler.Market(ctx)
		case strings.HasPrefix(path, "/api/pools/"):
			handler.Pools(ctx)
		case strings.HasPrefix(path, "/api/token/"):
			handler.TokenInfo(ctx)
		case path == "/api/wallet":
			handler.WalletHoldings(ctx)
		case path == "/quote":
			handler.Quote(ctx)
		case path == "/swap":
			handler.Swap(ctx)
		case path == "/swap/status":
			handler.SwapStatus(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
			ctx.SetBodyString("Not Found")
		}
	}

	return httppresentation.ApplyMiddleware(routes, logger, handler)
}

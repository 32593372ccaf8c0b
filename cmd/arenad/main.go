package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"arenachain/config"
	"arenachain/core"
	"arenachain/core/events"
	"arenachain/core/types"
	"arenachain/native/battle"
	"arenachain/native/oracle"
	"arenachain/observability"
	"arenachain/observability/logging"
	"arenachain/rpc"
	"arenachain/storage"
)

const shutdownGrace = 10 * time.Second

// slogEmitter publishes engine events as structured log lines and feeds the
// operation counters. Downstream indexers tail the log stream.
type slogEmitter struct {
	logger *slog.Logger
}

func (e slogEmitter) Emit(evt events.Event) {
	if evt == nil {
		return
	}
	eventType := evt.EventType()
	engine := eventType
	if idx := strings.IndexByte(eventType, '.'); idx > 0 {
		engine = eventType[:idx]
	}
	observability.EngineMetrics().RecordOperation(engine, eventType)

	attrs := []any{"event", eventType}
	if carrier, ok := evt.(interface{ Event() *types.Event }); ok {
		if payload := carrier.Event(); payload != nil {
			for key, value := range payload.Attributes {
				attrs = append(attrs, key, value)
			}
		}
	}
	e.logger.Info("engine event", attrs...)
}

var genesisMarkerKey = []byte("genesis/applied")

// applyGenesis mints the configured balances exactly once per data directory.
func applyGenesis(db storage.Database, node *core.Node, accounts []config.GenesisAccount, logger *slog.Logger) error {
	applied, err := db.Has(genesisMarkerKey)
	if err != nil {
		return err
	}
	if applied {
		return nil
	}
	for _, account := range accounts {
		addr, err := types.ParseAddress(account.Address)
		if err != nil {
			return err
		}
		if err := node.Credit(addr, account.Balance); err != nil {
			return err
		}
		logger.Info("genesis credit", "address", account.Address, "balance", account.Balance)
	}
	return db.Put(genesisMarkerKey, []byte{1})
}

// bootstrapBattles initializes the battle platform from the configured
// authority and treasury. A platform initialized on a previous boot is left
// untouched.
func bootstrapBattles(node *core.Node, cfg *config.Config, logger *slog.Logger) error {
	if strings.TrimSpace(cfg.Authority) == "" || strings.TrimSpace(cfg.Treasury) == "" {
		return nil
	}
	authority, err := cfg.AuthorityAddress()
	if err != nil {
		return err
	}
	treasury, err := cfg.TreasuryAddress()
	if err != nil {
		return err
	}
	if _, err := node.BattleInitialize(authority, treasury); err != nil {
		if errors.Is(err, battle.ErrAlreadyInitialized) {
			return nil
		}
		return err
	}
	logger.Info("battle platform initialized", "authority", cfg.Authority, "treasury", cfg.Treasury)
	return nil
}

func main() {
	configPath := flag.String("config", "./config.toml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	logger := logging.Setup("arenad", cfg.Env)
	logger.Info("starting", "network", cfg.NetworkName, "dataDir", cfg.DataDir, "rpc", cfg.RPCAddress)

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		logger.Error("open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	node := core.NewNode(db)
	node.SetEmitter(slogEmitter{logger: logger})

	feeds := oracle.NewAggregator(nil, oracle.MaxPriceAgeSecs*time.Second)
	feeds.Register("manual", oracle.NewManualFeed())
	if strings.TrimSpace(cfg.OracleURL) != "" {
		feeds.Register("http", oracle.NewHTTPFeed(nil, cfg.OracleURL, cfg.OracleAPIKey))
	}
	node.SetPriceFeed(feeds)

	if err := applyGenesis(db, node, cfg.Genesis, logger); err != nil {
		logger.Error("apply genesis", "error", err)
		os.Exit(1)
	}
	if err := bootstrapBattles(node, cfg, logger); err != nil {
		logger.Error("bootstrap battles", "error", err)
		os.Exit(1)
	}

	server := rpc.NewServer(node, logger, rpc.Options{
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})

	httpServer := &http.Server{
		Addr:              cfg.RPCAddress,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("rpc listening", "address", cfg.RPCAddress)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		logger.Error("rpc server", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	logger.Info("stopped")
}

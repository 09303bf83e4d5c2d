// Command steleth-geth runs a go-ethereum node with the provider-backed
// precompiles injected into its EVM, so blocks execute against the same
// crypto stack the zkVM guest uses.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/log"

	"github.com/steleth/steleth/crypto"
)

var (
	version = "v0.1.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("steleth-geth", flag.ContinueOnError)

	datadir := fs.String("datadir", defaultDataDir(), "Data directory for the node")
	network := fs.String("network", "mainnet", "Network to join (mainnet, sepolia, holesky)")
	p2pPort := fs.Int("port", 30303, "P2P listening port")
	httpPort := fs.Int("http.port", 8545, "HTTP-RPC server port")
	authPort := fs.Int("authrpc.port", 8551, "Engine API (authenticated RPC) port")
	jwtSecret := fs.String("authrpc.jwtsecret", "", "Path to JWT secret for Engine API auth")
	syncMode := fs.String("syncmode", "snap", "Sync mode: full, snap")
	maxPeers := fs.Int("maxpeers", 50, "Maximum number of P2P peers")
	verbosity := fs.Int("verbosity", 3, "Log level 0-5 (0=silent, 5=trace)")
	showVersion := fs.Bool("version", false, "Print version and exit")

	// Fork override flags for testing precompile activation.
	pragueOverride := fs.Uint64("override.prague", 0, "Override Prague fork timestamp (testing only)")
	osakaOverride := fs.Uint64("override.osaka", 0, "Override Osaka fork timestamp (testing only)")

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}

	if *showVersion {
		fmt.Printf("steleth-geth %s (commit %s)\n", version, commit)
		return 0
	}

	setupLogging(*verbosity)

	log.Info("Starting steleth-geth",
		"version", version,
		"network", *network,
		"datadir", *datadir,
		"syncmode", *syncMode,
	)

	cfg := &stelethGethConfig{
		Node: mapNodeConfig(*datadir, "steleth-geth", *p2pPort, *httpPort, *authPort, *maxPeers, *jwtSecret, *network),
		Eth:  mapEthConfig(*network, *syncMode),
	}
	if cfg.Node.JWTSecret == "" {
		cfg.Node.JWTSecret = filepath.Join(*datadir, "jwtsecret")
	}

	var pragueTime, osakaTime *uint64
	if *pragueOverride > 0 {
		pragueTime = pragueOverride
		log.Info("Prague fork override set", "timestamp", *pragueTime)
	}
	if *osakaOverride > 0 {
		osakaTime = osakaOverride
		log.Info("Osaka fork override set", "timestamp", *osakaTime)
	}
	injector := newPrecompileInjector(crypto.Installed(), pragueTime, osakaTime)
	_ = injector // wired into the EVM per block via InjectIntoEVM

	stack, _ := makeFullNode(cfg)

	log.Info("Node created, starting sync",
		"p2p.port", *p2pPort,
		"http.port", *httpPort,
		"engine.port", *authPort,
		"maxpeers", *maxPeers,
	)

	startAndWait(stack)

	log.Info("Shutdown complete")
	return 0
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".steleth-geth"
	}
	return filepath.Join(home, ".steleth-geth")
}

func setupLogging(verbosity int) {
	var lvl slog.Level
	switch {
	case verbosity <= 1:
		lvl = slog.LevelError
	case verbosity == 2:
		lvl = slog.LevelWarn
	case verbosity == 3:
		lvl = slog.LevelInfo
	case verbosity == 4:
		lvl = slog.LevelDebug
	default:
		lvl = log.LevelTrace
	}
	log.SetDefault(log.NewLogger(log.NewTerminalHandlerWithLevel(os.Stderr, lvl, true)))
}

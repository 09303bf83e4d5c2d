package main

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core"
	"github.com/ethereum/go-ethereum/eth/ethconfig"
	gethnode "github.com/ethereum/go-ethereum/node"
	"github.com/ethereum/go-ethereum/p2p"
	"github.com/ethereum/go-ethereum/p2p/enode"
	"github.com/ethereum/go-ethereum/params"
)

// stelethGethConfig holds the go-ethereum node and eth service configuration.
type stelethGethConfig struct {
	Node gethnode.Config
	Eth  ethconfig.Config
}

// mapNodeConfig creates a go-ethereum node.Config from CLI parameters.
func mapNodeConfig(datadir, name string, p2pPort, httpPort, authPort, maxPeers int, jwtSecret, network string) gethnode.Config {
	return gethnode.Config{
		Name:             name,
		Version:          version,
		DataDir:          datadir,
		HTTPPort:         httpPort,
		HTTPModules:      []string{"eth", "net", "web3", "txpool", "engine", "admin", "debug"},
		HTTPVirtualHosts: []string{"localhost"},
		AuthPort:         authPort,
		JWTSecret:        jwtSecret,
		P2P: p2p.Config{
			ListenAddr:       fmt.Sprintf(":%d", p2pPort),
			MaxPeers:         maxPeers,
			BootstrapNodes:   parseBootnodes(network),
			BootstrapNodesV5: parseBootnodes(network),
		},
	}
}

// parseBootnodes returns the go-ethereum bootstrap nodes for the network.
func parseBootnodes(network string) []*enode.Node {
	var urls []string
	switch network {
	case "sepolia":
		urls = params.SepoliaBootnodes
	case "holesky":
		urls = params.HoleskyBootnodes
	default:
		urls = params.MainnetBootnodes
	}
	nodes := make([]*enode.Node, 0, len(urls))
	for _, url := range urls {
		n, err := enode.Parse(enode.ValidSchemes, url)
		if err == nil {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// mapEthConfig creates a go-ethereum ethconfig.Config for the network.
func mapEthConfig(network, syncMode string) ethconfig.Config {
	cfg := ethconfig.Defaults

	switch syncMode {
	case "full":
		cfg.SyncMode = ethconfig.FullSync
	default:
		cfg.SyncMode = ethconfig.SnapSync
	}

	switch network {
	case "sepolia":
		cfg.Genesis = core.DefaultSepoliaGenesisBlock()
		cfg.NetworkId = 11155111
	case "holesky":
		cfg.Genesis = core.DefaultHoleskyGenesisBlock()
		cfg.NetworkId = 17000
	default:
		cfg.Genesis = core.DefaultGenesisBlock()
		cfg.NetworkId = 1
	}

	return cfg
}

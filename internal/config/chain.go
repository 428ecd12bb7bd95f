package config

import (
	"fmt"
	"strings"
)

const (
	NetworkMainnet  = "mainnet"
	NetworkTestnet  = "testnet"
	NetworkDevnet   = "devnet"
	NetworkLocalnet = "localnet"
)

// Network defines endpoints and defaults for talking to a Sui full node.
type Network struct {
	Name      string `yaml:"name"`    // mainnet|testnet|devnet|localnet
	RPCURL    string `yaml:"rpc_url"` // empty = public full node for Name
	WSURL     string `yaml:"ws_url"`
	GasBudget uint64 `yaml:"gas_budget"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

var fullnodes = map[string]string{
	NetworkMainnet:  "https://fullnode.mainnet.sui.io:443",
	NetworkTestnet:  "https://fullnode.testnet.sui.io:443",
	NetworkDevnet:   "https://fullnode.devnet.sui.io:443",
	NetworkLocalnet: "http://127.0.0.1:9000",
}

// NormalizeNetwork maps aliases onto canonical network names; empty means testnet.
func NormalizeNetwork(network string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(network)) {
	case "", "test", NetworkTestnet:
		return NetworkTestnet, nil
	case "main", NetworkMainnet:
		return NetworkMainnet, nil
	case "dev", NetworkDevnet:
		return NetworkDevnet, nil
	case "local", NetworkLocalnet:
		return NetworkLocalnet, nil
	default:
		return "", fmt.Errorf("unsupported network %q", network)
	}
}

// Endpoint returns the configured RPC URL or the public full node for the network.
func (n Network) Endpoint() (string, error) {
	if n.RPCURL != "" {
		return strings.TrimRight(n.RPCURL, "/"), nil
	}
	name, err := NormalizeNetwork(n.Name)
	if err != nil {
		return "", err
	}
	return fullnodes[name], nil
}

// WebsocketEndpoint returns WSURL or derives it from the RPC endpoint.
func (n Network) WebsocketEndpoint() (string, error) {
	if n.WSURL != "" {
		return n.WSURL, nil
	}
	rpcURL, err := n.Endpoint()
	if err != nil {
		return "", err
	}
	switch {
	case strings.HasPrefix(rpcURL, "https://"):
		return "wss://" + strings.TrimPrefix(rpcURL, "https://"), nil
	case strings.HasPrefix(rpcURL, "http://"):
		return "ws://" + strings.TrimPrefix(rpcURL, "http://"), nil
	}
	return "", fmt.Errorf("cannot derive websocket url from %q", rpcURL)
}

package solana

import "strings"

// Environment is the RPC endpoint of a well known cluster.
type Environment string

const (
	EnvironmentLocal Environment = "http://127.0.0.1:8899"
	EnvironmentDev   Environment = "https://api.devnet.solana.com"
	EnvironmentTest  Environment = "https://api.testnet.solana.com"
	EnvironmentProd  Environment = "https://api.mainnet-beta.solana.com"
)

var environmentsByName = map[string]Environment{
	"local":        EnvironmentLocal,
	"localhost":    EnvironmentLocal,
	"devnet":       EnvironmentDev,
	"testnet":      EnvironmentTest,
	"mainnet":      EnvironmentProd,
	"mainnet-beta": EnvironmentProd,
}

// EnvironmentFromName resolves a cluster moniker such as "devnet" to its
// endpoint. Names are case insensitive.
func EnvironmentFromName(name string) (Environment, bool) {
	env, ok := environmentsByName[strings.ToLower(name)]
	return env, ok
}

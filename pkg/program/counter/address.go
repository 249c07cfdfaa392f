package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-program/pkg/solana"
)

var CounterPrefix = []byte("counter")

type GetCounterAddressArgs struct {
	Program   ed25519.PublicKey
	Authority ed25519.PublicKey
}

// GetCounterAddress derives the state account of the counter owned by an
// authority.
func GetCounterAddress(args *GetCounterAddressArgs) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		args.Program,
		CounterPrefix,
		args.Authority,
	)
}

func createCounterAddress(programID, authority ed25519.PublicKey, bump uint8) (ed25519.PublicKey, error) {
	return solana.CreateProgramAddress(
		programID,
		CounterPrefix,
		authority,
		[]byte{bump},
	)
}

package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Mirror copies the source count into the destination. Passing the same
// account as source and destination is allowed and leaves it unchanged.
type Mirror struct{}

func (Mirror) Tag() Tag {
	return TagMirror
}

func (Mirror) requirements() []program.AccountRequirement {
	return []program.AccountRequirement{
		{Name: "source", Owned: true},
		{Name: "destination", Writable: true, Owned: true},
		{Name: "authority", Signer: true},
	}
}

type MirrorInstructionAccounts struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
}

func NewMirrorInstruction(
	programID ed25519.PublicKey,
	accounts *MirrorInstructionAccounts,
) solana.Instruction {
	return newInstruction(programID, Mirror{}, accounts.Source, accounts.Destination, accounts.Authority)
}

func processMirror(ctx *instructionContext, _ Mirror) error {
	source, destination, authority := ctx.accounts[0], ctx.accounts[1], ctx.accounts[2]

	// Read everything from the source before touching the destination, which
	// may be the same account.
	var sourceState CounterState
	if err := sourceState.Unmarshal(source.Data); err != nil {
		return err
	}
	count := sourceState.Count

	destinationState, err := loadAuthorizedState(destination, authority)
	if err != nil {
		return err
	}

	destinationState.Count = count
	if err := destinationState.MarshalInto(destination.Data); err != nil {
		return err
	}

	ctx.log.WithField("destination", destination.String()).Debugf("mirrored count %d", count)
	return nil
}

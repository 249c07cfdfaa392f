package counter

import (
	"bytes"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Initialize writes a fresh counter state into the authority's counter
// account, which must already be allocated and owned by the program.
type Initialize struct {
	Bump  uint8
	Start uint64
}

func (Initialize) Tag() Tag {
	return TagInitialize
}

func (Initialize) requirements() []program.AccountRequirement {
	return []program.AccountRequirement{
		{Name: "counter", Writable: true, Owned: true, Unique: true},
		{Name: "authority", Signer: true},
	}
}

type InitializeInstructionAccounts struct {
	Counter   ed25519.PublicKey
	Authority ed25519.PublicKey
}

func NewInitializeInstruction(
	programID ed25519.PublicKey,
	accounts *InitializeInstructionAccounts,
	args *Initialize,
) solana.Instruction {
	return newInstruction(programID, *args, accounts.Counter, accounts.Authority)
}

func processInitialize(ctx *instructionContext, args Initialize) error {
	counter, authority := ctx.accounts[0], ctx.accounts[1]

	if len(counter.Data) < CounterAccountSize {
		return errors.Wrapf(ErrAccountDataTooSmall, "counter data is %d bytes", len(counter.Data))
	}
	if IsInitialized(counter.Data) {
		return ErrAlreadyInitialized
	}

	expected, err := createCounterAddress(ctx.programID, authority.Key, args.Bump)
	if err != nil {
		return errors.Wrapf(ErrInvalidSeeds, "bump %d: %v", args.Bump, err)
	}
	if !bytes.Equal(expected, counter.Key) {
		return errors.Wrapf(ErrInvalidSeeds, "counter %s is not derived from authority", counter)
	}

	state := &CounterState{
		Version: CounterStateVersion1,
		Bump:    args.Bump,
		Count:   args.Start,
	}
	copy(state.Authority[:], authority.Key)

	if err := state.MarshalInto(counter.Data); err != nil {
		return err
	}

	ctx.log.WithField("counter", counter.String()).Debugf("initialized counter at %d", args.Start)
	return nil
}

package counter

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Move takes Amount from the source count and adds it to the destination
// count. Source and destination must be distinct accounts.
type Move struct {
	Amount uint64
}

func (Move) Tag() Tag {
	return TagMove
}

func (Move) requirements() []program.AccountRequirement {
	return []program.AccountRequirement{
		{Name: "source", Writable: true, Owned: true, Unique: true},
		{Name: "destination", Writable: true, Owned: true, Unique: true},
		{Name: "authority", Signer: true},
	}
}

type MoveInstructionAccounts struct {
	Source      ed25519.PublicKey
	Destination ed25519.PublicKey
	Authority   ed25519.PublicKey
}

func NewMoveInstruction(
	programID ed25519.PublicKey,
	accounts *MoveInstructionAccounts,
	args *Move,
) solana.Instruction {
	return newInstruction(programID, *args, accounts.Source, accounts.Destination, accounts.Authority)
}

func processMove(ctx *instructionContext, args Move) error {
	source, destination, authority := ctx.accounts[0], ctx.accounts[1], ctx.accounts[2]

	sourceState, err := loadAuthorizedState(source, authority)
	if err != nil {
		return err
	}

	var destinationState CounterState
	if err := destinationState.Unmarshal(destination.Data); err != nil {
		return err
	}

	if sourceState.Count < args.Amount {
		return errors.Wrapf(ErrInsufficientCount, "%d < %d", sourceState.Count, args.Amount)
	}
	if destinationState.Count > math.MaxUint64-args.Amount {
		return errors.Wrapf(ErrArithmeticOverflow, "%d + %d", destinationState.Count, args.Amount)
	}

	sourceState.Count -= args.Amount
	destinationState.Count += args.Amount

	if err := sourceState.MarshalInto(source.Data); err != nil {
		return err
	}
	if err := destinationState.MarshalInto(destination.Data); err != nil {
		return err
	}

	ctx.log.WithField("source", source.String()).
		WithField("destination", destination.String()).
		Debugf("moved %d", args.Amount)
	return nil
}

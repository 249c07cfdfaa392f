package counter

import (
	"crypto/ed25519"
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Increment adds Amount to a counter.
type Increment struct {
	Amount uint64
}

func (Increment) Tag() Tag {
	return TagIncrement
}

func (Increment) requirements() []program.AccountRequirement {
	return []program.AccountRequirement{
		{Name: "counter", Writable: true, Owned: true},
		{Name: "authority", Signer: true},
	}
}

type IncrementInstructionAccounts struct {
	Counter   ed25519.PublicKey
	Authority ed25519.PublicKey
}

func NewIncrementInstruction(
	programID ed25519.PublicKey,
	accounts *IncrementInstructionAccounts,
	args *Increment,
) solana.Instruction {
	return newInstruction(programID, *args, accounts.Counter, accounts.Authority)
}

func processIncrement(ctx *instructionContext, args Increment) error {
	counter, authority := ctx.accounts[0], ctx.accounts[1]

	state, err := loadAuthorizedState(counter, authority)
	if err != nil {
		return err
	}

	if state.Count > math.MaxUint64-args.Amount {
		return errors.Wrapf(ErrArithmeticOverflow, "%d + %d", state.Count, args.Amount)
	}
	state.Count += args.Amount

	if err := state.MarshalInto(counter.Data); err != nil {
		return err
	}

	ctx.log.WithField("counter", counter.String()).Debugf("count is now %d", state.Count)
	return nil
}

// loadAuthorizedState decodes a counter and checks that authority controls
// it.
func loadAuthorizedState(counter, authority *program.AccountInfo) (*CounterState, error) {
	var state CounterState
	if err := state.Unmarshal(counter.Data); err != nil {
		return nil, err
	}
	if !state.HasAuthority(authority.Key) {
		return nil, errors.Wrapf(ErrInvalidAuthority, "%s does not control %s", authority, counter)
	}
	return &state, nil
}

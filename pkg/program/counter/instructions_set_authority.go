package counter

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// SetAuthority hands control of a counter to NewAuthority. The counter keeps
// its address and bump.
type SetAuthority struct {
	NewAuthority [32]byte
}

func (SetAuthority) Tag() Tag {
	return TagSetAuthority
}

func (SetAuthority) requirements() []program.AccountRequirement {
	return []program.AccountRequirement{
		{Name: "counter", Writable: true, Owned: true},
		{Name: "authority", Signer: true},
	}
}

type SetAuthorityInstructionAccounts struct {
	Counter   ed25519.PublicKey
	Authority ed25519.PublicKey
}

type SetAuthorityInstructionArgs struct {
	NewAuthority ed25519.PublicKey
}

func NewSetAuthorityInstruction(
	programID ed25519.PublicKey,
	accounts *SetAuthorityInstructionAccounts,
	args *SetAuthorityInstructionArgs,
) solana.Instruction {
	var ix SetAuthority
	copy(ix.NewAuthority[:], args.NewAuthority)

	return newInstruction(programID, ix, accounts.Counter, accounts.Authority)
}

func processSetAuthority(ctx *instructionContext, args SetAuthority) error {
	counter, authority := ctx.accounts[0], ctx.accounts[1]

	state, err := loadAuthorizedState(counter, authority)
	if err != nil {
		return err
	}

	state.Authority = args.NewAuthority
	if err := state.MarshalInto(counter.Data); err != nil {
		return err
	}

	ctx.log.WithField("counter", counter.String()).Debugf("authority is now %s", base58.Encode(args.NewAuthority[:]))
	return nil
}

package counter

import (
	"crypto/ed25519"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Noop does nothing and takes no accounts.
type Noop struct{}

func (Noop) Tag() Tag {
	return TagNoop
}

func (Noop) requirements() []program.AccountRequirement {
	return nil
}

func NewNoopInstruction(programID ed25519.PublicKey) solana.Instruction {
	return newInstruction(programID, Noop{})
}

func processNoop(_ *instructionContext, _ Noop) error {
	return nil
}

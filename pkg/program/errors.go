package program

import (
	"fmt"

	"github.com/code-payments/code-program/pkg/solana"
)

// Error is the numeric result code a program returns to its host. The code is
// the value the host observes; names and keys are informational.
type Error uint32

// CustomErrorBase is the first code available to program specific handler
// errors.
const CustomErrorBase Error = 0x1770

const (
	ErrMalformedInstruction Error = iota + 1
	ErrNotEnoughAccounts
	ErrMissingRequiredSignature
	ErrAccountNotWritable
	ErrIncorrectProgramOwner
	ErrDuplicateAccount
	ErrInvalidProgramID
)

var errorNames = map[Error]string{
	ErrMalformedInstruction:     "MalformedInstruction",
	ErrNotEnoughAccounts:        "NotEnoughAccounts",
	ErrMissingRequiredSignature: "MissingRequiredSignature",
	ErrAccountNotWritable:       "AccountNotWritable",
	ErrIncorrectProgramOwner:    "IncorrectProgramOwner",
	ErrDuplicateAccount:         "DuplicateAccount",
	ErrInvalidProgramID:         "InvalidProgramID",
}

var errorKeys = map[Error]solana.InstructionErrorKey{
	ErrMalformedInstruction:     solana.InstructionErrorInvalidInstructionData,
	ErrNotEnoughAccounts:        solana.InstructionErrorNotEnoughAccountKeys,
	ErrMissingRequiredSignature: solana.InstructionErrorMissingRequiredSignature,
	ErrAccountNotWritable:       solana.InstructionErrorInvalidArgument,
	ErrIncorrectProgramOwner:    solana.InstructionErrorIncorrectProgramID,
	ErrDuplicateAccount:         solana.InstructionErrorDuplicateAccountIndex,
	ErrInvalidProgramID:         solana.InstructionErrorIncorrectProgramID,
}

func (e Error) Error() string {
	return fmt.Sprintf("program error 0x%x: %s", uint32(e), e.Name())
}

// Name returns the name of a core code. Program specific codes are named by
// the program that defines them.
func (e Error) Name() string {
	if name, ok := errorNames[e]; ok {
		return name
	}
	if e >= CustomErrorBase {
		return fmt.Sprintf("Custom(%d)", uint32(e-CustomErrorBase))
	}
	return "Unknown"
}

// Key returns the closest native instruction error key.
func (e Error) Key() solana.InstructionErrorKey {
	if key, ok := errorKeys[e]; ok {
		return key
	}
	return solana.InstructionErrorCustom
}

// CustomError returns the code as the host visible custom error.
func (e Error) CustomError() solana.CustomError {
	return solana.CustomError(e)
}

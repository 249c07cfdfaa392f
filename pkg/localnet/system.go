package localnet

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
	"github.com/code-payments/code-program/pkg/solana/system"
)

// System program custom errors.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/program/src/system_instruction.rs#L22
const (
	SystemErrorAccountAlreadyInUse solana.CustomError = iota
	SystemErrorResultWithNegativeLamports
	SystemErrorInvalidProgramID
	SystemErrorInvalidAccountDataLength
)

// MaxPermittedDataLength bounds the size of a created account.
const MaxPermittedDataLength = 10 * 1024 * 1024

// nativeError is an instruction failure reported by a builtin or by runtime
// enforcement.
type nativeError solana.InstructionErrorKey

func (e nativeError) Error() string {
	return string(e)
}

func processSystem(accounts []*program.AccountInfo, data []byte) error {
	cmd, err := system.CommandOf(data)
	if err != nil {
		return nativeError(solana.InstructionErrorInvalidInstructionData)
	}

	switch cmd {
	case system.CommandCreateAccount:
		args, err := system.ParseCreateAccountData(data)
		if err != nil {
			return nativeError(solana.InstructionErrorInvalidInstructionData)
		}
		return processCreateAccount(accounts, args)
	case system.CommandTransfer:
		lamports, err := system.ParseTransferData(data)
		if err != nil {
			return nativeError(solana.InstructionErrorInvalidInstructionData)
		}
		return processTransfer(accounts, lamports)
	default:
		return nativeError(solana.InstructionErrorInvalidInstructionData)
	}
}

func processCreateAccount(accounts []*program.AccountInfo, args *system.CreateAccountArgs) error {
	if len(accounts) < 2 {
		return nativeError(solana.InstructionErrorNotEnoughAccountKeys)
	}
	funder, created := accounts[0], accounts[1]

	if !funder.IsSigner || !created.IsSigner {
		return nativeError(solana.InstructionErrorMissingRequiredSignature)
	}
	if created.Lamports > 0 || len(created.Data) > 0 || !bytes.Equal(created.Owner, system.ProgramKey) {
		return errors.Wrapf(SystemErrorAccountAlreadyInUse, "account %s already in use", created)
	}
	if args.Size > MaxPermittedDataLength {
		return errors.Wrapf(SystemErrorInvalidAccountDataLength, "size %d", args.Size)
	}
	if funder == created {
		return nativeError(solana.InstructionErrorInvalidArgument)
	}
	if funder.Lamports < args.Lamports {
		return errors.Wrapf(SystemErrorResultWithNegativeLamports, "funder has %d, needs %d", funder.Lamports, args.Lamports)
	}

	funder.Lamports -= args.Lamports
	created.Lamports = args.Lamports
	created.Data = make([]byte, args.Size)
	created.Owner = args.Owner
	return nil
}

func processTransfer(accounts []*program.AccountInfo, lamports uint64) error {
	if len(accounts) < 2 {
		return nativeError(solana.InstructionErrorNotEnoughAccountKeys)
	}
	from, to := accounts[0], accounts[1]

	if !from.IsSigner {
		return nativeError(solana.InstructionErrorMissingRequiredSignature)
	}
	if len(from.Data) > 0 {
		return nativeError(solana.InstructionErrorInvalidArgument)
	}
	if from.Lamports < lamports {
		return errors.Wrapf(SystemErrorResultWithNegativeLamports, "from has %d, needs %d", from.Lamports, lamports)
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	return nil
}

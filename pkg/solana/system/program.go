package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/solana"
)

// 11111111111111111111111111111111
var ProgramKey = make(ed25519.PublicKey, ed25519.PublicKeySize)

type Command uint32

const (
	CommandCreateAccount Command = iota
	CommandAssign
	CommandTransfer
)

const (
	createAccountDataSize = 4 + 8 + 8 + ed25519.PublicKeySize
	transferDataSize      = 4 + 8
)

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L58-L72
func CreateAccount(funder, address, owner ed25519.PublicKey, lamports, size uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE, SIGNER] New account
	data := make([]byte, createAccountDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandCreateAccount))
	binary.LittleEndian.PutUint64(data[4:], lamports)
	binary.LittleEndian.PutUint64(data[4+8:], size)
	copy(data[4+2*8:], owner)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(funder, true),
		solana.NewAccountMeta(address, true),
	)
}

// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L82-L87
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	// # Account references
	//   0. [WRITE, SIGNER] Funding account
	//   1. [WRITE] Recipient account
	data := make([]byte, transferDataSize)
	binary.LittleEndian.PutUint32(data, uint32(CommandTransfer))
	binary.LittleEndian.PutUint64(data[4:], lamports)

	return solana.NewInstruction(
		ProgramKey,
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

// CreateAccountArgs is the data of a CreateAccount instruction.
type CreateAccountArgs struct {
	Lamports uint64
	Size     uint64
	Owner    ed25519.PublicKey
}

// CommandOf returns the command of raw system instruction data.
func CommandOf(data []byte) (Command, error) {
	if len(data) < 4 {
		return 0, solana.ErrIncorrectInstruction
	}
	return Command(binary.LittleEndian.Uint32(data)), nil
}

// ParseCreateAccountData decodes raw CreateAccount instruction data.
func ParseCreateAccountData(data []byte) (*CreateAccountArgs, error) {
	if cmd, err := CommandOf(data); err != nil || cmd != CommandCreateAccount {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(data) != createAccountDataSize {
		return nil, errors.Errorf("invalid instruction data size: %d", len(data))
	}

	args := &CreateAccountArgs{
		Lamports: binary.LittleEndian.Uint64(data[4:]),
		Size:     binary.LittleEndian.Uint64(data[4+8:]),
		Owner:    make(ed25519.PublicKey, ed25519.PublicKeySize),
	}
	copy(args.Owner, data[4+2*8:])
	return args, nil
}

// ParseTransferData decodes raw Transfer instruction data into lamports.
func ParseTransferData(data []byte) (uint64, error) {
	if cmd, err := CommandOf(data); err != nil || cmd != CommandTransfer {
		return 0, solana.ErrIncorrectInstruction
	}
	if len(data) != transferDataSize {
		return 0, errors.Errorf("invalid instruction data size: %d", len(data))
	}
	return binary.LittleEndian.Uint64(data[4:]), nil
}

type DecompiledCreateAccount struct {
	Funder  ed25519.PublicKey
	Address ed25519.PublicKey

	CreateAccountArgs
}

func DecompileCreateAccount(m solana.Message, index int) (*DecompiledCreateAccount, error) {
	i, err := systemInstruction(m, index, 2)
	if err != nil {
		return nil, err
	}

	args, err := ParseCreateAccountData(i.Data)
	if err != nil {
		return nil, err
	}

	return &DecompiledCreateAccount{
		Funder:            m.Accounts[i.Accounts[0]],
		Address:           m.Accounts[i.Accounts[1]],
		CreateAccountArgs: *args,
	}, nil
}

type DecompiledTransfer struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

func DecompileTransfer(m solana.Message, index int) (*DecompiledTransfer, error) {
	i, err := systemInstruction(m, index, 2)
	if err != nil {
		return nil, err
	}

	lamports, err := ParseTransferData(i.Data)
	if err != nil {
		return nil, err
	}

	return &DecompiledTransfer{
		From:     m.Accounts[i.Accounts[0]],
		To:       m.Accounts[i.Accounts[1]],
		Lamports: lamports,
	}, nil
}

func systemInstruction(m solana.Message, index, accounts int) (solana.CompiledInstruction, error) {
	if index >= len(m.Instructions) {
		return solana.CompiledInstruction{}, errors.Errorf("instruction doesn't exist at %d", index)
	}

	i := m.Instructions[index]
	if !bytes.Equal(m.Accounts[i.ProgramIndex], ProgramKey) {
		return i, solana.ErrIncorrectProgram
	}
	if len(i.Accounts) != accounts {
		return i, errors.Errorf("invalid number of accounts: %d", len(i.Accounts))
	}
	return i, nil
}

package compute_budget

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/solana"
)

// ComputeBudget111111111111111111111111111111
var ProgramKey = ed25519.PublicKey{3, 6, 70, 111, 229, 33, 23, 50, 255, 236, 173, 186, 114, 195, 155, 231, 188, 140, 229, 187, 197, 247, 18, 107, 44, 67, 155, 58, 64, 0, 0, 0}

type Command uint8

const (
	CommandRequestUnits Command = iota
	CommandRequestHeapFrame
	CommandSetComputeUnitLimit
	CommandSetComputeUnitPrice
)

var ErrInvalidLength = errors.New("invalid length")

func SetComputeUnitLimit(computeUnitLimit uint32) solana.Instruction {
	data := make([]byte, 1+4)
	data[0] = byte(CommandSetComputeUnitLimit)
	binary.LittleEndian.PutUint32(data[1:], computeUnitLimit)

	return solana.NewInstruction(ProgramKey, data)
}

func SetComputeUnitPrice(computeUnitPrice uint64) solana.Instruction {
	data := make([]byte, 1+8)
	data[0] = byte(CommandSetComputeUnitPrice)
	binary.LittleEndian.PutUint64(data[1:], computeUnitPrice)

	return solana.NewInstruction(ProgramKey, data)
}

// CommandOf returns the command of raw compute budget instruction data.
func CommandOf(data []byte) (Command, error) {
	if len(data) == 0 {
		return 0, ErrInvalidLength
	}
	return Command(data[0]), nil
}

func ParseSetComputeUnitLimitIxnData(data []byte) (uint32, error) {
	if len(data) != 5 {
		return 0, ErrInvalidLength
	}
	if Command(data[0]) != CommandSetComputeUnitLimit {
		return 0, solana.ErrIncorrectInstruction
	}

	return binary.LittleEndian.Uint32(data[1:]), nil
}

func ParseSetComputeUnitPriceIxnData(data []byte) (uint64, error) {
	if len(data) != 9 {
		return 0, ErrInvalidLength
	}
	if Command(data[0]) != CommandSetComputeUnitPrice {
		return 0, solana.ErrIncorrectInstruction
	}

	return binary.LittleEndian.Uint64(data[1:]), nil
}

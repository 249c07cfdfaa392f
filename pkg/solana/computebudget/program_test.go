package compute_budget

import (
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-program/pkg/solana"
)

func TestProgramKey(t *testing.T) {
	assert.Equal(t, "ComputeBudget111111111111111111111111111111", base58.Encode(ProgramKey))
}

func TestSetComputeUnitLimit(t *testing.T) {
	ixn := SetComputeUnitLimit(300_000)
	assert.EqualValues(t, ProgramKey, ixn.Program)
	assert.Empty(t, ixn.Accounts)

	cmd, err := CommandOf(ixn.Data)
	require.NoError(t, err)
	assert.Equal(t, CommandSetComputeUnitLimit, cmd)

	limit, err := ParseSetComputeUnitLimitIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 300_000, limit)

	_, err = ParseSetComputeUnitLimitIxnData(ixn.Data[:4])
	assert.Equal(t, ErrInvalidLength, err)

	_, err = ParseSetComputeUnitPriceIxnData(ixn.Data)
	assert.Equal(t, ErrInvalidLength, err)
}

func TestSetComputeUnitPrice(t *testing.T) {
	ixn := SetComputeUnitPrice(1_000)

	price, err := ParseSetComputeUnitPriceIxnData(ixn.Data)
	require.NoError(t, err)
	assert.EqualValues(t, 1_000, price)

	ixn.Data[0] = byte(CommandRequestUnits)
	_, err = ParseSetComputeUnitPriceIxnData(ixn.Data)
	assert.Equal(t, solana.ErrIncorrectInstruction, err)

	_, err = CommandOf(nil)
	assert.Equal(t, ErrInvalidLength, err)
}

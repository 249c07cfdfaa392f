package counter

import (
	"crypto/ed25519"
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
	"github.com/code-payments/code-program/pkg/testutil"
)

func allVariants() []Instruction {
	var authority [32]byte
	for i := range authority {
		authority[i] = byte(i)
	}

	return []Instruction{
		Noop{},
		Initialize{Bump: 254, Start: 10},
		Initialize{},
		Increment{Amount: 1},
		Increment{Amount: ^uint64(0)},
		SetAuthority{NewAuthority: authority},
		Move{Amount: 42},
		Mirror{},
	}
}

func TestEncode_Layout(t *testing.T) {
	data, err := Encode(Noop{})
	require.NoError(t, err)
	assert.Equal(t, []byte{0}, data)

	data, err = Encode(Initialize{Bump: 7, Start: 0x0102})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 7, 0x02, 0x01, 0, 0, 0, 0, 0, 0}, data)

	data, err = Encode(Increment{Amount: 5})
	require.NoError(t, err)
	assert.Equal(t, []byte{2, 5, 0, 0, 0, 0, 0, 0, 0}, data)

	data, err = Encode(SetAuthority{})
	require.NoError(t, err)
	assert.Equal(t, append([]byte{3}, make([]byte, 32)...), data)

	data, err = Encode(Move{Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{4, 1, 0, 0, 0, 0, 0, 0, 0}, data)

	data, err = Encode(Mirror{})
	require.NoError(t, err)
	assert.Equal(t, []byte{5}, data)

	_, err = Encode(nil)
	assert.Error(t, err)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	for _, ix := range allVariants() {
		data, err := Encode(ix)
		require.NoError(t, err)

		decoded, err := Decode(data)
		require.NoError(t, err, ix.Tag().String())
		assert.Equal(t, ix, decoded)
	}
}

func TestEncodeDecode_RoundTripFuzzed(t *testing.T) {
	f := fuzz.New().NilChance(0)

	for i := 0; i < 200; i++ {
		var (
			initialize   Initialize
			increment    Increment
			setAuthority SetAuthority
			move         Move
		)
		f.Fuzz(&initialize)
		f.Fuzz(&increment)
		f.Fuzz(&setAuthority)
		f.Fuzz(&move)

		for _, ix := range []Instruction{initialize, increment, setAuthority, move} {
			data, err := Encode(ix)
			require.NoError(t, err)

			decoded, err := Decode(data)
			require.NoError(t, err)
			assert.Equal(t, ix, decoded)
		}
	}
}

func TestDecode_Malformed(t *testing.T) {
	assertMalformed := func(data []byte) {
		ix, err := Decode(data)
		assert.Nil(t, ix, "%x", data)
		assert.Equal(t, program.ErrMalformedInstruction, errors.Cause(err), "%x", data)
	}

	assertMalformed(nil)
	assertMalformed([]byte{})
	assertMalformed([]byte{6})
	assertMalformed([]byte{0xff, 1, 2, 3})

	for _, ix := range allVariants() {
		data, err := Encode(ix)
		require.NoError(t, err)

		// Every strict prefix of a non-empty body is truncated.
		for i := 1; i < len(data); i++ {
			assertMalformed(data[:i])
		}

		// Trailing bytes are not canonical.
		assertMalformed(append(append([]byte{}, data...), 0))
	}
}

func TestDecode_NeverPanics(t *testing.T) {
	f := fuzz.New().NilChance(0).NumElements(0, 64)

	for i := 0; i < 2000; i++ {
		var data []byte
		f.Fuzz(&data)
		if len(data) > 0 {
			// Bias towards known tags to reach the body decoders.
			data[0] %= 8
		}

		assert.NotPanics(t, func() {
			ix, err := Decode(data)
			if err != nil {
				assert.Nil(t, ix)
				assert.Equal(t, program.ErrMalformedInstruction, errors.Cause(err))
				return
			}

			reencoded, err := Encode(ix)
			assert.NoError(t, err)
			assert.Equal(t, data, reencoded)
		})
	}
}

func TestTag_String(t *testing.T) {
	assert.Equal(t, "noop", TagNoop.String())
	assert.Equal(t, "set_authority", TagSetAuthority.String())
	assert.Equal(t, "mirror", TagMirror.String())
	assert.Equal(t, "unknown(9)", Tag(9).String())
}

func TestInstructionBuilders(t *testing.T) {
	programID := testutil.GenerateSolanaKeys(t, 1)[0]
	keys := testutil.GenerateSolanaKeys(t, 3)

	var newAuthority [32]byte
	copy(newAuthority[:], keys[2])

	for _, tc := range []struct {
		ixn      Instruction
		expected []ed25519.PublicKey
	}{
		{
			ixn:      Noop{},
			expected: nil,
		},
		{
			ixn:      Initialize{Bump: 3, Start: 9},
			expected: keys[:2],
		},
		{
			ixn:      Increment{Amount: 2},
			expected: keys[:2],
		},
		{
			ixn:      SetAuthority{NewAuthority: newAuthority},
			expected: keys[:2],
		},
		{
			ixn:      Move{Amount: 4},
			expected: keys,
		},
		{
			ixn:      Mirror{},
			expected: keys,
		},
	} {
		built := build(programID, tc.ixn, keys)
		assert.EqualValues(t, programID, built.Program)

		data, err := Encode(tc.ixn)
		require.NoError(t, err)
		assert.Equal(t, data, built.Data)

		reqs := Requirements(tc.ixn)
		require.Len(t, built.Accounts, len(reqs))
		for i, req := range reqs {
			assert.EqualValues(t, tc.expected[i], built.Accounts[i].PublicKey)
			assert.Equal(t, req.Signer, built.Accounts[i].IsSigner, req.Name)
			assert.Equal(t, req.Writable, built.Accounts[i].IsWritable, req.Name)
		}
	}
}

func build(programID ed25519.PublicKey, ixn Instruction, keys []ed25519.PublicKey) solana.Instruction {
	switch v := ixn.(type) {
	case Noop:
		return NewNoopInstruction(programID)
	case Initialize:
		return NewInitializeInstruction(programID, &InitializeInstructionAccounts{
			Counter:   keys[0],
			Authority: keys[1],
		}, &v)
	case Increment:
		return NewIncrementInstruction(programID, &IncrementInstructionAccounts{
			Counter:   keys[0],
			Authority: keys[1],
		}, &v)
	case SetAuthority:
		return NewSetAuthorityInstruction(programID, &SetAuthorityInstructionAccounts{
			Counter:   keys[0],
			Authority: keys[1],
		}, &SetAuthorityInstructionArgs{
			NewAuthority: v.NewAuthority[:],
		})
	case Move:
		return NewMoveInstruction(programID, &MoveInstructionAccounts{
			Source:      keys[0],
			Destination: keys[1],
			Authority:   keys[2],
		}, &v)
	case Mirror:
		return NewMirrorInstruction(programID, &MirrorInstructionAccounts{
			Source:      keys[0],
			Destination: keys[1],
			Authority:   keys[2],
		})
	}
	panic("unreachable")
}

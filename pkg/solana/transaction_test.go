package solana

import (
	"bytes"
	"crypto/ed25519"
	"encoding/base64"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Generated by the Solana SDK: https://github.com/solana-labs/solana/blob/14339dec0a960e8161d1165b6a8e5cfb73e78f23/sdk/src/transaction.rs#L523
const rustGeneratedAdjusted = "ATMfBMZ8phHEheLph8K9TJhRKhnE4qNZvWiXdUdJRmlTCRsQjWmW2CkQJeRHBCcsqFm2gynjL40M9mTe0Dxp4QIBAAEDfEya6wnC7f3Cv53qnOEywwIJ928rIdqAlfXYI1adXroBAQEEBQYHCAkJCQkJCQkJCQkJCQkJCQkIBwYFBAEBAQICAgQFBgcICQEBAQEBAQEBAQEBAQEBCQgHBgUEAgICAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAABAgIAAQMBAgM="

func TestTransaction_CrossImpl(t *testing.T) {
	keypair := ed25519.NewKeyFromSeed([]byte{48, 83, 2, 1, 1, 48, 5, 6, 3, 43, 101, 112, 4, 34, 4, 32, 255, 101, 36, 24, 124, 23,
		167, 21, 132, 204, 155, 5, 185, 58, 121, 75})
	programID := ed25519.PublicKey{2, 2, 2, 4, 5, 6, 7, 8, 9, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 9, 8, 7, 6, 5, 4,
		2, 2, 2}
	to := ed25519.PublicKey{1, 1, 1, 4, 5, 6, 7, 8, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 8, 7, 6, 5, 4, 1, 1, 1}

	tx := NewTransaction(
		public(keypair),
		NewInstruction(
			programID,
			[]byte{1, 2, 3},
			NewAccountMeta(public(keypair), true),
			NewAccountMeta(to, false),
		),
	)
	require.NoError(t, tx.Sign(keypair))
	assert.Equal(t, rustGeneratedAdjusted, base64.StdEncoding.EncodeToString(tx.Marshal()))
	assert.NoError(t, tx.VerifySignatures())

	var decoded Transaction
	require.NoError(t, decoded.Unmarshal(tx.Marshal()))
	assert.Equal(t, tx.Marshal(), decoded.Marshal())
	assert.NoError(t, decoded.VerifySignatures())
}

func TestTransaction_Permissions(t *testing.T) {
	keys := generateKeys(t, 6)
	sort.Slice(keys[1:5], func(i, j int) bool {
		return bytes.Compare(public(keys[1+i]), public(keys[1+j])) < 0
	})
	payer, program := keys[0], keys[5]

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			[]byte{1},
			NewReadonlyAccountMeta(public(keys[1]), true),
			NewReadonlyAccountMeta(public(keys[2]), false),
			NewAccountMeta(public(keys[3]), false),
			NewAccountMeta(public(keys[4]), true),
		),
	)

	require.Len(t, tx.Message.Accounts, 6)
	assert.EqualValues(t, 3, tx.Message.Header.NumSignatures)
	assert.EqualValues(t, 1, tx.Message.Header.NumReadonlySigned)
	assert.EqualValues(t, 2, tx.Message.Header.NumReadOnly)

	expected := []struct {
		key      ed25519.PublicKey
		signer   bool
		writable bool
	}{
		{public(payer), true, true},
		{public(keys[4]), true, true},
		{public(keys[1]), true, false},
		{public(keys[3]), false, true},
		{public(keys[2]), false, false},
		{public(program), false, false},
	}
	for i, e := range expected {
		assert.Equal(t, e.key, tx.Message.Accounts[i], i)
		assert.Equal(t, e.signer, tx.Message.IsSigner(i), i)
		assert.Equal(t, e.writable, tx.Message.IsWritable(i), i)
	}
	assert.False(t, tx.Message.IsSigner(6))
	assert.False(t, tx.Message.IsWritable(6))
	assert.Equal(t, public(payer), tx.Message.Payer())

	assert.EqualValues(t, 5, tx.Message.Instructions[0].ProgramIndex)
	assert.Equal(t, []byte{2, 4, 3, 1}, tx.Message.Instructions[0].Accounts)
}

func TestTransaction_DuplicateReferencesShareIndex(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, program, account := keys[0], keys[1], keys[2]

	tx := NewTransaction(
		public(payer),
		NewInstruction(
			public(program),
			nil,
			NewReadonlyAccountMeta(public(account), false),
			NewAccountMeta(public(account), false),
			NewReadonlyAccountMeta(public(payer), true),
		),
	)

	require.Len(t, tx.Message.Accounts, 3)
	accounts := tx.Message.Instructions[0].Accounts
	assert.Equal(t, accounts[0], accounts[1])
	assert.EqualValues(t, 0, accounts[2])
	assert.True(t, tx.Message.IsWritable(int(accounts[0])))
}

func TestTransaction_Signatures(t *testing.T) {
	keys := generateKeys(t, 3)
	payer, program, other := keys[0], keys[1], keys[2]

	tx := NewTransaction(
		public(payer),
		NewInstruction(public(program), []byte{1, 2, 3}, NewAccountMeta(public(other), true)),
	)

	assert.ErrorIs(t, tx.VerifySignatures(), ErrInvalidSignature)

	require.NoError(t, tx.Sign(other, payer))
	assert.NoError(t, tx.VerifySignatures())

	tx.Message.Instructions[0].Data[0] = 9
	assert.ErrorIs(t, tx.VerifySignatures(), ErrInvalidSignature)

	assert.Error(t, tx.Sign(program))
}

func TestTransaction_UnmarshalInvalid(t *testing.T) {
	keys := generateKeys(t, 2)
	newTx := func() Transaction {
		return NewTransaction(
			public(keys[0]),
			NewInstruction(public(keys[1]), nil, NewAccountMeta(public(keys[0]), true)),
		)
	}

	tx := newTx()
	tx.Message.Instructions[0].ProgramIndex = 2
	assert.Error(t, tx.Unmarshal(tx.Marshal()))

	tx = newTx()
	tx.Message.Instructions[0].Accounts = []byte{2}
	assert.Error(t, tx.Unmarshal(tx.Marshal()))

	tx = newTx()
	encoded := tx.Marshal()
	for i := 0; i < len(encoded); i++ {
		var decoded Transaction
		assert.Error(t, decoded.Unmarshal(encoded[:i]), i)
	}

	var decoded Transaction
	assert.Error(t, decoded.Message.Unmarshal([]byte{0x80, 1, 0, 0}))
}

func TestCompactLen(t *testing.T) {
	for _, tc := range []struct {
		n       int
		encoded []byte
	}{
		{0, []byte{0}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x80, 0x01}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x80, 0x80, 0x01}},
		{0xffff, []byte{0xff, 0xff, 0x03}},
	} {
		var buf bytes.Buffer
		writeCompactLen(&buf, tc.n)
		assert.Equal(t, tc.encoded, buf.Bytes())

		actual, err := readCompactLen(bytes.NewReader(tc.encoded))
		require.NoError(t, err)
		assert.Equal(t, tc.n, actual)
	}

	_, err := readCompactLen(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x01}))
	assert.Error(t, err)
	_, err = readCompactLen(bytes.NewReader([]byte{0x80}))
	assert.Error(t, err)
}

func public(priv ed25519.PrivateKey) ed25519.PublicKey {
	return priv.Public().(ed25519.PublicKey)
}

func generateKeys(t *testing.T, amount int) []ed25519.PrivateKey {
	keys := make([]ed25519.PrivateKey, amount)
	for i := range keys {
		_, priv, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = priv
	}
	return keys
}

package localnet

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana/system"
)

var (
	// NativeLoaderKey owns the builtin programs.
	NativeLoaderKey = mustDecodeKey("NativeLoader1111111111111111111111111111111")

	// LoaderKey owns programs registered with the bank.
	LoaderKey = mustDecodeKey("BPFLoaderUpgradeab1e11111111111111111111111")
)

// Account is the stored state of an account. Keys live in the bank index.
type Account struct {
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// emptyAccount is the state of an address nothing has been stored at.
func emptyAccount() *Account {
	return &Account{
		Owner: system.ProgramKey,
	}
}

func (a *Account) Clone() *Account {
	cloned := &Account{
		Owner:      append(ed25519.PublicKey(nil), a.Owner...),
		Lamports:   a.Lamports,
		Executable: a.Executable,
	}
	if a.Data != nil {
		cloned.Data = append([]byte{}, a.Data...)
	}
	return cloned
}

func (a *Account) isEmpty() bool {
	return a.Lamports == 0 && len(a.Data) == 0 && !a.Executable
}

func (a *Account) Equal(other *Account) bool {
	return bytes.Equal(a.Owner, other.Owner) &&
		a.Lamports == other.Lamports &&
		bytes.Equal(a.Data, other.Data) &&
		a.Executable == other.Executable
}

func (a *Account) String() string {
	return fmt.Sprintf(
		"Account{Owner=%s,Lamports=%d,DataLen=%d,Executable=%v}",
		base58.Encode(a.Owner),
		a.Lamports,
		len(a.Data),
		a.Executable,
	)
}

// toInfo returns the runtime view of a at key. The info owns copies of the
// account's owner and data.
func (a *Account) toInfo(key ed25519.PublicKey, isSigner, isWritable bool) *program.AccountInfo {
	return (&program.AccountInfo{
		Key:        key,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Owner:      a.Owner,
		Lamports:   a.Lamports,
		Data:       a.Data,
		Executable: a.Executable,
	}).Clone()
}

func fromInfo(info *program.AccountInfo) *Account {
	return (&Account{
		Owner:      info.Owner,
		Lamports:   info.Lamports,
		Data:       info.Data,
		Executable: info.Executable,
	}).Clone()
}

func mustDecodeKey(s string) ed25519.PublicKey {
	key, err := base58.Decode(s)
	if err != nil || len(key) != ed25519.PublicKeySize {
		panic(fmt.Sprintf("invalid key %s", s))
	}
	return key
}

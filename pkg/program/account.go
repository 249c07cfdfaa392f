package program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// AccountInfo is the host's view of an account passed to a program. Hosts
// pass the same pointer for every reference to the same account within an
// instruction, so mutations through one reference are visible through the
// others.
type AccountInfo struct {
	Key        ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
	Owner      ed25519.PublicKey
	Lamports   uint64
	Data       []byte
	Executable bool
}

// IsOwnedBy reports whether program owns the account.
func (a *AccountInfo) IsOwnedBy(program ed25519.PublicKey) bool {
	return bytes.Equal(a.Owner, program)
}

// Clone returns a deep copy of the account.
func (a *AccountInfo) Clone() *AccountInfo {
	cloned := *a
	cloned.Key = append(ed25519.PublicKey(nil), a.Key...)
	cloned.Owner = append(ed25519.PublicKey(nil), a.Owner...)
	cloned.Data = append([]byte(nil), a.Data...)
	return &cloned
}

func (a *AccountInfo) String() string {
	return base58.Encode(a.Key)
}

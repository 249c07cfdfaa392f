package program

import (
	"bytes"
	"crypto/ed25519"
)

// AccountRequirement constrains the account at the same position in the
// account list of an instruction.
type AccountRequirement struct {
	Name string

	Signer   bool
	Writable bool
	// Owned requires the account to be owned by the executing program.
	Owned bool
	// Unique requires the account not to alias any other required account.
	Unique bool
}

// ValidateProgramID checks the id the host invoked the program with.
func ValidateProgramID(programID ed25519.PublicKey) error {
	if len(programID) != ed25519.PublicKeySize {
		return ErrInvalidProgramID
	}
	return nil
}

// ValidateAccounts checks accounts against reqs, one requirement at a time in
// order, and returns the first failure. For each requirement the checks run
// as presence, signer, writable, owner, then uniqueness. Accounts beyond
// len(reqs) are not inspected. ValidateAccounts never modifies an account.
func ValidateAccounts(programID ed25519.PublicKey, accounts []*AccountInfo, reqs []AccountRequirement) error {
	for i, req := range reqs {
		if i >= len(accounts) || accounts[i] == nil {
			return ErrNotEnoughAccounts
		}

		account := accounts[i]
		if req.Signer && !account.IsSigner {
			return ErrMissingRequiredSignature
		}
		if req.Writable && !account.IsWritable {
			return ErrAccountNotWritable
		}
		if req.Owned && !account.IsOwnedBy(programID) {
			return ErrIncorrectProgramOwner
		}
		if req.Unique && aliases(accounts, len(reqs), i) {
			return ErrDuplicateAccount
		}
	}
	return nil
}

// aliases reports whether accounts[i] shares its key with any other account
// among the first n.
func aliases(accounts []*AccountInfo, n, i int) bool {
	if n > len(accounts) {
		n = len(accounts)
	}
	for j := 0; j < n; j++ {
		if j == i || accounts[j] == nil {
			continue
		}
		if accounts[j] == accounts[i] || bytes.Equal(accounts[j].Key, accounts[i].Key) {
			return true
		}
	}
	return false
}

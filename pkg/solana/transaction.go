package solana

import (
	"bytes"
	"crypto/ed25519"
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

const (
	// MaxTransactionSize taken from: https://github.com/solana-labs/solana/blob/39b3ac6a8d29e14faa1de73d8b46d390ad41797b/sdk/src/packet.rs#L9-L13
	MaxTransactionSize = 1232
)

var ErrInvalidSignature = errors.New("invalid transaction signature")

type Signature [ed25519.SignatureSize]byte
type Blockhash [sha256.Size]byte

// Header describes how the message account list splits into signed, writable
// and readonly regions.
type Header struct {
	NumSignatures     byte
	NumReadonlySigned byte
	NumReadOnly       byte
}

// Message is a legacy transaction message.
type Message struct {
	Header          Header
	Accounts        []ed25519.PublicKey
	RecentBlockhash Blockhash
	Instructions    []CompiledInstruction
}

type Transaction struct {
	Signatures []Signature
	Message    Message
}

// NewTransaction compiles the instructions into a legacy transaction paid for
// by payer. Account metas referencing the same key are merged, keeping the
// strongest permissions, and every reference compiles to the same index.
func NewTransaction(payer ed25519.PublicKey, instructions ...Instruction) Transaction {
	accounts := []AccountMeta{
		{
			PublicKey:  payer,
			IsSigner:   true,
			IsWritable: true,
			isPayer:    true,
		},
	}
	for _, ix := range instructions {
		accounts = append(accounts, AccountMeta{
			PublicKey: ix.Program,
			isProgram: true,
		})
		accounts = append(accounts, ix.Accounts...)
	}

	accounts = filterUnique(accounts)
	sort.Sort(SortableAccountMeta(accounts))

	var m Message
	for _, account := range accounts {
		key := account.PublicKey
		if len(key) == 0 {
			key = make([]byte, ed25519.PublicKeySize)
		}
		m.Accounts = append(m.Accounts, key)

		if account.IsSigner {
			m.Header.NumSignatures++
			if !account.IsWritable {
				m.Header.NumReadonlySigned++
			}
		} else if !account.IsWritable {
			m.Header.NumReadOnly++
		}
	}

	for _, ix := range instructions {
		compiled := CompiledInstruction{
			ProgramIndex: byte(indexOf(m.Accounts, ix.Program)),
			Data:         ix.Data,
		}
		for _, a := range ix.Accounts {
			compiled.Accounts = append(compiled.Accounts, byte(indexOf(m.Accounts, a.PublicKey)))
		}
		m.Instructions = append(m.Instructions, compiled)
	}

	return Transaction{
		Signatures: make([]Signature, m.Header.NumSignatures),
		Message:    m,
	}
}

// IsSigner reports whether the account at index i must sign the message.
func (m Message) IsSigner(i int) bool {
	return i >= 0 && i < int(m.Header.NumSignatures)
}

// IsWritable reports whether the account at index i is writable.
func (m Message) IsWritable(i int) bool {
	if i < 0 || i >= len(m.Accounts) {
		return false
	}
	if i < int(m.Header.NumSignatures) {
		return i < int(m.Header.NumSignatures)-int(m.Header.NumReadonlySigned)
	}
	return i < len(m.Accounts)-int(m.Header.NumReadOnly)
}

// Payer returns the fee payer, which is always the first account.
func (m Message) Payer() ed25519.PublicKey {
	if len(m.Accounts) == 0 {
		return nil
	}
	return m.Accounts[0]
}

func (t *Transaction) Signature() []byte {
	return t.Signatures[0][:]
}

func (t *Transaction) SetBlockhash(bh Blockhash) {
	t.Message.RecentBlockhash = bh
}

// Sign signs the message with each signer, which must be one of the message
// signers.
func (t *Transaction) Sign(signers ...ed25519.PrivateKey) error {
	messageBytes := t.Message.Marshal()

	for _, s := range signers {
		pub := s.Public().(ed25519.PublicKey)
		index := indexOf(t.Message.Accounts, pub)
		if index < 0 {
			return errors.Errorf("signing account %s is not in the account list", base58.Encode(pub))
		}
		if index >= len(t.Signatures) {
			return errors.Errorf("signing account %s is not in the list of signers", base58.Encode(pub))
		}

		copy(t.Signatures[index][:], ed25519.Sign(s, messageBytes))
	}

	return nil
}

// VerifySignatures checks every required signature against the message.
func (t *Transaction) VerifySignatures() error {
	if len(t.Signatures) != int(t.Message.Header.NumSignatures) {
		return errors.Wrapf(ErrInvalidSignature, "expected %d signatures, got %d", t.Message.Header.NumSignatures, len(t.Signatures))
	}
	if len(t.Message.Accounts) < len(t.Signatures) {
		return errors.Wrap(ErrInvalidSignature, "fewer accounts than signatures")
	}

	messageBytes := t.Message.Marshal()
	for i, sig := range t.Signatures {
		if !ed25519.Verify(t.Message.Accounts[i], messageBytes, sig[:]) {
			return errors.Wrapf(ErrInvalidSignature, "signature %d for %s", i, base58.Encode(t.Message.Accounts[i]))
		}
	}
	return nil
}

func (t *Transaction) String() string {
	var sb strings.Builder
	sb.WriteString("Signatures:\n")
	for i, s := range t.Signatures {
		sb.WriteString(fmt.Sprintf("  %d: %s\n", i, base58.Encode(s[:])))
	}
	sb.WriteString("Message:\n")
	sb.WriteString(fmt.Sprintf("  Header: %d signed (%d readonly), %d readonly unsigned\n",
		t.Message.Header.NumSignatures, t.Message.Header.NumReadonlySigned, t.Message.Header.NumReadOnly))
	sb.WriteString(fmt.Sprintf("  Blockhash: %s\n", base58.Encode(t.Message.RecentBlockhash[:])))
	sb.WriteString("  Accounts:\n")
	for i, a := range t.Message.Accounts {
		sb.WriteString(fmt.Sprintf("    %d: %s\n", i, base58.Encode(a)))
	}
	sb.WriteString("  Instructions:\n")
	for i, ix := range t.Message.Instructions {
		sb.WriteString(fmt.Sprintf("    %d: program=%d accounts=%v data=%x\n", i, ix.ProgramIndex, ix.Accounts, ix.Data))
	}
	return sb.String()
}

func filterUnique(accounts []AccountMeta) []AccountMeta {
	filtered := make([]AccountMeta, 0, len(accounts))

	for _, account := range accounts {
		seen := false
		for j := range filtered {
			if bytes.Equal(account.PublicKey, filtered[j].PublicKey) {
				filtered[j].merge(account)
				seen = true
				break
			}
		}
		if !seen {
			filtered = append(filtered, account)
		}
	}

	return filtered
}

func indexOf(slice []ed25519.PublicKey, item ed25519.PublicKey) int {
	if len(item) == 0 {
		item = make([]byte, ed25519.PublicKeySize)
	}
	for i, val := range slice {
		if bytes.Equal(val, item) {
			return i
		}
	}
	return -1
}

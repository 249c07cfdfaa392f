package counter

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/near/borsh-go"
	"github.com/pkg/errors"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
)

// Tag is the first byte of an encoded instruction. Values are part of the
// wire format: new variants are appended, existing values never change.
type Tag uint8

const (
	TagNoop Tag = iota
	TagInitialize
	TagIncrement
	TagSetAuthority
	TagMove
	TagMirror
)

func (t Tag) String() string {
	switch t {
	case TagNoop:
		return "noop"
	case TagInitialize:
		return "initialize"
	case TagIncrement:
		return "increment"
	case TagSetAuthority:
		return "set_authority"
	case TagMove:
		return "move"
	case TagMirror:
		return "mirror"
	}
	return fmt.Sprintf("unknown(%d)", uint8(t))
}

// Instruction is one of Noop, Initialize, Increment, SetAuthority, Move or
// Mirror. The set is closed.
type Instruction interface {
	Tag() Tag

	// requirements lists the accounts the variant expects, in order.
	requirements() []program.AccountRequirement
}

// Requirements returns the account requirements of ix.
func Requirements(ix Instruction) []program.AccountRequirement {
	return ix.requirements()
}

// Encode serializes ix as its tag followed by the borsh encoding of the
// variant.
func Encode(ix Instruction) ([]byte, error) {
	if ix == nil {
		return nil, errors.New("nil instruction")
	}

	body, err := borsh.Serialize(ix)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to serialize %s", ix.Tag())
	}

	return append([]byte{byte(ix.Tag())}, body...), nil
}

func mustEncode(ix Instruction) []byte {
	data, err := Encode(ix)
	if err != nil {
		panic(err)
	}
	return data
}

// Decode parses an encoded instruction. Unknown tags, truncated bodies and
// any encoding that doesn't reproduce data byte for byte are rejected with an
// error whose cause is program.ErrMalformedInstruction. Decode does not panic.
func Decode(data []byte) (ix Instruction, err error) {
	defer func() {
		if r := recover(); r != nil {
			ix = nil
			err = errors.Wrapf(program.ErrMalformedInstruction, "decode panic: %v", r)
		}
	}()

	if len(data) == 0 {
		return nil, errors.Wrap(program.ErrMalformedInstruction, "empty payload")
	}

	body := data[1:]
	switch Tag(data[0]) {
	case TagNoop:
		ix, err = decodeBody[Noop](body)
	case TagInitialize:
		ix, err = decodeBody[Initialize](body)
	case TagIncrement:
		ix, err = decodeBody[Increment](body)
	case TagSetAuthority:
		ix, err = decodeBody[SetAuthority](body)
	case TagMove:
		ix, err = decodeBody[Move](body)
	case TagMirror:
		ix, err = decodeBody[Mirror](body)
	default:
		return nil, errors.Wrapf(program.ErrMalformedInstruction, "unknown tag %d", data[0])
	}
	if err != nil {
		return nil, err
	}

	canonical, err := Encode(ix)
	if err != nil || !bytes.Equal(canonical, data) {
		return nil, errors.Wrapf(program.ErrMalformedInstruction, "non-canonical %s payload", ix.Tag())
	}

	return ix, nil
}

func decodeBody[T Instruction](body []byte) (Instruction, error) {
	var v T
	if err := borsh.Deserialize(&v, body); err != nil {
		return nil, errors.Wrapf(program.ErrMalformedInstruction, "invalid %s body: %v", v.Tag(), err)
	}
	return v, nil
}

// newInstruction builds a client instruction whose account metas mirror the
// variant's requirements.
func newInstruction(programID ed25519.PublicKey, ix Instruction, keys ...ed25519.PublicKey) solana.Instruction {
	reqs := ix.requirements()
	if len(keys) != len(reqs) {
		panic(fmt.Sprintf("%s expects %d accounts, got %d", ix.Tag(), len(reqs), len(keys)))
	}

	metas := make([]solana.AccountMeta, len(keys))
	for i, req := range reqs {
		if req.Writable {
			metas[i] = solana.NewAccountMeta(keys[i], req.Signer)
		} else {
			metas[i] = solana.NewReadonlyAccountMeta(keys[i], req.Signer)
		}
	}

	return solana.NewInstruction(programID, mustEncode(ix), metas...)
}

package counter

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
	"github.com/near/borsh-go"
	"github.com/pkg/errors"
)

const (
	CounterStateVersion1 = 1

	CounterAccountSize = (8 + // discriminator
		1 + // version
		32 + // authority
		1 + // bump
		8) // count
)

// sha256("account:CounterState")[:8]
var CounterAccountDiscriminator = [8]byte{0x62, 0x17, 0xcd, 0x9f, 0x0e, 0xca, 0x4f, 0x8b}

// CounterState is the data stored in a counter account after the
// discriminator.
type CounterState struct {
	Version   uint8
	Authority [32]byte
	Bump      uint8
	Count     uint64
}

// IsInitialized reports whether data carries any discriminator at all.
func IsInitialized(data []byte) bool {
	if len(data) < len(CounterAccountDiscriminator) {
		return false
	}
	for _, b := range data[:len(CounterAccountDiscriminator)] {
		if b != 0 {
			return true
		}
	}
	return false
}

func (obj *CounterState) Unmarshal(data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Wrapf(ErrInvalidAccountData, "corrupt counter state: %v", r)
		}
	}()

	if len(data) < CounterAccountSize {
		return ErrAccountDataTooSmall
	}
	if !IsInitialized(data) {
		return ErrUninitializedAccount
	}
	if !bytes.Equal(data[:8], CounterAccountDiscriminator[:]) {
		return errors.Wrap(ErrInvalidAccountData, "unexpected discriminator")
	}

	var decoded CounterState
	if err := borsh.Deserialize(&decoded, data[8:CounterAccountSize]); err != nil {
		return errors.Wrap(ErrInvalidAccountData, err.Error())
	}
	if decoded.Version != CounterStateVersion1 {
		return errors.Wrapf(ErrInvalidAccountData, "unsupported version %d", decoded.Version)
	}

	*obj = decoded
	return nil
}

// MarshalInto writes the discriminator and state into the head of data,
// leaving any bytes past CounterAccountSize untouched.
func (obj *CounterState) MarshalInto(data []byte) error {
	if len(data) < CounterAccountSize {
		return ErrAccountDataTooSmall
	}

	encoded, err := borsh.Serialize(*obj)
	if err != nil {
		return errors.Wrap(err, "failed to serialize counter state")
	}
	if len(encoded) != CounterAccountSize-8 {
		return errors.Errorf("unexpected counter state size: %d", len(encoded))
	}

	copy(data, CounterAccountDiscriminator[:])
	copy(data[8:], encoded)
	return nil
}

// Marshal returns freshly allocated account data holding the state.
func (obj *CounterState) Marshal() ([]byte, error) {
	data := make([]byte, CounterAccountSize)
	if err := obj.MarshalInto(data); err != nil {
		return nil, err
	}
	return data, nil
}

func (obj *CounterState) HasAuthority(key ed25519.PublicKey) bool {
	return bytes.Equal(obj.Authority[:], key)
}

func (obj *CounterState) String() string {
	return fmt.Sprintf(
		"CounterState{version=%d,authority=%s,bump=%d,count=%d}",
		obj.Version,
		base58.Encode(obj.Authority[:]),
		obj.Bump,
		obj.Count,
	)
}

package program

import (
	"crypto/ed25519"
)

// Entrypoint is the function a host invokes for every instruction addressed
// to a program. It returns nil on success or a single Error. Hosts are
// responsible for discarding every account change when an error is returned.
type Entrypoint func(programID ed25519.PublicKey, accounts []*AccountInfo, data []byte) error

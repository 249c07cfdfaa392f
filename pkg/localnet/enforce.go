package localnet

import (
	"bytes"
	"math/bits"

	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
	"github.com/code-payments/code-program/pkg/solana/system"
)

// preState is an account as it was before an instruction ran.
type preState struct {
	index int
	info  *program.AccountInfo
}

// snapshotAccounts clones each distinct account referenced by an
// instruction, in order of first reference.
func snapshotAccounts(working []*program.AccountInfo, indices []byte) []preState {
	seen := make(map[byte]struct{}, len(indices))
	var pre []preState
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		pre = append(pre, preState{index: int(idx), info: working[idx].Clone()})
	}
	return pre
}

// verifyAccounts checks what the executing program did to the accounts of
// one instruction.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/program-runtime/src/pre_account.rs
func verifyAccounts(executing []byte, working []*program.AccountInfo, pre []preState) error {
	var preHi, preLo, postHi, postLo uint64
	for _, p := range pre {
		post := working[p.index]

		if err := verifyAccount(executing, p.info, post); err != nil {
			return err
		}

		var carry uint64
		preLo, carry = bits.Add64(preLo, p.info.Lamports, 0)
		preHi += carry
		postLo, carry = bits.Add64(postLo, post.Lamports, 0)
		postHi += carry
	}

	if preHi != postHi || preLo != postLo {
		return nativeError(solana.InstructionErrorUnbalancedInstruction)
	}
	return nil
}

func verifyAccount(executing []byte, pre, post *program.AccountInfo) error {
	if !bytes.Equal(pre.Key, post.Key) {
		return nativeError(solana.InstructionErrorInvalidArgument)
	}

	ownedByExecuting := bytes.Equal(pre.Owner, executing)
	// Only the system program allocates, and only accounts it owns.
	canResize := ownedByExecuting && bytes.Equal(executing, system.ProgramKey)

	if !bytes.Equal(pre.Owner, post.Owner) {
		if !ownedByExecuting || !pre.IsWritable || pre.Executable || !isZeroed(post.Data) {
			return nativeError(solana.InstructionErrorModifiedProgramID)
		}
	}

	if pre.Lamports != post.Lamports {
		if !pre.IsWritable {
			return nativeError(solana.InstructionErrorReadonlyLamportChange)
		}
		if post.Lamports < pre.Lamports && !ownedByExecuting {
			return nativeError(solana.InstructionErrorExternalAccountLamportSpend)
		}
		if pre.Executable {
			return nativeError(solana.InstructionErrorExecutableModified)
		}
	}

	if len(pre.Data) != len(post.Data) && !canResize {
		return nativeError(solana.InstructionErrorAccountDataSizeChanged)
	}

	if !bytes.Equal(pre.Data, post.Data) {
		if !pre.IsWritable {
			return nativeError(solana.InstructionErrorReadonlyDataModified)
		}
		if !ownedByExecuting {
			return nativeError(solana.InstructionErrorExternalAccountDataModified)
		}
		if pre.Executable {
			return nativeError(solana.InstructionErrorExecutableModified)
		}
	}

	if pre.Executable != post.Executable {
		return nativeError(solana.InstructionErrorExecutableModified)
	}

	return nil
}

func isZeroed(data []byte) bool {
	for _, b := range data {
		if b != 0 {
			return false
		}
	}
	return true
}

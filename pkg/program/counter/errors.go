package counter

import (
	"github.com/code-payments/code-program/pkg/program"
)

const (
	ErrAlreadyInitialized program.Error = iota + program.CustomErrorBase
	ErrUninitializedAccount
	ErrInvalidAuthority
	ErrInvalidSeeds
	ErrAccountDataTooSmall
	ErrArithmeticOverflow
	ErrInsufficientCount
	ErrInvalidAccountData
)

// ErrorName names core and counter codes alike.
func ErrorName(code program.Error) string {
	switch code {
	case ErrAlreadyInitialized:
		return "AlreadyInitialized"
	case ErrUninitializedAccount:
		return "UninitializedAccount"
	case ErrInvalidAuthority:
		return "InvalidAuthority"
	case ErrInvalidSeeds:
		return "InvalidSeeds"
	case ErrAccountDataTooSmall:
		return "AccountDataTooSmall"
	case ErrArithmeticOverflow:
		return "ArithmeticOverflow"
	case ErrInsufficientCount:
		return "InsufficientCount"
	case ErrInvalidAccountData:
		return "InvalidAccountData"
	}
	return code.Name()
}

package counter

import (
	"crypto/ed25519"
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-program/pkg/program"
)

// instructionContext carries what every handler needs besides its variant.
type instructionContext struct {
	log       *logrus.Entry
	programID ed25519.PublicKey
	accounts  []*program.AccountInfo
}

// Process is the counter program's program.Entrypoint. It decodes data,
// validates accounts against the decoded variant's requirements and only then
// runs the variant's handler. The result is nil or a single program.Error.
func Process(programID ed25519.PublicKey, accounts []*program.AccountInfo, data []byte) error {
	log := logrus.StandardLogger().WithFields(logrus.Fields{
		"type":   "program/counter",
		"method": "Process",
	})

	if err := program.ValidateProgramID(programID); err != nil {
		log.WithError(err).Debug("invalid program id")
		return err
	}

	ix, err := Decode(data)
	if err != nil {
		log.WithError(err).Debug("malformed instruction")
		return program.ErrMalformedInstruction
	}
	log = log.WithField("instruction", ix.Tag().String())

	reqs := ix.requirements()
	if err := program.ValidateAccounts(programID, accounts, reqs); err != nil {
		log.WithError(err).Debug("account validation failed")
		return err
	}

	log.Trace("begin")

	ctx := &instructionContext{
		log:       log,
		programID: programID,
		accounts:  accounts[:len(reqs)],
	}
	if err := toProgramError(log, dispatch(ctx, ix)); err != nil {
		return err
	}

	log.Trace("complete")
	return nil
}

func dispatch(ctx *instructionContext, ix Instruction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("handler panic: %v", r)
		}
	}()

	switch v := ix.(type) {
	case Noop:
		return processNoop(ctx, v)
	case Initialize:
		return processInitialize(ctx, v)
	case Increment:
		return processIncrement(ctx, v)
	case SetAuthority:
		return processSetAuthority(ctx, v)
	case Move:
		return processMove(ctx, v)
	case Mirror:
		return processMirror(ctx, v)
	default:
		panic(fmt.Sprintf("unhandled instruction %T", ix))
	}
}

// toProgramError strips diagnostic context from a handler error, keeping
// only its code. Errors without a code become ErrInvalidAccountData.
func toProgramError(log *logrus.Entry, err error) error {
	if err == nil {
		return nil
	}

	code, ok := errors.Cause(err).(program.Error)
	if !ok {
		log.WithError(err).Warn("handler failed without a program error")
		return ErrInvalidAccountData
	}

	log.WithError(err).WithField("code", ErrorName(code)).Debug("handler failed")
	return code
}

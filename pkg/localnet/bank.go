package localnet

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-program/pkg/metrics"
	"github.com/code-payments/code-program/pkg/program"
	"github.com/code-payments/code-program/pkg/solana"
	compute_budget "github.com/code-payments/code-program/pkg/solana/computebudget"
	"github.com/code-payments/code-program/pkg/solana/system"
)

// MaxComputeUnitLimit caps the limit a transaction may request.
const MaxComputeUnitLimit = 1_400_000

// Result describes a transaction the bank executed.
type Result struct {
	ID            uuid.UUID
	Signature     solana.Signature
	UnitsConsumed uint64
	Logs          []string
}

// Option configures a Bank.
type Option func(*Bank)

// WithAccountLoader resolves accounts the bank has no state for through
// loader instead of treating them as empty.
func WithAccountLoader(loader AccountLoader) Option {
	return func(b *Bank) {
		b.loader = loader
	}
}

// WithRemoteAccounts resolves unknown accounts from a cluster, caching them
// per the bank's remote account cache size.
func WithRemoteAccounts(client solana.Client, commitment solana.Commitment) Option {
	return func(b *Bank) {
		b.remote = client
		b.commitment = commitment
	}
}

// Bank is an in-memory ledger executing legacy transactions against native
// and registered programs. Transactions execute one at a time and either
// commit every account change or none.
type Bank struct {
	log  *logrus.Entry
	conf *conf

	loader     AccountLoader
	remote     solana.Client
	commitment solana.Commitment

	mu        sync.Mutex
	accounts  map[string]*Account
	programs  map[string]program.Entrypoint
	processed map[solana.Signature]struct{}
}

func NewBank(configProvider ConfigProvider, opts ...Option) (*Bank, error) {
	b := &Bank{
		log:       logrus.StandardLogger().WithField("type", "localnet/bank"),
		conf:      configProvider(),
		accounts:  make(map[string]*Account),
		programs:  make(map[string]program.Entrypoint),
		processed: make(map[solana.Signature]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.remote != nil && b.loader == nil {
		cacheSize := int(b.conf.remoteAccountCacheSize.Get(context.Background()))
		loader, err := NewRPCAccountLoader(b.remote, b.commitment, cacheSize)
		if err != nil {
			return nil, err
		}
		b.loader = loader
	}

	for _, native := range []ed25519.PublicKey{system.ProgramKey, compute_budget.ProgramKey} {
		b.accounts[string(native)] = &Account{
			Owner:      NativeLoaderKey,
			Lamports:   1,
			Executable: true,
		}
	}

	return b, nil
}

// RegisterProgram deploys entrypoint at programID.
func (b *Bank) RegisterProgram(programID ed25519.PublicKey, entrypoint program.Entrypoint) error {
	if err := program.ValidateProgramID(programID); err != nil {
		return err
	}
	if isNative(programID) {
		return errors.Errorf("%s is a builtin program", base58.Encode(programID))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.programs[string(programID)] = entrypoint
	b.accounts[string(programID)] = &Account{
		Owner:      LoaderKey,
		Lamports:   1,
		Executable: true,
	}

	b.log.WithField("program", base58.Encode(programID)).Debug("registered program")
	return nil
}

// SetAccount replaces the state at key. A nil or empty account removes it.
func (b *Bank) SetAccount(key ed25519.PublicKey, account *Account) error {
	if len(key) != ed25519.PublicKeySize {
		return errors.Errorf("invalid account key length: %d", len(key))
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if account == nil || account.isEmpty() {
		delete(b.accounts, string(key))
		return nil
	}

	cloned := account.Clone()
	if len(cloned.Owner) == 0 {
		cloned.Owner = system.ProgramKey
	}
	b.accounts[string(key)] = cloned
	return nil
}

// GetAccount returns a copy of the state at key, or ErrAccountNotFound.
func (b *Bank) GetAccount(ctx context.Context, key ed25519.PublicKey) (*Account, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	account, err := b.loadAccount(ctx, key)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ProcessTransaction executes txn and commits its changes. Failures of the
// transaction itself are returned as a *solana.TransactionError, in which
// case no account is modified.
func (b *Bank) ProcessTransaction(ctx context.Context, txn solana.Transaction) (*Result, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "ProcessTransaction")
	defer tracer.End()

	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()

	exec, txErr, err := b.execute(ctx, txn, true)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}

	tracer.AddAttribute("units_consumed", exec.unitsConsumed)
	if txErr == nil {
		b.commit(exec)
	}
	recordTransactionEvent(ctx, exec, txErr, "process", time.Since(start))

	if txErr != nil {
		tracer.OnError(txErr)
		return exec.result(), txErr
	}
	return exec.result(), nil
}

// SimulateTransaction executes txn without committing anything.
func (b *Bank) SimulateTransaction(ctx context.Context, txn solana.Transaction) (*solana.SimulationResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "SimulateTransaction")
	defer tracer.End()

	b.mu.Lock()
	defer b.mu.Unlock()

	start := time.Now()

	exec, txErr, err := b.execute(ctx, txn, false)
	if err != nil {
		tracer.OnError(err)
		return nil, err
	}
	recordTransactionEvent(ctx, exec, txErr, "simulate", time.Since(start))

	return &solana.SimulationResult{
		Err:           txErr,
		Logs:          exec.logs,
		UnitsConsumed: exec.unitsConsumed,
	}, nil
}

// execution is the working state of a transaction. Nothing in it is visible
// to the bank until commit.
type execution struct {
	log     *logrus.Entry
	id      uuid.UUID
	txn     solana.Transaction
	working []*program.AccountInfo

	unitLimit     uint64
	unitsConsumed uint64
	logs          []string
}

func (e *execution) result() *Result {
	result := &Result{
		ID:            e.id,
		UnitsConsumed: e.unitsConsumed,
		Logs:          e.logs,
	}
	if len(e.txn.Signatures) > 0 {
		result.Signature = e.txn.Signatures[0]
	}
	return result
}

func (e *execution) logf(format string, args ...interface{}) {
	e.logs = append(e.logs, fmt.Sprintf(format, args...))
}

func (b *Bank) execute(ctx context.Context, txn solana.Transaction, checkProcessed bool) (*execution, *solana.TransactionError, error) {
	m := txn.Message

	exec := &execution{
		id:  uuid.New(),
		txn: txn,
	}
	exec.log = b.log.WithFields(logrus.Fields{
		"method": "execute",
		"id":     exec.id.String(),
	})

	if err := sanitize(m); err != nil {
		exec.log.WithError(err).Debug("transaction failed sanitization")
		return exec, err, nil
	}

	if len(txn.Signatures) > 0 {
		exec.log = exec.log.WithField("signature", base58.Encode(txn.Signatures[0][:]))
		if _, ok := b.processed[txn.Signatures[0]]; checkProcessed && ok && txn.Signatures[0] != (solana.Signature{}) {
			return exec, solana.NewTransactionError(solana.TransactionErrorAlreadyProcessed), nil
		}
	}

	if b.conf.verifySignatures.Get(ctx) {
		if err := txn.VerifySignatures(); err != nil {
			exec.log.WithError(err).Debug("signature verification failed")
			return exec, solana.NewTransactionError(solana.TransactionErrorSignatureFailure), nil
		}
	}

	unitLimit, ixErr := b.computeUnitLimit(ctx, m)
	if ixErr != nil {
		return exec, instructionFailure(ixErr), nil
	}
	exec.unitLimit = unitLimit

	for _, ix := range m.Instructions {
		if !b.isProgram(m.Accounts[ix.ProgramIndex]) {
			return exec, solana.NewTransactionError(solana.TransactionErrorProgramAccountNotFound), nil
		}
	}

	exec.working = make([]*program.AccountInfo, len(m.Accounts))
	for i, key := range m.Accounts {
		account, err := b.loadAccount(ctx, key)
		if err != nil {
			return nil, nil, errors.Wrapf(err, "error loading account %s", base58.Encode(key))
		}
		if account == nil {
			account = emptyAccount()
		}
		exec.working[i] = account.toInfo(key, m.IsSigner(i), m.IsWritable(i))
	}

	for i, ix := range m.Instructions {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		if ixErr := b.executeInstruction(ctx, exec, i, ix); ixErr != nil {
			exec.log.WithError(ixErr).Debug("instruction failed")
			return exec, instructionFailure(ixErr), nil
		}
	}

	exec.log.WithField("units_consumed", exec.unitsConsumed).Trace("transaction executed")
	return exec, nil, nil
}

func (b *Bank) executeInstruction(ctx context.Context, exec *execution, index int, ix solana.CompiledInstruction) *solana.InstructionError {
	m := exec.txn.Message
	programID := m.Accounts[ix.ProgramIndex]
	programName := base58.Encode(programID)

	exec.logf("Program %s invoke [1]", programName)

	cost := b.conf.instructionBaseCost.Get(ctx) + b.conf.costPerDataByte.Get(ctx)*uint64(len(ix.Data))
	if exec.unitsConsumed+cost > exec.unitLimit {
		exec.unitsConsumed = exec.unitLimit
		exec.logf("Program %s failed: exceeded CUs meter at BPF instruction", programName)
		return solana.NewInstructionError(index, solana.InstructionErrorComputationalBudgetExceeded)
	}
	exec.unitsConsumed += cost

	// Every reference to the same message account shares one AccountInfo.
	accounts := make([]*program.AccountInfo, len(ix.Accounts))
	for j, idx := range ix.Accounts {
		accounts[j] = exec.working[idx]
	}
	pre := snapshotAccounts(exec.working, ix.Accounts)

	err := b.invoke(programID, accounts, ix.Data)
	if err == nil {
		err = verifyAccounts(programID, exec.working, pre)
	}

	exec.logf("Program %s consumed %d of %d compute units", programName, cost, exec.unitLimit)
	if err != nil {
		ixErr := toInstructionError(index, err)
		exec.logf("Program %s failed: %v", programName, ixErr.Err)
		return ixErr
	}
	exec.logf("Program %s success", programName)

	// Programs may not change how the message presents an account.
	for j, info := range exec.working {
		info.IsSigner = m.IsSigner(j)
		info.IsWritable = m.IsWritable(j)
	}
	return nil
}

func (b *Bank) invoke(programID ed25519.PublicKey, accounts []*program.AccountInfo, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			b.log.WithField("program", base58.Encode(programID)).Warnf("program panicked: %v", r)
			err = nativeError(solana.InstructionErrorGenericError)
		}
	}()

	switch {
	case bytes.Equal(programID, system.ProgramKey):
		return processSystem(accounts, data)
	case bytes.Equal(programID, compute_budget.ProgramKey):
		// Applied before execution.
		return nil
	}

	entrypoint := b.programs[string(programID)]
	return entrypoint(programID, accounts, data)
}

func (b *Bank) commit(exec *execution) {
	m := exec.txn.Message
	for i, info := range exec.working {
		if !m.IsWritable(i) || info.Executable {
			continue
		}

		account := fromInfo(info)
		if account.isEmpty() {
			delete(b.accounts, string(m.Accounts[i]))
			continue
		}
		b.accounts[string(m.Accounts[i])] = account
	}

	if len(exec.txn.Signatures) > 0 && exec.txn.Signatures[0] != (solana.Signature{}) {
		b.processed[exec.txn.Signatures[0]] = struct{}{}
	}
}

// computeUnitLimit returns the limit requested by the message's compute
// budget instructions, or the configured default.
func (b *Bank) computeUnitLimit(ctx context.Context, m solana.Message) (uint64, *solana.InstructionError) {
	limit := b.conf.computeUnitLimit.Get(ctx)

	for i, ix := range m.Instructions {
		if !bytes.Equal(m.Accounts[ix.ProgramIndex], compute_budget.ProgramKey) {
			continue
		}

		cmd, err := compute_budget.CommandOf(ix.Data)
		if err != nil {
			return 0, solana.NewInstructionError(i, solana.InstructionErrorInvalidInstructionData)
		}

		switch cmd {
		case compute_budget.CommandSetComputeUnitLimit:
			requested, err := compute_budget.ParseSetComputeUnitLimitIxnData(ix.Data)
			if err != nil {
				return 0, solana.NewInstructionError(i, solana.InstructionErrorInvalidInstructionData)
			}
			limit = uint64(requested)
		case compute_budget.CommandSetComputeUnitPrice:
			if _, err := compute_budget.ParseSetComputeUnitPriceIxnData(ix.Data); err != nil {
				return 0, solana.NewInstructionError(i, solana.InstructionErrorInvalidInstructionData)
			}
		default:
			return 0, solana.NewInstructionError(i, solana.InstructionErrorInvalidInstructionData)
		}
	}

	if limit > MaxComputeUnitLimit {
		limit = MaxComputeUnitLimit
	}
	return limit, nil
}

// loadAccount returns a copy of the state at key, or nil if none exists.
func (b *Bank) loadAccount(ctx context.Context, key ed25519.PublicKey) (*Account, error) {
	if account, ok := b.accounts[string(key)]; ok {
		return account.Clone(), nil
	}
	if b.loader == nil {
		return nil, nil
	}

	account, err := b.loader.LoadAccount(ctx, key)
	if err == ErrAccountNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return account, nil
}

func (b *Bank) isProgram(key ed25519.PublicKey) bool {
	if isNative(key) {
		return true
	}
	_, ok := b.programs[string(key)]
	return ok
}

func isNative(key ed25519.PublicKey) bool {
	return bytes.Equal(key, system.ProgramKey) || bytes.Equal(key, compute_budget.ProgramKey)
}

// sanitize checks the structure of a message before anything is loaded.
func sanitize(m solana.Message) *solana.TransactionError {
	h := m.Header
	switch {
	case len(m.Accounts) == 0,
		h.NumSignatures == 0,
		int(h.NumSignatures) > len(m.Accounts),
		h.NumReadonlySigned >= h.NumSignatures,
		int(h.NumSignatures)+int(h.NumReadOnly) > len(m.Accounts):
		return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
	}

	seen := make(map[string]struct{}, len(m.Accounts))
	for _, key := range m.Accounts {
		if len(key) != ed25519.PublicKeySize {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		if _, ok := seen[string(key)]; ok {
			return solana.NewTransactionError(solana.TransactionErrorAccountLoadedTwice)
		}
		seen[string(key)] = struct{}{}
	}

	for _, ix := range m.Instructions {
		if ix.ProgramIndex == 0 || int(ix.ProgramIndex) >= len(m.Accounts) {
			return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
		}
		for _, idx := range ix.Accounts {
			if int(idx) >= len(m.Accounts) {
				return solana.NewTransactionError(solana.TransactionErrorSanitizeFailure)
			}
		}
	}

	return nil
}

// toInstructionError reports err, returned while executing the instruction
// at index, the way the cluster does. Program codes surface as custom
// errors carrying the code unchanged.
func toInstructionError(index int, err error) *solana.InstructionError {
	switch typed := errors.Cause(err).(type) {
	case program.Error:
		return &solana.InstructionError{Index: index, Err: typed.CustomError()}
	case solana.CustomError:
		return &solana.InstructionError{Index: index, Err: typed}
	case nativeError:
		return solana.NewInstructionError(index, solana.InstructionErrorKey(typed))
	default:
		return solana.NewInstructionError(index, solana.InstructionErrorGenericError)
	}
}

func instructionFailure(ixErr *solana.InstructionError) *solana.TransactionError {
	txErr, err := solana.TransactionErrorFromInstructionError(ixErr)
	if err != nil {
		return solana.NewTransactionError(solana.TransactionErrorInstructionError)
	}
	return txErr
}

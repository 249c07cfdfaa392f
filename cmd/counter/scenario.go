package main

import (
	"context"
	"crypto/ed25519"

	"github.com/code-payments/code-program/pkg/localnet"
	"github.com/code-payments/code-program/pkg/program/counter"
	"github.com/code-payments/code-program/pkg/solana"
)

const (
	payerLamports   = 1_000_000_000
	counterLamports = 1_000_000
)

// scenario funds a payer, allocates a counter for a fresh authority and
// submits a single transaction initializing and incrementing it.
type scenario struct {
	bank      *localnet.Bank
	programID ed25519.PublicKey
}

func (s *scenario) run(ctx context.Context, start uint64, amounts []uint64) (*localnet.Result, ed25519.PublicKey, error) {
	if err := s.bank.RegisterProgram(s.programID, counter.Process); err != nil {
		return nil, nil, err
	}

	payer, payerKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}
	authority, authorityKey, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, nil, err
	}

	if err := s.bank.SetAccount(payer, &localnet.Account{Lamports: payerLamports}); err != nil {
		return nil, nil, err
	}

	address, bump, err := counter.GetCounterAddress(&counter.GetCounterAddressArgs{
		Program:   s.programID,
		Authority: authority,
	})
	if err != nil {
		return nil, nil, err
	}

	// The program doesn't create accounts, so the counter is allocated
	// directly.
	if err := s.bank.SetAccount(address, &localnet.Account{
		Owner:    s.programID,
		Lamports: counterLamports,
		Data:     make([]byte, counter.CounterAccountSize),
	}); err != nil {
		return nil, nil, err
	}

	ixs := []solana.Instruction{
		counter.NewInitializeInstruction(
			s.programID,
			&counter.InitializeInstructionAccounts{Counter: address, Authority: authority},
			&counter.Initialize{Bump: bump, Start: start},
		),
	}
	for _, amount := range amounts {
		ixs = append(ixs, counter.NewIncrementInstruction(
			s.programID,
			&counter.IncrementInstructionAccounts{Counter: address, Authority: authority},
			&counter.Increment{Amount: amount},
		))
	}

	txn := solana.NewTransaction(payer, ixs...)
	if err := txn.Sign(payerKey, authorityKey); err != nil {
		return nil, nil, err
	}

	result, err := s.bank.ProcessTransaction(ctx, txn)
	return result, address, err
}

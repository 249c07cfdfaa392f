package localnet

import (
	"context"
	"crypto/ed25519"

	lru "github.com/hashicorp/golang-lru"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/code-payments/code-program/pkg/metrics"
	"github.com/code-payments/code-program/pkg/solana"
	sync_util "github.com/code-payments/code-program/pkg/sync"
)

const loaderLockStripes = 64

var ErrAccountNotFound = errors.New("account not found")

// AccountLoader resolves accounts the bank holds no state for.
type AccountLoader interface {
	// LoadAccount returns the account at key, or ErrAccountNotFound.
	LoadAccount(ctx context.Context, key ed25519.PublicKey) (*Account, error)
}

type rpcAccountLoader struct {
	log        *logrus.Entry
	client     solana.Client
	commitment solana.Commitment
	cache      *lru.Cache
	locks      *sync_util.StripedLock
}

// NewRPCAccountLoader returns an AccountLoader reading accounts from a
// cluster. Lookups, including misses, are cached in an LRU of cacheSize
// entries, so a loaded account is a snapshot taken at first use. Concurrent
// loads of the same account issue a single request.
func NewRPCAccountLoader(client solana.Client, commitment solana.Commitment, cacheSize int) (AccountLoader, error) {
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, errors.Wrap(err, "error creating account cache")
	}

	return &rpcAccountLoader{
		log:        logrus.StandardLogger().WithField("type", "localnet/loader"),
		client:     client,
		commitment: commitment,
		cache:      cache,
		locks:      sync_util.NewStripedLock(loaderLockStripes),
	}, nil
}

type cachedLookup struct {
	account *Account
}

func (l *rpcAccountLoader) LoadAccount(ctx context.Context, key ed25519.PublicKey) (*Account, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "LoadAccount")
	defer tracer.End()

	log := l.log.WithFields(logrus.Fields{
		"method":  "LoadAccount",
		"account": base58.Encode(key),
	})

	mu := l.locks.Get(key)
	mu.Lock()
	defer mu.Unlock()

	if cached, ok := l.cache.Get(string(key)); ok {
		metrics.RecordCount(ctx, remoteAccountCacheHitMetricName, 1)

		lookup := cached.(cachedLookup)
		if lookup.account == nil {
			return nil, ErrAccountNotFound
		}
		return lookup.account.Clone(), nil
	}

	info, err := l.client.GetAccountInfo(key, l.commitment)
	switch err {
	case nil:
	case solana.ErrNoAccountInfo:
		log.Trace("account does not exist remotely")
		l.cache.Add(string(key), cachedLookup{})
		return nil, ErrAccountNotFound
	default:
		log.WithError(err).Warn("failure loading remote account")
		tracer.OnError(err)
		return nil, errors.Wrap(err, "error loading remote account")
	}

	account := &Account{
		Owner:      info.Owner,
		Lamports:   info.Lamports,
		Data:       info.Data,
		Executable: info.Executable,
	}
	l.cache.Add(string(key), cachedLookup{account: account})

	log.WithField("owner", base58.Encode(info.Owner)).Trace("loaded remote account")
	return account.Clone(), nil
}

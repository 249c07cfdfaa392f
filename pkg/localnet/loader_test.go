package localnet

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-program/pkg/program/counter"
	"github.com/code-payments/code-program/pkg/solana"
	"github.com/code-payments/code-program/pkg/testutil"
)

type fakeClient struct {
	solana.Client

	mu       sync.Mutex
	calls    map[string]int
	accounts map[string]solana.AccountInfo
	err      error
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		calls:    make(map[string]int),
		accounts: make(map[string]solana.AccountInfo),
	}
}

func (c *fakeClient) GetAccountInfo(key ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls[string(key)]++
	if c.err != nil {
		return solana.AccountInfo{}, c.err
	}

	info, ok := c.accounts[string(key)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}
	return info, nil
}

func (c *fakeClient) callCount(key ed25519.PublicKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[string(key)]
}

func TestRPCAccountLoader(t *testing.T) {
	client := newFakeClient()
	keys := testutil.GenerateSolanaKeys(t, 3)
	present, missing, owner := keys[0], keys[1], keys[2]
	client.accounts[string(present)] = solana.AccountInfo{Owner: owner, Lamports: 42, Data: []byte{1, 2}}

	loader, err := NewRPCAccountLoader(client, solana.CommitmentConfirmed, 2)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		account, err := loader.LoadAccount(context.Background(), present)
		require.NoError(t, err)
		assert.EqualValues(t, owner, account.Owner)
		assert.EqualValues(t, 42, account.Lamports)
		assert.Equal(t, []byte{1, 2}, account.Data)

		// Callers get their own copy.
		account.Data[0] = 0xff

		_, err = loader.LoadAccount(context.Background(), missing)
		assert.Equal(t, ErrAccountNotFound, err)
	}
	assert.Equal(t, 1, client.callCount(present))
	assert.Equal(t, 1, client.callCount(missing))

	// Evicted by newer lookups.
	for _, key := range testutil.GenerateSolanaKeys(t, 2) {
		_, err = loader.LoadAccount(context.Background(), key)
		assert.Equal(t, ErrAccountNotFound, err)
	}
	_, err = loader.LoadAccount(context.Background(), present)
	require.NoError(t, err)
	assert.Equal(t, 2, client.callCount(present))

	_, err = NewRPCAccountLoader(client, solana.CommitmentConfirmed, 0)
	assert.Error(t, err)
}

func TestRPCAccountLoader_ErrorsAreNotCached(t *testing.T) {
	client := newFakeClient()
	client.err = errors.New("unavailable")
	key := testutil.GenerateSolanaKeys(t, 1)[0]

	loader, err := NewRPCAccountLoader(client, solana.CommitmentConfirmed, 16)
	require.NoError(t, err)

	_, err = loader.LoadAccount(context.Background(), key)
	require.Error(t, err)
	assert.NotEqual(t, ErrAccountNotFound, err)

	client.err = nil
	_, err = loader.LoadAccount(context.Background(), key)
	assert.Equal(t, ErrAccountNotFound, err)
	assert.Equal(t, 2, client.callCount(key))
}

func TestBank_RemoteAccounts(t *testing.T) {
	client := newFakeClient()
	env := setup(t, &testOverrides{}, WithRemoteAccounts(client, solana.CommitmentConfirmed))

	authority := testutil.GenerateSolanaKeypair(t)
	address, bump, err := counter.GetCounterAddress(&counter.GetCounterAddressArgs{
		Program:   env.programID,
		Authority: testutil.Public(authority),
	})
	require.NoError(t, err)

	state := &counter.CounterState{Version: counter.CounterStateVersion1, Bump: bump, Count: 40}
	copy(state.Authority[:], testutil.Public(authority))
	data, err := state.Marshal()
	require.NoError(t, err)
	client.accounts[string(address)] = solana.AccountInfo{Owner: env.programID, Lamports: 1_000, Data: data}

	_, err = env.submit(t, []ed25519.PrivateKey{authority}, env.increment(authority, address, 2))
	require.NoError(t, err)

	// Committed state is local from now on.
	assert.EqualValues(t, 42, env.count(t, address))
	assert.Equal(t, 1, client.callCount(address))

	// The payer and program are local and never fetched.
	assert.Zero(t, client.callCount(testutil.Public(env.payer)))
	assert.Zero(t, client.callCount(env.programID))

	// The authority doesn't exist anywhere, which is fine for a signer.
	assert.Equal(t, 1, client.callCount(testutil.Public(authority)))

	client.err = errors.New("unavailable")
	other := testutil.GenerateSolanaKeys(t, 1)[0]
	_, err = env.submit(t, []ed25519.PrivateKey{authority}, env.increment(authority, other, 1))
	require.Error(t, err)
	_, ok := err.(*solana.TransactionError)
	assert.False(t, ok)
}

func TestRPCAccountLoader_ConcurrentLoadsShareRequest(t *testing.T) {
	client := newFakeClient()
	keys := testutil.GenerateSolanaKeys(t, 2)
	client.accounts[string(keys[0])] = solana.AccountInfo{Owner: keys[1], Lamports: 7}

	loader, err := NewRPCAccountLoader(client, solana.CommitmentConfirmed, 16)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			account, err := loader.LoadAccount(context.Background(), keys[0])
			assert.NoError(t, err)
			assert.EqualValues(t, 7, account.Lamports)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, client.callCount(keys[0]))
}

package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/code-program/pkg/rate"
)

type rpcHandler func(method string, params json.RawMessage) (result interface{}, rpcErr map[string]interface{}, status int)

func newTestClient(t *testing.T, handler rpcHandler) *client {
	return newLimitedTestClient(t, handler, rate.NoLimiter{})
}

func newLimitedTestClient(t *testing.T, handler rpcHandler, limiter rate.Limiter) *client {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ID     int             `json:"id"`
			Method string          `json:"method"`
			Params json.RawMessage `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr, status := handler(req.Method, req.Params)
		if status != 0 {
			w.WriteHeader(status)
			return
		}

		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)

	c := NewWithLimiter(server.URL, nil, limiter).(*client)
	c.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, maxRetries)
	}
	return c
}

func TestClient_GetAccountInfo(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	c := newTestClient(t, func(method string, params json.RawMessage) (interface{}, map[string]interface{}, int) {
		assert.Equal(t, "getAccountInfo", method)

		var args []interface{}
		require.NoError(t, json.Unmarshal(params, &args))
		if args[0] != base58.Encode(account) {
			return map[string]interface{}{"value": nil}, nil, 0
		}

		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   1000,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
				"executable": false,
			},
		}, nil, 0
	})

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, owner, info.Owner)
	assert.EqualValues(t, 1000, info.Lamports)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	_, err = c.GetAccountInfo(owner, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_RetriesServiceErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(method string, _ json.RawMessage) (interface{}, map[string]interface{}, int) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, nil, http.StatusInternalServerError
		}
		return 5000, nil, 0
	})

	lamports, err := c.GetMinimumBalanceForRentExemption(50)
	require.NoError(t, err)
	assert.EqualValues(t, 5000, lamports)
	assert.EqualValues(t, 3, atomic.LoadInt32(&calls))

	atomic.StoreInt32(&calls, -100)
	_, err = c.GetMinimumBalanceForRentExemption(50)
	assert.Error(t, err)
	assert.EqualValues(t, -100+maxRetries+1, atomic.LoadInt32(&calls))
}

func TestClient_DoesNotRetryRequestErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(method string, _ json.RawMessage) (interface{}, map[string]interface{}, int) {
		atomic.AddInt32(&calls, 1)
		return nil, map[string]interface{}{"code": -32602, "message": "invalid params"}, 0
	})

	_, err := c.GetSlot(CommitmentFinalized)
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_SimulateTransaction(t *testing.T) {
	keys := generateKeys(t, 2)
	txn := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), []byte{0}))
	require.NoError(t, txn.Sign(keys[0]))

	c := newTestClient(t, func(method string, params json.RawMessage) (interface{}, map[string]interface{}, int) {
		assert.Equal(t, "simulateTransaction", method)

		var args []interface{}
		require.NoError(t, json.Unmarshal(params, &args))
		assert.Equal(t, base64.StdEncoding.EncodeToString(txn.Marshal()), args[0])

		return map[string]interface{}{
			"value": map[string]interface{}{
				"err":           map[string]interface{}{"InstructionError": []interface{}{0, map[string]interface{}{"Custom": 1}}},
				"logs":          []string{"Program log: hello"},
				"unitsConsumed": 1200,
			},
		}, nil, 0
	})

	result, err := c.SimulateTransaction(txn, CommitmentProcessed)
	require.NoError(t, err)
	require.NotNil(t, result.Err)
	assert.Equal(t, CustomError(1), *result.Err.InstructionError().CustomError())
	assert.Equal(t, []string{"Program log: hello"}, result.Logs)
	assert.EqualValues(t, 1200, result.UnitsConsumed)
}

func TestClient_SubmitTransaction(t *testing.T) {
	keys := generateKeys(t, 2)
	txn := NewTransaction(public(keys[0]), NewInstruction(public(keys[1]), []byte{0}))
	require.NoError(t, txn.Sign(keys[0]))

	var reject bool
	c := newTestClient(t, func(method string, _ json.RawMessage) (interface{}, map[string]interface{}, int) {
		assert.Equal(t, "sendTransaction", method)
		if reject {
			return nil, map[string]interface{}{
				"code":    -32002,
				"message": "Transaction simulation failed",
				"data": map[string]interface{}{
					"err": map[string]interface{}{"InstructionError": []interface{}{0, "MissingRequiredSignature"}},
				},
			}, 0
		}
		return base58.Encode(txn.Signatures[0][:]), nil, 0
	})

	sig, err := c.SubmitTransaction(txn, CommitmentConfirmed)
	require.NoError(t, err)
	assert.Equal(t, txn.Signatures[0], sig)

	reject = true
	_, err = c.SubmitTransaction(txn, CommitmentConfirmed)
	require.Error(t, err)
	txErr, ok := err.(*TransactionError)
	require.True(t, ok)
	assert.Equal(t, InstructionErrorMissingRequiredSignature, txErr.InstructionError().ErrorKey())
}

func TestClient_LocalLimiter(t *testing.T) {
	var calls int32
	c := newLimitedTestClient(t, func(method string, _ json.RawMessage) (interface{}, map[string]interface{}, int) {
		atomic.AddInt32(&calls, 1)
		return 10, nil, 0
	}, rate.NewKeyedLimiter(0.001, 1))

	slot, err := c.GetSlot(CommitmentFinalized)
	require.NoError(t, err)
	assert.EqualValues(t, 10, slot)

	// The limiter is keyed by method, so other methods are unaffected.
	lamports, err := c.GetMinimumBalanceForRentExemption(0)
	require.NoError(t, err)
	assert.EqualValues(t, 10, lamports)

	_, err = c.GetSlot(CommitmentFinalized)
	require.Error(t, err)
	assert.Equal(t, errRateLimited, errors.Cause(err))
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

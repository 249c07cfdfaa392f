package localnet

import (
	"context"
	"time"

	"github.com/code-payments/code-program/pkg/metrics"
	"github.com/code-payments/code-program/pkg/solana"
)

const (
	metricsStructName = "localnet.bank"

	transactionExecutedEventName    = "LocalnetTransactionExecuted"
	transactionDurationMetricName   = "Localnet/TransactionDuration"
	remoteAccountCacheHitMetricName = "Localnet/RemoteAccountCacheHit"
)

func recordTransactionEvent(ctx context.Context, exec *execution, txErr *solana.TransactionError, mode string, duration time.Duration) {
	kvPairs := map[string]interface{}{
		"id":             exec.id.String(),
		"mode":           mode,
		"instructions":   len(exec.txn.Message.Instructions),
		"units_consumed": exec.unitsConsumed,
		"success":        txErr == nil,
	}
	if txErr != nil {
		kvPairs["error"] = txErr.Error()
	}

	metrics.RecordEvent(ctx, transactionExecutedEventName, kvPairs)
	metrics.RecordDuration(ctx, transactionDurationMetricName, duration)
}

package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisabledApp(t *testing.T) *newrelic.Application {
	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName("metrics-test"),
		newrelic.ConfigEnabled(false),
	)
	require.NoError(t, err)
	return app
}

func TestContext(t *testing.T) {
	ctx := context.Background()

	_, ok := FromContext(ctx)
	assert.False(t, ok)
	assert.Equal(t, ctx, NewContext(ctx, nil))

	app := newDisabledApp(t)
	nr, ok := FromContext(NewContext(ctx, app))
	require.True(t, ok)
	assert.Equal(t, app, nr)
}

func TestRecordWithoutApplication(t *testing.T) {
	ctx := context.Background()

	assert.NotPanics(t, func() {
		RecordCount(ctx, "count", 1)
		RecordDuration(ctx, "duration", time.Second)
		RecordEvent(ctx, "event", map[string]interface{}{"k": "v"})

		tracer := TraceMethodCall(ctx, "pkg", "Method")
		assert.Nil(t, tracer)
		tracer.AddAttribute("k", "v")
		tracer.OnError(errors.New("failure"))
		tracer.End()

		txnCtx, end := StartTransaction(ctx, "txn")
		assert.Equal(t, ctx, txnCtx)
		end()
	})
}

func TestRecordWithApplication(t *testing.T) {
	ctx := NewContext(context.Background(), newDisabledApp(t))

	assert.NotPanics(t, func() {
		RecordCount(ctx, "count", 1)
		RecordDuration(ctx, "duration", time.Second)
		RecordEvent(ctx, "event", map[string]interface{}{"k": "v"})

		txnCtx, end := StartTransaction(ctx, "txn")
		defer end()

		tracer := TraceMethodCall(txnCtx, "pkg", "Method")
		tracer.AddAttribute("k", "v")
		tracer.OnError(errors.New("failure"))
		tracer.End()
	})
}

func TestForwardedMessage(t *testing.T) {
	logger := logrus.New()

	e := logrus.NewEntry(logger)
	e.Message = "plain"
	assert.Equal(t, "plain", forwardedMessage(e))

	e = logger.WithField("type", "localnet/bank").WithError(errors.New("boom"))
	e.Message = "failed"
	assert.Equal(t, `message="failed", error="boom", data={"type":"localnet/bank"}`, forwardedMessage(e))
}

func TestLogFormatter(t *testing.T) {
	logger := logrus.New()
	formatter := NewLogFormatter(newDisabledApp(t), &logrus.JSONFormatter{})

	e := logger.WithField("type", "test")
	e.Message = "hello"
	e.Level = logrus.InfoLevel

	out, err := formatter.Format(e)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"msg":"hello"`)
	assert.Equal(t, byte('\n'), out[len(out)-1])
}

package sqlframe

import (
	"bytes"
	"testing"

	"github.com/go-kit/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScalarFunctions(t *testing.T) {
	assert.Equal(t, 2.0, sqlFloor(2.7))
	assert.Equal(t, -3.0, sqlFloor(-2.1))
	assert.Equal(t, 4.0, sqlFloor(int64(4)))
	assert.Nil(t, sqlFloor(nil))
	assert.Nil(t, sqlFloor("x"))

	assert.Equal(t, 8.0, sqlPow(int64(2), int64(3)))
	assert.Equal(t, 0.5, sqlPow(2.0, int64(-1)))
	assert.Nil(t, sqlPow(nil, int64(1)))

	assert.Equal(t, int64(2), sqlMod(int64(-7), int64(3)))
	assert.Equal(t, int64(-2), sqlMod(int64(7), int64(-3)))
	assert.Equal(t, int64(0), sqlMod(int64(6), int64(3)))
	assert.Nil(t, sqlMod(int64(1), int64(0)))
	assert.Equal(t, 1.5, sqlMod(-0.5, int64(2)))
	assert.Nil(t, sqlMod(1.0, 0.0))
	assert.Nil(t, sqlMod(nil, int64(2)))
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.applyDefaults()
	assert.Equal(t, ":memory:", cfg.DSN)
	assert.Equal(t, 1000, cfg.InsertBatchSize)
	assert.Equal(t, 4096, cfg.ExportBatchSize)
	assert.NotNil(t, cfg.Logger)
	assert.NotNil(t, cfg.Allocator)
}

func TestEngineVersion(t *testing.T) {
	assert.Regexp(t, `^3\.\d+\.\d+`, EngineVersion())
}

func TestSessionMetricsAndLogging(t *testing.T) {
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer

	cfg := DefaultConfig()
	cfg.Registerer = reg
	cfg.Logger = log.NewLogfmtLogger(log.NewSyncWriter(&logs))
	cfg.InsertBatchSize = 2
	ctx, err := NewSessionContext(cfg)
	require.NoError(t, err)
	defer ctx.Close()

	df := testFrame(t, ctx)
	_, err = df.ToRows()
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(ctx.metrics.statements.WithLabelValues("query", "success")))
	assert.GreaterOrEqual(t, testutil.ToFloat64(ctx.metrics.statements.WithLabelValues("exec", "success")), 1.0)

	_, err = ctx.Table("missing")
	require.Error(t, err)

	bad := &DataFrame{ctx: ctx, query: "SELECT * FROM nope", schema: df.schema}
	_, err = bad.ToRows()
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(ctx.metrics.statements.WithLabelValues("query", "error")))

	n, err := testutil.GatherAndCount(reg, "galleon_sql_queries_total", "galleon_sql_query_duration_seconds")
	require.NoError(t, err)
	assert.Greater(t, n, 0)

	assert.Contains(t, logs.String(), "component=sqlframe")
	assert.Contains(t, logs.String(), `msg="registered table"`)
}

func TestSessionsAreIsolated(t *testing.T) {
	a := newTestSession(t)
	b := newTestSession(t)

	_, err := a.FromColumns(Column{Name: "x", Values: []int64{1}})
	require.NoError(t, err)
	assert.Len(t, a.Tables(), 1)
	assert.Empty(t, b.Tables())
}

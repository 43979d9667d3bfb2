package telemetry_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/erp/invoicing/internal/infrastructure/config"
	"github.com/erp/invoicing/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type meteredRow struct {
	ID   uint
	Name string
}

func openSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)
	return db
}

func TestOperationFromSQL(t *testing.T) {
	assert.Equal(t, "SELECT", telemetry.OperationFromSQL("  select * from invoices"))
	assert.Equal(t, "INSERT", telemetry.OperationFromSQL("INSERT INTO quotes"))
	assert.Equal(t, "UPDATE", telemetry.OperationFromSQL("update invoices set status='paid'"))
	assert.Equal(t, "DELETE", telemetry.OperationFromSQL("DELETE FROM payments"))
	assert.Equal(t, "OTHER", telemetry.OperationFromSQL("CREATE TABLE x"))
}

func TestNewQueryMetrics_NilMeter(t *testing.T) {
	_, err := telemetry.NewQueryMetrics(nil, 0, nil)
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func TestInstrumentDB_RecordsQueries(t *testing.T) {
	reader, mp := newManualMeter(t)
	db := openSQLite(t)
	require.NoError(t, db.AutoMigrate(&meteredRow{}))

	cfg := config.TelemetryConfig{DBSlowQueryThresh: time.Hour}
	require.NoError(t, telemetry.InstrumentDB(db, cfg, mp.Meter("db"), zap.NewNop()))

	ctx := context.Background()
	require.NoError(t, db.WithContext(ctx).Create(&meteredRow{Name: "a"}).Error)
	var rows []meteredRow
	require.NoError(t, db.WithContext(ctx).Find(&rows).Error)
	var missing meteredRow
	assert.ErrorIs(t, db.WithContext(ctx).First(&missing, 999).Error, gorm.ErrRecordNotFound)

	metrics := collect(t, reader)

	totals := map[string]int64{}
	for _, dp := range metrics["db_queries_total"].Data.(metricdata.Sum[int64]).DataPoints {
		op, _ := dp.Attributes.Value(telemetry.AttrDBOperation)
		totals[op.AsString()] = dp.Value
	}
	assert.Equal(t, int64(1), totals["INSERT"])
	assert.Equal(t, int64(2), totals["SELECT"])

	_, hasErrors := metrics["db_query_errors_total"]
	assert.False(t, hasErrors, "record-not-found is not a query error")
	_, hasSlow := metrics["db_slow_queries_total"]
	assert.False(t, hasSlow)

	pool, ok := metrics["db_pool_connections"]
	require.True(t, ok)
	assert.Len(t, pool.Data.(metricdata.Gauge[int64]).DataPoints, 3)
}

func TestQueryMetrics_SlowQueryLogged(t *testing.T) {
	reader, mp := newManualMeter(t)
	core, logs := observer.New(zap.WarnLevel)
	db := openSQLite(t)
	require.NoError(t, db.AutoMigrate(&meteredRow{}))

	plugin, err := telemetry.NewQueryMetrics(mp.Meter("db"), time.Nanosecond, zap.New(core))
	require.NoError(t, err)
	require.NoError(t, db.Use(plugin))

	var rows []meteredRow
	require.NoError(t, db.Find(&rows).Error)

	assert.Equal(t, 1, logs.FilterMessage("Slow query").Len())
	slow := collect(t, reader)["db_slow_queries_total"].Data.(metricdata.Sum[int64])
	require.Len(t, slow.DataPoints, 1)
	table, _ := slow.DataPoints[0].Attributes.Value(telemetry.AttrDBTable)
	assert.Equal(t, "metered_rows", table.AsString())
}

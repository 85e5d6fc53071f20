package telemetry

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/prisma-edge/query/planner"
)

func TestMetricsObserveOperations(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	update := planner.Operation{Label: "update"}
	probe := planner.Operation{Label: "probe"}
	m.Executed(update, 3*time.Millisecond)
	m.Skipped(probe)
	m.Skipped(probe)
	m.Suppressed(update, errors.New("no row"))
	m.Failed(planner.Operation{Label: "insert"}, errors.New("duplicate"))
	m.RecordCall("upsert", 10*time.Millisecond, nil)

	assert.Equal(t, Snapshot{Executed: 1, Skipped: 2, Suppressed: 1, Failed: 1, Calls: 1}, m.Snapshot())
	assert.Equal(t, 2.0, testutil.ToFloat64(m.statements.WithLabelValues("probe", OutcomeSkipped)))
}

func TestMetricsExposition(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)
	m.RecordCall("create", time.Millisecond, errors.New("boom"))

	expected := `
# HELP prisma_edge_calls_total Client calls by verb and status
# TYPE prisma_edge_calls_total counter
prisma_edge_calls_total{status="error",verb="create"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "prisma_edge_calls_total"))
}

func TestNewRejectsDuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledByDefaultIsZeroOverhead(t *testing.T) {
	mu.Lock()
	enabled = false
	registry = nil
	mu.Unlock()

	assert.False(t, IsEnabled())
	assert.Nil(t, GetRegistry())
	RecordDecision("modify") // must not panic when disabled
}

func TestInitRegistryRecordsDecisions(t *testing.T) {
	reg := InitRegistry()
	require.NotNil(t, reg)
	require.True(t, IsEnabled())

	RecordDecision("modify")
	RecordDecision("modify")
	RecordDecision("add")

	assert.Equal(t, float64(2), testutil.ToFloat64(decisions.WithLabelValues("modify")))
	assert.Equal(t, float64(1), testutil.ToFloat64(decisions.WithLabelValues("add")))
}

func TestRecordApplyAndConflict(t *testing.T) {
	InitRegistry()

	RecordApply("delete", "applied")
	RecordConflict()

	assert.Equal(t, float64(1), testutil.ToFloat64(applies.WithLabelValues("delete", "applied")))
	assert.Equal(t, float64(1), testutil.ToFloat64(conflicts))
}

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordFileIngested(t *testing.T) {
	c, _ := NewCollectorForTesting()

	c.RecordFileIngested("success", 8760, false)
	c.RecordFileIngested("success", 744, true)
	c.RecordFileIngested("failed", 0, false)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.IngestionFilesTotal.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.IngestionFilesTotal.WithLabelValues("failed")))
	assert.Equal(t, 9504.0, testutil.ToFloat64(c.IngestionRecordsTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.PartialYearFiles))
}

func TestCollector_APICounters(t *testing.T) {
	c, _ := NewCollectorForTesting()

	c.RecordAPIRequest("/api/datasets", "GET", "200")
	c.RecordAPIRequest("/api/datasets", "GET", "200")
	c.RecordAPIError("not_found", "/api/datasets/{id}")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.APIRequestsTotal.WithLabelValues("/api/datasets", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.APIErrorsTotal.WithLabelValues("not_found", "/api/datasets/{id}")))
}

func TestCollector_DatasetsGauge(t *testing.T) {
	c, _ := NewCollectorForTesting()
	c.SetDatasetsLoaded(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(c.DatasetsLoaded))
}

func TestTimer_ObserveDuration(t *testing.T) {
	c, reg := NewCollectorForTesting()

	timer := c.TimeComputation("pmv_field")
	time.Sleep(time.Millisecond)
	d := timer.ObserveDuration()

	assert.Greater(t, d, time.Duration(0))
	assert.Equal(t, 1, testutil.CollectAndCount(c.ComputationDuration))

	families, err := reg.Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestTimer_NilObserver(t *testing.T) {
	c, _ := NewCollectorForTesting()
	assert.NotPanics(t, func() { c.NewTimer(nil).ObserveDuration() })
}

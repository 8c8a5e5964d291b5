package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector(t *testing.T) {
	c := NewCollector()
	c.SetPending(3)
	c.ObserveFile(false, 12.5, 2*time.Second)
	c.ObserveFile(true, 0, time.Second)
	c.ObserveCheckpoint(true)
	c.ObserveCheckpoint(false)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues("success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.files.WithLabelValues("failure")))
	assert.Equal(t, 12.5, testutil.ToFloat64(c.audioSeconds))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.batches))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.mergeFailures))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.pending))

	path := filepath.Join(t.TempDir(), "run.prom")
	require.NoError(t, c.WriteTextfile(path))
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `call_transcriber_files_total{outcome="success"} 1`)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	c.ObserveFile(false, 1, time.Second)
	c.ObserveCheckpoint(true)
	c.SetPending(1)
	assert.NoError(t, c.WriteTextfile("/nonexistent/dir/file.prom"))
}

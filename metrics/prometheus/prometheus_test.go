package prometheus

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absfs/smbprovider"
)

var _ smbprovider.Metrics = (*Metrics)(nil)

func TestMetrics_ObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("stat", 2*time.Millisecond, nil)
	m.ObserveOperation("stat", 3*time.Millisecond, nil)
	m.ObserveOperation("read", time.Millisecond, errors.New("boom"))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("stat", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.operationsTotal.WithLabelValues("read", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.operationDuration))
}

func TestMetrics_ObserveBytes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveBytes("write", 10)
	m.ObserveBytes("write", 5)
	m.ObserveBytes("write", 0)
	m.ObserveBytes("read", -1)

	expected := `
# HELP smbprovider_bytes_total Total payload bytes moved by read and write
# TYPE smbprovider_bytes_total counter
smbprovider_bytes_total{op="write"} 15
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "smbprovider_bytes_total"))
}

func TestMetrics_Nil(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("stat", time.Millisecond, nil)
	m.ObserveBytes("read", 1)
}

func TestMetrics_WithProvider(t *testing.T) {
	reg := prometheus.NewRegistry()
	backend := smbprovider.NewMockBackend()
	backend.AddFile("a.txt", []byte("abc"))

	cfg := &smbprovider.Config{
		Host:     "fileserver",
		Share:    "files",
		Username: "jdoe",
		Password: "secret",
		Metrics:  New(reg),
	}
	p, err := smbprovider.NewWithFactory("/", cfg, smbprovider.NewMockConnectionFactory(backend))
	require.NoError(t, err)
	defer p.Close()

	var sb strings.Builder
	require.NoError(t, p.Read("/a.txt", &sb, 0))

	expected := `
# HELP smbprovider_bytes_total Total payload bytes moved by read and write
# TYPE smbprovider_bytes_total counter
smbprovider_bytes_total{op="read"} 3
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "smbprovider_bytes_total"))
}

package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	r := prometheus.NewRegistry()
	Register(r)
	Register(r)
	assert.Equal(t, prometheus.Registerer(r), GetRegisterer())

	SerdeOperations.WithLabelValues("Connection", DecodeLabel, SuccessLabel).Inc()
	families, err := r.Gather()
	require.NoError(t, err)

	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "querydesk_serde_operations_total")
}

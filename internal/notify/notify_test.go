package notify

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lk2023060901/querydesk-go/pkg/metrics"
	"github.com/lk2023060901/querydesk-go/pkg/serde"
)

type broken struct {
	Name string
}

func TestLogNotifier(t *testing.T) {
	registry := serde.NewRegistry()
	n := Install(registry)

	var got []*serde.Error
	n.OnError(func(err *serde.Error) { got = append(got, err) })

	before := testutil.ToFloat64(metrics.SerdeConfigErrors.WithLabelValues("broken"))
	for i := 0; i < 2; i++ {
		_, err := serde.Register[broken](registry, serde.Field("Missing", serde.String))
		require.Error(t, err)
		assert.True(t, serde.IsConfig(err))
	}

	require.Len(t, got, 2)
	assert.Equal(t, "Missing", got[0].Property)
	assert.Equal(t, 1, n.Seen())
	assert.Equal(t, before+2, testutil.ToFloat64(metrics.SerdeConfigErrors.WithLabelValues("broken")))
}

package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStripScheme(t *testing.T) {
	assert.Equal(t, "collector:4318", stripScheme("https://collector:4318"))
	assert.Equal(t, "collector:4318", stripScheme("http://collector:4318"))
	assert.Equal(t, "collector:4317", stripScheme("collector:4317"))
}

func TestNewSampler(t *testing.T) {
	assert.Contains(t, newSampler(1).Description(), "AlwaysOnSampler")
	assert.Contains(t, newSampler(0).Description(), "AlwaysOffSampler")
	assert.Contains(t, newSampler(0.25).Description(), "TraceIDRatioBased{0.25}")
	assert.Contains(t, newSampler(2).Description(), "ParentBased")
}

func TestNewResource_InstanceID(t *testing.T) {
	a, err := newResource(NewDefaultConfig())
	require.NoError(t, err)
	b, err := newResource(NewDefaultConfig())
	require.NoError(t, err)

	idA, ok := a.Set().Value("service.instance.id")
	require.True(t, ok)
	idB, _ := b.Set().Value("service.instance.id")
	assert.Len(t, idA.AsString(), 36)
	assert.NotEqual(t, idA.AsString(), idB.AsString())
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Metrics.Enabled = false

	mp, err := newMeterProvider(t.Context(), cfg, nil, &options{})
	require.NoError(t, err)
	assert.Nil(t, mp)
}

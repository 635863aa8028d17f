package states

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-states/pkg/activity"
	"github.com/goliatone/go-states/pkg/config"
	"github.com/goliatone/go-states/pkg/restore"
)

func TestNewRegistryFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Registry.Capacity = 2
	registry := NewRegistryFromConfig(cfg, nil, nil)
	assert.Equal(t, 2, registry.Capacity())

	assert.Equal(t, DefaultCapacity, NewRegistryFromConfig(nil, nil, nil).Capacity())
}

func TestStateOptionsFromConfigDisablesRestoration(t *testing.T) {
	store := restore.NewStore()
	require.NoError(t, store.Put("c", 9))

	cfg := config.Default()
	cfg.Restoration.Enabled = false
	opts := append(StateOptionsFromConfig(cfg, nil, nil), WithStore(store), WithKey("c"))
	assert.Equal(t, 1, New(1, opts...).Value())

	cfg.Restoration.Enabled = true
	opts = append(StateOptionsFromConfig(cfg, nil, nil), WithStore(store), WithKey("c"))
	assert.Equal(t, 9, New(1, opts...).Value())
}

func TestEmitterFromConfig(t *testing.T) {
	capture := &activity.CaptureHook{}
	cfg := config.Default()

	assert.False(t, EmitterFromConfig(cfg, capture).Enabled())

	cfg.Activity.Enabled = true
	cfg.Activity.Channel = "devtools"
	emitter := EmitterFromConfig(cfg, capture)
	require.True(t, emitter.Enabled())

	counter := newCounter(restore.NewStore(), 0, WithKey("c"), WithStateEmitter(emitter))
	require.NoError(t, counter.Set(1))
	require.Equal(t, []string{activity.VerbStateSet}, capture.Verbs())
	assert.Equal(t, "devtools", capture.Events[0].Channel)
	assert.Equal(t, "c", capture.Events[0].ObjectID)
	assert.Equal(t, 1, capture.Events[0].Metadata["value"])
}

func TestNewInspectorFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Query.Engine = EngineCEL
	inspector, err := NewInspectorFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, EngineCEL, inspector.Engine())

	cfg.Query.Engine = "lua"
	_, err = NewInspectorFromConfig(cfg, nil)
	assert.ErrorIs(t, err, ErrNoEvaluator)
}

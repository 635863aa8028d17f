package states

import (
	"github.com/goliatone/go-states/pkg/activity"
	"github.com/goliatone/go-states/pkg/config"
)

// EmitterFromConfig builds an activity emitter for hooks. It is disabled
// unless cfg.Activity.Enabled is set and at least one hook is given.
func EmitterFromConfig(cfg *config.Config, hooks ...activity.ActivityHook) *activity.Emitter {
	if cfg == nil {
		cfg = config.Default()
	}
	return activity.NewEmitter(activity.Hooks(hooks), activity.Config{
		Enabled: cfg.Activity.Enabled,
		Channel: cfg.Activity.Channel,
	})
}

// NewRegistryFromConfig builds a registry with the configured capacity.
func NewRegistryFromConfig(cfg *config.Config, logger Logger, emitter *activity.Emitter) *Registry {
	if cfg == nil {
		cfg = config.Default()
	}
	return NewRegistry(
		WithCapacity(cfg.Registry.Capacity),
		WithRegistryLogger(logger),
		WithRegistryEmitter(emitter),
	)
}

// StateOptionsFromConfig returns the options every container built under cfg
// should share. Call-site options appended after these take precedence.
func StateOptionsFromConfig(cfg *config.Config, logger Logger, emitter *activity.Emitter) []StateOption {
	if cfg == nil {
		cfg = config.Default()
	}
	opts := []StateOption{
		WithStateLogger(logger),
		WithStateEmitter(emitter),
	}
	if !cfg.Restoration.Enabled {
		opts = append(opts, WithoutRestoration())
	}
	return opts
}

// NewInspectorFromConfig builds an inspector for the configured query engine
// with a fresh program cache. Extra options are applied after the engine
// selection.
func NewInspectorFromConfig(cfg *config.Config, logger Logger, opts ...InspectorOption) (*Inspector, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	base := []InspectorOption{
		WithEngine(cfg.Query.Engine),
		WithProgramCache(NewProgramCache()),
		WithEvaluatorLogger(ZapEvaluatorLogger(logger)),
	}
	return NewInspector(append(base, opts...)...)
}

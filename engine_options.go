package states

// EngineOption configures any of the built-in query engines.
type EngineOption func(*engineConfig)

type engineConfig struct {
	cache   ProgramCache
	helpers *HelperRegistry
}

// EngineCache caches compiled programs. Do not share one cache between
// engines; cached programs are engine specific.
func EngineCache(cache ProgramCache) EngineOption {
	return func(cfg *engineConfig) {
		cfg.cache = cache
	}
}

// EngineHelpers exposes helpers to expressions.
func EngineHelpers(helpers *HelperRegistry) EngineOption {
	return func(cfg *engineConfig) {
		cfg.helpers = helpers.snapshot()
	}
}

func newEngineConfig(opts []EngineOption) engineConfig {
	cfg := engineConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// cached returns the program stored under key when it has type P.
func cached[P any](cfg engineConfig, key string) (P, bool) {
	var zero P
	if cfg.cache == nil {
		return zero, false
	}
	raw, ok := cfg.cache.Get(key)
	if !ok {
		return zero, false
	}
	program, ok := raw.(P)
	return program, ok
}

func (cfg engineConfig) store(key string, program any) {
	if cfg.cache != nil {
		cfg.cache.Set(key, program)
	}
}

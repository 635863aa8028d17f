//go:build !js_eval

package states

// NewJSEvaluator returns nil unless built with the js_eval tag.
func NewJSEvaluator(opts ...EngineOption) Evaluator {
	_ = newEngineConfig(opts)
	return nil
}

// JSEvaluatorAvailable reports whether the goja engine is compiled in.
func JSEvaluatorAvailable() bool {
	return false
}

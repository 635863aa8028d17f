package states

import "time"

// EvaluatorLogEvent describes one query evaluation.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Scope    string
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records query evaluations.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// ZapEvaluatorLogger writes evaluations to logger at debug level, failures at
// warn level.
func ZapEvaluatorLogger(logger Logger) EvaluatorLogger {
	logger = loggerOrNop(logger)
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		if event.Err != nil {
			logger.Warnw("states: query failed",
				"engine", event.Engine,
				"expr", event.Expr,
				"scope", event.Scope,
				"duration", event.Duration,
				"error", event.Err,
			)
			return
		}
		logger.Debugw("states: query evaluated",
			"engine", event.Engine,
			"expr", event.Expr,
			"scope", event.Scope,
			"duration", event.Duration,
		)
	})
}

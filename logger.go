package states

import "go.uber.org/zap"

// Logger records runtime diagnostics. *zap.SugaredLogger satisfies it.
type Logger interface {
	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)
}

var nopLogger Logger = zap.NewNop().Sugar()

func loggerOrNop(logger Logger) Logger {
	if logger == nil {
		return nopLogger
	}
	return logger
}

package logging

import "go.uber.org/zap"

// ZapLogger adapts a *zap.SugaredLogger to the Logger capability. Sessions
// that do not supply their own Logger use NopLogger, not this adapter.
type ZapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger builds a ZapLogger from a production zap configuration. A nil
// base constructs a new production logger.
func NewZapLogger(base *zap.Logger) (*ZapLogger, error) {
	if base == nil {
		built, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		base = built
	}
	return &ZapLogger{sugar: base.Sugar()}, nil
}

func (z *ZapLogger) Debugw(msg string, keysAndValues ...any) { z.sugar.Debugw(msg, keysAndValues...) }
func (z *ZapLogger) Infow(msg string, keysAndValues ...any)  { z.sugar.Infow(msg, keysAndValues...) }
func (z *ZapLogger) Warnw(msg string, keysAndValues ...any)  { z.sugar.Warnw(msg, keysAndValues...) }
func (z *ZapLogger) Errorw(msg string, keysAndValues ...any) { z.sugar.Errorw(msg, keysAndValues...) }

// Sync flushes any buffered log entries, matching zap's own Sync contract.
func (z *ZapLogger) Sync() error {
	return z.sugar.Sync()
}
